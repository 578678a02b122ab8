// Copyright 2024 kharf
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package manifest_test

import (
	"testing"

	"github.com/kharf/patrolcd/pkg/manifest"
	"gotest.tools/v3/assert"
)

func patrolBotSpec() *manifest.ScheduledJobSpec {
	historyRetention := int32(0)
	return &manifest.ScheduledJobSpec{
		Name:             "patrol-bot",
		Schedule:         "28 6 */4 * *",
		HistoryRetention: &historyRetention,
		Image:            "docker-registry.tools.wmflabs.org/toolforge-python311-sssd-base:latest",
		WorkingDir:       "/data/project/patrol-bot",
		Command:          []string{"/usr/bin/python3"},
		Args:             []string{"patrol.py"},
		Resources: manifest.Resources{
			Requests: map[string]string{
				"memory": "200Mi",
				"cpu":    "100m",
			},
			Limits: map[string]string{
				"memory": "500Mi",
				"cpu":    "100m",
			},
		},
		Env: []manifest.EnvVar{
			{Name: "HOME", Value: "/data/project/patrol-bot"},
			{Name: "PYTHONUNBUFFERED", Value: "1"},
		},
		RestartPolicy: manifest.RestartPolicyNever,
	}
}

func TestScheduledJobSpec_Validate(t *testing.T) {
	testCases := []struct {
		name        string
		mutate      func(spec *manifest.ScheduledJobSpec)
		expectedErr error
	}{
		{
			name:        "Success",
			mutate:      func(spec *manifest.ScheduledJobSpec) {},
			expectedErr: nil,
		},
		{
			name: "FourFieldSchedule",
			mutate: func(spec *manifest.ScheduledJobSpec) {
				spec.Schedule = "28 6 */4 *"
			},
			expectedErr: manifest.ErrInvalidSchedule,
		},
		{
			name: "Descriptor",
			mutate: func(spec *manifest.ScheduledJobSpec) {
				spec.Schedule = "@daily"
			},
			expectedErr: manifest.ErrInvalidSchedule,
		},
		{
			name: "MinuteOutOfRange",
			mutate: func(spec *manifest.ScheduledJobSpec) {
				spec.Schedule = "61 6 */4 * *"
			},
			expectedErr: manifest.ErrInvalidSchedule,
		},
		{
			name: "CpuLimitBelowRequest",
			mutate: func(spec *manifest.ScheduledJobSpec) {
				spec.Resources.Limits["cpu"] = "50m"
			},
			expectedErr: manifest.ErrLimitBelowRequest,
		},
		{
			name: "MemoryLimitBelowRequest",
			mutate: func(spec *manifest.ScheduledJobSpec) {
				spec.Resources.Limits["memory"] = "100Mi"
			},
			expectedErr: manifest.ErrLimitBelowRequest,
		},
		{
			name: "LimitWithoutRequest",
			mutate: func(spec *manifest.ScheduledJobSpec) {
				delete(spec.Resources.Requests, "cpu")
			},
			expectedErr: nil,
		},
		{
			name: "UnparsableQuantity",
			mutate: func(spec *manifest.ScheduledJobSpec) {
				spec.Resources.Requests["memory"] = "many"
			},
			expectedErr: manifest.ErrInvalidQuantity,
		},
		{
			name: "ZeroQuantity",
			mutate: func(spec *manifest.ScheduledJobSpec) {
				spec.Resources.Requests["cpu"] = "0"
			},
			expectedErr: manifest.ErrInvalidQuantity,
		},
		{
			name: "UnknownRestartPolicy",
			mutate: func(spec *manifest.ScheduledJobSpec) {
				spec.RestartPolicy = "Sometimes"
			},
			expectedErr: manifest.ErrUnknownRestartPolicy,
		},
		{
			name: "OnFailureRestartPolicy",
			mutate: func(spec *manifest.ScheduledJobSpec) {
				spec.RestartPolicy = manifest.RestartPolicyOnFailure
			},
			expectedErr: nil,
		},
		{
			name: "EmptyName",
			mutate: func(spec *manifest.ScheduledJobSpec) {
				spec.Name = ""
			},
			expectedErr: manifest.ErrInvalidName,
		},
		{
			name: "NameNotDNSLabelSafe",
			mutate: func(spec *manifest.ScheduledJobSpec) {
				spec.Name = "Patrol_Bot"
			},
			expectedErr: manifest.ErrInvalidName,
		},
		{
			name: "RelativeWorkingDir",
			mutate: func(spec *manifest.ScheduledJobSpec) {
				spec.WorkingDir = "project/patrol-bot"
			},
			expectedErr: manifest.ErrInvalidWorkingDir,
		},
		{
			name: "DuplicateEnvVar",
			mutate: func(spec *manifest.ScheduledJobSpec) {
				spec.Env = append(spec.Env, manifest.EnvVar{Name: "HOME", Value: "/tmp"})
			},
			expectedErr: manifest.ErrDuplicateEnvVar,
		},
		{
			name: "NegativeHistoryLimit",
			mutate: func(spec *manifest.ScheduledJobSpec) {
				historyRetention := int32(-1)
				spec.HistoryRetention = &historyRetention
			},
			expectedErr: manifest.ErrInvalidHistoryLimit,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			spec := patrolBotSpec()
			tc.mutate(spec)
			err := spec.Validate()
			if tc.expectedErr == nil {
				assert.NilError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.expectedErr)
			}
		})
	}
}

func TestParse_Validate(t *testing.T) {
	spec, err := manifest.Parse([]byte(patrolBotDocument))
	assert.NilError(t, err)
	assert.NilError(t, spec.Validate())
}
