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

package manifest

import (
	"errors"
	"fmt"

	"sigs.k8s.io/yaml"
)

var (
	ErrWrongManifestFormat = errors.New("Wrong manifest format")
	ErrMissingField        = errors.New("Missing required field")
)

// RestartPolicy tells the cluster what to do with a finished or failed job container.
type RestartPolicy string

const (
	RestartPolicyNever     RestartPolicy = "Never"
	RestartPolicyOnFailure RestartPolicy = "OnFailure"
	RestartPolicyAlways    RestartPolicy = "Always"
)

// EnvVar is a single environment variable passed to the job container.
type EnvVar struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Resources holds requested and maximum permitted compute resources
// as Kubernetes quantity strings, keyed by resource kind (memory, cpu).
type Resources struct {
	Requests map[string]string `json:"requests,omitempty"`
	Limits   map[string]string `json:"limits,omitempty"`
}

// ScheduledJobSpec is the Go equivalent of the declarative scheduled job document.
// It describes one recurring containerized invocation and is handed to the cluster
// as a batch/v1 CronJob. The cluster owns scheduling, retries and resource
// enforcement once the spec is registered.
type ScheduledJobSpec struct {
	Name string `json:"name"`

	// Five-field cron expression (minute, hour, day-of-month, month, day-of-week).
	Schedule string `json:"schedule"`

	// Number of completed job records the cluster keeps around.
	HistoryRetention *int32 `json:"successfulJobsHistoryLimit,omitempty"`

	Image      string   `json:"image"`
	WorkingDir string   `json:"workingDir,omitempty"`
	Command    []string `json:"command"`
	Args       []string `json:"args,omitempty"`

	Resources Resources `json:"resources,omitempty"`

	// Order is kept for readability, names must be unique.
	Env []EnvVar `json:"env,omitempty"`

	RestartPolicy RestartPolicy `json:"restartPolicy,omitempty"`
}

// Parse decodes a declarative scheduled job document.
// It fails when the document is not well formed yaml, contains unknown fields
// or misses one of the required fields schedule, image and command.
func Parse(data []byte) (*ScheduledJobSpec, error) {
	var spec ScheduledJobSpec
	if err := yaml.UnmarshalStrict(data, &spec); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWrongManifestFormat, err)
	}
	if spec.Schedule == "" {
		return nil, missingFieldError("schedule")
	}
	if spec.Image == "" {
		return nil, missingFieldError("image")
	}
	if len(spec.Command) == 0 {
		return nil, missingFieldError("command")
	}
	return &spec, nil
}

// Marshal serializes a spec back to its document form.
// Marshal and Parse are inverse to each other.
func (spec *ScheduledJobSpec) Marshal() ([]byte, error) {
	return yaml.Marshal(spec)
}

func missingFieldError(field string) error {
	return fmt.Errorf("%w: %s field not found", ErrMissingField, field)
}
