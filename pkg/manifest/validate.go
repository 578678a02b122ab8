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
	"path"

	"github.com/robfig/cron/v3"
	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/apimachinery/pkg/util/validation"
)

var (
	ErrInvalidName          = errors.New("Invalid job name")
	ErrInvalidSchedule      = errors.New("Invalid cron schedule")
	ErrInvalidQuantity      = errors.New("Invalid resource quantity")
	ErrLimitBelowRequest    = errors.New("Resource limit below request")
	ErrUnknownRestartPolicy = errors.New("Unknown restart policy")
	ErrInvalidWorkingDir    = errors.New("Invalid working directory")
	ErrDuplicateEnvVar      = errors.New("Duplicate environment variable")
	ErrInvalidHistoryLimit  = errors.New("Invalid history limit")
)

// scheduleParser accepts exactly the five-field cron syntax the cluster
// understands. Descriptors like @daily are rejected on purpose.
var scheduleParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// Validate checks the semantic invariants of a parsed spec:
// a dns label safe name, a five-field cron schedule, parsable positive
// resource quantities with limits >= requests, an absolute working directory,
// unique environment variable names and a known restart policy.
func (spec *ScheduledJobSpec) Validate() error {
	if errs := validation.IsDNS1123Label(spec.Name); len(errs) != 0 {
		return fmt.Errorf("%w: '%s': %s", ErrInvalidName, spec.Name, errs[0])
	}
	if _, err := scheduleParser.Parse(spec.Schedule); err != nil {
		return fmt.Errorf("%w: '%s': %s", ErrInvalidSchedule, spec.Schedule, err)
	}
	if spec.HistoryRetention != nil && *spec.HistoryRetention < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidHistoryLimit, *spec.HistoryRetention)
	}
	if spec.WorkingDir != "" && !path.IsAbs(spec.WorkingDir) {
		return fmt.Errorf("%w: '%s' is not absolute", ErrInvalidWorkingDir, spec.WorkingDir)
	}
	if err := validateResources(spec.Resources); err != nil {
		return err
	}
	if err := validateEnv(spec.Env); err != nil {
		return err
	}
	switch spec.RestartPolicy {
	case "", RestartPolicyNever, RestartPolicyOnFailure, RestartPolicyAlways:
	default:
		return fmt.Errorf("%w: '%s'", ErrUnknownRestartPolicy, spec.RestartPolicy)
	}
	return nil
}

func validateResources(resources Resources) error {
	requests, err := parseQuantities(resources.Requests)
	if err != nil {
		return err
	}
	limits, err := parseQuantities(resources.Limits)
	if err != nil {
		return err
	}
	for kind, limit := range limits {
		request, found := requests[kind]
		if !found {
			continue
		}
		if limit.Cmp(request) < 0 {
			return fmt.Errorf(
				"%w: %s limit '%s' is below request '%s'",
				ErrLimitBelowRequest,
				kind,
				limit.String(),
				request.String(),
			)
		}
	}
	return nil
}

func parseQuantities(list map[string]string) (map[string]resource.Quantity, error) {
	quantities := make(map[string]resource.Quantity, len(list))
	for kind, value := range list {
		quantity, err := resource.ParseQuantity(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s '%s': %s", ErrInvalidQuantity, kind, value, err)
		}
		if quantity.Sign() <= 0 {
			return nil, fmt.Errorf(
				"%w: %s '%s' is not positive",
				ErrInvalidQuantity,
				kind,
				value,
			)
		}
		quantities[kind] = quantity
	}
	return quantities, nil
}

func validateEnv(env []EnvVar) error {
	seen := make(map[string]struct{}, len(env))
	for _, envVar := range env {
		if envVar.Name == "" {
			return missingFieldError("env.name")
		}
		if _, found := seen[envVar.Name]; found {
			return fmt.Errorf("%w: '%s'", ErrDuplicateEnvVar, envVar.Name)
		}
		seen[envVar.Name] = struct{}{}
	}
	return nil
}
