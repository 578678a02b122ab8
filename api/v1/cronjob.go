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

package v1

import (
	"github.com/kharf/patrolcd/pkg/manifest"
	batchv1 "k8s.io/api/batch/v1"
	v1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Labels returns the common labels attached to every object patrolcd owns.
func Labels(name string) map[string]string {
	return map[string]string{
		"app.kubernetes.io/name":       name,
		"app.kubernetes.io/managed-by": "patrolcd",
	}
}

// CronJob renders a validated scheduled job spec into a batch/v1 CronJob.
// Quantities are parsed with MustParse, so the spec has to be validated before.
func CronJob(spec *manifest.ScheduledJobSpec, ns string) *batchv1.CronJob {
	restartPolicy := v1.RestartPolicyNever
	if spec.RestartPolicy != "" {
		restartPolicy = v1.RestartPolicy(spec.RestartPolicy)
	}
	return &batchv1.CronJob{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "batch/v1",
			Kind:       "CronJob",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:      spec.Name,
			Namespace: ns,
			Labels:    Labels(spec.Name),
		},
		Spec: batchv1.CronJobSpec{
			Schedule:                   spec.Schedule,
			SuccessfulJobsHistoryLimit: spec.HistoryRetention,
			JobTemplate: batchv1.JobTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels: Labels(spec.Name),
				},
				Spec: batchv1.JobSpec{
					Template: v1.PodTemplateSpec{
						ObjectMeta: metav1.ObjectMeta{
							Labels: Labels(spec.Name),
						},
						Spec: v1.PodSpec{
							RestartPolicy: restartPolicy,
							Containers: []v1.Container{
								{
									Name:       spec.Name,
									Image:      spec.Image,
									WorkingDir: spec.WorkingDir,
									Command:    spec.Command,
									Args:       spec.Args,
									Env:        envVars(spec.Env),
									Resources: v1.ResourceRequirements{
										Requests: resourceList(spec.Resources.Requests),
										Limits:   resourceList(spec.Resources.Limits),
									},
								},
							},
						},
					},
				},
			},
		},
	}
}

func envVars(env []manifest.EnvVar) []v1.EnvVar {
	if len(env) == 0 {
		return nil
	}
	vars := make([]v1.EnvVar, 0, len(env))
	for _, envVar := range env {
		vars = append(vars, v1.EnvVar{
			Name:  envVar.Name,
			Value: envVar.Value,
		})
	}
	return vars
}

func resourceList(quantities map[string]string) v1.ResourceList {
	if len(quantities) == 0 {
		return nil
	}
	list := make(v1.ResourceList, len(quantities))
	for kind, value := range quantities {
		list[v1.ResourceName(kind)] = resource.MustParse(value)
	}
	return list
}
