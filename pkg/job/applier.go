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

package job

import (
	"context"
	"os"

	"github.com/go-logr/logr"
	jobsv1 "github.com/kharf/patrolcd/api/v1"
	"github.com/kharf/patrolcd/pkg/kube"
	"github.com/kharf/patrolcd/pkg/manifest"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	runtime "k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/yaml"
)

// Applier loads a declarative scheduled job manifest, validates it and
// registers the resulting CronJob on a Kubernetes cluster.
// The pipeline is linear and synchronous. Failures abort the apply
// immediately, no partial state is committed by patrolcd itself.
type Applier struct {
	Log        logr.Logger
	KubeClient *kube.Client
	Namespace  string
}

// Handle identifies a scheduled job registered on the cluster.
type Handle struct {
	Name            string
	Namespace       string
	Schedule        string
	ResourceVersion string
}

// Load reads and parses a manifest file and checks its invariants.
// It performs no cluster access.
func Load(manifestPath string) (*manifest.ScheduledJobSpec, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, err
	}
	spec, err := manifest.Parse(data)
	if err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// Render serializes the CronJob a spec would be registered as.
func Render(spec *manifest.ScheduledJobSpec, ns string) ([]byte, error) {
	return yaml.Marshal(jobsv1.CronJob(spec, ns))
}

// Apply runs the parse -> validate -> render -> submit pipeline for a single
// manifest file and returns a handle to the registered job.
func (applier Applier) Apply(ctx context.Context, manifestPath string) (*Handle, error) {
	log := applier.Log
	spec, err := Load(manifestPath)
	if err != nil {
		log.Error(err, "Unable to load job manifest", "manifest", manifestPath)
		return nil, err
	}

	cronJob := jobsv1.CronJob(spec, applier.Namespace)
	obj, err := runtime.DefaultUnstructuredConverter.ToUnstructured(cronJob)
	if err != nil {
		return nil, err
	}

	applied, err := applier.KubeClient.Apply(ctx, &unstructured.Unstructured{Object: obj})
	if err != nil {
		log.Error(
			err,
			"Unable to register job",
			"job",
			spec.Name,
			"namespace",
			applier.Namespace,
		)
		return nil, err
	}

	log.Info(
		"Registered job",
		"job",
		applied.GetName(),
		"namespace",
		applied.GetNamespace(),
		"schedule",
		spec.Schedule,
	)
	return &Handle{
		Name:            applied.GetName(),
		Namespace:       applied.GetNamespace(),
		Schedule:        spec.Schedule,
		ResourceVersion: applied.GetResourceVersion(),
	}, nil
}
