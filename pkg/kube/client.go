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

package kube

import (
	"context"
	"errors"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	v1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/client-go/discovery"
	memory "k8s.io/client-go/discovery/cached"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/restmapper"
)

const (
	ClientName = "patrolcd"
)

var (
	ErrSubmission = errors.New("Cluster rejected object or is unreachable")
)

// Client connects to a Kubernetes cluster to register declarative objects.
// It is a plain pass-through to the api server. Retry and backoff of the
// scheduled job itself is owned by the cluster, not by this client.
type Client struct {
	dynamicClient dynamic.Interface
	restMapper    meta.RESTMapper
	fieldManager  string
}

func NewClient(config *rest.Config) (*Client, error) {
	dynamicClient, err := dynamic.NewForConfig(config)
	if err != nil {
		return nil, err
	}

	discoveryClient, err := discovery.NewDiscoveryClientForConfig(config)
	if err != nil {
		return nil, err
	}

	restMapper := restmapper.NewDeferredDiscoveryRESTMapper(
		memory.NewMemCacheClient(discoveryClient),
	)
	return NewClientFor(dynamicClient, restMapper), nil
}

// NewClientFor constructs a Client from an existing dynamic client and rest mapper.
// Tests use it to run against a fake cluster.
func NewClientFor(dynamicClient dynamic.Interface, restMapper meta.RESTMapper) *Client {
	return &Client{
		dynamicClient: dynamicClient,
		restMapper:    restMapper,
		fieldManager:  ClientName,
	}
}

// Apply registers an object on the cluster and takes ownership of it.
// An already existing object is overwritten. Every failure surfaces
// immediately as an ErrSubmission, nothing is retried here.
func (client *Client) Apply(
	ctx context.Context,
	obj *unstructured.Unstructured,
) (*unstructured.Unstructured, error) {
	gvk := obj.GroupVersionKind()
	mapping, err := client.restMapper.RESTMapping(gvk.GroupKind(), gvk.Version)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSubmission, err)
	}

	var resourceInterface dynamic.ResourceInterface
	if mapping.Scope.Name() == meta.RESTScopeNameNamespace {
		resourceInterface = client.dynamicClient.Resource(mapping.Resource).
			Namespace(obj.GetNamespace())
	} else {
		resourceInterface = client.dynamicClient.Resource(mapping.Resource)
	}

	applied, err := resourceInterface.Create(ctx, obj, v1.CreateOptions{
		FieldManager: client.fieldManager,
	})
	if err != nil {
		if !apierrors.IsAlreadyExists(err) {
			return nil, fmt.Errorf("%w: %s", ErrSubmission, err)
		}
		current, err := resourceInterface.Get(ctx, obj.GetName(), v1.GetOptions{})
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrSubmission, err)
		}
		obj.SetResourceVersion(current.GetResourceVersion())
		applied, err = resourceInterface.Update(ctx, obj, v1.UpdateOptions{
			FieldManager: client.fieldManager,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrSubmission, err)
		}
	}

	return applied, nil
}
