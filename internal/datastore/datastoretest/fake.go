/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package datastoretest provides an in-memory datastore client for unit
// tests. It applies writes to in-memory state (so reconciliation
// idempotency can be asserted across runs) and records every write call.
package datastoretest

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/step-security-bot/elasticgraph-sub008/internal/datastore"
)

// FakeClient is an in-memory datastore.Client.
type FakeClient struct {
	Cluster string

	Indices   map[string]*datastore.IndexState
	Templates map[string]*datastore.IndexState

	PersistentClusterSettings map[string]interface{}

	// WriteCalls records every mutating call in order, formatted as
	// "<operation> <target>".
	WriteCalls []string

	// FailPersistentClusterSettings, when set, is returned by
	// PutPersistentClusterSettings.
	FailPersistentClusterSettings error
}

var _ datastore.Client = (*FakeClient)(nil)

// NewFakeClient builds an empty fake for the named cluster.
func NewFakeClient(cluster string) *FakeClient {
	return &FakeClient{
		Cluster:                   cluster,
		Indices:                   make(map[string]*datastore.IndexState),
		Templates:                 make(map[string]*datastore.IndexState),
		PersistentClusterSettings: make(map[string]interface{}),
	}
}

// ResetWriteCalls clears the recorded write log (state is kept).
func (f *FakeClient) ResetWriteCalls() {
	f.WriteCalls = nil
}

func (f *FakeClient) record(operation, target string) {
	f.WriteCalls = append(f.WriteCalls, operation+" "+target)
}

// ClusterName returns the fake's cluster name.
func (f *FakeClient) ClusterName() string { return f.Cluster }

// GetIndex returns a copy of the stored index state, or nil.
func (f *FakeClient) GetIndex(ctx context.Context, name string) (*datastore.IndexState, error) {
	state, ok := f.Indices[name]
	if !ok {
		return nil, nil
	}
	return copyState(state), nil
}

// GetIndexTemplate returns a copy of the stored template state, or nil.
func (f *FakeClient) GetIndexTemplate(ctx context.Context, name string) (*datastore.IndexState, error) {
	state, ok := f.Templates[name]
	if !ok {
		return nil, nil
	}
	return copyState(state), nil
}

// CreateIndex stores the index and records the call. Creating an index
// that exists is a bad request, as in the real datastore.
func (f *FakeClient) CreateIndex(ctx context.Context, index string, body map[string]interface{}) error {
	f.record("create_index", index)
	if _, exists := f.Indices[index]; exists {
		return &datastore.BadRequestError{StatusCode: 400, Body: fmt.Sprintf("index %q already exists", index)}
	}

	f.Indices[index] = &datastore.IndexState{
		Mappings: asMap(body["mappings"]),
		Settings: asMap(body["settings"]),
	}
	return nil
}

// PutIndexTemplate stores the template body's template section.
func (f *FakeClient) PutIndexTemplate(ctx context.Context, name string, body map[string]interface{}) error {
	f.record("put_index_template", name)
	template := asMap(body["template"])
	f.Templates[name] = &datastore.IndexState{
		Mappings: asMap(template["mappings"]),
		Settings: asMap(template["settings"]),
	}
	return nil
}

// PutIndexMapping merges top-level mapping keys into the stored index
// mapping, mirroring how full-desired-properties re-puts behave.
func (f *FakeClient) PutIndexMapping(ctx context.Context, index string, mapping map[string]interface{}) error {
	f.record("put_index_mapping", index)
	state, ok := f.Indices[index]
	if !ok {
		return &datastore.BadRequestError{StatusCode: 404, Body: fmt.Sprintf("no such index %q", index)}
	}

	if state.Mappings == nil {
		state.Mappings = make(map[string]interface{})
	}
	for key, value := range mapping {
		state.Mappings[key] = value
	}
	return nil
}

// PutIndexSettings merges flat settings into the stored index settings;
// a nil value unsets the key.
func (f *FakeClient) PutIndexSettings(ctx context.Context, index string, settings map[string]interface{}) error {
	f.record("put_index_settings", index)
	state, ok := f.Indices[index]
	if !ok {
		return &datastore.BadRequestError{StatusCode: 404, Body: fmt.Sprintf("no such index %q", index)}
	}

	if state.Settings == nil {
		state.Settings = make(map[string]interface{})
	}
	for key, value := range settings {
		if value == nil {
			delete(state.Settings, key)
			continue
		}
		state.Settings[key] = value
	}
	return nil
}

// DeleteIndices removes the named indices; missing ones are ignored.
func (f *FakeClient) DeleteIndices(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	f.record("delete_indices", strings.Join(names, ","))
	for _, name := range names {
		delete(f.Indices, name)
	}
	return nil
}

// DeleteIndexTemplate removes the named template; a missing one is ignored.
func (f *FakeClient) DeleteIndexTemplate(ctx context.Context, name string) error {
	f.record("delete_index_template", name)
	delete(f.Templates, name)
	return nil
}

// ListIndicesMatching supports trailing-asterisk wildcard expressions.
func (f *FakeClient) ListIndicesMatching(ctx context.Context, expression string) ([]string, error) {
	prefix := strings.TrimSuffix(expression, "*")

	var names []string
	for name := range f.Indices {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// GetFlatClusterSettings returns a copy of the persistent settings.
func (f *FakeClient) GetFlatClusterSettings(ctx context.Context) (*datastore.ClusterSettings, error) {
	persistent := make(map[string]interface{}, len(f.PersistentClusterSettings))
	for key, value := range f.PersistentClusterSettings {
		persistent[key] = value
	}
	return &datastore.ClusterSettings{Persistent: persistent, Transient: map[string]interface{}{}}, nil
}

// PutPersistentClusterSettings merges settings; nil unsets.
func (f *FakeClient) PutPersistentClusterSettings(ctx context.Context, settings map[string]interface{}) error {
	f.record("put_persistent_cluster_settings", f.Cluster)
	if f.FailPersistentClusterSettings != nil {
		return f.FailPersistentClusterSettings
	}

	for key, value := range settings {
		if value == nil {
			delete(f.PersistentClusterSettings, key)
			continue
		}
		f.PersistentClusterSettings[key] = value
	}
	return nil
}

func asMap(value interface{}) map[string]interface{} {
	m, _ := value.(map[string]interface{})
	return m
}

func copyState(state *datastore.IndexState) *datastore.IndexState {
	return &datastore.IndexState{
		Mappings: deepCopyMap(state.Mappings),
		Settings: deepCopyMap(state.Settings),
	}
}

func deepCopyMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	copied := make(map[string]interface{}, len(m))
	for key, value := range m {
		if nested, ok := value.(map[string]interface{}); ok {
			copied[key] = deepCopyMap(nested)
			continue
		}
		copied[key] = value
	}
	return copied
}
