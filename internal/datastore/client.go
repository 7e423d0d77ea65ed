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

// Package datastore provides the client abstraction over the search
// datastore (Elasticsearch/OpenSearch) consumed by the index lifecycle
// components, plus an HTTP implementation of it.
package datastore

import (
	"context"
	"fmt"
)

// IndexState holds the mappings and settings of an index or index
// template as returned by the datastore. A nil *IndexState means the
// index or template does not exist.
type IndexState struct {
	Mappings map[string]interface{}
	Settings map[string]interface{}
}

// ClusterSettings holds cluster-level settings split by persistence.
type ClusterSettings struct {
	Persistent map[string]interface{} `json:"persistent"`
	Transient  map[string]interface{} `json:"transient"`
}

// Client is the datastore operations surface required by index
// configuration and rollover resolution. All calls are blocking network
// I/O; cancellation is driven by the provided context.
type Client interface {
	// ClusterName identifies which configured cluster this client talks to.
	ClusterName() string

	// GetIndex returns the current state of a concrete index, or nil if
	// the index does not exist.
	GetIndex(ctx context.Context, name string) (*IndexState, error)

	// GetIndexTemplate returns the current state of an index template, or
	// nil if the template does not exist.
	GetIndexTemplate(ctx context.Context, name string) (*IndexState, error)

	// CreateIndex creates a concrete index with the given body
	// (mappings + settings).
	CreateIndex(ctx context.Context, index string, body map[string]interface{}) error

	// PutIndexTemplate creates or replaces an index template.
	PutIndexTemplate(ctx context.Context, name string, body map[string]interface{}) error

	// PutIndexMapping updates the mapping of an index or index template
	// pattern. Only additive changes are accepted by the datastore.
	PutIndexMapping(ctx context.Context, index string, mapping map[string]interface{}) error

	// PutIndexSettings updates dynamic settings of a concrete index.
	// Static settings are rejected by the datastore with a 4xx response.
	PutIndexSettings(ctx context.Context, index string, settings map[string]interface{}) error

	// DeleteIndices deletes the named concrete indices. Missing indices
	// are not an error.
	DeleteIndices(ctx context.Context, names ...string) error

	// DeleteIndexTemplate deletes an index template. A missing template
	// is not an error.
	DeleteIndexTemplate(ctx context.Context, name string) error

	// ListIndicesMatching returns the names of concrete indices matching
	// a wildcard expression such as "things_rollover__*".
	ListIndicesMatching(ctx context.Context, expression string) ([]string, error)

	// GetFlatClusterSettings returns cluster settings in flat
	// ("index.foo.bar": value) form.
	GetFlatClusterSettings(ctx context.Context) (*ClusterSettings, error)

	// PutPersistentClusterSettings writes persistent cluster settings.
	// A nil value unsets the named setting.
	PutPersistentClusterSettings(ctx context.Context, settings map[string]interface{}) error
}

// BadRequestError wraps a 4xx response from the datastore, preserving
// the original response body for operator diagnosis (for example the
// datastore's rejection of a static setting update).
type BadRequestError struct {
	StatusCode int
	Body       string
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("datastore rejected request with status %d: %s", e.StatusCode, e.Body)
}
