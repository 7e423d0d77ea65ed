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

// Package schema holds the already-resolved runtime metadata consumed by
// the index lifecycle components. The metadata is produced elsewhere (by
// the schema definition compiler); this package only models and loads it.
package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultRouteWith is the routing field used when an index declares no
// custom routing.
const DefaultRouteWith = "id"

// Field describes one indexed field: which event source populates it and
// the datastore mapping type it is indexed as.
type Field struct {
	Source string `yaml:"source" json:"source"`
	Type   string `yaml:"type" json:"type"`
}

// Rollover describes the temporal partitioning of an index: how often a
// new concrete index is rolled over, and which record field carries the
// partitioning timestamp.
type Rollover struct {
	Frequency          string `yaml:"frequency" json:"frequency"`
	TimestampFieldPath string `yaml:"timestamp_field_path" json:"timestamp_field_path"`
}

// SortField is one clause of an index's default sort.
type SortField struct {
	Field string `yaml:"field" json:"field"`
	Order string `yaml:"order" json:"order"`
}

// IndexDefinitionMetadata is the per-index runtime metadata artifact:
// routing, rollover, sort defaults, the sources currently contributing
// fields, and the full field map keyed by dotted field path.
type IndexDefinitionMetadata struct {
	Name              string           `yaml:"name" json:"name"`
	RouteWith         string           `yaml:"route_with" json:"route_with"`
	DefaultSortFields []SortField      `yaml:"default_sort_fields" json:"default_sort_fields"`
	CurrentSources    []string         `yaml:"current_sources" json:"current_sources"`
	FieldsByPath      map[string]Field `yaml:"fields_by_path" json:"fields_by_path"`
	Rollover          *Rollover        `yaml:"rollover,omitempty" json:"rollover,omitempty"`
}

// RouteWithOrDefault returns the routing field, defaulting to "id".
func (m *IndexDefinitionMetadata) RouteWithOrDefault() string {
	if m.RouteWith == "" {
		return DefaultRouteWith
	}
	return m.RouteWith
}

// HasCustomRouting reports whether this index routes by something other
// than the record id.
func (m *IndexDefinitionMetadata) HasCustomRouting() bool {
	return m.RouteWithOrDefault() != DefaultRouteWith
}

// Artifact is the on-disk runtime metadata document: one entry per index.
type Artifact struct {
	Indices []IndexDefinitionMetadata `yaml:"indices" json:"indices"`
}

// LoadArtifact reads a runtime metadata document from a YAML file.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read runtime metadata: %w", err)
	}

	var artifact Artifact
	if err := yaml.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("failed to parse runtime metadata: %w", err)
	}

	for i := range artifact.Indices {
		if artifact.Indices[i].Name == "" {
			return nil, fmt.Errorf("runtime metadata entry %d has no index name", i)
		}
	}
	return &artifact, nil
}
