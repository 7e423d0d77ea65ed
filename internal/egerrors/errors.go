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

// Package egerrors defines the typed errors shared across the index
// lifecycle components. Errors are matched with errors.As; there are no
// sentinel values.
package egerrors

import (
	"fmt"
	"strings"
)

// ConfigError indicates missing or invalid environment configuration,
// such as an index with no index_into_clusters entry or custom routing
// declared without a route-with path. Never retried.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Message
}

// NewConfigError builds a ConfigError from a format string.
func NewConfigError(format string, args ...interface{}) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

// SchemaError indicates structurally invalid rollover configuration,
// detected fail-fast at construction time (bad frequency, missing
// timestamp field path).
type SchemaError struct {
	Message string
}

func (e *SchemaError) Error() string {
	return "schema error: " + e.Message
}

// NewSchemaError builds a SchemaError from a format string.
func NewSchemaError(format string, args ...interface{}) *SchemaError {
	return &SchemaError{Message: fmt.Sprintf(format, args...)}
}

// IndexOperationError is raised when a proposed index change is not
// performable (field type change, static setting change on a concrete
// index, propagation failure to a derived index). It carries every
// validation problem found in the run so an operator sees them all in
// one pass.
type IndexOperationError struct {
	Index    string
	Problems []string
}

func (e *IndexOperationError) Error() string {
	return fmt.Sprintf("cannot safely configure %q: %s", e.Index, strings.Join(e.Problems, "; "))
}

// ClusterOperationError indicates an unknown cluster name referenced in
// a maintenance-mode operation. ValidNames lists the configured clusters.
type ClusterOperationError struct {
	Name       string
	ValidNames []string
}

func (e *ClusterOperationError) Error() string {
	return fmt.Sprintf("unknown datastore cluster %q; valid clusters: %s",
		e.Name, strings.Join(e.ValidNames, ", "))
}
