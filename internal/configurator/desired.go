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

package configurator

import (
	"sort"
	"strings"

	"github.com/step-security-bot/elasticgraph-sub008/internal/indexdef"
	"github.com/step-security-bot/elasticgraph-sub008/internal/schema"
)

// defaultSettings are applied to every index unless overridden per
// environment.
var defaultSettings = map[string]interface{}{
	"index.number_of_shards":         1,
	"index.number_of_replicas":       1,
	"index.mapping.ignore_malformed": false,
	"index.mapping.coerce":           false,
}

// desiredConfig is the schema-derived target state of one index or
// template, recomputed on every configuration run.
type desiredConfig struct {
	mappings     map[string]interface{}
	flatSettings map[string]interface{}
}

// buildDesiredConfig derives the desired mappings and settings for a
// definition from its runtime metadata and env overrides.
func buildDesiredConfig(def indexdef.Definition, recordedSources []string) desiredConfig {
	return desiredConfig{
		mappings:     buildDesiredMappings(def, recordedSources),
		flatSettings: buildDesiredSettings(def.EnvConfig().SettingOverrides),
	}
}

// buildDesiredSettings layers env-level overrides over the defaults,
// returning normalized flat settings.
func buildDesiredSettings(overrides ...map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(defaultSettings))
	for key, value := range defaultSettings {
		merged[key] = value
	}
	for _, layer := range overrides {
		for key, value := range layer {
			merged[qualifySettingKey(key)] = value
		}
	}
	return NormalizeSettings(merged)
}

// buildDesiredMappings builds the full mapping body: strict dynamic
// handling, nested properties derived from the dotted field paths,
// required routing when custom routing is active, and the append-only
// source set in _meta. recordedSources is the set previously written to
// the datastore; the union with the current sources keeps the set
// append-only across schema generations.
func buildDesiredMappings(def indexdef.Definition, recordedSources []string) map[string]interface{} {
	meta := def.Metadata()

	mappings := map[string]interface{}{
		"dynamic":    "strict",
		"properties": propertiesForFields(meta.FieldsByPath),
		"_meta": map[string]interface{}{
			indexdef.MetaRootKey: map[string]interface{}{
				indexdef.MetaSourcesField: unionSources(meta.CurrentSources, recordedSources),
			},
		},
	}

	if def.HasCustomRouting() {
		mappings["_routing"] = map[string]interface{}{"required": true}
	}
	return mappings
}

// propertiesForFields expands dotted field paths into the nested
// properties tree the datastore expects. Intermediate path segments
// become object fields.
func propertiesForFields(fieldsByPath map[string]schema.Field) map[string]interface{} {
	properties := make(map[string]interface{})

	paths := make([]string, 0, len(fieldsByPath))
	for path := range fieldsByPath {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		field := fieldsByPath[path]
		parts := strings.Split(path, ".")
		current := properties

		for _, part := range parts[:len(parts)-1] {
			child, ok := current[part].(map[string]interface{})
			if !ok {
				child = map[string]interface{}{"properties": make(map[string]interface{})}
				current[part] = child
			}
			nested, ok := child["properties"].(map[string]interface{})
			if !ok {
				nested = make(map[string]interface{})
				child["properties"] = nested
			}
			current = nested
		}

		leafType := field.Type
		if leafType == "" {
			leafType = "keyword"
		}
		current[parts[len(parts)-1]] = map[string]interface{}{"type": leafType}
	}

	return properties
}

// unionSources merges source name sets into a sorted, de-duplicated list.
// The result only ever grows relative to recorded.
func unionSources(current, recorded []string) []interface{} {
	set := make(map[string]bool, len(current)+len(recorded))
	for _, s := range current {
		set[s] = true
	}
	for _, s := range recorded {
		set[s] = true
	}

	names := make([]string, 0, len(set))
	for s := range set {
		names = append(names, s)
	}
	sort.Strings(names)

	// []interface{} so the result compares equal to JSON-decoded state.
	result := make([]interface{}, len(names))
	for i, s := range names {
		result[i] = s
	}
	return result
}
