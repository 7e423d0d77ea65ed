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
	"reflect"
	"testing"
)

func TestNormalizeSettingsFlattensNestedForm(t *testing.T) {
	nested := map[string]interface{}{
		"index": map[string]interface{}{
			"number_of_shards": "5",
			"mapping": map[string]interface{}{
				"coerce": "false",
			},
		},
	}

	got := NormalizeSettings(nested)
	want := map[string]interface{}{
		"index.number_of_shards": "5",
		"index.mapping.coerce":   "false",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeSettings = %v, want %v", got, want)
	}
}

func TestNormalizeSettingsCanonicalizesScalars(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  interface{}
	}{
		{"int", 5, "5"},
		{"int64", int64(5), "5"},
		{"json float", float64(5), "5"},
		{"bool", true, "true"},
		{"string untouched", "all", "all"},
		{"nil preserved as explicit unset", nil, nil},
		{"list element-wise", []interface{}{1, true}, []interface{}{"1", "true"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeSettings(map[string]interface{}{"index.refresh_interval": tt.value})
			if !reflect.DeepEqual(got["index.refresh_interval"], tt.want) {
				t.Errorf("normalized value = %#v, want %#v", got["index.refresh_interval"], tt.want)
			}
		})
	}
}

func TestNormalizeSettingsQualifiesBareKeys(t *testing.T) {
	got := NormalizeSettings(map[string]interface{}{
		"number_of_replicas":     2,
		"index.number_of_shards": 3,
	})
	want := map[string]interface{}{
		"index.number_of_replicas": "2",
		"index.number_of_shards":   "3",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeSettings = %v, want %v", got, want)
	}
}

func TestNormalizeSettingsDropsInternalSettings(t *testing.T) {
	got := NormalizeSettings(map[string]interface{}{
		"index.creation_date":    "1585868400000",
		"index.uuid":             "abc123",
		"index.provided_name":    "things_rollover__2020-04",
		"index.version.created":  "7100299",
		"index.number_of_shards": "1",
	})

	if len(got) != 1 || got["index.number_of_shards"] != "1" {
		t.Errorf("internal settings survived normalization: %v", got)
	}
}

func TestNormalizeSettingsIdempotent(t *testing.T) {
	input := map[string]interface{}{
		"index":            map[string]interface{}{"number_of_shards": 5},
		"refresh_interval": "30s",
	}

	once := NormalizeSettings(input)
	twice := NormalizeSettings(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("not idempotent: %v vs %v", once, twice)
	}
}

func TestSettingValuesEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b interface{}
		want bool
	}{
		{"equal strings", "5", "5", true},
		{"different strings", "5", "6", false},
		{"equal lists", []interface{}{"a", "b"}, []interface{}{"a", "b"}, true},
		{"different length lists", []interface{}{"a"}, []interface{}{"a", "b"}, false},
		{"nil equals nil", nil, nil, true},
		{"nil vs value", nil, "5", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := settingValuesEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("settingValuesEqual = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeMappingPropertiesDropsEmptyNestedMaps(t *testing.T) {
	properties := map[string]interface{}{
		"name": map[string]interface{}{
			"type":       "keyword",
			"properties": map[string]interface{}{},
		},
		"shipment": map[string]interface{}{
			"properties": map[string]interface{}{
				"shipped_at": map[string]interface{}{"type": "date"},
			},
		},
	}

	got := NormalizeMappingProperties(properties)

	nameField := got["name"].(map[string]interface{})
	if _, present := nameField["properties"]; present {
		t.Error("empty properties map must be dropped")
	}

	shipment := got["shipment"].(map[string]interface{})
	nested := shipment["properties"].(map[string]interface{})
	if _, present := nested["shipped_at"]; !present {
		t.Error("non-empty nested properties must survive")
	}

	if !reflect.DeepEqual(NormalizeMappingProperties(got), got) {
		t.Error("not idempotent")
	}
}
