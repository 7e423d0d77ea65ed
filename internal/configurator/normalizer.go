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
	"strconv"
	"strings"
)

// internalSettings are reported by the datastore on every index but are
// never part of desired configuration; they are dropped during
// normalization so they cannot show up as spurious diffs.
var internalSettings = map[string]bool{
	"index.creation_date":      true,
	"index.uuid":               true,
	"index.provided_name":      true,
	"index.version.created":    true,
	"index.version.upgraded":   true,
	"index.history.uuid":       true,
	"index.resize.source.name": true,
	"index.resize.source.uuid": true,
}

// NormalizeSettings flattens a settings payload into canonical
// dotted-key form with scalar values canonicalized to strings. The
// datastore returns settings nested ({"index": {"number_of_shards": "5"}})
// or flat depending on the request; configuration files may use either
// form and numeric types. Normalizing both sides makes them structurally
// comparable.
//
// The function is pure and idempotent, and it preserves the distinction
// between a setting explicitly present (even at its default value) and a
// setting absent entirely: present keys stay present, absent keys are
// never invented.
func NormalizeSettings(settings map[string]interface{}) map[string]interface{} {
	flat := make(map[string]interface{})
	flattenInto(flat, "", settings)

	normalized := make(map[string]interface{}, len(flat))
	for key, value := range flat {
		key = qualifySettingKey(key)
		if internalSettings[key] {
			continue
		}
		normalized[key] = canonicalizeSettingValue(value)
	}
	return normalized
}

// qualifySettingKey prefixes bare index setting names with "index." so
// "number_of_shards" and "index.number_of_shards" compare equal.
func qualifySettingKey(key string) string {
	if strings.HasPrefix(key, "index.") {
		return key
	}
	return "index." + key
}

func flattenInto(flat map[string]interface{}, prefix string, value interface{}) {
	asMap, ok := value.(map[string]interface{})
	if !ok {
		flat[prefix] = value
		return
	}
	if len(asMap) == 0 && prefix != "" {
		flat[prefix] = asMap
		return
	}

	for key, nested := range asMap {
		flatKey := key
		if prefix != "" {
			flatKey = prefix + "." + key
		}
		flattenInto(flat, flatKey, nested)
	}
}

// canonicalizeSettingValue renders scalars in the string form the
// datastore itself reports settings in. nil is preserved: it is the
// explicit-unset marker.
func canonicalizeSettingValue(value interface{}) interface{} {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []interface{}:
		canonical := make([]interface{}, len(v))
		for i, element := range v {
			canonical[i] = canonicalizeSettingValue(element)
		}
		return canonical
	default:
		return v
	}
}

// settingValuesEqual compares two canonicalized setting values.
func settingValuesEqual(a, b interface{}) bool {
	aList, aOK := a.([]interface{})
	bList, bOK := b.([]interface{})
	if aOK && bOK {
		if len(aList) != len(bList) {
			return false
		}
		for i := range aList {
			if !settingValuesEqual(aList[i], bList[i]) {
				return false
			}
		}
		return true
	}
	return a == b
}

// NormalizeMappingProperties deep-copies a mapping "properties" tree into
// canonical form: empty object-field "properties" maps are dropped and
// scalar mapping parameters are left as-is. Idempotent.
func NormalizeMappingProperties(properties map[string]interface{}) map[string]interface{} {
	if properties == nil {
		return nil
	}

	normalized := make(map[string]interface{}, len(properties))
	for name, rawField := range properties {
		field, ok := rawField.(map[string]interface{})
		if !ok {
			normalized[name] = rawField
			continue
		}

		copied := make(map[string]interface{}, len(field))
		for param, value := range field {
			if param == "properties" {
				if nested, ok := value.(map[string]interface{}); ok {
					if len(nested) == 0 {
						continue
					}
					copied[param] = NormalizeMappingProperties(nested)
					continue
				}
			}
			copied[param] = value
		}
		normalized[name] = copied
	}
	return normalized
}

// sortedKeys returns the keys of a map in sorted order, for deterministic
// logging and diff reporting.
func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
