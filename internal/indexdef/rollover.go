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

package indexdef

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/step-security-bot/elasticgraph-sub008/internal/config"
	"github.com/step-security-bot/elasticgraph-sub008/internal/datastore"
	"github.com/step-security-bot/elasticgraph-sub008/internal/egerrors"
	"github.com/step-security-bot/elasticgraph-sub008/internal/schema"
)

// RolloverIndex is one concrete, time-bounded index belonging to a
// rollover template. It is a value type: two RolloverIndex values are
// equal when they name the same index and cover the same TimeSet,
// regardless of where they came from (live discovery or configuration).
type RolloverIndex struct {
	Name             string
	TimeSet          TimeSet
	SettingOverrides map[string]interface{}
}

// Equal compares by (index identity, TimeSet); setting overrides do not
// participate in equality.
func (r RolloverIndex) Equal(o RolloverIndex) bool {
	return r.Name == o.Name && r.TimeSet.Equal(o.TimeSet)
}

// RolloverIndexTemplate is the temporal partitioning engine: it decides
// which concrete index serves a record timestamp, reconciles configured
// vs. discovered indices, and computes the indices that must be
// pre-created before the template itself.
type RolloverIndexTemplate struct {
	base
	frequency          Frequency
	timestampFieldPath string
}

var _ Definition = (*RolloverIndexTemplate)(nil)

// NewRolloverIndexTemplate builds a rollover template definition,
// failing fast on a missing timestamp field path or unrecognized
// frequency.
func NewRolloverIndexTemplate(
	meta *schema.IndexDefinitionMetadata,
	envConfig config.IndexConfig,
	clients map[string]datastore.Client,
	logger logr.Logger,
) (*RolloverIndexTemplate, error) {
	if meta.Rollover == nil {
		return nil, egerrors.NewSchemaError("index %q has no rollover configuration", meta.Name)
	}
	if meta.Rollover.TimestampFieldPath == "" {
		return nil, egerrors.NewSchemaError("rollover index %q has no timestamp_field_path", meta.Name)
	}

	frequency, err := ParseFrequency(meta.Rollover.Frequency)
	if err != nil {
		return nil, err
	}

	t := &RolloverIndexTemplate{
		base: base{
			meta:    meta,
			env:     envConfig,
			clients: clients,
			logger:  logger.WithValues("index", meta.Name),
		},
		frequency:          frequency,
		timestampFieldPath: meta.Rollover.TimestampFieldPath,
	}
	t.base.self = t
	return t, nil
}

// IsRollover is true for templates.
func (t *RolloverIndexTemplate) IsRollover() bool { return true }

// Frequency returns the rollover frequency.
func (t *RolloverIndexTemplate) Frequency() Frequency { return t.frequency }

// TimestampFieldPath returns the dotted path of the partitioning
// timestamp field.
func (t *RolloverIndexTemplate) TimestampFieldPath() string { return t.timestampFieldPath }

// IndexExpressionForSearch is the wildcard expression covering every
// concrete index of this template.
func (t *RolloverIndexTemplate) IndexExpressionForSearch() string {
	return t.meta.Name + RolloverIndexInfixMarker + "*"
}

// concreteIndexName joins the base name and a suffix.
func (t *RolloverIndexTemplate) concreteIndexName(suffix string) string {
	return t.meta.Name + RolloverIndexInfixMarker + suffix
}

// IndexNameForWrites resolves the concrete index a record writes to:
// extract the timestamp at the (possibly overridden) field path, check
// custom timestamp ranges in declaration order, and otherwise format the
// timestamp with the frequency's suffix pattern. A record missing the
// timestamp field is an error, never silently defaulted.
func (t *RolloverIndexTemplate) IndexNameForWrites(record map[string]interface{}, timestampFieldPathOverride string) (string, error) {
	path := t.timestampFieldPath
	if timestampFieldPathOverride != "" {
		path = timestampFieldPathOverride
	}

	timestamp, err := timestampFieldAt(record, path)
	if err != nil {
		return "", err
	}
	return t.concreteIndexName(t.suffixForTimestamp(timestamp)), nil
}

// suffixForTimestamp applies the custom-range-first resolution rule.
func (t *RolloverIndexTemplate) suffixForTimestamp(timestamp time.Time) string {
	if r := t.customRangeContaining(timestamp); r != nil {
		return r.IndexNameSuffix
	}
	return t.frequency.Suffix(timestamp)
}

func (t *RolloverIndexTemplate) customRangeContaining(timestamp time.Time) *config.CustomTimestampRange {
	for i := range t.env.CustomTimestampRanges {
		r := &t.env.CustomTimestampRanges[i]
		if TimeSetOfRange(r.GTE, r.LT).Contains(timestamp) {
			return r
		}
	}
	return nil
}

// RelatedRolloverIndexForTimestamp builds the single concrete index that
// covers a timestamp, for write pre-creation purposes. Ad hoc setting
// overrides win over env-level overrides on conflicting keys.
func (t *RolloverIndexTemplate) RelatedRolloverIndexForTimestamp(timestamp time.Time, adHocOverrides map[string]interface{}) RolloverIndex {
	var suffix string
	var timeSet TimeSet
	overrides := t.env.SettingOverrides

	if r := t.customRangeContaining(timestamp); r != nil {
		suffix = r.IndexNameSuffix
		timeSet = TimeSetOfRange(r.GTE, r.LT)
		overrides = mergeOverrides(overrides, r.SettingOverrides)
	} else {
		suffix = t.frequency.Suffix(timestamp)
		timeSet = t.frequency.BucketTimeSet(timestamp)
	}

	return RolloverIndex{
		Name:             t.concreteIndexName(suffix),
		TimeSet:          timeSet,
		SettingOverrides: mergeOverrides(overrides, adHocOverrides),
	}
}

// PreCreateIndices lists the concrete indices that must be created ahead
// of the template rather than lazily through template auto-creation:
// entries from setting_overrides_by_timestamp and every custom timestamp
// range. Pre-creation is what lets a single bucket diverge from the
// shared template settings (for example fewer shards for a small
// historical bucket).
func (t *RolloverIndexTemplate) PreCreateIndices() ([]RolloverIndex, error) {
	byName := make(map[string]RolloverIndex)

	timestamps := make([]string, 0, len(t.env.SettingOverridesByTimestamp))
	for ts := range t.env.SettingOverridesByTimestamp {
		timestamps = append(timestamps, ts)
	}
	sort.Strings(timestamps)

	for _, raw := range timestamps {
		timestamp, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, egerrors.NewConfigError(
				"index %q: setting_overrides_by_timestamp has unparseable timestamp %q", t.meta.Name, raw)
		}
		index := t.RelatedRolloverIndexForTimestamp(timestamp, t.env.SettingOverridesByTimestamp[raw])
		byName[index.Name] = index
	}

	for _, r := range t.env.CustomTimestampRanges {
		name := t.concreteIndexName(r.IndexNameSuffix)
		if _, exists := byName[name]; exists {
			continue
		}
		byName[name] = RolloverIndex{
			Name:             name,
			TimeSet:          TimeSetOfRange(r.GTE, r.LT),
			SettingOverrides: mergeOverrides(t.env.SettingOverrides, r.SettingOverrides),
		}
	}

	return sortedByName(byName), nil
}

// InferTimeSetFromIndexName parses the suffix after the infix marker into
// the TimeSet the index covers, or returns nil when the name cannot be
// interpreted under the current frequency: wrong element count or any
// non-numeric element. The rejection guards against misreading indices
// created under a different historical frequency or a custom-range naming
// scheme.
func (t *RolloverIndexTemplate) InferTimeSetFromIndexName(indexName string) *TimeSet {
	prefix := t.meta.Name + RolloverIndexInfixMarker
	if !strings.HasPrefix(indexName, prefix) {
		return nil
	}
	suffix := strings.TrimPrefix(indexName, prefix)

	elements := strings.Split(suffix, "-")
	if len(elements) != t.frequency.suffixElements() {
		return nil
	}
	for _, element := range elements {
		if !allDigits(element) {
			return nil
		}
	}

	start, err := t.frequency.parseSuffix(suffix)
	if err != nil {
		return nil
	}
	timeSet := t.frequency.BucketTimeSet(start)
	return &timeSet
}

// RelatedRolloverIndices merges the indices discovered live in the
// datastore with the indices implied by configuration. Discovered entries
// win when both exist (their TimeSet inference is authoritative); with
// OnlyIfExists, configured-but-undiscovered entries are dropped.
func (t *RolloverIndexTemplate) RelatedRolloverIndices(ctx context.Context, client datastore.Client, opts RelatedIndicesOptions) ([]RolloverIndex, error) {
	configured, err := t.PreCreateIndices()
	if err != nil {
		return nil, err
	}
	configuredByName := make(map[string]RolloverIndex, len(configured))
	for _, index := range configured {
		configuredByName[index.Name] = index
	}

	discovered, err := client.ListIndicesMatching(ctx, t.IndexExpressionForSearch())
	if err != nil {
		return nil, fmt.Errorf("failed to discover rollover indices for %q: %w", t.meta.Name, err)
	}

	byName := make(map[string]RolloverIndex)
	if !opts.OnlyIfExists {
		for name, index := range configuredByName {
			byName[name] = index
		}
	}

	for _, name := range discovered {
		configuredIndex, isConfigured := configuredByName[name]

		if timeSet := t.InferTimeSetFromIndexName(name); timeSet != nil {
			index := RolloverIndex{Name: name, TimeSet: *timeSet, SettingOverrides: t.env.SettingOverrides}
			if isConfigured {
				index.SettingOverrides = configuredIndex.SettingOverrides
			}
			byName[name] = index
		} else if isConfigured {
			// Custom-range indices have non-temporal suffixes; the
			// configured bounds supply their coverage.
			byName[name] = configuredIndex
		}
		// Otherwise the index was created under an unrecognizable naming
		// scheme and its coverage cannot be determined; it is excluded.
	}

	return sortedByName(byName), nil
}

// DeleteFromDatastore removes every concrete rollover index and then the
// template itself.
func (t *RolloverIndexTemplate) DeleteFromDatastore(ctx context.Context, client datastore.Client) error {
	names, err := client.ListIndicesMatching(ctx, t.IndexExpressionForSearch())
	if err != nil {
		return err
	}
	if err := client.DeleteIndices(ctx, names...); err != nil {
		return err
	}
	return client.DeleteIndexTemplate(ctx, t.meta.Name)
}

// mergeOverrides layers extra on top of base. Keys are qualified with
// the "index." prefix first so "number_of_shards" and
// "index.number_of_shards" collide instead of both surviving with
// conflicting values.
func mergeOverrides(base, extra map[string]interface{}) map[string]interface{} {
	if len(base) == 0 && len(extra) == 0 {
		return nil
	}
	merged := make(map[string]interface{}, len(base)+len(extra))
	for k, v := range base {
		merged[qualifiedOverrideKey(k)] = v
	}
	for k, v := range extra {
		merged[qualifiedOverrideKey(k)] = v
	}
	return merged
}

func qualifiedOverrideKey(key string) string {
	if strings.HasPrefix(key, "index.") {
		return key
	}
	return "index." + key
}

func sortedByName(byName map[string]RolloverIndex) []RolloverIndex {
	indices := make([]RolloverIndex, 0, len(byName))
	for _, index := range byName {
		indices = append(indices, index)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i].Name < indices[j].Name })
	return indices
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
