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

// Package configurator reconciles desired index configuration against
// live datastore state: it normalizes both sides, computes a minimal diff
// and applies it while respecting the datastore's immutability rules.
package configurator

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/go-logr/logr"

	"github.com/step-security-bot/elasticgraph-sub008/internal/datastore"
	"github.com/step-security-bot/elasticgraph-sub008/internal/egerrors"
	"github.com/step-security-bot/elasticgraph-sub008/internal/indexdef"
	"github.com/step-security-bot/elasticgraph-sub008/internal/metrics"
)

// staticSettings cannot be changed on a concrete, already-materialized
// index. They may still change on a template, which only affects indices
// created afterwards.
var staticSettings = map[string]bool{
	"index.number_of_shards":         true,
	"index.number_of_routing_shards": true,
	"index.routing_partition_size":   true,
	"index.codec":                    true,
	"index.soft_deletes.enabled":     true,
}

// IndexDefinitionConfigurator brings one datastore cluster into alignment
// with one index definition. The validation phase (Validate) collects
// every problem without mutating anything; Configure applies the writes
// and is meant to be called only after validation passes.
type IndexDefinitionConfigurator struct {
	def    indexdef.Definition
	client datastore.Client
	logger logr.Logger
}

// NewIndexDefinitionConfigurator builds a configurator for one
// (definition, cluster) pair.
func NewIndexDefinitionConfigurator(def indexdef.Definition, client datastore.Client, logger logr.Logger) *IndexDefinitionConfigurator {
	return &IndexDefinitionConfigurator{
		def:    def,
		client: client,
		logger: logger.WithValues("index", def.Name(), "cluster", client.ClusterName()),
	}
}

// indexCreation is a pending create call for a concrete index.
type indexCreation struct {
	name string
	body map[string]interface{}
}

// indexUpdate is a pending mapping and/or settings update for a concrete
// index.
type indexUpdate struct {
	name     string
	mapping  map[string]interface{} // nil when the mapping needs no update
	settings map[string]interface{} // nil when the settings need no update
}

// plan is the full set of writes a configuration run would perform, plus
// every validation problem found while computing it. Writes are only
// applied when problems is empty, which makes propagation validation a
// pre-flight check across all affected indices: nothing is written if any
// derived index cannot accept the change.
type plan struct {
	problems      []string
	creations     []indexCreation
	templateBody  map[string]interface{} // non-nil: put the full template
	updates       []indexUpdate
	removedFields []string // operator-visible intent; no API call is made
}

func (p *plan) isEmpty() bool {
	return len(p.creations) == 0 && p.templateBody == nil && len(p.updates) == 0
}

// Validate computes the configuration plan and returns every problem
// found, without performing any write. An empty slice means Configure
// would proceed.
func (c *IndexDefinitionConfigurator) Validate(ctx context.Context) ([]string, error) {
	p, err := c.buildPlan(ctx)
	if err != nil {
		return nil, err
	}
	metrics.RecordValidationProblems(c.def.Name(), len(p.problems))
	return p.problems, nil
}

// Configure computes the plan and applies it. It fails with an
// IndexOperationError, before any write, if the plan has validation
// problems.
func (c *IndexDefinitionConfigurator) Configure(ctx context.Context) error {
	start := time.Now()

	err := c.configure(ctx)
	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.RecordConfigureRun(c.def.Name(), result, time.Since(start).Seconds())
	return err
}

func (c *IndexDefinitionConfigurator) configure(ctx context.Context) error {
	p, err := c.buildPlan(ctx)
	if err != nil {
		return err
	}
	if len(p.problems) > 0 {
		return &egerrors.IndexOperationError{Index: c.def.Name(), Problems: p.problems}
	}

	for _, field := range p.removedFields {
		// The datastore cannot drop mapping fields; the removal stays
		// visible to operators but no call is made for it.
		c.logger.Info("field removed from schema is retained in the datastore mapping", "field", field)
	}

	if p.isEmpty() {
		c.logger.V(1).Info("datastore already matches desired configuration")
		return nil
	}

	// Pre-creations must land before the template so template-driven
	// auto-creation cannot race a default-shaped index into an overridden
	// time bucket.
	for _, creation := range p.creations {
		if err := c.client.CreateIndex(ctx, creation.name, creation.body); err != nil {
			return fmt.Errorf("failed to create index %q: %w", creation.name, err)
		}
		metrics.RecordDatastoreWrite(c.client.ClusterName(), "create_index")
		c.logger.Info("created index", "name", creation.name)
	}

	if p.templateBody != nil {
		if err := c.client.PutIndexTemplate(ctx, c.def.Name(), p.templateBody); err != nil {
			return fmt.Errorf("failed to put index template %q: %w", c.def.Name(), err)
		}
		metrics.RecordDatastoreWrite(c.client.ClusterName(), "put_index_template")
		c.logger.Info("put index template", "name", c.def.Name())
	}

	for _, update := range p.updates {
		if update.mapping != nil {
			if err := c.client.PutIndexMapping(ctx, update.name, update.mapping); err != nil {
				return fmt.Errorf("failed to update mapping of %q: %w", update.name, err)
			}
			metrics.RecordDatastoreWrite(c.client.ClusterName(), "put_index_mapping")
			c.logger.Info("updated index mapping", "name", update.name)
		}
		if update.settings != nil {
			if err := c.client.PutIndexSettings(ctx, update.name, update.settings); err != nil {
				return fmt.Errorf("failed to update settings of %q: %w", update.name, err)
			}
			metrics.RecordDatastoreWrite(c.client.ClusterName(), "put_index_settings")
			c.logger.Info("updated index settings", "name", update.name)
		}
	}

	return nil
}

// buildPlan recomputes desired state and freshly queries actual state;
// neither is cached across configuration runs.
func (c *IndexDefinitionConfigurator) buildPlan(ctx context.Context) (*plan, error) {
	if template, ok := c.def.(*indexdef.RolloverIndexTemplate); ok {
		return c.buildRolloverPlan(ctx, template)
	}
	return c.buildIndexPlan(ctx)
}

func (c *IndexDefinitionConfigurator) buildIndexPlan(ctx context.Context) (*plan, error) {
	p := &plan{}

	actual, err := c.client.GetIndex(ctx, c.def.Name())
	if err != nil {
		return nil, err
	}

	if actual == nil {
		desired := buildDesiredConfig(c.def, nil)
		p.creations = append(p.creations, indexCreation{
			name: c.def.Name(),
			body: map[string]interface{}{
				"settings": desired.flatSettings,
				"mappings": desired.mappings,
			},
		})
		return p, nil
	}

	desired := buildDesiredConfig(c.def, indexdef.RecordedSources(actual.Mappings))
	c.planConcreteIndexUpdate(p, c.def.Name(), desired, actual)
	return p, nil
}

func (c *IndexDefinitionConfigurator) buildRolloverPlan(ctx context.Context, template *indexdef.RolloverIndexTemplate) (*plan, error) {
	p := &plan{}

	actualTemplate, err := c.client.GetIndexTemplate(ctx, template.Name())
	if err != nil {
		return nil, err
	}

	var recorded []string
	if actualTemplate != nil {
		recorded = indexdef.RecordedSources(actualTemplate.Mappings)
	}
	desired := buildDesiredConfig(c.def, recorded)

	// Indices with per-bucket setting divergence must exist before the
	// template does.
	preCreate, err := template.PreCreateIndices()
	if err != nil {
		return nil, err
	}
	for _, index := range preCreate {
		exists, err := c.client.GetIndex(ctx, index.Name)
		if err != nil {
			return nil, err
		}
		if exists != nil {
			continue // propagation below reconciles it
		}
		p.creations = append(p.creations, indexCreation{
			name: index.Name,
			body: map[string]interface{}{
				"settings": buildDesiredSettings(c.def.EnvConfig().SettingOverrides, index.SettingOverrides),
				"mappings": buildDesiredMappings(c.def, nil),
			},
		})
	}

	if actualTemplate == nil {
		p.templateBody = c.templateBodyFor(template, desired)
	} else {
		templateDiff := c.diffTarget(template.Name(), desired, actualTemplate)
		p.problems = append(p.problems, templateDiff.typeProblems...)
		p.removedFields = append(p.removedFields, templateDiff.removed...)
		if templateDiff.changed() {
			// Templates are re-put whole; static settings may change here
			// since only future concrete indices are affected.
			p.templateBody = c.templateBodyFor(template, desired)
		}
	}

	// Propagate the same diff to every already-materialized concrete
	// index. All of them are validated before anything is written.
	related, err := template.RelatedRolloverIndices(ctx, c.client, indexdef.RelatedIndicesOptions{OnlyIfExists: true})
	if err != nil {
		return nil, err
	}
	for _, index := range related {
		actualIndex, err := c.client.GetIndex(ctx, index.Name)
		if err != nil {
			return nil, err
		}
		if actualIndex == nil {
			continue
		}

		desiredIndex := desiredConfig{
			mappings:     buildDesiredMappings(c.def, indexdef.RecordedSources(actualIndex.Mappings)),
			flatSettings: buildDesiredSettings(c.def.EnvConfig().SettingOverrides, index.SettingOverrides),
		}
		c.planConcreteIndexUpdate(p, index.Name, desiredIndex, actualIndex)
	}

	return p, nil
}

func (c *IndexDefinitionConfigurator) templateBodyFor(template *indexdef.RolloverIndexTemplate, desired desiredConfig) map[string]interface{} {
	return map[string]interface{}{
		"index_patterns": []interface{}{template.IndexExpressionForSearch()},
		"template": map[string]interface{}{
			"settings": desired.flatSettings,
			"mappings": desired.mappings,
		},
	}
}

// planConcreteIndexUpdate diffs one existing concrete index against its
// desired state and queues the minimal updates, enforcing the immutability
// rules concrete indices carry (no type changes, no static setting
// changes).
func (c *IndexDefinitionConfigurator) planConcreteIndexUpdate(p *plan, name string, desired desiredConfig, actual *datastore.IndexState) {
	diff := c.diffTarget(name, desired, actual)
	p.problems = append(p.problems, diff.typeProblems...)
	p.removedFields = append(p.removedFields, diff.removed...)

	update := indexUpdate{name: name}

	if diff.mappingChanged() {
		// The update body resends the full desired properties: the
		// datastore treats re-puts of unchanged fields as no-ops, accepts
		// additions, and updates dynamic per-field parameters.
		update.mapping = map[string]interface{}{
			"dynamic":    desired.mappings["dynamic"],
			"properties": desired.mappings["properties"],
			"_meta":      desired.mappings["_meta"],
		}
	}

	if len(diff.settingChanges) > 0 {
		for key := range diff.settingChanges {
			if staticSettings[key] {
				p.problems = append(p.problems, fmt.Sprintf(
					"static setting %q cannot change on existing index %q (was %v, want %v); static settings are fixed at index creation",
					key, name, diff.actualSettings[key], desired.flatSettings[key]))
			}
		}
		update.settings = diff.settingChanges
	}

	// Queued even when problems were found: Configure never applies a
	// plan with problems, and Validate benefits from the full picture.
	if update.mapping != nil || update.settings != nil {
		p.updates = append(p.updates, update)
	}
}

// targetDiff is the normalized difference between desired and actual
// state of one index or template.
type targetDiff struct {
	added          []string
	paramChanged   []string
	removed        []string
	typeProblems   []string
	metaChanged    bool
	settingChanges map[string]interface{}
	actualSettings map[string]interface{}
}

func (d *targetDiff) mappingChanged() bool {
	return len(d.added) > 0 || len(d.paramChanged) > 0 || d.metaChanged
}

func (d *targetDiff) changed() bool {
	return d.mappingChanged() || len(d.settingChanges) > 0
}

func (c *IndexDefinitionConfigurator) diffTarget(name string, desired desiredConfig, actual *datastore.IndexState) *targetDiff {
	diff := &targetDiff{}

	desiredProps, _ := desired.mappings["properties"].(map[string]interface{})
	actualProps, _ := actual.Mappings["properties"].(map[string]interface{})
	diffProperties(name, desiredProps, NormalizeMappingProperties(actualProps), "", diff)

	diff.metaChanged = !sourcesEqual(desired.mappings, actual.Mappings)

	actualFlat := NormalizeSettings(actual.Settings)
	diff.actualSettings = actualFlat
	diff.settingChanges = diffSettings(desired.flatSettings, actualFlat)

	return diff
}

// diffSettings compares flat, normalized settings. Keys present in actual
// but absent from desired are reverted to the environment default by an
// explicit null: omission would leave the stale value in place and break
// idempotent reconciliation.
func diffSettings(desired, actual map[string]interface{}) map[string]interface{} {
	changes := make(map[string]interface{})

	for _, key := range sortedKeys(desired) {
		actualValue, present := actual[key]
		if !present || !settingValuesEqual(desired[key], actualValue) {
			changes[key] = desired[key]
		}
	}
	for _, key := range sortedKeys(actual) {
		if _, wanted := desired[key]; !wanted {
			changes[key] = nil
		}
	}

	if len(changes) == 0 {
		return nil
	}
	return changes
}

func diffProperties(target string, desired, actual map[string]interface{}, prefix string, diff *targetDiff) {
	names := make([]string, 0, len(desired))
	for name := range desired {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := joinPath(prefix, name)

		rawActual, exists := actual[name]
		if !exists {
			diff.added = append(diff.added, path)
			continue
		}

		desiredField, dOK := desired[name].(map[string]interface{})
		actualField, aOK := rawActual.(map[string]interface{})
		if !dOK || !aOK {
			continue
		}

		desiredType := fieldType(desiredField)
		actualType := fieldType(actualField)
		if desiredType != actualType {
			diff.typeProblems = append(diff.typeProblems, fmt.Sprintf(
				"field %q of %q cannot change type from %q to %q; the datastore does not support type changes on existing fields",
				path, target, actualType, desiredType))
			continue
		}

		desiredNested, _ := desiredField["properties"].(map[string]interface{})
		actualNested, _ := actualField["properties"].(map[string]interface{})
		if desiredNested != nil || actualNested != nil {
			diffProperties(target, desiredNested, actualNested, path, diff)
		}

		if dynamicParamsDiffer(desiredField, actualField) {
			diff.paramChanged = append(diff.paramChanged, path)
		}
	}

	actualNames := make([]string, 0, len(actual))
	for name := range actual {
		actualNames = append(actualNames, name)
	}
	sort.Strings(actualNames)
	for _, name := range actualNames {
		if _, wanted := desired[name]; !wanted {
			diff.removed = append(diff.removed, joinPath(prefix, name))
		}
	}
}

// dynamicParamsDiffer compares per-field mapping parameters other than
// type and nested properties (e.g. meta), which the datastore allows
// adding or removing in place.
func dynamicParamsDiffer(desired, actual map[string]interface{}) bool {
	for param, desiredValue := range desired {
		if param == "type" || param == "properties" {
			continue
		}
		if !reflect.DeepEqual(actual[param], desiredValue) {
			return true
		}
	}
	for param := range actual {
		if param == "type" || param == "properties" {
			continue
		}
		if _, present := desired[param]; !present {
			return true
		}
	}
	return false
}

func fieldType(field map[string]interface{}) string {
	if t, ok := field["type"].(string); ok && t != "" {
		return t
	}
	return "object"
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// sourcesEqual compares the desired append-only source set against what
// the actual mapping records.
func sourcesEqual(desiredMappings, actualMappings map[string]interface{}) bool {
	desired := indexdef.RecordedSources(desiredMappings)
	actual := indexdef.RecordedSources(actualMappings)
	if len(desired) != len(actual) {
		return false
	}

	sort.Strings(desired)
	sort.Strings(actual)
	for i := range desired {
		if desired[i] != actual[i] {
			return false
		}
	}
	return true
}
