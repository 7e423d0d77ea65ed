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

// Package config loads and validates environment configuration: the
// datastore clusters available in an environment and the per-index
// overrides applied on top of schema-derived defaults.
package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// ClusterConfig describes how to reach one datastore cluster.
type ClusterConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Insecure bool   `yaml:"insecure"`
}

// CustomTimestampRange assigns a specific index-name suffix (and optional
// setting overrides) to records whose partitioning timestamp falls within
// [GTE, LT). Either bound may be nil, meaning unbounded on that side.
// Ranges are consulted in declaration order and the first match wins.
type CustomTimestampRange struct {
	IndexNameSuffix  string                 `yaml:"index_name_suffix"`
	GTE              *time.Time             `yaml:"-"`
	LT               *time.Time             `yaml:"-"`
	SettingOverrides map[string]interface{} `yaml:"setting_overrides"`
}

type rawCustomTimestampRange struct {
	IndexNameSuffix  string                 `yaml:"index_name_suffix"`
	GTE              string                 `yaml:"gte"`
	LT               string                 `yaml:"lt"`
	SettingOverrides map[string]interface{} `yaml:"setting_overrides"`
}

// UnmarshalYAML parses the gte/lt bounds, which are written as ISO-8601
// timestamps in configuration.
func (r *CustomTimestampRange) UnmarshalYAML(value *yaml.Node) error {
	var raw rawCustomTimestampRange
	if err := value.Decode(&raw); err != nil {
		return err
	}

	r.IndexNameSuffix = raw.IndexNameSuffix
	r.SettingOverrides = raw.SettingOverrides

	if raw.GTE != "" {
		t, err := time.Parse(time.RFC3339, raw.GTE)
		if err != nil {
			return fmt.Errorf("custom timestamp range %q has invalid gte %q: %w", raw.IndexNameSuffix, raw.GTE, err)
		}
		r.GTE = &t
	}
	if raw.LT != "" {
		t, err := time.Parse(time.RFC3339, raw.LT)
		if err != nil {
			return fmt.Errorf("custom timestamp range %q has invalid lt %q: %w", raw.IndexNameSuffix, raw.LT, err)
		}
		r.LT = &t
	}
	return nil
}

// IndexConfig is the per-environment configuration of one index
// definition.
type IndexConfig struct {
	QueryCluster                string                            `yaml:"query_cluster"`
	IndexIntoClusters           []string                          `yaml:"index_into_clusters"`
	IgnoreRoutingValues         []string                          `yaml:"ignore_routing_values"`
	RouteWithPath               string                            `yaml:"route_with_path"`
	UseUpdatesForIndexing       bool                              `yaml:"use_updates_for_indexing"`
	SettingOverrides            map[string]interface{}            `yaml:"setting_overrides"`
	SettingOverridesByTimestamp map[string]map[string]interface{} `yaml:"setting_overrides_by_timestamp"`
	CustomTimestampRanges       []CustomTimestampRange            `yaml:"custom_timestamp_ranges"`
}

// Config is the full environment configuration document.
type Config struct {
	Clusters map[string]ClusterConfig `yaml:"clusters"`
	Indices  map[string]IndexConfig   `yaml:"indices"`
}

// Load reads environment configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// ClusterNames returns the configured cluster names, sorted.
func (c *Config) ClusterNames() []string {
	names := make([]string, 0, len(c.Clusters))
	for name := range c.Clusters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IndexConfigFor returns the env config for an index, or a zero value if
// none is configured.
func (c *Config) IndexConfigFor(indexName string) IndexConfig {
	return c.Indices[indexName]
}

// Validate collects human-readable findings about the configuration so an
// operator sees all problems in one pass. Overlapping custom timestamp
// ranges are reported as well: they silently resolve to the first match
// in declaration order, which is rarely what the operator intended.
func (c *Config) Validate() []string {
	var findings []string

	indexNames := make([]string, 0, len(c.Indices))
	for name := range c.Indices {
		indexNames = append(indexNames, name)
	}
	sort.Strings(indexNames)

	for _, indexName := range indexNames {
		idx := c.Indices[indexName]

		for _, cluster := range idx.IndexIntoClusters {
			if _, ok := c.Clusters[cluster]; !ok {
				findings = append(findings, fmt.Sprintf(
					"index %q: index_into_clusters references unknown cluster %q", indexName, cluster))
			}
		}
		if idx.QueryCluster != "" {
			if _, ok := c.Clusters[idx.QueryCluster]; !ok {
				findings = append(findings, fmt.Sprintf(
					"index %q: query_cluster references unknown cluster %q", indexName, idx.QueryCluster))
			}
		}

		for ts := range idx.SettingOverridesByTimestamp {
			if _, err := time.Parse(time.RFC3339, ts); err != nil {
				findings = append(findings, fmt.Sprintf(
					"index %q: setting_overrides_by_timestamp has unparseable timestamp %q", indexName, ts))
			}
		}

		findings = append(findings, validateCustomRanges(indexName, idx.CustomTimestampRanges)...)
	}

	return findings
}

func validateCustomRanges(indexName string, ranges []CustomTimestampRange) []string {
	var findings []string

	seen := make(map[string]bool, len(ranges))
	for _, r := range ranges {
		if r.IndexNameSuffix == "" {
			findings = append(findings, fmt.Sprintf(
				"index %q: custom timestamp range has no index_name_suffix", indexName))
			continue
		}
		if seen[r.IndexNameSuffix] {
			findings = append(findings, fmt.Sprintf(
				"index %q: duplicate custom timestamp range suffix %q", indexName, r.IndexNameSuffix))
		}
		seen[r.IndexNameSuffix] = true

		if r.GTE != nil && r.LT != nil && !r.GTE.Before(*r.LT) {
			findings = append(findings, fmt.Sprintf(
				"index %q: custom timestamp range %q has gte >= lt", indexName, r.IndexNameSuffix))
		}
	}

	for i := 0; i < len(ranges); i++ {
		for j := i + 1; j < len(ranges); j++ {
			if rangesOverlap(ranges[i], ranges[j]) {
				findings = append(findings, fmt.Sprintf(
					"index %q: custom timestamp ranges %q and %q overlap; records in the overlap resolve to %q (first declared)",
					indexName, ranges[i].IndexNameSuffix, ranges[j].IndexNameSuffix, ranges[i].IndexNameSuffix))
			}
		}
	}

	return findings
}

func rangesOverlap(a, b CustomTimestampRange) bool {
	// [a.GTE, a.LT) and [b.GTE, b.LT) are disjoint only when one ends at
	// or before the other starts. A nil bound is unbounded.
	if a.LT != nil && b.GTE != nil && !a.LT.After(*b.GTE) {
		return false
	}
	if b.LT != nil && a.GTE != nil && !b.LT.After(*a.GTE) {
		return false
	}
	return true
}
