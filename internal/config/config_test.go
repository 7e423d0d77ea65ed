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

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleConfig = `
clusters:
  main:
    url: https://search.example.com:9200
    username: admin
    password: secret
  replica:
    url: https://replica.example.com:9200
    insecure: true

indices:
  things:
    query_cluster: main
    index_into_clusters: [main, replica]
    setting_overrides:
      number_of_replicas: 2
    setting_overrides_by_timestamp:
      "2019-06-01T00:00:00Z":
        number_of_shards: 17
    custom_timestamp_ranges:
      - index_name_suffix: before_2015
        lt: "2015-01-01T00:00:00Z"
        setting_overrides:
          number_of_shards: 1
  widgets:
    query_cluster: main
    index_into_clusters: [main]
    route_with_path: options.routing
    ignore_routing_values: [ALL_TENANTS]
`

func loadSample(t *testing.T, content string) *Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

func TestLoad(t *testing.T) {
	cfg := loadSample(t, sampleConfig)

	if got := cfg.ClusterNames(); len(got) != 2 || got[0] != "main" || got[1] != "replica" {
		t.Errorf("ClusterNames = %v", got)
	}
	if cfg.Clusters["main"].Username != "admin" {
		t.Errorf("main cluster = %+v", cfg.Clusters["main"])
	}
	if !cfg.Clusters["replica"].Insecure {
		t.Error("replica insecure flag lost")
	}

	things := cfg.IndexConfigFor("things")
	if things.QueryCluster != "main" || len(things.IndexIntoClusters) != 2 {
		t.Errorf("things = %+v", things)
	}
	if things.SettingOverrides["number_of_replicas"] != 2 {
		t.Errorf("setting overrides = %v", things.SettingOverrides)
	}
	if things.SettingOverridesByTimestamp["2019-06-01T00:00:00Z"]["number_of_shards"] != 17 {
		t.Errorf("timestamped overrides = %v", things.SettingOverridesByTimestamp)
	}

	widgets := cfg.IndexConfigFor("widgets")
	if widgets.RouteWithPath != "options.routing" || len(widgets.IgnoreRoutingValues) != 1 {
		t.Errorf("widgets = %+v", widgets)
	}

	unknown := cfg.IndexConfigFor("nonexistent")
	if unknown.QueryCluster != "" {
		t.Errorf("unknown index must yield a zero config, got %+v", unknown)
	}
}

func TestLoadParsesCustomTimestampRangeBounds(t *testing.T) {
	cfg := loadSample(t, sampleConfig)

	ranges := cfg.IndexConfigFor("things").CustomTimestampRanges
	if len(ranges) != 1 {
		t.Fatalf("ranges = %+v", ranges)
	}

	r := ranges[0]
	if r.IndexNameSuffix != "before_2015" {
		t.Errorf("suffix = %q", r.IndexNameSuffix)
	}
	if r.GTE != nil {
		t.Errorf("gte must be unbounded, got %v", r.GTE)
	}
	want := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	if r.LT == nil || !r.LT.Equal(want) {
		t.Errorf("lt = %v, want %v", r.LT, want)
	}
	if r.SettingOverrides["number_of_shards"] != 1 {
		t.Errorf("overrides = %v", r.SettingOverrides)
	}
}

func TestLoadRejectsBadRangeBound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
indices:
  things:
    custom_timestamp_ranges:
      - index_name_suffix: old
        lt: "January 2015"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("an unparseable bound must fail loading")
	}
}

func TestValidateCleanConfig(t *testing.T) {
	cfg := loadSample(t, sampleConfig)
	if findings := cfg.Validate(); len(findings) != 0 {
		t.Errorf("findings = %v", findings)
	}
}

func TestValidateFindings(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			"unknown index cluster",
			`
clusters:
  main: {url: "http://localhost:9200"}
indices:
  things:
    index_into_clusters: [staging]
`,
			"unknown cluster \"staging\"",
		},
		{
			"unknown query cluster",
			`
clusters:
  main: {url: "http://localhost:9200"}
indices:
  things:
    query_cluster: staging
`,
			"query_cluster references unknown cluster",
		},
		{
			"bad override timestamp",
			`
indices:
  things:
    setting_overrides_by_timestamp:
      "June 2019":
        number_of_shards: 2
`,
			"unparseable timestamp \"June 2019\"",
		},
		{
			"missing range suffix",
			`
indices:
  things:
    custom_timestamp_ranges:
      - lt: "2015-01-01T00:00:00Z"
`,
			"no index_name_suffix",
		},
		{
			"duplicate range suffix",
			`
indices:
  things:
    custom_timestamp_ranges:
      - index_name_suffix: old
        lt: "2015-01-01T00:00:00Z"
      - index_name_suffix: old
        gte: "2020-01-01T00:00:00Z"
`,
			"duplicate custom timestamp range suffix",
		},
		{
			"inverted range",
			`
indices:
  things:
    custom_timestamp_ranges:
      - index_name_suffix: old
        gte: "2016-01-01T00:00:00Z"
        lt: "2015-01-01T00:00:00Z"
`,
			"gte >= lt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadSample(t, tt.content)
			findings := cfg.Validate()

			for _, finding := range findings {
				if strings.Contains(finding, tt.want) {
					return
				}
			}
			t.Errorf("findings %v do not mention %q", findings, tt.want)
		})
	}
}

func TestValidateReportsOverlappingRanges(t *testing.T) {
	content := `
indices:
  things:
    custom_timestamp_ranges:
      - index_name_suffix: first
        lt: "2016-01-01T00:00:00Z"
      - index_name_suffix: second
        gte: "2015-01-01T00:00:00Z"
        lt: "2017-01-01T00:00:00Z"
`
	cfg := loadSample(t, content)

	findings := cfg.Validate()
	if len(findings) != 1 {
		t.Fatalf("findings = %v", findings)
	}
	// The overlap resolves to the first declared range; the finding says so.
	if !strings.Contains(findings[0], "overlap") || !strings.Contains(findings[0], "\"first\"") {
		t.Errorf("finding = %q", findings[0])
	}
}

func TestValidateAdjacentRangesDoNotOverlap(t *testing.T) {
	content := `
indices:
  things:
    custom_timestamp_ranges:
      - index_name_suffix: first
        lt: "2015-01-01T00:00:00Z"
      - index_name_suffix: second
        gte: "2015-01-01T00:00:00Z"
`
	cfg := loadSample(t, content)
	if findings := cfg.Validate(); len(findings) != 0 {
		t.Errorf("adjacent half-open ranges flagged as overlapping: %v", findings)
	}
}
