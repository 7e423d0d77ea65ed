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

package admin

import (
	"context"
	"strings"
	"testing"

	"github.com/go-logr/logr"

	"github.com/step-security-bot/elasticgraph-sub008/internal/config"
	"github.com/step-security-bot/elasticgraph-sub008/internal/datastore"
	"github.com/step-security-bot/elasticgraph-sub008/internal/datastore/datastoretest"
	"github.com/step-security-bot/elasticgraph-sub008/internal/schema"
)

func testArtifact() *schema.Artifact {
	return &schema.Artifact{Indices: []schema.IndexDefinitionMetadata{
		{
			Name:           "widgets",
			CurrentSources: []string{"widgets"},
			FieldsByPath: map[string]schema.Field{
				"id": {Source: "widgets", Type: "keyword"},
			},
		},
		{
			Name:           "things",
			CurrentSources: []string{"things"},
			FieldsByPath: map[string]schema.Field{
				"id":         {Source: "things", Type: "keyword"},
				"created_at": {Source: "things", Type: "date"},
			},
			Rollover: &schema.Rollover{Frequency: "monthly", TimestampFieldPath: "created_at"},
		},
	}}
}

func testConfig() *config.Config {
	return &config.Config{
		Clusters: map[string]config.ClusterConfig{
			"main": {URL: "http://localhost:9200"},
		},
		Indices: map[string]config.IndexConfig{
			"widgets": {QueryCluster: "main", IndexIntoClusters: []string{"main"}},
			"things":  {QueryCluster: "main", IndexIntoClusters: []string{"main"}},
		},
	}
}

func newTestAdmin(t *testing.T, cfg *config.Config) (*Admin, *datastoretest.FakeClient) {
	t.Helper()
	fake := datastoretest.NewFakeClient("main")
	clients := map[string]datastore.Client{"main": fake}

	a, err := NewWithClients(cfg, testArtifact(), clients, logr.Discard())
	if err != nil {
		t.Fatalf("NewWithClients: %v", err)
	}
	return a, fake
}

func TestDefinitionsAreSortedByName(t *testing.T) {
	a, _ := newTestAdmin(t, testConfig())

	defs := a.Definitions()
	if len(defs) != 2 || defs[0].Name() != "things" || defs[1].Name() != "widgets" {
		names := make([]string, len(defs))
		for i, def := range defs {
			names[i] = def.Name()
		}
		t.Errorf("definitions = %v", names)
	}
}

func TestConfigureAllWrapsRunInMaintenanceWindow(t *testing.T) {
	a, fake := newTestAdmin(t, testConfig())

	if err := a.ConfigureAll(context.Background()); err != nil {
		t.Fatalf("ConfigureAll: %v", err)
	}

	calls := fake.WriteCalls
	if len(calls) < 4 {
		t.Fatalf("calls = %v", calls)
	}
	if calls[0] != "put_persistent_cluster_settings main" {
		t.Errorf("the run must open with a maintenance-mode toggle, got %v", calls)
	}
	if calls[len(calls)-1] != "put_persistent_cluster_settings main" {
		t.Errorf("the run must close with a maintenance-mode toggle, got %v", calls)
	}

	if fake.PersistentClusterSettings["action.auto_create_index"] == "false" {
		t.Error("auto-creation must be re-enabled after a successful run")
	}
	if _, ok := fake.Indices["widgets"]; !ok {
		t.Error("widgets index was not created")
	}
	if _, ok := fake.Templates["things"]; !ok {
		t.Error("things template was not put")
	}
}

func TestConfigureAllFailsForUnconfiguredCluster(t *testing.T) {
	cfg := testConfig()
	widgets := cfg.Indices["widgets"]
	widgets.IndexIntoClusters = []string{"main", "staging"}
	cfg.Indices["widgets"] = widgets

	a, fake := newTestAdmin(t, cfg)

	err := a.ConfigureAll(context.Background())
	if err == nil || !strings.Contains(err.Error(), "staging") {
		t.Fatalf("error = %v", err)
	}

	// The failed window intentionally stays open.
	if fake.PersistentClusterSettings["action.auto_create_index"] != "false" {
		t.Error("maintenance mode must remain on after a failed run")
	}
}

func TestValidateAllMergesConfigAndDatastoreFindings(t *testing.T) {
	cfg := testConfig()
	things := cfg.Indices["things"]
	things.QueryCluster = "missing"
	cfg.Indices["things"] = things

	a, _ := newTestAdmin(t, cfg)

	findings, err := a.ValidateAll(context.Background())
	if err != nil {
		t.Fatalf("ValidateAll: %v", err)
	}
	if len(findings) == 0 {
		t.Fatal("expected findings for the unknown query cluster")
	}
	found := false
	for _, finding := range findings {
		if strings.Contains(finding, "missing") {
			found = true
		}
	}
	if !found {
		t.Errorf("findings = %v", findings)
	}
}

func TestValidateAllIsReadOnly(t *testing.T) {
	a, fake := newTestAdmin(t, testConfig())

	if _, err := a.ValidateAll(context.Background()); err != nil {
		t.Fatalf("ValidateAll: %v", err)
	}
	if len(fake.WriteCalls) != 0 {
		t.Errorf("validation must not write, got %v", fake.WriteCalls)
	}
}
