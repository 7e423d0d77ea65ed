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

package schema

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleArtifact = `
indices:
  - name: widgets
    route_with: tenant_id
    current_sources: [widgets]
    fields_by_path:
      id: {source: widgets, type: keyword}
      tenant_id: {source: widgets, type: keyword}
  - name: things
    current_sources: [things, shipments]
    default_sort_fields:
      - {field: created_at, order: desc}
    fields_by_path:
      id: {source: things, type: keyword}
      created_at: {source: things, type: date}
      shipment.shipped_at: {source: shipments, type: date}
    rollover:
      frequency: monthly
      timestamp_field_path: created_at
`

func TestLoadArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.yaml")
	if err := os.WriteFile(path, []byte(sampleArtifact), 0o600); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	artifact, err := LoadArtifact(path)
	if err != nil {
		t.Fatalf("LoadArtifact: %v", err)
	}
	if len(artifact.Indices) != 2 {
		t.Fatalf("indices = %d", len(artifact.Indices))
	}

	widgets := artifact.Indices[0]
	if widgets.Name != "widgets" || widgets.RouteWith != "tenant_id" {
		t.Errorf("widgets = %+v", widgets)
	}
	if !widgets.HasCustomRouting() {
		t.Error("widgets routes by tenant_id, not id")
	}
	if widgets.Rollover != nil {
		t.Error("widgets has no rollover metadata")
	}

	things := artifact.Indices[1]
	if things.HasCustomRouting() {
		t.Error("things uses default routing")
	}
	if things.RouteWithOrDefault() != DefaultRouteWith {
		t.Errorf("RouteWithOrDefault = %q", things.RouteWithOrDefault())
	}
	if things.Rollover == nil || things.Rollover.Frequency != "monthly" {
		t.Errorf("rollover = %+v", things.Rollover)
	}
	if things.FieldsByPath["shipment.shipped_at"].Type != "date" {
		t.Errorf("fields = %+v", things.FieldsByPath)
	}
	if len(things.DefaultSortFields) != 1 || things.DefaultSortFields[0].Order != "desc" {
		t.Errorf("sort fields = %+v", things.DefaultSortFields)
	}
}

func TestLoadArtifactRejectsUnnamedEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.yaml")
	if err := os.WriteFile(path, []byte("indices:\n  - route_with: id\n"), 0o600); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	if _, err := LoadArtifact(path); err == nil {
		t.Error("an entry without a name must be rejected")
	}
}
