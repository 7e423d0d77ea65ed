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

package datastoretest

import (
	"context"
	"testing"
)

func TestCreateIndexStoresBodySections(t *testing.T) {
	client := NewFakeClient("main")

	body := map[string]interface{}{
		"mappings": map[string]interface{}{"dynamic": "strict"},
		"settings": map[string]interface{}{"index.number_of_shards": "3"},
	}
	if err := client.CreateIndex(context.Background(), "widgets", body); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}

	state, err := client.GetIndex(context.Background(), "widgets")
	if err != nil || state == nil {
		t.Fatalf("GetIndex = %v, %v", state, err)
	}
	if state.Mappings["dynamic"] != "strict" {
		t.Errorf("Mappings = %v", state.Mappings)
	}
	if state.Settings["index.number_of_shards"] != "3" {
		t.Errorf("Settings = %v", state.Settings)
	}
}

func TestCreateIndexWithoutSettingsSection(t *testing.T) {
	client := NewFakeClient("main")

	body := map[string]interface{}{
		"mappings": map[string]interface{}{"dynamic": "strict"},
	}
	if err := client.CreateIndex(context.Background(), "widgets", body); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}

	state, err := client.GetIndex(context.Background(), "widgets")
	if err != nil || state == nil {
		t.Fatalf("GetIndex = %v, %v", state, err)
	}
	if state.Settings != nil {
		t.Errorf("Settings = %v, want nil", state.Settings)
	}
}

func TestPutIndexTemplateStoresTemplateSection(t *testing.T) {
	client := NewFakeClient("main")

	body := map[string]interface{}{
		"index_patterns": []interface{}{"things_rollover__*"},
		"template": map[string]interface{}{
			"mappings": map[string]interface{}{"dynamic": "strict"},
			"settings": map[string]interface{}{"index.number_of_replicas": "1"},
		},
	}
	if err := client.PutIndexTemplate(context.Background(), "things", body); err != nil {
		t.Fatalf("PutIndexTemplate: %v", err)
	}

	state, err := client.GetIndexTemplate(context.Background(), "things")
	if err != nil || state == nil {
		t.Fatalf("GetIndexTemplate = %v, %v", state, err)
	}
	if state.Mappings["dynamic"] != "strict" {
		t.Errorf("Mappings = %v", state.Mappings)
	}
	if state.Settings["index.number_of_replicas"] != "1" {
		t.Errorf("Settings = %v", state.Settings)
	}
}
