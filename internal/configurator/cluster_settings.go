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
	"context"
	"fmt"
	"sort"

	"github.com/go-logr/logr"

	"github.com/step-security-bot/elasticgraph-sub008/internal/datastore"
	"github.com/step-security-bot/elasticgraph-sub008/internal/egerrors"
	"github.com/step-security-bot/elasticgraph-sub008/internal/metrics"
)

// AllClusters addresses every configured cluster in a maintenance-mode
// operation.
const AllClusters = "all_clusters"

const autoCreateIndexSetting = "action.auto_create_index"

// autoCreateNormalValue is written when maintenance mode ends: dashboard
// system index patterns stay blocked while everything else, including
// rollover index patterns, may auto-create again.
const autoCreateNormalValue = "-.kibana*,-.opensearch_dashboards*,+*"

// ClusterSettingsManager toggles index maintenance mode across datastore
// clusters by writing a persistent cluster setting. Maintenance mode
// disables index auto-creation so bulk reconfiguration cannot race the
// datastore into creating default-shaped indices. The setting is remote
// state, so the window is effective across processes, but two processes
// toggling it concurrently are not guarded against.
type ClusterSettingsManager struct {
	clients map[string]datastore.Client
	logger  logr.Logger
}

// NewClusterSettingsManager builds a manager over the named cluster
// clients.
func NewClusterSettingsManager(clients map[string]datastore.Client, logger logr.Logger) *ClusterSettingsManager {
	return &ClusterSettingsManager{clients: clients, logger: logger}
}

// StartIndexMaintenanceMode disables index auto-creation on the named
// cluster, or on every cluster when given AllClusters.
func (m *ClusterSettingsManager) StartIndexMaintenanceMode(ctx context.Context, clusterName string) error {
	clients, err := m.clientsFor(clusterName)
	if err != nil {
		return err
	}

	for _, client := range clients {
		settings := map[string]interface{}{autoCreateIndexSetting: "false"}
		if err := client.PutPersistentClusterSettings(ctx, settings); err != nil {
			return fmt.Errorf("failed to start index maintenance mode on %q: %w", client.ClusterName(), err)
		}
		metrics.RecordMaintenanceModeToggle(client.ClusterName(), "start")
		m.logger.Info("started index maintenance mode", "cluster", client.ClusterName())
	}
	return nil
}

// EndIndexMaintenanceMode re-enables index auto-creation on the named
// cluster (or all clusters), restoring the normal pattern value.
func (m *ClusterSettingsManager) EndIndexMaintenanceMode(ctx context.Context, clusterName string) error {
	clients, err := m.clientsFor(clusterName)
	if err != nil {
		return err
	}

	for _, client := range clients {
		settings := map[string]interface{}{autoCreateIndexSetting: autoCreateNormalValue}
		if err := client.PutPersistentClusterSettings(ctx, settings); err != nil {
			return fmt.Errorf("failed to end index maintenance mode on %q: %w", client.ClusterName(), err)
		}
		metrics.RecordMaintenanceModeToggle(client.ClusterName(), "end")
		m.logger.Info("ended index maintenance mode", "cluster", client.ClusterName())
	}
	return nil
}

// InIndexMaintenanceMode wraps fn in a maintenance window. When fn fails,
// maintenance mode is deliberately left ON and a warning is logged:
// re-enabling auto-creation after a failed reconfiguration could let the
// datastore create indices with wrong or default settings, so manual
// intervention is required instead.
func (m *ClusterSettingsManager) InIndexMaintenanceMode(ctx context.Context, clusterName string, fn func(context.Context) error) error {
	if err := m.StartIndexMaintenanceMode(ctx, clusterName); err != nil {
		return err
	}

	if err := fn(ctx); err != nil {
		m.logger.Info("WARNING: operation failed inside the index maintenance window; leaving maintenance mode on, so index auto-creation stays disabled until an operator re-enables it",
			"cluster", clusterName, "error", err.Error())
		return err
	}

	return m.EndIndexMaintenanceMode(ctx, clusterName)
}

func (m *ClusterSettingsManager) clientsFor(clusterName string) ([]datastore.Client, error) {
	names := make([]string, 0, len(m.clients))
	for name := range m.clients {
		names = append(names, name)
	}
	sort.Strings(names)

	if clusterName == AllClusters {
		clients := make([]datastore.Client, 0, len(names))
		for _, name := range names {
			clients = append(clients, m.clients[name])
		}
		return clients, nil
	}

	client, ok := m.clients[clusterName]
	if !ok {
		return nil, &egerrors.ClusterOperationError{Name: clusterName, ValidNames: names}
	}
	return []datastore.Client{client}, nil
}
