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

// Package admin orchestrates configuration runs: it builds datastore
// clients and index definitions from environment config plus runtime
// metadata, and drives validation and reconciliation across clusters.
package admin

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-logr/logr"

	"github.com/step-security-bot/elasticgraph-sub008/internal/config"
	"github.com/step-security-bot/elasticgraph-sub008/internal/configurator"
	"github.com/step-security-bot/elasticgraph-sub008/internal/datastore"
	"github.com/step-security-bot/elasticgraph-sub008/internal/indexdef"
	"github.com/step-security-bot/elasticgraph-sub008/internal/schema"
)

// Admin drives index administration for one environment.
type Admin struct {
	cfg     *config.Config
	clients map[string]datastore.Client
	defs    []indexdef.Definition
	logger  logr.Logger
}

// New builds an Admin with HTTP datastore clients for every configured
// cluster.
func New(cfg *config.Config, artifact *schema.Artifact, logger logr.Logger) (*Admin, error) {
	clients := make(map[string]datastore.Client, len(cfg.Clusters))
	for name, cluster := range cfg.Clusters {
		client, err := datastore.NewHTTPClient(datastore.HTTPClientConfig{
			ClusterName: name,
			BaseURL:     cluster.URL,
			Username:    cluster.Username,
			Password:    cluster.Password,
			Insecure:    cluster.Insecure,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build datastore client for cluster %q: %w", name, err)
		}
		clients[name] = client
	}
	return NewWithClients(cfg, artifact, clients, logger)
}

// NewWithClients builds an Admin over pre-built datastore clients.
func NewWithClients(cfg *config.Config, artifact *schema.Artifact, clients map[string]datastore.Client, logger logr.Logger) (*Admin, error) {
	defs := make([]indexdef.Definition, 0, len(artifact.Indices))
	for i := range artifact.Indices {
		meta := &artifact.Indices[i]
		def, err := indexdef.New(meta, cfg.IndexConfigFor(meta.Name), clients, logger)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].Name() < defs[j].Name() })
	return &Admin{cfg: cfg, clients: clients, defs: defs, logger: logger}, nil
}

// Definitions returns the index definitions, sorted by name.
func (a *Admin) Definitions() []indexdef.Definition { return a.defs }

// ClusterSettingsManager returns a manager over all configured clusters.
func (a *Admin) ClusterSettingsManager() *configurator.ClusterSettingsManager {
	return configurator.NewClusterSettingsManager(a.clients, a.logger)
}

// ValidateAll collects configuration findings plus per-definition,
// per-cluster validation problems, without performing any write.
func (a *Admin) ValidateAll(ctx context.Context) ([]string, error) {
	findings := a.cfg.Validate()

	for _, def := range a.defs {
		clusters, err := def.ClustersToIndexInto()
		if err != nil {
			findings = append(findings, err.Error())
			continue
		}
		for _, cluster := range clusters {
			client, ok := a.clients[cluster]
			if !ok {
				// Already reported by cfg.Validate.
				continue
			}
			problems, err := configurator.NewIndexDefinitionConfigurator(def, client, a.logger).Validate(ctx)
			if err != nil {
				return nil, err
			}
			findings = append(findings, problems...)
		}
	}
	return findings, nil
}

// ConfigureAll reconciles every definition into each of its target
// clusters inside a cluster-wide index maintenance window, so template
// auto-creation cannot race the reconfiguration.
func (a *Admin) ConfigureAll(ctx context.Context) error {
	manager := a.ClusterSettingsManager()

	return manager.InIndexMaintenanceMode(ctx, configurator.AllClusters, func(ctx context.Context) error {
		for _, def := range a.defs {
			clusters, err := def.ClustersToIndexInto()
			if err != nil {
				return err
			}
			for _, cluster := range clusters {
				client, ok := a.clients[cluster]
				if !ok {
					return fmt.Errorf("index %q targets unconfigured cluster %q", def.Name(), cluster)
				}
				if err := configurator.NewIndexDefinitionConfigurator(def, client, a.logger).Configure(ctx); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
