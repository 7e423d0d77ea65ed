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

// Package indexdef models index definitions: plain (non-rollover) indices
// and time-partitioned rollover index templates, including the rollover
// decision engine that resolves record timestamps to concrete index names.
package indexdef

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/step-security-bot/elasticgraph-sub008/internal/config"
	"github.com/step-security-bot/elasticgraph-sub008/internal/datastore"
	"github.com/step-security-bot/elasticgraph-sub008/internal/egerrors"
	"github.com/step-security-bot/elasticgraph-sub008/internal/schema"
)

// RolloverIndexInfixMarker separates the base index name from the
// time-derived suffix in rollover index names. Must be preserved
// bit-exact: existing deployments have indices named with it.
const RolloverIndexInfixMarker = "_rollover__"

// MetaSourcesPath documents where the append-only set of source names is
// recorded in index mappings: _meta.ElasticGraph.sources.
const (
	MetaRootKey      = "ElasticGraph"
	MetaSourcesField = "sources"
)

// RelatedIndicesOptions controls how configured-but-undiscovered rollover
// indices are treated by RelatedRolloverIndices.
type RelatedIndicesOptions struct {
	// OnlyIfExists drops configured entries that were not discovered live
	// in the datastore. Search-time exclusion filters need this: naming a
	// non-existent index in an exclusion expression makes the datastore
	// error. Admin and indexing paths leave it false so not-yet-created
	// indices are still considered.
	OnlyIfExists bool
}

// Definition is the shared capability set of a plain index and a rollover
// index template. The two variants differ in name resolution, existence
// checks and deletion semantics; everything else lives on the common base.
type Definition interface {
	// Name is the base index (or template) name.
	Name() string

	// IsRollover distinguishes a rollover template from a plain index.
	IsRollover() bool

	// Metadata exposes the schema-derived runtime metadata.
	Metadata() *schema.IndexDefinitionMetadata

	// EnvConfig exposes the per-environment configuration.
	EnvConfig() config.IndexConfig

	// HasCustomRouting reports whether records route by a field other than id.
	HasCustomRouting() bool

	// RoutingValueForPreparedRecord resolves the shard-routing value for a
	// record about to be indexed.
	RoutingValueForPreparedRecord(record map[string]interface{}) (string, error)

	// ClustersToIndexInto names the clusters this definition writes to.
	ClustersToIndexInto() ([]string, error)

	// ClusterToQuery names the cluster queries are served from.
	ClusterToQuery() (string, error)

	// IndexExpressionForSearch is the name or wildcard expression used in
	// search requests.
	IndexExpressionForSearch() string

	// IndexNameForWrites resolves the concrete index a record is written
	// to. timestampFieldPathOverride, when non-empty, replaces the
	// configured rollover timestamp field path; plain indices ignore it.
	IndexNameForWrites(record map[string]interface{}, timestampFieldPathOverride string) (string, error)

	// RelatedRolloverIndices returns the concrete rollover indices related
	// to this definition, merging live-discovered and configured entries.
	// Plain indices have none.
	RelatedRolloverIndices(ctx context.Context, client datastore.Client, opts RelatedIndicesOptions) ([]RolloverIndex, error)

	// KnownRelatedQueryRolloverIndices memoizes RelatedRolloverIndices
	// against the query cluster with OnlyIfExists set, for query-time use.
	KnownRelatedQueryRolloverIndices(ctx context.Context) ([]RolloverIndex, error)

	// SearchesCouldHitIncompleteDocs reports whether this index may contain
	// documents assembled from multiple partial sources, based on the
	// append-only _meta.ElasticGraph.sources set recorded in the datastore.
	// Memoized per definition instance.
	SearchesCouldHitIncompleteDocs(ctx context.Context) (bool, error)

	// DeleteFromDatastore removes the definition's datastore footprint:
	// the index itself, or the template plus all its concrete indices.
	DeleteFromDatastore(ctx context.Context, client datastore.Client) error
}

// New builds the appropriate Definition variant from runtime metadata and
// environment configuration. Rollover metadata is validated fail-fast.
func New(
	meta *schema.IndexDefinitionMetadata,
	envConfig config.IndexConfig,
	clients map[string]datastore.Client,
	logger logr.Logger,
) (Definition, error) {
	if meta.Rollover != nil {
		return NewRolloverIndexTemplate(meta, envConfig, clients, logger)
	}
	return NewIndex(meta, envConfig, clients, logger)
}

// base carries the behavior shared by both definition variants. The
// memoized fields are safe because definitions are rebuilt per schema
// generation and treated as immutable afterwards.
type base struct {
	meta    *schema.IndexDefinitionMetadata
	env     config.IndexConfig
	clients map[string]datastore.Client
	logger  logr.Logger

	// self lets base methods reach variant-specific behavior (state
	// fetching, related index resolution).
	self Definition

	incompleteOnce sync.Once
	incomplete     bool
	incompleteErr  error

	knownRelatedOnce sync.Once
	knownRelated     []RolloverIndex
	knownRelatedErr  error
}

func (b *base) Name() string                              { return b.meta.Name }
func (b *base) Metadata() *schema.IndexDefinitionMetadata { return b.meta }
func (b *base) EnvConfig() config.IndexConfig             { return b.env }

func (b *base) HasCustomRouting() bool {
	return b.meta.HasCustomRouting()
}

// RoutingValueForPreparedRecord resolves the routing value for a record.
// With custom routing active, a configured route_with_path is mandatory;
// values listed in ignore_routing_values fall back to routing by id so a
// single hot routing value cannot overload one shard.
func (b *base) RoutingValueForPreparedRecord(record map[string]interface{}) (string, error) {
	if !b.HasCustomRouting() {
		return stringFieldAt(record, schema.DefaultRouteWith)
	}

	if b.env.RouteWithPath == "" {
		return "", egerrors.NewConfigError(
			"index %q uses custom routing (route_with: %q) but has no route_with_path configured",
			b.meta.Name, b.meta.RouteWithOrDefault())
	}

	value, err := stringFieldAt(record, b.env.RouteWithPath)
	if err != nil {
		return "", err
	}

	for _, ignored := range b.env.IgnoreRoutingValues {
		if value == ignored {
			return stringFieldAt(record, schema.DefaultRouteWith)
		}
	}
	return value, nil
}

func (b *base) ClustersToIndexInto() ([]string, error) {
	if len(b.env.IndexIntoClusters) == 0 {
		return nil, egerrors.NewConfigError("index %q has no index_into_clusters configured", b.meta.Name)
	}
	return b.env.IndexIntoClusters, nil
}

func (b *base) ClusterToQuery() (string, error) {
	if b.env.QueryCluster == "" {
		return "", egerrors.NewConfigError("index %q has no query_cluster configured", b.meta.Name)
	}
	return b.env.QueryCluster, nil
}

func (b *base) clientFor(clusterName string) (datastore.Client, error) {
	client, ok := b.clients[clusterName]
	if !ok {
		valid := make([]string, 0, len(b.clients))
		for name := range b.clients {
			valid = append(valid, name)
		}
		sort.Strings(valid)
		return nil, &egerrors.ClusterOperationError{Name: clusterName, ValidNames: valid}
	}
	return client, nil
}

// queryClient resolves the datastore client for the query cluster.
func (b *base) queryClient() (datastore.Client, error) {
	cluster, err := b.ClusterToQuery()
	if err != nil {
		return nil, err
	}
	return b.clientFor(cluster)
}

func (b *base) KnownRelatedQueryRolloverIndices(ctx context.Context) ([]RolloverIndex, error) {
	b.knownRelatedOnce.Do(func() {
		client, err := b.queryClient()
		if err != nil {
			b.knownRelatedErr = err
			return
		}
		b.knownRelated, b.knownRelatedErr = b.self.RelatedRolloverIndices(
			ctx, client, RelatedIndicesOptions{OnlyIfExists: true})
	})
	return b.knownRelated, b.knownRelatedErr
}

// SearchesCouldHitIncompleteDocs consults the append-only source set
// recorded in the datastore mapping metadata. An index populated by more
// than one source (now or at any point in its history) may hold documents
// assembled from a subset of those sources.
func (b *base) SearchesCouldHitIncompleteDocs(ctx context.Context) (bool, error) {
	b.incompleteOnce.Do(func() {
		client, err := b.queryClient()
		if err != nil {
			b.incompleteErr = err
			return
		}

		state, err := b.fetchState(ctx, client)
		if err != nil {
			b.incompleteErr = err
			return
		}

		sources := make(map[string]bool, len(b.meta.CurrentSources))
		for _, source := range b.meta.CurrentSources {
			sources[source] = true
		}
		if state != nil {
			for _, source := range RecordedSources(state.Mappings) {
				sources[source] = true
			}
		}
		b.incomplete = len(sources) > 1
	})
	return b.incomplete, b.incompleteErr
}

// fetchState reads the live state of this definition's datastore object.
// Variants override it: indices fetch the concrete index, templates fetch
// the index template.
func (b *base) fetchState(ctx context.Context, client datastore.Client) (*datastore.IndexState, error) {
	if b.self.IsRollover() {
		return client.GetIndexTemplate(ctx, b.meta.Name)
	}
	return client.GetIndex(ctx, b.meta.Name)
}

// RecordedSources extracts the _meta.ElasticGraph.sources list from a
// mapping payload, tolerating absence at any level.
func RecordedSources(mappings map[string]interface{}) []string {
	meta, ok := mappings["_meta"].(map[string]interface{})
	if !ok {
		return nil
	}
	eg, ok := meta[MetaRootKey].(map[string]interface{})
	if !ok {
		return nil
	}
	raw, ok := eg[MetaSourcesField].([]interface{})
	if !ok {
		return nil
	}

	sources := make([]string, 0, len(raw))
	for _, entry := range raw {
		if s, ok := entry.(string); ok {
			sources = append(sources, s)
		}
	}
	return sources
}

// fieldAt traverses a record along a dotted field path. Missing fields
// are an error: callers must supply complete records rather than rely on
// silent defaulting.
func fieldAt(record map[string]interface{}, path string) (interface{}, error) {
	parts := strings.Split(path, ".")
	var current interface{} = record

	for i, part := range parts {
		asMap, ok := current.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("field %q not found in record: %q is not an object",
				path, strings.Join(parts[:i], "."))
		}
		current, ok = asMap[part]
		if !ok {
			return nil, fmt.Errorf("field %q not found in record", path)
		}
	}
	return current, nil
}

func stringFieldAt(record map[string]interface{}, path string) (string, error) {
	value, err := fieldAt(record, path)
	if err != nil {
		return "", err
	}
	switch v := value.(type) {
	case string:
		return v, nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

// timestampFieldAt extracts and parses an ISO-8601 date or date-time at a
// dotted field path.
func timestampFieldAt(record map[string]interface{}, path string) (time.Time, error) {
	value, err := fieldAt(record, path)
	if err != nil {
		return time.Time{}, err
	}

	str, ok := value.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("field %q is not a timestamp string (got %T)", path, value)
	}

	if t, err := time.Parse(time.RFC3339Nano, str); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", str, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("field %q value %q is not an ISO-8601 date or date-time", path, str)
	}
	return t, nil
}
