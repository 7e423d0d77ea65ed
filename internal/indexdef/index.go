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

	"github.com/go-logr/logr"

	"github.com/step-security-bot/elasticgraph-sub008/internal/config"
	"github.com/step-security-bot/elasticgraph-sub008/internal/datastore"
	"github.com/step-security-bot/elasticgraph-sub008/internal/schema"
)

// Index is a single, non-partitioned index definition. All records write
// to (and all searches hit) the one concrete index named by the
// definition.
type Index struct {
	base
}

var _ Definition = (*Index)(nil)

// NewIndex builds a plain index definition.
func NewIndex(
	meta *schema.IndexDefinitionMetadata,
	envConfig config.IndexConfig,
	clients map[string]datastore.Client,
	logger logr.Logger,
) (*Index, error) {
	idx := &Index{base: base{
		meta:    meta,
		env:     envConfig,
		clients: clients,
		logger:  logger.WithValues("index", meta.Name),
	}}
	idx.base.self = idx
	return idx, nil
}

// IsRollover is false for plain indices.
func (i *Index) IsRollover() bool { return false }

// IndexExpressionForSearch is just the index name.
func (i *Index) IndexExpressionForSearch() string { return i.meta.Name }

// IndexNameForWrites ignores the record: every write goes to the one
// concrete index.
func (i *Index) IndexNameForWrites(record map[string]interface{}, timestampFieldPathOverride string) (string, error) {
	return i.meta.Name, nil
}

// RelatedRolloverIndices is empty for a plain index.
func (i *Index) RelatedRolloverIndices(ctx context.Context, client datastore.Client, opts RelatedIndicesOptions) ([]RolloverIndex, error) {
	return nil, nil
}

// DeleteFromDatastore removes the concrete index.
func (i *Index) DeleteFromDatastore(ctx context.Context, client datastore.Client) error {
	return client.DeleteIndices(ctx, i.meta.Name)
}
