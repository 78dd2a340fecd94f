// Copyright 2024 EMQ Technologies Co., Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package connector

import (
	"context"
	"sync"

	"github.com/lf-edge/pushdown/pkg/pipeline"
	"github.com/lf-edge/pushdown/pkg/validate"
)

type ColumnHandle = pipeline.ColumnHandle

// TableHandle identifies a table of a connector. Layout is an opaque
// connector specific layout id and is carried through plan rewrites as is.
type TableHandle struct {
	ConnectorID string `json:"connectorId"`
	SchemaName  string `json:"schemaName"`
	TableName   string `json:"tableName"`
	Layout      string `json:"layout,omitempty"`
}

func (t TableHandle) String() string {
	if t.SchemaName == "" {
		return t.ConnectorID + ":" + t.TableName
	}
	return t.ConnectorID + ":" + t.SchemaName + "." + t.TableName
}

// Metadata is implemented by connectors that can absorb work into their
// table scans. A connector accepting the candidate returns the current
// pipeline extended with exactly the candidate node and one column handle per
// candidate output column. When current is nil the connector seeds the
// pipeline with its table node first. Returning nil, nil rejects the
// candidate. Errors are faults, not rejections.
type Metadata interface {
	PushFilterIntoScan(ctx context.Context, session *Session, table TableHandle, current *pipeline.TableScanPipeline, candidate *pipeline.FilterNode) (*pipeline.TableScanPipeline, error)
	PushProjectIntoScan(ctx context.Context, session *Session, table TableHandle, current *pipeline.TableScanPipeline, candidate *pipeline.ProjectNode) (*pipeline.TableScanPipeline, error)
}

// Catalog routes negotiation to the connector owning the table. Tables of
// unregistered connectors are never pushed into.
type Catalog struct {
	lock       sync.RWMutex
	connectors map[string]Metadata
}

var _ Metadata = (*Catalog)(nil)

func NewCatalog() *Catalog {
	return &Catalog{connectors: make(map[string]Metadata)}
}

func (c *Catalog) Register(connectorID string, m Metadata) error {
	if err := validate.ValidateID(connectorID); err != nil {
		return err
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	c.connectors[connectorID] = m
	return nil
}

func (c *Catalog) Get(connectorID string) (Metadata, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	m, ok := c.connectors[connectorID]
	return m, ok
}

func (c *Catalog) PushFilterIntoScan(ctx context.Context, session *Session, table TableHandle, current *pipeline.TableScanPipeline, candidate *pipeline.FilterNode) (*pipeline.TableScanPipeline, error) {
	m, ok := c.Get(table.ConnectorID)
	if !ok {
		return nil, nil
	}
	return m.PushFilterIntoScan(ctx, session, table, current, candidate)
}

func (c *Catalog) PushProjectIntoScan(ctx context.Context, session *Session, table TableHandle, current *pipeline.TableScanPipeline, candidate *pipeline.ProjectNode) (*pipeline.TableScanPipeline, error) {
	m, ok := c.Get(table.ConnectorID)
	if !ok {
		return nil, nil
	}
	return m.PushProjectIntoScan(ctx, session, table, current, candidate)
}
