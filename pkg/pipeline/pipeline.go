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

package pipeline

import (
	"strings"

	"github.com/lf-edge/pushdown/pkg/errorx"
	"github.com/lf-edge/pushdown/pkg/types"
)

// ColumnHandle is an opaque, connector specific column reference. HandleKind
// identifies the implementation in the encoded form, see RegisterColumnHandle.
type ColumnHandle interface {
	HandleKind() string
}

// TableScanPipeline is the ordered list of operations a connector has agreed
// to execute for one table scan. Node 0 is always the TableNode and node i
// reads the output of node i-1. The handles describe the output of the last
// node. A pipeline is never modified; Extend returns a new one.
type TableScanPipeline struct {
	nodes   []Node
	handles []ColumnHandle
}

// NewTableScanPipeline builds a pipeline from its parts without checking the
// handle arity. Use Validate to check it.
func NewTableScanPipeline(nodes []Node, handles []ColumnHandle) *TableScanPipeline {
	return &TableScanPipeline{
		nodes:   append([]Node(nil), nodes...),
		handles: append([]ColumnHandle(nil), handles...),
	}
}

// Seed starts a pipeline with the base table scan.
func Seed(table *TableNode, handles []ColumnHandle) (*TableScanPipeline, error) {
	if table == nil {
		return nil, errorx.NewInvalidState("pipeline must start with a table node")
	}
	p := NewTableScanPipeline([]Node{table}, handles)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Extend returns a new pipeline with node appended and handles replaced.
func (p *TableScanPipeline) Extend(node Node, handles []ColumnHandle) *TableScanPipeline {
	nodes := make([]Node, 0, p.Len()+1)
	if p != nil {
		nodes = append(nodes, p.nodes...)
	}
	return &TableScanPipeline{
		nodes:   append(nodes, node),
		handles: append([]ColumnHandle(nil), handles...),
	}
}

func (p *TableScanPipeline) Len() int {
	if p == nil {
		return 0
	}
	return len(p.nodes)
}

func (p *TableScanPipeline) Nodes() []Node {
	if p == nil {
		return nil
	}
	return append([]Node(nil), p.nodes...)
}

func (p *TableScanPipeline) Node(i int) Node {
	return p.nodes[i]
}

// Source returns the node whose output feeds node i.
func (p *TableScanPipeline) Source(i int) (Node, bool) {
	if i <= 0 || i >= p.Len() {
		return nil, false
	}
	return p.nodes[i-1], true
}

func (p *TableScanPipeline) OutputColumnHandles() []ColumnHandle {
	if p == nil {
		return nil
	}
	return append([]ColumnHandle(nil), p.handles...)
}

func (p *TableScanPipeline) last() (Node, error) {
	if p.Len() == 0 {
		return nil, errorx.NewInvalidState("table scan pipeline is empty")
	}
	return p.nodes[len(p.nodes)-1], nil
}

// OutputColumns returns the output columns of the last node.
func (p *TableScanPipeline) OutputColumns() ([]string, error) {
	n, err := p.last()
	if err != nil {
		return nil, err
	}
	return n.OutputColumns(), nil
}

// RowType returns the row type of the last node.
func (p *TableScanPipeline) RowType() ([]types.Type, error) {
	n, err := p.last()
	if err != nil {
		return nil, err
	}
	return n.RowType(), nil
}

// Validate checks the structural invariants: the pipeline starts with a
// table node and has one handle per output column of its last node.
func (p *TableScanPipeline) Validate() error {
	n, err := p.last()
	if err != nil {
		return err
	}
	if p.nodes[0].Kind() != KindTable {
		return errorx.NewInvalidState("pipeline starts with %s node instead of table", p.nodes[0].Kind())
	}
	for i, node := range p.nodes[1:] {
		if node.Kind() == KindTable {
			return errorx.NewInvalidState("table node at position %d", i+1)
		}
	}
	if len(p.handles) != len(n.OutputColumns()) {
		return errorx.NewInvalidState("pipeline has %d output column handles for %d output columns", len(p.handles), len(n.OutputColumns()))
	}
	return nil
}

func (p *TableScanPipeline) String() string {
	if p == nil {
		return ""
	}
	s := make([]string, 0, len(p.nodes))
	for _, n := range p.nodes {
		s = append(s, n.String())
	}
	return strings.Join(s, ",")
}
