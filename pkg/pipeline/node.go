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
	"fmt"
	"strings"

	"github.com/lf-edge/pushdown/pkg/types"
)

// NodeKind is also the discriminator of the node in its encoded form.
type NodeKind string

const (
	KindTable       NodeKind = "table"
	KindProject     NodeKind = "project"
	KindFilter      NodeKind = "filter"
	KindAggregation NodeKind = "aggregation"
)

// Node is one step of a table scan pipeline. OutputColumns and RowType
// always have the same length.
type Node interface {
	fmt.Stringer
	Kind() NodeKind
	OutputColumns() []string
	RowType() []types.Type
	pipelineNode()
}

type schema struct {
	columns []string
	rowType []types.Type
}

func newSchema(columns []string, rowType []types.Type) (schema, error) {
	if len(columns) != len(rowType) {
		return schema{}, fmt.Errorf("outputColumns has %d entries but rowType has %d", len(columns), len(rowType))
	}
	return schema{
		columns: append([]string(nil), columns...),
		rowType: append([]types.Type(nil), rowType...),
	}, nil
}

func (s schema) OutputColumns() []string {
	return append([]string(nil), s.columns...)
}

func (s schema) RowType() []types.Type {
	return append([]types.Type(nil), s.rowType...)
}

// TableNode is the base scan every pipeline starts with.
type TableNode struct {
	schema
	schemaName string
	tableName  string
}

func NewTableNode(schemaName, tableName string, columns []string, rowType []types.Type) (*TableNode, error) {
	s, err := newSchema(columns, rowType)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", tableName, err)
	}
	return &TableNode{schema: s, schemaName: schemaName, tableName: tableName}, nil
}

func (t *TableNode) SchemaName() string { return t.schemaName }
func (t *TableNode) TableName() string  { return t.tableName }
func (t *TableNode) Kind() NodeKind     { return KindTable }
func (t *TableNode) pipelineNode()      {}

func (t *TableNode) String() string {
	if t.schemaName == "" {
		return "Table: " + t.tableName
	}
	return "Table: " + t.schemaName + "." + t.tableName
}

type ProjectNode struct {
	schema
	expressions []Expression
}

func NewProjectNode(expressions []Expression, columns []string, rowType []types.Type) (*ProjectNode, error) {
	s, err := newSchema(columns, rowType)
	if err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}
	if len(expressions) != len(columns) {
		return nil, fmt.Errorf("project: %d expressions for %d output columns", len(expressions), len(columns))
	}
	return &ProjectNode{schema: s, expressions: append([]Expression(nil), expressions...)}, nil
}

func (p *ProjectNode) Expressions() []Expression {
	return append([]Expression(nil), p.expressions...)
}

func (p *ProjectNode) Kind() NodeKind { return KindProject }
func (p *ProjectNode) pipelineNode()  {}

func (p *ProjectNode) String() string {
	s := make([]string, 0, len(p.expressions))
	for i, e := range p.expressions {
		s = append(s, e.String()+" AS "+p.columns[i])
	}
	return "Project: " + strings.Join(s, ", ")
}

type FilterNode struct {
	schema
	predicate Expression
}

func NewFilterNode(predicate Expression, columns []string, rowType []types.Type) (*FilterNode, error) {
	if predicate == nil {
		return nil, fmt.Errorf("filter: predicate is nil")
	}
	s, err := newSchema(columns, rowType)
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	return &FilterNode{schema: s, predicate: predicate}, nil
}

func (f *FilterNode) Predicate() Expression { return f.predicate }
func (f *FilterNode) Kind() NodeKind        { return KindFilter }
func (f *FilterNode) pipelineNode()         {}

func (f *FilterNode) String() string {
	return "Filter: " + f.predicate.String()
}
