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

package planner

import (
	"fmt"
	"strings"

	"github.com/lf-edge/pushdown/pkg/ast"
	"github.com/lf-edge/pushdown/pkg/connector"
	"github.com/lf-edge/pushdown/pkg/pipeline"
)

// ColumnAssignment binds an output symbol of a scan to a connector column.
type ColumnAssignment struct {
	Symbol Symbol
	Handle connector.ColumnHandle
}

// TableScanPlan reads a table. When scanPipeline is set the connector has
// agreed to run it and the assignments bind to the pipeline's output handles.
type TableScanPlan struct {
	baseLogicalPlan
	table        connector.TableHandle
	assignments  []ColumnAssignment
	constraint   ast.Expr
	scanPipeline *pipeline.TableScanPipeline
}

func NewTableScanPlan(id int64, table connector.TableHandle, assignments []ColumnAssignment, constraint ast.Expr) *TableScanPlan {
	return &TableScanPlan{
		baseLogicalPlan: baseLogicalPlan{id: id},
		table:           table,
		assignments:     append([]ColumnAssignment(nil), assignments...),
		constraint:      constraint,
	}
}

func (p *TableScanPlan) Type() string { return "TableScanPlan" }

func (p *TableScanPlan) Table() connector.TableHandle { return p.table }

// Constraint is the predicate the scan already enforces, if any.
func (p *TableScanPlan) Constraint() ast.Expr { return p.constraint }

func (p *TableScanPlan) ScanPipeline() *pipeline.TableScanPipeline { return p.scanPipeline }

func (p *TableScanPlan) Assignments() []ColumnAssignment {
	return append([]ColumnAssignment(nil), p.assignments...)
}

func (p *TableScanPlan) OutputSymbols() []Symbol {
	r := make([]Symbol, 0, len(p.assignments))
	for _, a := range p.assignments {
		r = append(r, a.Symbol)
	}
	return r
}

func (p *TableScanPlan) ReplaceChildren(children []LogicalPlan) LogicalPlan {
	c := *p
	c.baseLogicalPlan = p.withChildren(children)
	return &c
}

// withPushedPipeline builds the scan replacing a fragment absorbed by the
// connector. Outputs are bound positionally to the pipeline's handles.
func (p *TableScanPlan) withPushedPipeline(id int64, outputs []Symbol, accepted *pipeline.TableScanPipeline) (*TableScanPlan, error) {
	handles := accepted.OutputColumnHandles()
	if len(handles) != len(outputs) {
		return nil, fmt.Errorf("%d output symbols for %d column handles", len(outputs), len(handles))
	}
	assignments := make([]ColumnAssignment, 0, len(outputs))
	for i, s := range outputs {
		assignments = append(assignments, ColumnAssignment{Symbol: s, Handle: handles[i]})
	}
	return &TableScanPlan{
		baseLogicalPlan: baseLogicalPlan{id: id},
		table:           p.table,
		assignments:     assignments,
		constraint:      p.constraint,
		scanPipeline:    accepted,
	}, nil
}

func (p *TableScanPlan) ExplainInfo() string {
	info := fmt.Sprintf("Table: %s, Outputs:[ %s ]", p.table, joinSymbols(p.OutputSymbols()))
	if p.constraint != nil {
		info += ", Constraint: " + fmt.Sprint(p.constraint)
	}
	if p.scanPipeline != nil {
		s := make([]string, 0, p.scanPipeline.Len())
		for _, n := range p.scanPipeline.Nodes() {
			s = append(s, string(n.Kind()))
		}
		info += ", Pipeline:[ " + strings.Join(s, ", ") + " ]"
	}
	return info
}
