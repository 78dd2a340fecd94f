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

	"github.com/lf-edge/pushdown/pkg/types"
)

type AggregationFieldKind string

const (
	KindGroupBy   AggregationFieldKind = "groupby"
	KindAggregate AggregationFieldKind = "aggregation"
)

// AggregationField is either a GroupByColumn or an AggregateCall. The set
// is closed to this package.
type AggregationField interface {
	Kind() AggregationFieldKind
	OutputColumn() string
	OutputType() types.Type
	String() string
	aggregationField()
}

type GroupByColumn struct {
	inputColumn  string
	outputColumn string
	outputType   types.Type
}

func NewGroupByColumn(inputColumn, outputColumn string, outputType types.Type) *GroupByColumn {
	return &GroupByColumn{inputColumn: inputColumn, outputColumn: outputColumn, outputType: outputType}
}

func (g *GroupByColumn) InputColumn() string        { return g.inputColumn }
func (g *GroupByColumn) OutputColumn() string       { return g.outputColumn }
func (g *GroupByColumn) OutputType() types.Type     { return g.outputType }
func (g *GroupByColumn) Kind() AggregationFieldKind { return KindGroupBy }
func (g *GroupByColumn) String() string             { return g.inputColumn }
func (g *GroupByColumn) aggregationField()          {}

type AggregateCall struct {
	inputColumns []string
	function     string
	outputColumn string
	outputType   types.Type
}

func NewAggregateCall(inputColumns []string, function, outputColumn string, outputType types.Type) *AggregateCall {
	return &AggregateCall{
		inputColumns: append([]string(nil), inputColumns...),
		function:     function,
		outputColumn: outputColumn,
		outputType:   outputType,
	}
}

func (a *AggregateCall) InputColumns() []string {
	return append([]string(nil), a.inputColumns...)
}

func (a *AggregateCall) Function() string           { return a.function }
func (a *AggregateCall) OutputColumn() string       { return a.outputColumn }
func (a *AggregateCall) OutputType() types.Type     { return a.outputType }
func (a *AggregateCall) Kind() AggregationFieldKind { return KindAggregate }
func (a *AggregateCall) aggregationField()          {}

func (a *AggregateCall) String() string {
	return a.function + "(" + strings.Join(a.inputColumns, ",") + ")"
}

// AggregationNode outputs its fields in declaration order. Group-by columns
// are not moved in front of the aggregates.
type AggregationNode struct {
	fields []AggregationField
}

func NewAggregationNode(fields ...AggregationField) *AggregationNode {
	return &AggregationNode{fields: append([]AggregationField(nil), fields...)}
}

// AddGroupBy returns a copy of the node with a group-by column appended.
func (a *AggregationNode) AddGroupBy(inputColumn, outputColumn string, typ types.Type) *AggregationNode {
	return a.with(NewGroupByColumn(inputColumn, outputColumn, typ))
}

// AddAggregation returns a copy of the node with an aggregate call appended.
func (a *AggregationNode) AddAggregation(inputColumns []string, function, outputColumn string, typ types.Type) *AggregationNode {
	return a.with(NewAggregateCall(inputColumns, function, outputColumn, typ))
}

func (a *AggregationNode) with(f AggregationField) *AggregationNode {
	fields := make([]AggregationField, 0, len(a.fields)+1)
	fields = append(fields, a.fields...)
	return &AggregationNode{fields: append(fields, f)}
}

func (a *AggregationNode) Fields() []AggregationField {
	return append([]AggregationField(nil), a.fields...)
}

func (a *AggregationNode) OutputColumns() []string {
	r := make([]string, 0, len(a.fields))
	for _, f := range a.fields {
		r = append(r, f.OutputColumn())
	}
	return r
}

func (a *AggregationNode) RowType() []types.Type {
	r := make([]types.Type, 0, len(a.fields))
	for _, f := range a.fields {
		r = append(r, f.OutputType())
	}
	return r
}

func (a *AggregationNode) Kind() NodeKind { return KindAggregation }
func (a *AggregationNode) pipelineNode()  {}

func (a *AggregationNode) String() string {
	s := make([]string, 0, len(a.fields))
	for _, f := range a.fields {
		s = append(s, f.String())
	}
	return "Aggregation:" + strings.Join(s, ",")
}
