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
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lf-edge/pushdown/pkg/errorx"
	"github.com/lf-edge/pushdown/pkg/types"
)

type testHandle struct {
	Column string `json:"column"`
}

func (h *testHandle) HandleKind() string { return "test" }

func init() {
	RegisterColumnHandle("test", func() ColumnHandle { return &testHandle{} })
}

func handles(names ...string) []ColumnHandle {
	r := make([]ColumnHandle, 0, len(names))
	for _, n := range names {
		r = append(r, &testHandle{Column: n})
	}
	return r
}

func ordersTable(t *testing.T) *TableNode {
	tn, err := NewTableNode("public", "orders", []string{"id", "amount", "status"}, []types.Type{types.BigInt, types.Double, types.Varchar})
	require.NoError(t, err)
	return tn
}

func TestSeedAndExtend(t *testing.T) {
	base, err := Seed(ordersTable(t), handles("id", "amount", "status"))
	require.NoError(t, err)
	assert.Equal(t, 1, base.Len())

	filter, err := NewFilterNode(
		NewFunction(">", NewInputColumn("amount", types.Double), NewLiteral(int64(100), types.Integer)),
		[]string{"id", "amount", "status"}, []types.Type{types.BigInt, types.Double, types.Varchar})
	require.NoError(t, err)
	extended := base.Extend(filter, handles("id", "amount", "status"))

	assert.Equal(t, 1, base.Len())
	assert.Equal(t, 2, extended.Len())
	assert.Equal(t, KindTable, extended.Node(0).Kind())
	assert.Equal(t, KindFilter, extended.Node(1).Kind())
	src, ok := extended.Source(1)
	require.True(t, ok)
	assert.Equal(t, KindTable, src.Kind())
	_, ok = extended.Source(0)
	assert.False(t, ok)
	require.NoError(t, extended.Validate())

	cols, err := extended.OutputColumns()
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "amount", "status"}, cols)
	assert.Equal(t, "Table: public.orders,Filter: >(amount, 100)", extended.String())
}

func TestSeedArity(t *testing.T) {
	_, err := Seed(ordersTable(t), handles("id"))
	require.Error(t, err)
	assert.True(t, errorx.IsInvalidState(err))

	_, err = Seed(nil, nil)
	assert.True(t, errorx.IsInvalidState(err))
}

func TestEmptyPipeline(t *testing.T) {
	p := NewTableScanPipeline(nil, nil)
	_, err := p.OutputColumns()
	require.Error(t, err)
	assert.True(t, errorx.IsInvalidState(err))
	_, err = p.RowType()
	assert.True(t, errorx.IsInvalidState(err))
	assert.True(t, errorx.IsInvalidState(p.Validate()))

	var nilPipeline *TableScanPipeline
	assert.Equal(t, 0, nilPipeline.Len())
	_, err = nilPipeline.OutputColumns()
	assert.True(t, errorx.IsInvalidState(err))
	extended := nilPipeline.Extend(ordersTable(t), handles("id", "amount", "status"))
	assert.NoError(t, extended.Validate())
}

func TestValidate(t *testing.T) {
	project, err := NewProjectNode([]Expression{NewInputColumn("id", types.BigInt)}, []string{"id"}, []types.Type{types.BigInt})
	require.NoError(t, err)

	notSeeded := NewTableScanPipeline([]Node{project}, handles("id"))
	assert.True(t, errorx.IsInvalidState(notSeeded.Validate()))

	twoTables := NewTableScanPipeline([]Node{ordersTable(t), ordersTable(t)}, handles("id", "amount", "status"))
	assert.True(t, errorx.IsInvalidState(twoTables.Validate()))

	wrongArity := NewTableScanPipeline([]Node{ordersTable(t), project}, handles("id", "amount"))
	err = wrongArity.Validate()
	require.Error(t, err)
	assert.Equal(t, "invalid state: pipeline has 2 output column handles for 1 output columns", err.Error())
}

func TestNodeConstructors(t *testing.T) {
	_, err := NewTableNode("", "t", []string{"a", "b"}, []types.Type{types.Integer})
	assert.EqualError(t, err, "table t: outputColumns has 2 entries but rowType has 1")

	_, err = NewProjectNode(nil, []string{"a"}, []types.Type{types.Integer})
	assert.EqualError(t, err, "project: 0 expressions for 1 output columns")

	_, err = NewFilterNode(nil, nil, nil)
	assert.EqualError(t, err, "filter: predicate is nil")

	cols := []string{"a"}
	tn, err := NewTableNode("", "t", cols, []types.Type{types.Integer})
	require.NoError(t, err)
	cols[0] = "changed"
	assert.Equal(t, []string{"a"}, tn.OutputColumns())
	tn.OutputColumns()[0] = "changed"
	assert.Equal(t, []string{"a"}, tn.OutputColumns())
	assert.Equal(t, "Table: t", tn.String())
}

func TestAggregationNode(t *testing.T) {
	empty := NewAggregationNode()
	withSum := empty.AddAggregation([]string{"amount"}, "sum", "total", types.Double)
	full := withSum.AddGroupBy("status", "status", types.Varchar)

	assert.Empty(t, empty.OutputColumns())
	assert.Equal(t, []string{"total"}, withSum.OutputColumns())
	// declaration order is kept
	assert.Equal(t, []string{"total", "status"}, full.OutputColumns())
	assert.Equal(t, []types.Type{types.Double, types.Varchar}, full.RowType())
	assert.Equal(t, "Aggregation:sum(amount),status", full.String())

	fields := full.Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, KindAggregate, fields[0].Kind())
	assert.Equal(t, KindGroupBy, fields[1].Kind())
	assert.Equal(t, "status", fields[1].(*GroupByColumn).InputColumn())
}

var (
	_ AggregationField = (*GroupByColumn)(nil)
	_ AggregationField = (*AggregateCall)(nil)
)

func TestClosedVariants(t *testing.T) {
	tests := []struct {
		iface  reflect.Type
		marker string
	}{
		{reflect.TypeOf((*Expression)(nil)).Elem(), "pushdownExpression"},
		{reflect.TypeOf((*Node)(nil)).Elem(), "pipelineNode"},
		{reflect.TypeOf((*AggregationField)(nil)).Elem(), "aggregationField"},
	}
	for _, tt := range tests {
		m, ok := tt.iface.MethodByName(tt.marker)
		require.True(t, ok, "%s has no %s method", tt.iface, tt.marker)
		assert.False(t, m.IsExported())
	}
	field := reflect.TypeOf((*AggregationField)(nil)).Elem()
	assert.False(t, reflect.TypeOf(windowField{}).Implements(field))
	assert.True(t, reflect.TypeOf(&GroupByColumn{}).Implements(field))
}

// windowField has every exported method of AggregationField.
type windowField struct{}

func (windowField) Kind() AggregationFieldKind { return "window" }
func (windowField) OutputColumn() string       { return "w" }
func (windowField) OutputType() types.Type     { return types.BigInt }
func (windowField) String() string             { return "window" }

func TestExpressionString(t *testing.T) {
	tests := []struct {
		e   Expression
		res string
	}{
		{NewLiteral("it's", types.Varchar), "'it''s'"},
		{NewLiteral(nil, types.Integer), "null"},
		{NewLiteral(1.5, types.Double), "1.5"},
		{
			NewLogicalBinary(OR,
				NewFunction("=", NewInputColumn("a", types.Integer), NewLiteral(int64(1), types.Integer)),
				NewFunction("is_null", NewInputColumn("b", types.Varchar))),
			"(=(a, 1) OR is_null(b))",
		},
		{
			NewInExpression(NewInputColumn("s", types.Varchar), NewLiteral("x", types.Varchar), NewLiteral("y", types.Varchar)),
			"s IN ('x', 'y')",
		},
	}
	for i, tt := range tests {
		assert.Equal(t, tt.res, tt.e.String(), "case %d", i)
	}
}

func TestWalkExpression(t *testing.T) {
	e := NewLogicalBinary(AND,
		NewFunction(">", NewInputColumn("a", types.Integer), NewLiteral(int64(1), types.Integer)),
		NewInExpression(NewInputColumn("b", types.Integer), NewInputColumn("c", types.Integer)))
	var names []string
	WalkExpression(e, func(x Expression) bool {
		if c, ok := x.(*InputColumn); ok {
			names = append(names, c.Name())
		}
		return true
	})
	assert.Equal(t, []string{"a", "b", "c"}, names)

	count := 0
	WalkExpression(e, func(x Expression) bool {
		count++
		return false
	})
	assert.Equal(t, 1, count)
}
