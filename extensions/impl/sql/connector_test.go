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

package sql

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/gdexlab/go-render/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lf-edge/pushdown/internal/pkg/def"
	"github.com/lf-edge/pushdown/internal/planner"
	"github.com/lf-edge/pushdown/pkg/ast"
	"github.com/lf-edge/pushdown/pkg/cast"
	"github.com/lf-edge/pushdown/pkg/connector"
	"github.com/lf-edge/pushdown/pkg/errorx"
	"github.com/lf-edge/pushdown/pkg/pipeline"
	"github.com/lf-edge/pushdown/pkg/types"
)

func newTestConnector(t *testing.T) *SQLConnector {
	url := "sqlite:" + filepath.Join(t.TempDir(), "orders.db")
	s, err := NewSQLConnector("sqlite1", map[string]any{"dburl": url})
	require.NoError(t, err)
	require.NoError(t, s.Connect())
	t.Cleanup(func() {
		s.Close()
	})
	db := s.DB().GetDB()
	_, err = db.Exec(`CREATE TABLE orders (id INTEGER, amount REAL, status TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO orders VALUES (1, 50.0, 'new'), (2, 150.0, 'paid'), (3, 250.0, 'paid'), (4, 300.0, 'new')`)
	require.NoError(t, err)
	require.NoError(t, s.AddTable("", "orders", []string{"id", "amount", "status"}, []types.Type{types.BigInt, types.Double, types.Varchar}))
	return s
}

func amountOver(t *testing.T, cols []string, rowType []types.Type) *pipeline.FilterNode {
	f, err := pipeline.NewFilterNode(
		pipeline.NewFunction(">", pipeline.NewInputColumn("amount", types.Double), pipeline.NewLiteral(int64(100), types.Integer)),
		cols, rowType)
	require.NoError(t, err)
	return f
}

func TestNewSQLConnector(t *testing.T) {
	_, err := NewSQLConnector("c", map[string]any{})
	assert.EqualError(t, err, "dburl should be defined")

	_, err = NewSQLConnector("bad id", map[string]any{"dburl": "sqlite:/tmp/x.db"})
	assert.True(t, errorx.IsValidationError(err))

	_, err = NewSQLConnector("c", map[string]any{"dburl": 5})
	assert.ErrorContains(t, err, "read properties")

	s, err := NewSQLConnector("c", map[string]any{"url": "mysql://root:@localhost:3306/test"})
	require.NoError(t, err)
	assert.Equal(t, "mysql", s.Dialect().Name)
	assert.Equal(t, "c", s.ID())
}

func TestNegotiation(t *testing.T) {
	s := newTestConnector(t)
	ctx := context.Background()
	table, err := s.TableHandle("", "orders")
	require.NoError(t, err)
	_, err = s.TableHandle("", "nosuch")
	assert.ErrorIs(t, err, errorx.NotFoundErr)

	all := []string{"id", "amount", "status"}
	allTypes := []types.Type{types.BigInt, types.Double, types.Varchar}
	filter := amountOver(t, []string{"id", "status"}, []types.Type{types.BigInt, types.Varchar})

	p, err := s.PushFilterIntoScan(ctx, nil, table, nil, filter)
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Equal(t, 2, p.Len())
	assert.Equal(t, pipeline.KindTable, p.Node(0).Kind())
	assert.Same(t, filter, p.Node(1))
	assert.Equal(t, []pipeline.ColumnHandle{
		&ColumnHandle{Column: "id", Type: types.BigInt},
		&ColumnHandle{Column: "status", Type: types.Varchar},
	}, p.OutputColumnHandles())

	tests := []struct {
		name      string
		session   *connector.Session
		table     connector.TableHandle
		current   *pipeline.TableScanPipeline
		predicate pipeline.Expression
	}{
		{
			name:      "unsupported function",
			table:     table,
			predicate: pipeline.NewFunction("regexp_like", pipeline.NewInputColumn("status", types.Varchar), pipeline.NewLiteral("p.*", types.Varchar)),
		},
		{
			name:      "unknown column",
			table:     table,
			predicate: pipeline.NewFunction("is_null", pipeline.NewInputColumn("nosuch", types.Varchar)),
		},
		{
			name:      "column removed by the pipeline",
			table:     table,
			current:   p,
			predicate: pipeline.NewFunction("is_null", pipeline.NewInputColumn("amount", types.Double)),
		},
		{
			name:      "disabled by session",
			session:   connector.NewSession("q", "u", map[string]string{SessionPushdownEnabled: "false"}),
			table:     table,
			predicate: pipeline.NewFunction("is_null", pipeline.NewInputColumn("id", types.BigInt)),
		},
		{
			name:      "other connector",
			table:     connector.TableHandle{ConnectorID: "other", TableName: "orders"},
			predicate: pipeline.NewFunction("is_null", pipeline.NewInputColumn("id", types.BigInt)),
		},
		{
			name:      "unknown table",
			table:     connector.TableHandle{ConnectorID: "sqlite1", TableName: "nosuch"},
			predicate: pipeline.NewFunction("is_null", pipeline.NewInputColumn("id", types.BigInt)),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols := all
			rowType := allTypes
			if tt.current != nil {
				cols, _ = tt.current.OutputColumns()
				rowType, _ = tt.current.RowType()
			}
			f, err := pipeline.NewFilterNode(tt.predicate, cols, rowType)
			require.NoError(t, err)
			r, err := s.PushFilterIntoScan(ctx, tt.session, tt.table, tt.current, f)
			require.NoError(t, err)
			assert.Nil(t, r)
		})
	}

	agg := pipeline.NewAggregationNode().AddAggregation([]string{"id"}, "count", "n", types.BigInt)
	aggregated := p.Extend(agg, columnHandles([]string{"n"}, []types.Type{types.BigInt}))
	project, err := pipeline.NewProjectNode([]pipeline.Expression{pipeline.NewInputColumn("n", types.BigInt)}, []string{"n"}, []types.Type{types.BigInt})
	require.NoError(t, err)
	r, err := s.PushProjectIntoScan(ctx, nil, table, aggregated, project)
	require.NoError(t, err)
	assert.Nil(t, r)

	_, err = s.PushFilterIntoScan(ctx, connector.NewSession("q", "u", map[string]string{SessionPushdownEnabled: "maybe"}), table, nil, amountOver(t, all, allTypes))
	assert.Error(t, err)
}

func scanPlan(t *testing.T, s *SQLConnector) *planner.TableScanPlan {
	table, err := s.TableHandle("", "orders")
	require.NoError(t, err)
	handles, err := s.ColumnHandles(table)
	require.NoError(t, err)
	assignments := make([]planner.ColumnAssignment, 0, len(handles))
	for _, h := range handles {
		assignments = append(assignments, planner.ColumnAssignment{Symbol: planner.Symbol{Name: h.Column, Type: h.Type}, Handle: h})
	}
	return planner.NewTableScanPlan(1, table, assignments, nil)
}

func TestPushdownEndToEnd(t *testing.T) {
	s := newTestConnector(t)
	ctx := context.Background()
	catalog := connector.NewCatalog()
	require.NoError(t, catalog.Register(s.ID(), s))

	filter := planner.NewFilterPlan(2, scanPlan(t, s),
		&ast.BinaryExpr{OP: ast.GT, LHS: &ast.FieldRef{Name: "amount"}, RHS: &ast.IntegerLiteral{Val: 100}}, nil)
	plan := planner.NewProjectPlan(3, filter, []planner.Assignment{
		{Symbol: planner.Symbol{Name: "status", Type: types.Varchar}, Expr: &ast.Call{Name: "upper", Args: []ast.Expr{&ast.FieldRef{Name: "status"}}}},
		{Symbol: planner.Symbol{Name: "gross", Type: types.Double}, Expr: &ast.BinaryExpr{OP: ast.MUL, LHS: &ast.FieldRef{Name: "amount"}, RHS: &ast.IntegerLiteral{Val: 2}}},
	})
	optimized, err := planner.NewOptimizer(catalog, def.GetDefaultPlanOptimizeStrategy(), nil).Optimize(ctx, nil, plan, nil)
	require.NoError(t, err)
	scan, ok := optimized.(*planner.TableScanPlan)
	require.True(t, ok, "got %s", render.AsCode(optimized))
	require.Equal(t, 3, scan.ScanPipeline().Len())

	splits, err := s.GetSplits(scan.Table(), scan.ScanPipeline())
	require.NoError(t, err)
	require.Len(t, splits, 1)
	assert.True(t, splits[0].RemotelyAccessible())

	for _, f := range []connector.Format{connector.FormatJSON, connector.FormatCBOR} {
		b, err := connector.EncodeSplit(splits[0], f)
		require.NoError(t, err)
		split, err := connector.DecodeSplit(b, f)
		require.NoError(t, err)
		assert.Equal(t, splits[0].SplitID, split.SplitID)

		rs, err := s.GetRecordSet(split)
		require.NoError(t, err)
		assert.Equal(t, []string{"status", "gross"}, rs.Columns())
		rows, err := rs.Execute(ctx)
		require.NoError(t, err)
		got := make(map[float64]string)
		for _, row := range rows {
			gross, err := cast.ToFloat64(row["gross"], cast.CONVERT_ALL)
			require.NoError(t, err)
			got[gross] = cast.ToStringAlways(row["status"])
		}
		assert.Equal(t, map[float64]string{300: "PAID", 500: "PAID", 600: "NEW"}, got)
	}
}

func TestFullScanAndAggregation(t *testing.T) {
	s := newTestConnector(t)
	ctx := context.Background()
	table, err := s.TableHandle("", "orders")
	require.NoError(t, err)

	splits, err := s.GetSplits(table, nil)
	require.NoError(t, err)
	rs, err := s.GetRecordSet(splits[0])
	require.NoError(t, err)
	assert.Equal(t, `SELECT "id", "amount", "status" FROM "orders"`, rs.SQL())
	rows, err := rs.Execute(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	_, err = s.GetSplits(connector.TableHandle{ConnectorID: s.ID(), TableName: "nosuch"}, nil)
	assert.ErrorIs(t, err, errorx.NotFoundErr)

	agg := pipeline.NewAggregationNode().
		AddGroupBy("status", "status", types.Varchar).
		AddAggregation([]string{"amount"}, "sum", "total", types.Double)
	p := splits[0].ScanPipeline.Extend(agg, columnHandles(agg.OutputColumns(), agg.RowType()))
	aggSplits, err := s.GetSplits(table, p)
	require.NoError(t, err)
	rs, err = s.GetRecordSet(aggSplits[0])
	require.NoError(t, err)
	rows, err = rs.Execute(ctx)
	require.NoError(t, err)
	totals := make(map[string]float64)
	for _, row := range rows {
		total, err := cast.ToFloat64(row["total"], cast.CONVERT_ALL)
		require.NoError(t, err)
		totals[cast.ToStringAlways(row["status"])] = total
	}
	assert.Equal(t, map[string]float64{"new": 350, "paid": 400}, totals)

	other := connector.NewPushedDownQuerySplit("other", p)
	_, err = s.GetRecordSet(other)
	assert.ErrorContains(t, err, "belongs to connector other")
	_, err = s.GetRecordSet(&connector.PushedDownQuerySplit{})
	assert.True(t, errorx.IsInvalidState(err))
}

func TestColumnHandleCodec(t *testing.T) {
	b, err := pipeline.MarshalColumnHandle(&ColumnHandle{Column: "id", Type: types.BigInt})
	require.NoError(t, err)
	assert.JSONEq(t, `{"@type":"sql","column":"id","type":"bigint"}`, string(b))
	h, err := pipeline.UnmarshalColumnHandle(b)
	require.NoError(t, err)
	assert.Equal(t, &ColumnHandle{Column: "id", Type: types.BigInt}, h)
}
