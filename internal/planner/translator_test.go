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
	"math"
	"testing"

	"github.com/gdexlab/go-render/render"
	"github.com/stretchr/testify/assert"

	"github.com/lf-edge/pushdown/pkg/ast"
	"github.com/lf-edge/pushdown/pkg/pipeline"
	"github.com/lf-edge/pushdown/pkg/types"
)

var testTypes = SymbolTypes{
	"col_a":  types.Integer,
	"col_b":  types.Varchar,
	"amount": types.Double,
}

func col(name string) *ast.FieldRef {
	return &ast.FieldRef{StreamName: ast.DefaultStream, Name: name}
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		expr ast.Expr
		res  pipeline.Expression
	}{
		{"integer", &ast.IntegerLiteral{Val: 5}, pipeline.NewLiteral(int64(5), types.Integer)},
		{"bigint", &ast.IntegerLiteral{Val: math.MaxInt32 + 1}, pipeline.NewLiteral(int64(math.MaxInt32+1), types.BigInt)},
		{"double", &ast.NumberLiteral{Val: 1.5}, pipeline.NewLiteral(1.5, types.Double)},
		{"varchar", &ast.StringLiteral{Val: "x"}, pipeline.NewLiteral("x", types.Varchar)},
		{"boolean", &ast.BooleanLiteral{Val: true}, pipeline.NewLiteral(true, types.Boolean)},
		{"date", &ast.TypedLiteral{Type: types.Date, Val: "2024-01-01"}, pipeline.NewLiteral("2024-01-01", types.Date)},
		{"column", col("col_b"), pipeline.NewInputColumn("col_b", types.Varchar)},
		{"paren", &ast.ParenExpr{Expr: col("col_a")}, pipeline.NewInputColumn("col_a", types.Integer)},
		{
			"comparison",
			&ast.BinaryExpr{OP: ast.GT, LHS: col("col_a"), RHS: &ast.IntegerLiteral{Val: 5}},
			pipeline.NewFunction(">", pipeline.NewInputColumn("col_a", types.Integer), pipeline.NewLiteral(int64(5), types.Integer)),
		},
		{
			"logical",
			&ast.BinaryExpr{
				OP:  ast.OR,
				LHS: &ast.BinaryExpr{OP: ast.EQ, LHS: col("col_b"), RHS: &ast.StringLiteral{Val: "a"}},
				RHS: &ast.IsNullExpr{Expr: col("col_b"), Not: true},
			},
			pipeline.NewLogicalBinary(pipeline.OR,
				pipeline.NewFunction("=", pipeline.NewInputColumn("col_b", types.Varchar), pipeline.NewLiteral("a", types.Varchar)),
				pipeline.NewFunction("is_not_null", pipeline.NewInputColumn("col_b", types.Varchar))),
		},
		{
			"not",
			&ast.NotExpr{Expr: &ast.IsNullExpr{Expr: col("col_a")}},
			pipeline.NewFunction("not", pipeline.NewFunction("is_null", pipeline.NewInputColumn("col_a", types.Integer))),
		},
		{
			"in",
			&ast.InExpr{Value: col("col_a"), List: []ast.Expr{&ast.IntegerLiteral{Val: 1}, &ast.IntegerLiteral{Val: 2}}},
			pipeline.NewInExpression(pipeline.NewInputColumn("col_a", types.Integer),
				pipeline.NewLiteral(int64(1), types.Integer), pipeline.NewLiteral(int64(2), types.Integer)),
		},
		{
			"not in",
			&ast.InExpr{Value: col("col_a"), List: []ast.Expr{&ast.IntegerLiteral{Val: 1}}, Not: true},
			pipeline.NewFunction("not", pipeline.NewInExpression(pipeline.NewInputColumn("col_a", types.Integer),
				pipeline.NewLiteral(int64(1), types.Integer))),
		},
		{
			"scalar call",
			&ast.Call{Name: "lower", Args: []ast.Expr{col("col_b")}},
			pipeline.NewFunction("lower", pipeline.NewInputColumn("col_b", types.Varchar)),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, ok := Translate(tt.expr, testTypes)
			assert.True(t, ok)
			if !assert.Equal(t, tt.res, res) {
				t.Errorf("translated:\n%s", render.AsCode(res))
			}
		})
	}
}

func TestTranslateFailClosed(t *testing.T) {
	tests := []struct {
		name string
		expr ast.Expr
	}{
		{"nil", nil},
		{"subquery", &ast.SubqueryExpr{Query: "select max(x) from y"}},
		{"case", &ast.CaseExpr{Value: col("col_a")}},
		{"wildcard", &ast.Wildcard{Token: ast.ASTERISK}},
		{"meta", &ast.MetaRef{Name: "topic"}},
		{"unknown column", col("nosuch")},
		{"aggregate", &ast.Call{Name: "sum", FuncType: ast.FuncTypeAgg, Args: []ast.Expr{col("amount")}}},
		{
			"nested subquery",
			&ast.BinaryExpr{OP: ast.AND,
				LHS: &ast.BinaryExpr{OP: ast.GT, LHS: col("col_a"), RHS: &ast.IntegerLiteral{Val: 1}},
				RHS: &ast.SubqueryExpr{Exists: true, Query: "select 1"},
			},
		},
		{"in list", &ast.InExpr{Value: col("col_a"), List: []ast.Expr{&ast.SubqueryExpr{}}}},
		{"call argument", &ast.Call{Name: "abs", Args: []ast.Expr{&ast.CaseExpr{}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, ok := Translate(tt.expr, testTypes)
			assert.False(t, ok)
			assert.Nil(t, res)
		})
	}

	_, ok := Translate(col("col_a"), nil)
	assert.False(t, ok)
}
