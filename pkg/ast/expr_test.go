// Copyright 2023-2024 EMQ Technologies Co., Ltd.
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

package ast

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lf-edge/pushdown/pkg/types"
)

func Test_exprString(t *testing.T) {
	test := []struct {
		e   Expr
		res string
	}{
		{
			e: &BinaryExpr{
				OP: GT,
				LHS: &FieldRef{
					StreamName: "src1",
					Name:       "col_a",
				},
				RHS: &IntegerLiteral{Val: 5},
			},
			res: "binaryExpr:{ fieldRef:{ streamName:src1, fieldName:col_a } > 5 }",
		},
		{
			e:   &BooleanLiteral{Val: true},
			res: "true",
		},
		{
			e: &Call{Name: "count", Args: []Expr{&Wildcard{
				Token: ASTERISK,
			}}, FuncType: FuncTypeAgg},
			res: "Call:{ name:count, args:[*] }",
		},
		{
			e: &InExpr{
				Value: &FieldRef{Name: "b"},
				List:  []Expr{&StringLiteral{Val: "x"}, &StringLiteral{Val: "y"}},
				Not:   true,
			},
			res: `notIn:{ fieldRef:{ fieldName:b }, ["x", "y"] }`,
		},
		{
			e:   &TypedLiteral{Type: types.Date, Val: "2024-01-01"},
			res: "DATE '2024-01-01'",
		},
		{
			e:   &ParenExpr{Expr: &NumberLiteral{Val: 1.5}},
			res: "parenExpr:{ 1.5 }",
		},
		{
			e:   &IsNullExpr{Expr: &FieldRef{Name: "a"}, Not: true},
			res: "isNotNull:{ fieldRef:{ fieldName:a } }",
		},
		{
			e:   &SubqueryExpr{Query: "select 1"},
			res: "subquery:{ select 1 }",
		},
	}
	for i, tt := range test {
		assert.Equal(t, tt.res, fmt.Sprint(tt.e), "case %d", i)
	}
}

func TestToken(t *testing.T) {
	assert.Equal(t, "+", ADD.String())
	assert.Equal(t, "<>", NEQ.String())
	assert.True(t, MOD.IsArithmetic())
	assert.False(t, EQ.IsArithmetic())
	assert.True(t, GTE.IsComparison())
	assert.True(t, OR.IsLogical())
	assert.True(t, AND.IsOperator())
	assert.False(t, ASTERISK.IsOperator())
	assert.Equal(t, "", Token(100).String())
}

func TestFuncType(t *testing.T) {
	assert.Equal(t, FuncTypeAgg, FuncTypeOf("SUM"))
	assert.Equal(t, FuncTypeWindow, FuncTypeOf("lag"))
	assert.Equal(t, FuncTypeScalar, FuncTypeOf("lower"))
	assert.True(t, (&Call{Name: "max"}).IsAggregate())
	assert.True(t, (&Call{Name: "my_udaf", FuncType: FuncTypeAgg}).IsAggregate())
	assert.False(t, (&Call{Name: "abs"}).IsAggregate())
}

func TestWalk(t *testing.T) {
	e := &BinaryExpr{
		OP: AND,
		LHS: &BinaryExpr{
			OP:  GT,
			LHS: &Call{Name: "abs", Args: []Expr{&FieldRef{Name: "a"}}},
			RHS: &IntegerLiteral{Val: 1},
		},
		RHS: &InExpr{
			Value: &FieldRef{Name: "b"},
			List:  []Expr{&FieldRef{Name: "a"}, &FieldRef{Name: "c"}},
		},
	}
	assert.Equal(t, []string{"a", "b", "c"}, RefFields(e))
	assert.False(t, HasAggFuncs(e))
	assert.True(t, HasAggFuncs(&NotExpr{Expr: &Call{Name: "sum", Args: []Expr{&FieldRef{Name: "a"}}}}))
	assert.False(t, HasAggFuncs(nil))

	count := 0
	WalkFunc(&CaseExpr{
		WhenClauses: []*WhenClause{{Expr: &BooleanLiteral{Val: true}, Result: &IntegerLiteral{Val: 1}}},
		ElseClause:  &IntegerLiteral{Val: 0},
	}, func(n Node) bool {
		count++
		return true
	})
	// case, when, cond, result, else
	assert.Equal(t, 5, count)
}
