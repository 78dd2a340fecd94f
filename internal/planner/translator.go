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
	"github.com/lf-edge/pushdown/pkg/ast"
	"github.com/lf-edge/pushdown/pkg/pipeline"
	"github.com/lf-edge/pushdown/pkg/types"
)

// Translate converts an engine expression into its pushdown form. It returns
// false when any part of the expression has no pushdown form; a partial
// translation is never returned.
func Translate(expr ast.Expr, tp TypeProvider) (pipeline.Expression, bool) {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		if types.FitsInteger(e.Val) {
			return pipeline.NewLiteral(e.Val, types.Integer), true
		}
		return pipeline.NewLiteral(e.Val, types.BigInt), true
	case *ast.NumberLiteral:
		return pipeline.NewLiteral(e.Val, types.Double), true
	case *ast.StringLiteral:
		return pipeline.NewLiteral(e.Val, types.Varchar), true
	case *ast.BooleanLiteral:
		return pipeline.NewLiteral(e.Val, types.Boolean), true
	case *ast.TypedLiteral:
		return pipeline.NewLiteral(e.Val, e.Type), true
	case *ast.FieldRef:
		if tp == nil {
			return nil, false
		}
		t, ok := tp.TypeOf(e.Name)
		if !ok {
			return nil, false
		}
		return pipeline.NewInputColumn(e.Name, t), true
	case *ast.ParenExpr:
		return Translate(e.Expr, tp)
	case *ast.BinaryExpr:
		return translateBinary(e, tp)
	case *ast.NotExpr:
		x, ok := Translate(e.Expr, tp)
		if !ok {
			return nil, false
		}
		return pipeline.NewFunction("not", x), true
	case *ast.IsNullExpr:
		x, ok := Translate(e.Expr, tp)
		if !ok {
			return nil, false
		}
		if e.Not {
			return pipeline.NewFunction("is_not_null", x), true
		}
		return pipeline.NewFunction("is_null", x), true
	case *ast.InExpr:
		value, ok := Translate(e.Value, tp)
		if !ok {
			return nil, false
		}
		candidates, ok := translateAll(e.List, tp)
		if !ok {
			return nil, false
		}
		in := pipeline.NewInExpression(value, candidates...)
		if e.Not {
			return pipeline.NewFunction("not", in), true
		}
		return in, true
	case *ast.Call:
		if e.IsAggregate() {
			return nil, false
		}
		args, ok := translateAll(e.Args, tp)
		if !ok {
			return nil, false
		}
		return pipeline.NewFunction(e.Name, args...), true
	default:
		// case, subquery, wildcard, meta references and nil
		return nil, false
	}
}

func translateBinary(e *ast.BinaryExpr, tp TypeProvider) (pipeline.Expression, bool) {
	if !e.OP.IsOperator() {
		return nil, false
	}
	left, ok := Translate(e.LHS, tp)
	if !ok {
		return nil, false
	}
	right, ok := Translate(e.RHS, tp)
	if !ok {
		return nil, false
	}
	switch e.OP {
	case ast.AND:
		return pipeline.NewLogicalBinary(pipeline.AND, left, right), true
	case ast.OR:
		return pipeline.NewLogicalBinary(pipeline.OR, left, right), true
	default:
		return pipeline.NewFunction(e.OP.String(), left, right), true
	}
}

func translateAll(exprs []ast.Expr, tp TypeProvider) ([]pipeline.Expression, bool) {
	result := make([]pipeline.Expression, 0, len(exprs))
	for _, x := range exprs {
		t, ok := Translate(x, tp)
		if !ok {
			return nil, false
		}
		result = append(result, t)
	}
	return result, true
}
