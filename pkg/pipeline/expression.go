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
	"math"
	"strings"

	"github.com/lf-edge/pushdown/pkg/types"
)

// Expression is a pushed down expression. The set of implementations is
// closed: Literal, InputColumn, Function, LogicalBinary and InExpression.
// Values are immutable once built.
type Expression interface {
	fmt.Stringer
	pushdownExpression()
}

type LogicalOp string

const (
	AND LogicalOp = "AND"
	OR  LogicalOp = "OR"
)

type Literal struct {
	value any
	typ   types.Type
}

// NewLiteral builds a constant. Go integers are stored as int64 and float32
// as float64, the forms the codec decodes back.
func NewLiteral(value any, typ types.Type) *Literal {
	return &Literal{value: normalizeLiteral(value), typ: typ}
}

func normalizeLiteral(value any) any {
	switch v := value.(type) {
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint:
		if uint64(v) <= math.MaxInt64 {
			return int64(v)
		}
	case uint64:
		if v <= math.MaxInt64 {
			return int64(v)
		}
	case float32:
		return float64(v)
	}
	return value
}

func (l *Literal) Value() any          { return l.value }
func (l *Literal) Type() types.Type    { return l.typ }
func (l *Literal) pushdownExpression() {}

func (l *Literal) String() string {
	if l.value == nil {
		return "null"
	}
	if s, ok := l.value.(string); ok {
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	}
	return fmt.Sprintf("%v", l.value)
}

// InputColumn refers to a column produced by the previous pipeline node.
type InputColumn struct {
	name string
	typ  types.Type
}

func NewInputColumn(name string, typ types.Type) *InputColumn {
	return &InputColumn{name: name, typ: typ}
}

func (c *InputColumn) Name() string        { return c.name }
func (c *InputColumn) Type() types.Type    { return c.typ }
func (c *InputColumn) pushdownExpression() {}
func (c *InputColumn) String() string      { return c.name }

// Function is an operator or function application. Operators use their
// symbol as the name, e.g. "+" or ">=".
type Function struct {
	name   string
	inputs []Expression
}

func NewFunction(name string, inputs ...Expression) *Function {
	return &Function{name: name, inputs: append([]Expression(nil), inputs...)}
}

func (f *Function) Name() string { return f.name }

func (f *Function) Inputs() []Expression {
	return append([]Expression(nil), f.inputs...)
}

func (f *Function) pushdownExpression() {}

func (f *Function) String() string {
	return f.name + "(" + joinExpressions(f.inputs) + ")"
}

type LogicalBinary struct {
	op    LogicalOp
	left  Expression
	right Expression
}

func NewLogicalBinary(op LogicalOp, left, right Expression) *LogicalBinary {
	return &LogicalBinary{op: op, left: left, right: right}
}

func (b *LogicalBinary) Op() LogicalOp       { return b.op }
func (b *LogicalBinary) Left() Expression    { return b.left }
func (b *LogicalBinary) Right() Expression   { return b.right }
func (b *LogicalBinary) pushdownExpression() {}

func (b *LogicalBinary) String() string {
	return "(" + b.left.String() + " " + string(b.op) + " " + b.right.String() + ")"
}

type InExpression struct {
	value      Expression
	candidates []Expression
}

func NewInExpression(value Expression, candidates ...Expression) *InExpression {
	return &InExpression{value: value, candidates: append([]Expression(nil), candidates...)}
}

func (in *InExpression) Value() Expression { return in.value }

func (in *InExpression) Candidates() []Expression {
	return append([]Expression(nil), in.candidates...)
}

func (in *InExpression) pushdownExpression() {}

func (in *InExpression) String() string {
	return in.value.String() + " IN (" + joinExpressions(in.candidates) + ")"
}

// WalkExpression visits e and its children depth first until fn returns false.
func WalkExpression(e Expression, fn func(Expression) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch x := e.(type) {
	case *Function:
		for _, in := range x.inputs {
			WalkExpression(in, fn)
		}
	case *LogicalBinary:
		WalkExpression(x.left, fn)
		WalkExpression(x.right, fn)
	case *InExpression:
		WalkExpression(x.value, fn)
		for _, c := range x.candidates {
			WalkExpression(c, fn)
		}
	case *Literal, *InputColumn:
	}
}

func joinExpressions(exprs []Expression) string {
	s := make([]string, 0, len(exprs))
	for _, e := range exprs {
		s = append(s, e.String())
	}
	return strings.Join(s, ", ")
}
