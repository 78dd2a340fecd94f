// Copyright 2021-2024 EMQ Technologies Co., Ltd.
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
	"strconv"
	"strings"

	"github.com/lf-edge/pushdown/pkg/types"
)

type Node interface {
	node()
}

type Expr interface {
	Node
	expr()
}

type Literal interface {
	Expr
	literal()
}

type ParenExpr struct {
	Expr Expr
}

type BooleanLiteral struct {
	Val bool
}

type IntegerLiteral struct {
	Val int64
}

type NumberLiteral struct {
	Val float64
}

type StringLiteral struct {
	Val string
}

// TypedLiteral is a literal whose type was declared in the query text,
// e.g. DATE '2024-01-01'. The value is kept as bound by the analyzer.
type TypedLiteral struct {
	Type types.Type
	Val  any
}

type Wildcard struct {
	Token Token
}

func (pe *ParenExpr) expr() {}
func (pe *ParenExpr) node() {}
func (pe *ParenExpr) String() string {
	return "parenExpr:{ " + stringOf(pe.Expr) + " }"
}

func (w *Wildcard) expr() {}
func (w *Wildcard) node() {}
func (w *Wildcard) String() string {
	return "*"
}

func (bl *BooleanLiteral) expr()    {}
func (bl *BooleanLiteral) literal() {}
func (bl *BooleanLiteral) node()    {}
func (bl *BooleanLiteral) String() string {
	return strconv.FormatBool(bl.Val)
}

func (il *IntegerLiteral) expr()    {}
func (il *IntegerLiteral) literal() {}
func (il *IntegerLiteral) node()    {}
func (il *IntegerLiteral) String() string {
	return strconv.FormatInt(il.Val, 10)
}

func (nl *NumberLiteral) expr()    {}
func (nl *NumberLiteral) literal() {}
func (nl *NumberLiteral) node()    {}
func (nl *NumberLiteral) String() string {
	return strconv.FormatFloat(nl.Val, 'f', -1, 64)
}

func (sl *StringLiteral) expr()    {}
func (sl *StringLiteral) literal() {}
func (sl *StringLiteral) node()    {}
func (sl *StringLiteral) String() string {
	return strconv.Quote(sl.Val)
}

func (tl *TypedLiteral) expr()    {}
func (tl *TypedLiteral) literal() {}
func (tl *TypedLiteral) node()    {}
func (tl *TypedLiteral) String() string {
	return fmt.Sprintf("%s '%v'", strings.ToUpper(string(tl.Type)), tl.Val)
}

type Call struct {
	Name     string
	FuncType FuncType
	Args     []Expr
}

func (c *Call) expr() {}
func (c *Call) node() {}
func (c *Call) String() string {
	args := make([]string, 0, len(c.Args))
	for _, a := range c.Args {
		args = append(args, stringOf(a))
	}
	return "Call:{ name:" + c.Name + ", args:[" + strings.Join(args, ", ") + "] }"
}

// IsAggregate returns true for aggregate and window calls, which have no
// row-at-a-time meaning.
func (c *Call) IsAggregate() bool {
	if c.FuncType == FuncTypeAgg || c.FuncType == FuncTypeWindow {
		return true
	}
	ft := FuncTypeOf(c.Name)
	return ft == FuncTypeAgg || ft == FuncTypeWindow
}

type BinaryExpr struct {
	OP  Token
	LHS Expr
	RHS Expr
}

func (be *BinaryExpr) expr() {}
func (be *BinaryExpr) node() {}
func (be *BinaryExpr) String() string {
	return "binaryExpr:{ " + stringOf(be.LHS) + " " + be.OP.String() + " " + stringOf(be.RHS) + " }"
}

type NotExpr struct {
	Expr Expr
}

func (ne *NotExpr) expr() {}
func (ne *NotExpr) node() {}
func (ne *NotExpr) String() string {
	return "notExpr:{ " + stringOf(ne.Expr) + " }"
}

type IsNullExpr struct {
	Expr Expr
	Not  bool
}

func (ie *IsNullExpr) expr() {}
func (ie *IsNullExpr) node() {}
func (ie *IsNullExpr) String() string {
	if ie.Not {
		return "isNotNull:{ " + stringOf(ie.Expr) + " }"
	}
	return "isNull:{ " + stringOf(ie.Expr) + " }"
}

// InExpr is `Value [NOT] IN (List...)` with a literal/expression list.
type InExpr struct {
	Value Expr
	List  []Expr
	Not   bool
}

func (ie *InExpr) expr() {}
func (ie *InExpr) node() {}
func (ie *InExpr) String() string {
	l := make([]string, 0, len(ie.List))
	for _, e := range ie.List {
		l = append(l, stringOf(e))
	}
	op := "in"
	if ie.Not {
		op = "notIn"
	}
	return op + ":{ " + stringOf(ie.Value) + ", [" + strings.Join(l, ", ") + "] }"
}

type WhenClause struct {
	// The condition Expression
	Expr   Expr
	Result Expr
}

func (w *WhenClause) expr() {}
func (w *WhenClause) node() {}

type CaseExpr struct {
	// The compare value Expression. It can be a value Expression or nil.
	// When it is nil, the WhenClause Expr must be a logical(comparison) Expression
	Value       Expr
	WhenClauses []*WhenClause
	ElseClause  Expr
}

func (c *CaseExpr) expr() {}
func (c *CaseExpr) node() {}
func (c *CaseExpr) String() string {
	return "caseExpr:{ whens:" + strconv.Itoa(len(c.WhenClauses)) + " }"
}

// SubqueryExpr is a scalar or EXISTS subquery. The planner keeps it opaque.
type SubqueryExpr struct {
	Query  string
	Exists bool
}

func (s *SubqueryExpr) expr() {}
func (s *SubqueryExpr) node() {}
func (s *SubqueryExpr) String() string {
	return "subquery:{ " + s.Query + " }"
}

type StreamName string

const DefaultStream = StreamName("$$default")

// FieldRef references a column produced by the child plan. After analysis
// Name is the plan symbol the column is bound to.
type FieldRef struct {
	StreamName StreamName
	Name       string
}

func (fr *FieldRef) expr() {}
func (fr *FieldRef) node() {}
func (fr *FieldRef) String() string {
	sn := ""
	n := ""
	if fr.StreamName != "" {
		sn += "streamName:" + string(fr.StreamName)
	}
	if fr.Name != "" {
		if fr.StreamName != "" {
			n += ", "
		}
		n += "fieldName:" + fr.Name
	}
	return "fieldRef:{ " + sn + n + " }"
}

// MetaRef is a reference to source metadata such as a message topic.
type MetaRef struct {
	StreamName StreamName
	Name       string
}

func (fr *MetaRef) expr() {}
func (fr *MetaRef) node() {}
func (fr *MetaRef) String() string {
	return "metaRef:{ " + fr.Name + " }"
}

func stringOf(n Node) string {
	if n == nil {
		return ""
	}
	if s, ok := n.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", n)
}
