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

package sqlgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lf-edge/pushdown/pkg/cast"
	"github.com/lf-edge/pushdown/pkg/pipeline"
	"github.com/lf-edge/pushdown/pkg/types"
)

var aggregateFunctions = map[string]string{
	"count": "COUNT",
	"sum":   "SUM",
	"avg":   "AVG",
	"min":   "MIN",
	"max":   "MAX",
}

// SupportsAggregate reports whether an aggregate call can be rendered.
func (d *Dialect) SupportsAggregate(name string) bool {
	_, ok := aggregateFunctions[strings.ToLower(name)]
	return ok
}

// Generate renders a pipeline as a single statement. Each node after the
// table wraps the statement of its source in a derived table, so the result
// columns are the output columns of the last node in order.
func (d *Dialect) Generate(p *pipeline.TableScanPipeline) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	var stmt string
	for i, n := range p.Nodes() {
		from := fmt.Sprintf("(%s) AS %s", stmt, d.QuoteIdentifier("p"+strconv.Itoa(i)))
		switch node := n.(type) {
		case *pipeline.TableNode:
			stmt = "SELECT " + d.columnList(node.OutputColumns()) + " FROM " + d.tableName(node)
		case *pipeline.FilterNode:
			pred, err := d.Expression(node.Predicate())
			if err != nil {
				return "", err
			}
			stmt = "SELECT " + d.columnList(node.OutputColumns()) + " FROM " + from + " WHERE " + pred
		case *pipeline.ProjectNode:
			cols := node.OutputColumns()
			items := make([]string, 0, len(cols))
			for j, e := range node.Expressions() {
				s, err := d.Expression(e)
				if err != nil {
					return "", err
				}
				items = append(items, s+" AS "+d.QuoteIdentifier(cols[j]))
			}
			stmt = "SELECT " + strings.Join(items, ", ") + " FROM " + from
		case *pipeline.AggregationNode:
			s, err := d.aggregation(node, from)
			if err != nil {
				return "", err
			}
			stmt = s
		default:
			return "", fmt.Errorf("unsupported pipeline node %s", n.Kind())
		}
	}
	return stmt, nil
}

func (d *Dialect) aggregation(node *pipeline.AggregationNode, from string) (string, error) {
	var items, groups []string
	for _, f := range node.Fields() {
		switch field := f.(type) {
		case *pipeline.GroupByColumn:
			col := d.QuoteIdentifier(field.InputColumn())
			items = append(items, col+" AS "+d.QuoteIdentifier(field.OutputColumn()))
			groups = append(groups, col)
		case *pipeline.AggregateCall:
			fn, ok := aggregateFunctions[strings.ToLower(field.Function())]
			if !ok {
				return "", fmt.Errorf("unsupported aggregate function %s", field.Function())
			}
			args := "*"
			if in := field.InputColumns(); len(in) > 0 {
				args = d.columnList(in)
			}
			items = append(items, fn+"("+args+") AS "+d.QuoteIdentifier(field.OutputColumn()))
		}
	}
	stmt := "SELECT " + strings.Join(items, ", ") + " FROM " + from
	if len(groups) > 0 {
		stmt += " GROUP BY " + strings.Join(groups, ", ")
	}
	return stmt, nil
}

// Expression renders a pushed down expression.
func (d *Dialect) Expression(e pipeline.Expression) (string, error) {
	switch x := e.(type) {
	case *pipeline.Literal:
		return d.literal(x)
	case *pipeline.InputColumn:
		return d.QuoteIdentifier(x.Name()), nil
	case *pipeline.LogicalBinary:
		l, err := d.Expression(x.Left())
		if err != nil {
			return "", err
		}
		r, err := d.Expression(x.Right())
		if err != nil {
			return "", err
		}
		return "(" + l + " " + string(x.Op()) + " " + r + ")", nil
	case *pipeline.InExpression:
		v, err := d.Expression(x.Value())
		if err != nil {
			return "", err
		}
		candidates, err := d.expressions(x.Candidates())
		if err != nil {
			return "", err
		}
		if len(candidates) == 0 {
			return "(1 = 0)", nil
		}
		return "(" + v + " IN (" + strings.Join(candidates, ", ") + "))", nil
	case *pipeline.Function:
		return d.function(x)
	default:
		return "", fmt.Errorf("unsupported expression %v", e)
	}
}

func (d *Dialect) function(f *pipeline.Function) (string, error) {
	name := strings.ToLower(f.Name())
	if !d.SupportsFunction(name, len(f.Inputs())) {
		return "", fmt.Errorf("function %s with %d arguments is not supported by %s", f.Name(), len(f.Inputs()), d.Name)
	}
	args, err := d.expressions(f.Inputs())
	if err != nil {
		return "", err
	}
	if op, ok := infixOperators[name]; ok {
		return "(" + args[0] + " " + op + " " + args[1] + ")", nil
	}
	switch name {
	case "not":
		return "(NOT " + args[0] + ")", nil
	case "is_null":
		return "(" + args[0] + " IS NULL)", nil
	case "is_not_null":
		return "(" + args[0] + " IS NOT NULL)", nil
	}
	return d.functions[name] + "(" + strings.Join(args, ", ") + ")", nil
}

func (d *Dialect) expressions(exprs []pipeline.Expression) ([]string, error) {
	r := make([]string, 0, len(exprs))
	for _, e := range exprs {
		s, err := d.Expression(e)
		if err != nil {
			return nil, err
		}
		r = append(r, s)
	}
	return r, nil
}

func (d *Dialect) literal(l *pipeline.Literal) (string, error) {
	v := l.Value()
	if v == nil {
		return "NULL", nil
	}
	switch l.Type() {
	case types.Integer:
		i, err := cast.ToInt64(v, cast.STRICT)
		if err != nil {
			return "", fmt.Errorf("invalid integer literal: %v", err)
		}
		if err := types.CheckIntegerRange(i); err != nil {
			return "", err
		}
		return strconv.FormatInt(i, 10), nil
	case types.BigInt:
		i, err := cast.ToInt64(v, cast.STRICT)
		if err != nil {
			return "", fmt.Errorf("invalid bigint literal: %v", err)
		}
		return strconv.FormatInt(i, 10), nil
	case types.Double:
		f, err := cast.ToFloat64(v, cast.CONVERT_SAMEKIND)
		if err != nil {
			return "", fmt.Errorf("invalid double literal: %v", err)
		}
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	case types.Boolean:
		b, err := cast.ToBool(v, cast.STRICT)
		if err != nil {
			return "", fmt.Errorf("invalid boolean literal: %v", err)
		}
		if b {
			return "TRUE", nil
		}
		return "FALSE", nil
	case types.Varchar, types.Date:
		return quoteString(cast.ToStringAlways(v)), nil
	default:
		switch x := v.(type) {
		case string:
			return quoteString(x), nil
		case bool:
			return strings.ToUpper(strconv.FormatBool(x)), nil
		default:
			if i, err := cast.ToInt64(x, cast.STRICT); err == nil {
				return strconv.FormatInt(i, 10), nil
			}
			if f, err := cast.ToFloat64(x, cast.CONVERT_SAMEKIND); err == nil {
				return strconv.FormatFloat(f, 'g', -1, 64), nil
			}
			return "", fmt.Errorf("invalid %s literal %v", l.Type(), v)
		}
	}
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (d *Dialect) columnList(cols []string) string {
	quoted := make([]string, 0, len(cols))
	for _, c := range cols {
		quoted = append(quoted, d.QuoteIdentifier(c))
	}
	return strings.Join(quoted, ", ")
}

func (d *Dialect) tableName(t *pipeline.TableNode) string {
	if t.SchemaName() == "" {
		return d.QuoteIdentifier(t.TableName())
	}
	return d.QuoteIdentifier(t.SchemaName()) + "." + d.QuoteIdentifier(t.TableName())
}
