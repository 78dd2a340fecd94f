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
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/lf-edge/pushdown/pkg/types"
)

// Every node, expression, aggregation field and column handle is encoded as
// a JSON object whose "@type" member names the variant.
const typeKey = "@type"

const (
	exprLiteral       = "literal"
	exprInputColumn   = "input_column"
	exprFunction      = "function"
	exprLogicalBinary = "logical_binary"
	exprIn            = "in"
)

var (
	handleLock      sync.RWMutex
	handleFactories = map[string]func() ColumnHandle{}
)

// RegisterColumnHandle makes a handle implementation decodable. The factory
// must return a pointer that json.Unmarshal can fill.
func RegisterColumnHandle(kind string, factory func() ColumnHandle) {
	handleLock.Lock()
	defer handleLock.Unlock()
	handleFactories[kind] = factory
}

type envelope struct {
	Type string `json:"@type"`
}

func peekType(data []byte) (string, error) {
	var e envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return "", err
	}
	if e.Type == "" {
		return "", fmt.Errorf("missing %s in %s", typeKey, string(data))
	}
	return e.Type, nil
}

// MarshalColumnHandle encodes the handle and adds its kind as "@type".
func MarshalColumnHandle(h ColumnHandle) ([]byte, error) {
	if h == nil {
		return nil, fmt.Errorf("nil column handle")
	}
	b, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	b = bytes.TrimSpace(b)
	if len(b) < 2 || b[0] != '{' {
		return nil, fmt.Errorf("column handle %s must encode as a JSON object", h.HandleKind())
	}
	kind, err := json.Marshal(h.HandleKind())
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(`{"` + typeKey + `":`)
	buf.Write(kind)
	if inner := bytes.TrimSpace(b[1 : len(b)-1]); len(inner) > 0 {
		buf.WriteByte(',')
		buf.Write(inner)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func UnmarshalColumnHandle(data []byte) (ColumnHandle, error) {
	kind, err := peekType(data)
	if err != nil {
		return nil, fmt.Errorf("decode column handle: %w", err)
	}
	handleLock.RLock()
	factory, ok := handleFactories[kind]
	handleLock.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown column handle type %s", kind)
	}
	h := factory()
	if err := json.Unmarshal(data, h); err != nil {
		return nil, fmt.Errorf("decode column handle %s: %w", kind, err)
	}
	return h, nil
}

func (l *Literal) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      string     `json:"@type"`
		Value     any        `json:"value"`
		ValueType types.Type `json:"type"`
	}{exprLiteral, l.value, l.typ})
}

func (c *InputColumn) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type       string     `json:"@type"`
		Name       string     `json:"name"`
		ColumnType types.Type `json:"type"`
	}{exprInputColumn, c.name, c.typ})
}

func (f *Function) MarshalJSON() ([]byte, error) {
	inputs := f.inputs
	if inputs == nil {
		inputs = []Expression{}
	}
	return json.Marshal(struct {
		Type   string       `json:"@type"`
		Name   string       `json:"name"`
		Inputs []Expression `json:"inputs"`
	}{exprFunction, f.name, inputs})
}

func (b *LogicalBinary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  string     `json:"@type"`
		Op    LogicalOp  `json:"op"`
		Left  Expression `json:"left"`
		Right Expression `json:"right"`
	}{exprLogicalBinary, b.op, b.left, b.right})
}

func (in *InExpression) MarshalJSON() ([]byte, error) {
	candidates := in.candidates
	if candidates == nil {
		candidates = []Expression{}
	}
	return json.Marshal(struct {
		Type       string       `json:"@type"`
		Value      Expression   `json:"value"`
		Candidates []Expression `json:"candidates"`
	}{exprIn, in.value, candidates})
}

// UnmarshalExpression decodes any expression variant.
func UnmarshalExpression(data []byte) (Expression, error) {
	kind, err := peekType(data)
	if err != nil {
		return nil, fmt.Errorf("decode expression: %w", err)
	}
	switch kind {
	case exprLiteral:
		var w struct {
			Value     json.RawMessage `json:"value"`
			ValueType types.Type      `json:"type"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		v, err := decodeLiteralValue(w.Value, w.ValueType)
		if err != nil {
			return nil, err
		}
		return NewLiteral(v, w.ValueType), nil
	case exprInputColumn:
		var w struct {
			Name       string     `json:"name"`
			ColumnType types.Type `json:"type"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		return NewInputColumn(w.Name, w.ColumnType), nil
	case exprFunction:
		var w struct {
			Name   string            `json:"name"`
			Inputs []json.RawMessage `json:"inputs"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		inputs, err := unmarshalExpressions(w.Inputs)
		if err != nil {
			return nil, err
		}
		return NewFunction(w.Name, inputs...), nil
	case exprLogicalBinary:
		var w struct {
			Op    LogicalOp       `json:"op"`
			Left  json.RawMessage `json:"left"`
			Right json.RawMessage `json:"right"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		if w.Op != AND && w.Op != OR {
			return nil, fmt.Errorf("unknown logical operator %s", w.Op)
		}
		left, err := UnmarshalExpression(w.Left)
		if err != nil {
			return nil, err
		}
		right, err := UnmarshalExpression(w.Right)
		if err != nil {
			return nil, err
		}
		return NewLogicalBinary(w.Op, left, right), nil
	case exprIn:
		var w struct {
			Value      json.RawMessage   `json:"value"`
			Candidates []json.RawMessage `json:"candidates"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		value, err := UnmarshalExpression(w.Value)
		if err != nil {
			return nil, err
		}
		candidates, err := unmarshalExpressions(w.Candidates)
		if err != nil {
			return nil, err
		}
		return NewInExpression(value, candidates...), nil
	default:
		return nil, fmt.Errorf("unknown expression type %s", kind)
	}
}

func unmarshalExpressions(raws []json.RawMessage) ([]Expression, error) {
	result := make([]Expression, 0, len(raws))
	for _, raw := range raws {
		e, err := UnmarshalExpression(raw)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, nil
}

// decodeLiteralValue restores the Go type of a literal from its declared
// type. Integer literals must fit in 32 bits. Unknown types keep the generic JSON value with numbers narrowed to
// int64 when possible.
func decodeLiteralValue(raw json.RawMessage, t types.Type) (any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var err error
	switch t {
	case types.Integer:
		var v int64
		if err = json.Unmarshal(raw, &v); err == nil {
			err = types.CheckIntegerRange(v)
		}
		return v, wrapLiteralErr(err, t)
	case types.BigInt:
		var v int64
		err = json.Unmarshal(raw, &v)
		return v, wrapLiteralErr(err, t)
	case types.Double:
		var v float64
		err = json.Unmarshal(raw, &v)
		return v, wrapLiteralErr(err, t)
	case types.Boolean:
		var v bool
		err = json.Unmarshal(raw, &v)
		return v, wrapLiteralErr(err, t)
	case types.Varchar, types.Date:
		var v string
		err = json.Unmarshal(raw, &v)
		return v, wrapLiteralErr(err, t)
	default:
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, wrapLiteralErr(err, t)
		}
		if n, ok := v.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				return i, nil
			}
			return n.Float64()
		}
		return v, nil
	}
}

func wrapLiteralErr(err error, t types.Type) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("invalid %s literal: %w", t, err)
}

func (t *TableNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type          string       `json:"@type"`
		SchemaName    string       `json:"schemaName"`
		TableName     string       `json:"tableName"`
		OutputColumns []string     `json:"outputColumns"`
		RowType       []types.Type `json:"rowType"`
	}{string(KindTable), t.schemaName, t.tableName, nonNil(t.columns), nonNil(t.rowType)})
}

func (p *ProjectNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type          string       `json:"@type"`
		Expressions   []Expression `json:"expressions"`
		OutputColumns []string     `json:"outputColumns"`
		RowType       []types.Type `json:"rowType"`
	}{string(KindProject), nonNil(p.expressions), nonNil(p.columns), nonNil(p.rowType)})
}

func (f *FilterNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type          string       `json:"@type"`
		Predicate     Expression   `json:"predicate"`
		OutputColumns []string     `json:"outputColumns"`
		RowType       []types.Type `json:"rowType"`
	}{string(KindFilter), f.predicate, nonNil(f.columns), nonNil(f.rowType)})
}

func (a *AggregationNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  string             `json:"@type"`
		Nodes []AggregationField `json:"nodes"`
	}{string(KindAggregation), nonNil(a.fields)})
}

func (g *GroupByColumn) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type         string     `json:"@type"`
		InputColumn  string     `json:"inputColumn"`
		OutputColumn string     `json:"outputColumn"`
		OutputType   types.Type `json:"outputType"`
	}{string(KindGroupBy), g.inputColumn, g.outputColumn, g.outputType})
}

func (a *AggregateCall) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type         string     `json:"@type"`
		InputColumns []string   `json:"inputColumns"`
		Function     string     `json:"function"`
		OutputColumn string     `json:"outputColumn"`
		OutputType   types.Type `json:"outputType"`
	}{string(KindAggregate), nonNil(a.inputColumns), a.function, a.outputColumn, a.outputType})
}

type schemaWire struct {
	OutputColumns []string     `json:"outputColumns"`
	RowType       []types.Type `json:"rowType"`
}

// UnmarshalNode decodes any pipeline node variant.
func UnmarshalNode(data []byte) (Node, error) {
	kind, err := peekType(data)
	if err != nil {
		return nil, fmt.Errorf("decode pipeline node: %w", err)
	}
	switch NodeKind(kind) {
	case KindTable:
		var w struct {
			schemaWire
			SchemaName string `json:"schemaName"`
			TableName  string `json:"tableName"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		return NewTableNode(w.SchemaName, w.TableName, w.OutputColumns, w.RowType)
	case KindProject:
		var w struct {
			schemaWire
			Expressions []json.RawMessage `json:"expressions"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		exprs, err := unmarshalExpressions(w.Expressions)
		if err != nil {
			return nil, err
		}
		return NewProjectNode(exprs, w.OutputColumns, w.RowType)
	case KindFilter:
		var w struct {
			schemaWire
			Predicate json.RawMessage `json:"predicate"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		predicate, err := UnmarshalExpression(w.Predicate)
		if err != nil {
			return nil, err
		}
		return NewFilterNode(predicate, w.OutputColumns, w.RowType)
	case KindAggregation:
		var w struct {
			Nodes []json.RawMessage `json:"nodes"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		fields := make([]AggregationField, 0, len(w.Nodes))
		for _, raw := range w.Nodes {
			f, err := unmarshalAggregationField(raw)
			if err != nil {
				return nil, err
			}
			fields = append(fields, f)
		}
		return NewAggregationNode(fields...), nil
	default:
		return nil, fmt.Errorf("unknown pipeline node type %s", kind)
	}
}

func unmarshalAggregationField(data []byte) (AggregationField, error) {
	kind, err := peekType(data)
	if err != nil {
		return nil, fmt.Errorf("decode aggregation field: %w", err)
	}
	switch AggregationFieldKind(kind) {
	case KindGroupBy:
		var w struct {
			InputColumn  string     `json:"inputColumn"`
			OutputColumn string     `json:"outputColumn"`
			OutputType   types.Type `json:"outputType"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		return NewGroupByColumn(w.InputColumn, w.OutputColumn, w.OutputType), nil
	case KindAggregate:
		var w struct {
			InputColumns []string   `json:"inputColumns"`
			Function     string     `json:"function"`
			OutputColumn string     `json:"outputColumn"`
			OutputType   types.Type `json:"outputType"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		return NewAggregateCall(w.InputColumns, w.Function, w.OutputColumn, w.OutputType), nil
	default:
		return nil, fmt.Errorf("unknown aggregation field type %s", kind)
	}
}

type pipelineWire struct {
	Nodes   []json.RawMessage `json:"pipelineNodes"`
	Handles []json.RawMessage `json:"outputColumnHandles"`
}

func (p *TableScanPipeline) MarshalJSON() ([]byte, error) {
	w := pipelineWire{
		Nodes:   make([]json.RawMessage, 0, len(p.nodes)),
		Handles: make([]json.RawMessage, 0, len(p.handles)),
	}
	for _, n := range p.nodes {
		b, err := json.Marshal(n)
		if err != nil {
			return nil, err
		}
		w.Nodes = append(w.Nodes, b)
	}
	for _, h := range p.handles {
		b, err := MarshalColumnHandle(h)
		if err != nil {
			return nil, err
		}
		w.Handles = append(w.Handles, b)
	}
	return json.Marshal(w)
}

func (p *TableScanPipeline) UnmarshalJSON(data []byte) error {
	var w pipelineWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	nodes := make([]Node, 0, len(w.Nodes))
	for _, raw := range w.Nodes {
		n, err := UnmarshalNode(raw)
		if err != nil {
			return err
		}
		nodes = append(nodes, n)
	}
	handles := make([]ColumnHandle, 0, len(w.Handles))
	for _, raw := range w.Handles {
		h, err := UnmarshalColumnHandle(raw)
		if err != nil {
			return err
		}
		handles = append(handles, h)
	}
	*p = *NewTableScanPipeline(nodes, handles)
	return nil
}

// Encode renders the pipeline in its tagged JSON form.
func Encode(p *TableScanPipeline) ([]byte, error) {
	return json.Marshal(p)
}

func Decode(data []byte) (*TableScanPipeline, error) {
	p := &TableScanPipeline{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, err
	}
	return p, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
