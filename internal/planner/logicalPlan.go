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
	"strings"
	"sync/atomic"

	"github.com/lf-edge/pushdown/pkg/types"
)

// Symbol is a named, typed value flowing between plan nodes.
type Symbol struct {
	Name string
	Type types.Type
}

func (s Symbol) String() string {
	return s.Name + ":" + s.Type.String()
}

// TypeProvider resolves the type of a symbol visible to the expression being
// translated.
type TypeProvider interface {
	TypeOf(name string) (types.Type, bool)
}

type SymbolTypes map[string]types.Type

func (s SymbolTypes) TypeOf(name string) (types.Type, bool) {
	t, ok := s[name]
	return t, ok
}

// CollectSymbolTypes gathers the output symbols of every node of the plan.
func CollectSymbolTypes(p LogicalPlan) SymbolTypes {
	result := make(SymbolTypes)
	var collect func(LogicalPlan)
	collect = func(lp LogicalPlan) {
		for _, s := range lp.OutputSymbols() {
			result[s.Name] = s.Type
		}
		for _, c := range lp.Children() {
			collect(c)
		}
	}
	collect(p)
	return result
}

// LogicalPlan nodes are immutable. ReplaceChildren returns a copy with the
// same id and the new children.
type LogicalPlan interface {
	ID() int64
	Type() string
	Children() []LogicalPlan
	ReplaceChildren(children []LogicalPlan) LogicalPlan
	OutputSymbols() []Symbol
	// ExplainInfo is the node specific part of the explain line.
	ExplainInfo() string
}

type baseLogicalPlan struct {
	id       int64
	children []LogicalPlan
}

func (p *baseLogicalPlan) ID() int64 {
	return p.id
}

func (p *baseLogicalPlan) Children() []LogicalPlan {
	return append([]LogicalPlan(nil), p.children...)
}

func (p *baseLogicalPlan) source() LogicalPlan {
	if len(p.children) == 0 {
		return nil
	}
	return p.children[0]
}

func (p *baseLogicalPlan) withChildren(children []LogicalPlan) baseLogicalPlan {
	return baseLogicalPlan{id: p.id, children: append([]LogicalPlan(nil), children...)}
}

// IDAllocator hands out plan node ids. It is safe for concurrent use.
type IDAllocator struct {
	next atomic.Int64
}

// NewIDAllocator returns an allocator whose first id is start.
func NewIDAllocator(start int64) *IDAllocator {
	a := &IDAllocator{}
	a.next.Store(start)
	return a
}

func (a *IDAllocator) Next() int64 {
	return a.next.Add(1) - 1
}

func symbolNames(symbols []Symbol) []string {
	r := make([]string, 0, len(symbols))
	for _, s := range symbols {
		r = append(r, s.Name)
	}
	return r
}

func symbolTypes(symbols []Symbol) []types.Type {
	r := make([]types.Type, 0, len(symbols))
	for _, s := range symbols {
		r = append(r, s.Type)
	}
	return r
}

func joinSymbols(symbols []Symbol) string {
	return strings.Join(symbolNames(symbols), ", ")
}
