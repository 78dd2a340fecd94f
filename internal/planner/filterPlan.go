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
	"fmt"

	"github.com/lf-edge/pushdown/pkg/ast"
)

type FilterPlan struct {
	baseLogicalPlan
	condition ast.Expr
	outputs   []Symbol
}

// NewFilterPlan filters the rows of source. When outputs is nil the filter
// passes through all source symbols, otherwise only the listed ones.
func NewFilterPlan(id int64, source LogicalPlan, condition ast.Expr, outputs []Symbol) *FilterPlan {
	return &FilterPlan{
		baseLogicalPlan: baseLogicalPlan{id: id, children: []LogicalPlan{source}},
		condition:       condition,
		outputs:         append([]Symbol(nil), outputs...),
	}
}

func (p *FilterPlan) Type() string { return "FilterPlan" }

func (p *FilterPlan) Condition() ast.Expr { return p.condition }

func (p *FilterPlan) OutputSymbols() []Symbol {
	if p.outputs != nil {
		return append([]Symbol(nil), p.outputs...)
	}
	if src := p.source(); src != nil {
		return src.OutputSymbols()
	}
	return nil
}

func (p *FilterPlan) ReplaceChildren(children []LogicalPlan) LogicalPlan {
	c := *p
	c.baseLogicalPlan = p.withChildren(children)
	return &c
}

func (p *FilterPlan) ExplainInfo() string {
	return fmt.Sprintf("Condition:{ %s }", p.condition)
}
