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
	"strings"

	"github.com/lf-edge/pushdown/pkg/ast"
)

// Assignment computes one output symbol of a projection.
type Assignment struct {
	Symbol Symbol
	Expr   ast.Expr
}

type ProjectPlan struct {
	baseLogicalPlan
	assignments []Assignment
}

func NewProjectPlan(id int64, source LogicalPlan, assignments []Assignment) *ProjectPlan {
	return &ProjectPlan{
		baseLogicalPlan: baseLogicalPlan{id: id, children: []LogicalPlan{source}},
		assignments:     append([]Assignment(nil), assignments...),
	}
}

func (p *ProjectPlan) Type() string { return "ProjectPlan" }

// Assignments are in output order.
func (p *ProjectPlan) Assignments() []Assignment {
	return append([]Assignment(nil), p.assignments...)
}

func (p *ProjectPlan) OutputSymbols() []Symbol {
	r := make([]Symbol, 0, len(p.assignments))
	for _, a := range p.assignments {
		r = append(r, a.Symbol)
	}
	return r
}

func (p *ProjectPlan) ReplaceChildren(children []LogicalPlan) LogicalPlan {
	c := *p
	c.baseLogicalPlan = p.withChildren(children)
	return &c
}

func (p *ProjectPlan) ExplainInfo() string {
	fields := make([]string, 0, len(p.assignments))
	for _, a := range p.assignments {
		fields = append(fields, fmt.Sprintf("%s:=%s", a.Symbol.Name, a.Expr))
	}
	return "Fields:[ " + strings.Join(fields, ", ") + " ]"
}
