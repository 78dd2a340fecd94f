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

import "fmt"

type LimitPlan struct {
	baseLogicalPlan
	count int64
}

func NewLimitPlan(id int64, source LogicalPlan, count int64) *LimitPlan {
	return &LimitPlan{
		baseLogicalPlan: baseLogicalPlan{id: id, children: []LogicalPlan{source}},
		count:           count,
	}
}

func (p *LimitPlan) Type() string { return "LimitPlan" }

func (p *LimitPlan) Count() int64 { return p.count }

func (p *LimitPlan) OutputSymbols() []Symbol {
	if src := p.source(); src != nil {
		return src.OutputSymbols()
	}
	return nil
}

func (p *LimitPlan) ReplaceChildren(children []LogicalPlan) LogicalPlan {
	c := *p
	c.baseLogicalPlan = p.withChildren(children)
	return &c
}

func (p *LimitPlan) ExplainInfo() string {
	return fmt.Sprintf("Limit: %d", p.count)
}
