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

package def

import (
	"github.com/lf-edge/pushdown/pkg/connector"
)

// Names of the optimizer rules which can be switched off.
const (
	PushFilterIntoTableScan  = "pushFilterIntoTableScan"
	PushProjectIntoTableScan = "pushProjectIntoTableScan"
)

// Session properties overriding the configured strategy for one query.
const (
	SessionPushdownFilterIntoScan  = "pushdown_filter_into_scan"
	SessionPushdownProjectIntoScan = "pushdown_project_into_scan"
	SessionOptimizerMaxIterations  = "optimizer_max_iterations"
)

const DefaultMaxIterations = 10

type PlanOptimizeStrategy struct {
	PushdownFilterIntoScan  bool `json:"pushdownFilterIntoScan" yaml:"pushdownFilterIntoScan"`
	PushdownProjectIntoScan bool `json:"pushdownProjectIntoScan" yaml:"pushdownProjectIntoScan"`
	MaxIterations           int  `json:"maxIterations" yaml:"maxIterations"`
}

func GetDefaultPlanOptimizeStrategy() *PlanOptimizeStrategy {
	return &PlanOptimizeStrategy{
		PushdownFilterIntoScan:  true,
		PushdownProjectIntoScan: true,
		MaxIterations:           DefaultMaxIterations,
	}
}

// IsOptimizeEnabled reports whether the named rule may run. Rules without a
// switch are always enabled. A nil strategy enables everything.
func (p *PlanOptimizeStrategy) IsOptimizeEnabled(ruleName string) bool {
	if p == nil {
		return true
	}
	switch ruleName {
	case PushFilterIntoTableScan:
		return p.PushdownFilterIntoScan
	case PushProjectIntoTableScan:
		return p.PushdownProjectIntoScan
	default:
		return true
	}
}

func (p *PlanOptimizeStrategy) GetMaxIterations() int {
	if p == nil || p.MaxIterations <= 0 {
		return DefaultMaxIterations
	}
	return p.MaxIterations
}

// ForSession returns a copy of the strategy with the session overrides
// applied. The receiver is not modified.
func (p *PlanOptimizeStrategy) ForSession(s *connector.Session) (*PlanOptimizeStrategy, error) {
	r := GetDefaultPlanOptimizeStrategy()
	if p != nil {
		*r = *p
	}
	if v, ok, err := s.BoolProperty(SessionPushdownFilterIntoScan); err != nil {
		return nil, err
	} else if ok {
		r.PushdownFilterIntoScan = v
	}
	if v, ok, err := s.BoolProperty(SessionPushdownProjectIntoScan); err != nil {
		return nil, err
	} else if ok {
		r.PushdownProjectIntoScan = v
	}
	if v, ok, err := s.IntProperty(SessionOptimizerMaxIterations); err != nil {
		return nil, err
	} else if ok {
		r.MaxIterations = v
	}
	return r, nil
}
