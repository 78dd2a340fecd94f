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
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/lf-edge/pushdown/internal/conf"
	"github.com/lf-edge/pushdown/internal/pkg/def"
	"github.com/lf-edge/pushdown/metrics"
	"github.com/lf-edge/pushdown/pkg/connector"
	"github.com/lf-edge/pushdown/pkg/errorx"
	"github.com/lf-edge/pushdown/pkg/tracer"
)

var optRuleList = []logicalOptRule{
	&pushFilterIntoTableScan{},
	&pushProjectIntoTableScan{},
}

// Optimizer drives the pushdown rules over logical plans. It is safe for
// concurrent use when the metadata is.
type Optimizer struct {
	metadata connector.Metadata
	strategy *def.PlanOptimizeStrategy
	ids      *IDAllocator
}

// NewOptimizer creates an optimizer. A nil strategy uses the configured one.
// A nil allocator makes each Optimize call number new nodes after the
// largest id in its plan.
func NewOptimizer(metadata connector.Metadata, strategy *def.PlanOptimizeStrategy, ids *IDAllocator) *Optimizer {
	if strategy == nil {
		strategy = conf.GetOptimizeStrategy()
	}
	return &Optimizer{metadata: metadata, strategy: strategy, ids: ids}
}

// Optimize applies the enabled rules until the plan stops changing or the
// iteration limit is reached. The input plan is never modified. When types
// is nil the symbols declared by the plan are used.
func (o *Optimizer) Optimize(ctx context.Context, session *connector.Session, plan LogicalPlan, types TypeProvider) (_ LogicalPlan, err error) {
	ctx, span := tracer.GetTracer().Start(ctx, "optimize")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	if plan == nil {
		return nil, errorx.NewInvalidState("plan is nil")
	}
	if o.metadata == nil {
		return nil, errorx.NewInvalidState("optimizer has no connector metadata")
	}
	strategy, err := o.strategy.ForSession(session)
	if err != nil {
		return nil, errorx.NewValidationError("%v", err)
	}
	var rules []logicalOptRule
	for _, rule := range optRuleList {
		if strategy.IsOptimizeEnabled(rule.name()) {
			rules = append(rules, rule)
		}
	}
	if len(rules) == 0 {
		return plan, nil
	}
	if types == nil {
		types = CollectSymbolTypes(plan)
	}
	ids := o.ids
	if ids == nil {
		ids = NewIDAllocator(maxPlanID(plan) + 1)
	}
	logger := conf.Log.WithField("query", "")
	if session != nil {
		logger = conf.Log.WithField("query", session.QueryID)
		span.SetAttributes(attribute.String("query", session.QueryID))
	}
	rc := &ruleContext{
		ctx:      ctx,
		session:  session,
		metadata: o.metadata,
		types:    types,
		ids:      ids,
		logger:   logger,
	}
	maxIterations := strategy.GetMaxIterations()
	for i := 0; i < maxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, changed, err := rewrite(rc, rules, plan)
		if err != nil {
			metrics.OptimizePassCounter.WithLabelValues(metrics.LblException).Inc()
			return nil, err
		}
		metrics.OptimizePassCounter.WithLabelValues(metrics.LblSuccess).Inc()
		if !changed {
			return plan, nil
		}
		plan = next
	}
	logger.Debugf("optimizer stopped after %d passes", maxIterations)
	return plan, nil
}

// OptimizeAll optimizes independent plan fragments concurrently. The first
// error cancels the remaining fragments.
func (o *Optimizer) OptimizeAll(ctx context.Context, session *connector.Session, fragments []LogicalPlan) ([]LogicalPlan, error) {
	result := make([]LogicalPlan, len(fragments))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range fragments {
		i, f := i, f
		g.Go(func() error {
			p, err := o.Optimize(gctx, session, f, nil)
			if err != nil {
				return fmt.Errorf("fragment %d: %w", i, err)
			}
			result[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// rewrite visits the plan bottom up and applies the first matching rule at
// each node. Unchanged subtrees keep their identity.
func rewrite(rc *ruleContext, rules []logicalOptRule, p LogicalPlan) (LogicalPlan, bool, error) {
	children := p.Children()
	changed := false
	for i, c := range children {
		nc, ok, err := rewrite(rc, rules, c)
		if err != nil {
			return nil, false, err
		}
		if ok {
			children[i] = nc
			changed = true
		}
	}
	if changed {
		p = p.ReplaceChildren(children)
	}
	for _, rule := range rules {
		if !rule.match(p) {
			continue
		}
		np, err := rule.apply(rc, p)
		if err != nil {
			return nil, false, err
		}
		if np != nil {
			return np, true, nil
		}
	}
	return p, changed, nil
}

func maxPlanID(p LogicalPlan) int64 {
	m := p.ID()
	for _, c := range p.Children() {
		if id := maxPlanID(c); id > m {
			m = id
		}
	}
	return m
}
