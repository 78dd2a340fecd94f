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
	"reflect"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lf-edge/pushdown/internal/pkg/def"
	"github.com/lf-edge/pushdown/metrics"
	"github.com/lf-edge/pushdown/pkg/connector"
	"github.com/lf-edge/pushdown/pkg/errorx"
	"github.com/lf-edge/pushdown/pkg/pipeline"
	"github.com/lf-edge/pushdown/pkg/timex"
	"github.com/lf-edge/pushdown/pkg/tracer"
)

// logicalOptRule rewrites a plan fragment rooted at the matched node. apply
// returns nil when the fragment stays as is. Any error is a hard fault.
type logicalOptRule interface {
	name() string
	match(p LogicalPlan) bool
	apply(rc *ruleContext, p LogicalPlan) (LogicalPlan, error)
}

type ruleContext struct {
	ctx      context.Context
	session  *connector.Session
	metadata connector.Metadata
	types    TypeProvider
	ids      *IDAllocator
	logger   *logrus.Entry
}

type pushFilterIntoTableScan struct{}

func (r *pushFilterIntoTableScan) name() string {
	return def.PushFilterIntoTableScan
}

func (r *pushFilterIntoTableScan) match(p LogicalPlan) bool {
	f, ok := p.(*FilterPlan)
	if !ok {
		return false
	}
	_, ok = f.source().(*TableScanPlan)
	return ok
}

func (r *pushFilterIntoTableScan) apply(rc *ruleContext, p LogicalPlan) (LogicalPlan, error) {
	filter := p.(*FilterPlan)
	scan := filter.source().(*TableScanPlan)
	predicate, ok := Translate(filter.condition, rc.types)
	if !ok {
		rc.logger.Debugf("filter %d: condition %s cannot be pushed down", filter.ID(), filter.condition)
		metrics.IncRuleOutcome(r.name(), metrics.LblUntranslatable)
		return nil, nil
	}
	outputs := filter.OutputSymbols()
	candidate, err := pipeline.NewFilterNode(predicate, symbolNames(outputs), symbolTypes(outputs))
	if err != nil {
		return nil, errorx.NewInvalidState("filter %d: %v", filter.ID(), err)
	}
	return pushIntoScan(rc, r.name(), scan, outputs, candidate, func(ctx context.Context) (*pipeline.TableScanPipeline, error) {
		return rc.metadata.PushFilterIntoScan(ctx, rc.session, scan.table, scan.scanPipeline, candidate)
	})
}

type pushProjectIntoTableScan struct{}

func (r *pushProjectIntoTableScan) name() string {
	return def.PushProjectIntoTableScan
}

func (r *pushProjectIntoTableScan) match(p LogicalPlan) bool {
	proj, ok := p.(*ProjectPlan)
	if !ok {
		return false
	}
	_, ok = proj.source().(*TableScanPlan)
	return ok
}

func (r *pushProjectIntoTableScan) apply(rc *ruleContext, p LogicalPlan) (LogicalPlan, error) {
	proj := p.(*ProjectPlan)
	scan := proj.source().(*TableScanPlan)
	exprs := make([]pipeline.Expression, 0, len(proj.assignments))
	for _, a := range proj.assignments {
		e, ok := Translate(a.Expr, rc.types)
		if !ok {
			rc.logger.Debugf("project %d: %s := %s cannot be pushed down", proj.ID(), a.Symbol.Name, a.Expr)
			metrics.IncRuleOutcome(r.name(), metrics.LblUntranslatable)
			return nil, nil
		}
		exprs = append(exprs, e)
	}
	outputs := proj.OutputSymbols()
	candidate, err := pipeline.NewProjectNode(exprs, symbolNames(outputs), symbolTypes(outputs))
	if err != nil {
		return nil, errorx.NewInvalidState("project %d: %v", proj.ID(), err)
	}
	return pushIntoScan(rc, r.name(), scan, outputs, candidate, func(ctx context.Context) (*pipeline.TableScanPipeline, error) {
		return rc.metadata.PushProjectIntoScan(ctx, rc.session, scan.table, scan.scanPipeline, candidate)
	})
}

// pushIntoScan negotiates the candidate with the connector and, when it is
// accepted, returns the new scan replacing the matched fragment.
func pushIntoScan(rc *ruleContext, rule string, scan *TableScanPlan, outputs []Symbol, candidate pipeline.Node, negotiate func(ctx context.Context) (*pipeline.TableScanPipeline, error)) (_ LogicalPlan, err error) {
	ctx, span := tracer.GetTracer().Start(rc.ctx, "negotiate "+string(candidate.Kind()), trace.WithAttributes(
		attribute.String("rule", rule),
		attribute.String("table", scan.table.String()),
	))
	outcome := metrics.LblRejected
	defer func() {
		span.SetAttributes(attribute.String("outcome", outcome))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	start := timex.GetNow()
	accepted, err := negotiate(ctx)
	metrics.ObserveNegotiation(string(candidate.Kind()), start, err)
	if err != nil {
		outcome = metrics.LblException
		metrics.IncRuleOutcome(rule, outcome)
		return nil, fmt.Errorf("negotiate %s pushdown into %s: %w", candidate.Kind(), scan.table, err)
	}
	if accepted == nil {
		rc.logger.Debugf("connector rejected %s for %s", candidate, scan.table)
		metrics.IncRuleOutcome(rule, outcome)
		return nil, nil
	}
	if err := checkAccepted(scan.scanPipeline, accepted, candidate); err != nil {
		outcome = metrics.LblException
		metrics.IncRuleOutcome(rule, outcome)
		return nil, fmt.Errorf("connector %s: %w", scan.table.ConnectorID, err)
	}
	newScan, err := scan.withPushedPipeline(rc.ids.Next(), outputs, accepted)
	if err != nil {
		outcome = metrics.LblException
		metrics.IncRuleOutcome(rule, outcome)
		return nil, errorx.NewInvalidState("%v", err)
	}
	rc.logger.Debugf("pushed %s into %s", candidate, scan.table)
	outcome = metrics.LblAccepted
	metrics.IncRuleOutcome(rule, outcome)
	return newScan, nil
}

// checkAccepted verifies the pipeline returned by a connector is the prior
// pipeline plus exactly the candidate. A connector seeding an empty pipeline
// must start it with a table node.
func checkAccepted(prior, accepted *pipeline.TableScanPipeline, candidate pipeline.Node) error {
	handles := accepted.OutputColumnHandles()
	if len(handles) != len(candidate.OutputColumns()) {
		return errorx.NewInvalidState("%d output column handles for %d %s output columns", len(handles), len(candidate.OutputColumns()), candidate.Kind())
	}
	expected := prior.Len() + 1
	if prior.Len() == 0 {
		expected = 2
	}
	if accepted.Len() != expected {
		return errorx.NewInvalidState("pipeline has %d nodes, expected %d", accepted.Len(), expected)
	}
	if prior.Len() == 0 {
		if _, ok := accepted.Node(0).(*pipeline.TableNode); !ok {
			return errorx.NewInvalidState("pipeline starts with %s node instead of table", accepted.Node(0).Kind())
		}
	}
	for i, n := range prior.Nodes() {
		if !reflect.DeepEqual(n, accepted.Node(i)) {
			return errorx.NewInvalidState("pipeline node %d changed from %s to %s", i, n, accepted.Node(i))
		}
	}
	last := accepted.Node(accepted.Len() - 1)
	if last.Kind() != candidate.Kind() {
		return errorx.NewInvalidState("pipeline ends with %s node instead of %s", last.Kind(), candidate.Kind())
	}
	if !reflect.DeepEqual(last, candidate) {
		return errorx.NewInvalidState("pipeline ends with %s instead of %s", last, candidate)
	}
	return accepted.Validate()
}
