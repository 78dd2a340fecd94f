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

package sql

import (
	"context"
	"fmt"

	"github.com/lf-edge/pushdown/internal/conf"
	"github.com/lf-edge/pushdown/metrics"
	"github.com/lf-edge/pushdown/pkg/connector"
	"github.com/lf-edge/pushdown/pkg/pipeline"
)

func (s *SQLConnector) PushFilterIntoScan(ctx context.Context, session *connector.Session, table connector.TableHandle, current *pipeline.TableScanPipeline, candidate *pipeline.FilterNode) (*pipeline.TableScanPipeline, error) {
	return s.negotiate(ctx, session, table, current, candidate, candidate.Predicate())
}

func (s *SQLConnector) PushProjectIntoScan(ctx context.Context, session *connector.Session, table connector.TableHandle, current *pipeline.TableScanPipeline, candidate *pipeline.ProjectNode) (*pipeline.TableScanPipeline, error) {
	return s.negotiate(ctx, session, table, current, candidate, candidate.Expressions()...)
}

// negotiate extends the pipeline with the candidate when the generated SQL
// can express it. A nil pipeline means nothing is accepted.
func (s *SQLConnector) negotiate(ctx context.Context, session *connector.Session, table connector.TableHandle, current *pipeline.TableScanPipeline, candidate pipeline.Node, exprs ...pipeline.Expression) (*pipeline.TableScanPipeline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	enabled, ok, err := session.BoolProperty(SessionPushdownEnabled)
	if err != nil {
		return nil, err
	}
	if ok && !enabled {
		return s.reject(table, candidate, "disabled for the session")
	}
	if table.ConnectorID != s.id {
		return s.reject(table, candidate, "table belongs to connector "+table.ConnectorID)
	}
	base := current
	if base == nil {
		if base, ok = s.seed(table); !ok {
			return s.reject(table, candidate, "unknown table")
		}
	}
	if reason := s.check(base, candidate, exprs); reason != "" {
		return s.reject(table, candidate, reason)
	}
	metrics.ConnectorNegotiationCounter.WithLabelValues(s.id, string(candidate.Kind()), metrics.LblAccepted).Inc()
	return base.Extend(candidate, columnHandles(candidate.OutputColumns(), candidate.RowType())), nil
}

func (s *SQLConnector) reject(table connector.TableHandle, candidate pipeline.Node, reason string) (*pipeline.TableScanPipeline, error) {
	conf.Log.WithField("connector", s.id).Debugf("reject %s on %s: %s", candidate, table, reason)
	metrics.ConnectorNegotiationCounter.WithLabelValues(s.id, string(candidate.Kind()), metrics.LblRejected).Inc()
	return nil, nil
}

// check returns why the candidate cannot be appended to base, or "" when it
// can.
func (s *SQLConnector) check(base *pipeline.TableScanPipeline, candidate pipeline.Node, exprs []pipeline.Expression) string {
	if base.Len() == 0 {
		return "empty pipeline"
	}
	last := base.Node(base.Len() - 1)
	if last.Kind() == pipeline.KindAggregation {
		return "aggregation is terminal"
	}
	available := make(map[string]struct{})
	for _, c := range last.OutputColumns() {
		available[c] = struct{}{}
	}
	if candidate.Kind() == pipeline.KindFilter {
		for _, c := range candidate.OutputColumns() {
			if _, ok := available[c]; !ok {
				return fmt.Sprintf("filter output column %s is not produced by the scan", c)
			}
		}
	}
	reason := ""
	for _, e := range exprs {
		pipeline.WalkExpression(e, func(x pipeline.Expression) bool {
			if reason != "" {
				return false
			}
			switch v := x.(type) {
			case *pipeline.InputColumn:
				if _, ok := available[v.Name()]; !ok {
					reason = "unknown column " + v.Name()
				}
			case *pipeline.Function:
				if !s.dialect.SupportsFunction(v.Name(), len(v.Inputs())) {
					reason = fmt.Sprintf("function %s is not supported by %s", v.Name(), s.dialect.Name)
				}
			}
			return reason == ""
		})
		if reason != "" {
			return reason
		}
	}
	return ""
}
