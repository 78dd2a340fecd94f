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
	"fmt"

	"github.com/lf-edge/pushdown/pkg/connector"
	"github.com/lf-edge/pushdown/pkg/errorx"
	"github.com/lf-edge/pushdown/pkg/pipeline"
)

// GetSplits returns the splits executing the pipeline of a table scan. The
// generated statement is not partitioned, so there is exactly one split. A
// nil pipeline scans the whole table.
func (s *SQLConnector) GetSplits(table connector.TableHandle, p *pipeline.TableScanPipeline) ([]*connector.PushedDownQuerySplit, error) {
	if p == nil {
		seeded, ok := s.seed(table)
		if !ok {
			return nil, fmt.Errorf("table %s: %w", table, errorx.NotFoundErr)
		}
		p = seeded
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return []*connector.PushedDownQuerySplit{connector.NewPushedDownQuerySplit(s.id, p)}, nil
}
