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
	"github.com/lf-edge/pushdown/pkg/pipeline"
	"github.com/lf-edge/pushdown/pkg/types"
)

const HandleKind = "sql"

// ColumnHandle names a column of the statement the connector generates for
// a pipeline.
type ColumnHandle struct {
	Column string     `json:"column"`
	Type   types.Type `json:"type"`
}

func (h *ColumnHandle) HandleKind() string {
	return HandleKind
}

func init() {
	pipeline.RegisterColumnHandle(HandleKind, func() pipeline.ColumnHandle { return &ColumnHandle{} })
}

func columnHandles(columns []string, rowType []types.Type) []pipeline.ColumnHandle {
	r := make([]pipeline.ColumnHandle, 0, len(columns))
	for i, c := range columns {
		r = append(r, &ColumnHandle{Column: c, Type: rowType[i]})
	}
	return r
}
