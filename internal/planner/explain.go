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
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type explainLine struct {
	Op   string `json:"op"`
	Info string `json:"info"`
}

// ExplainFromLogicalPlan renders one JSON line per node, children indented
// by one tab per level.
func ExplainFromLogicalPlan(p LogicalPlan) (string, error) {
	var lines []string
	var explain func(lp LogicalPlan, level int) error
	explain = func(lp LogicalPlan, level int) error {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(explainLine{Op: fmt.Sprintf("%s_%d", lp.Type(), lp.ID()), Info: lp.ExplainInfo()}); err != nil {
			return err
		}
		lines = append(lines, strings.Repeat("\t", level)+strings.TrimSuffix(buf.String(), "\n"))
		for _, c := range lp.Children() {
			if err := explain(c, level+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := explain(p, 0); err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}
