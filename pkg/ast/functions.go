// Copyright 2021-2024 EMQ Technologies Co., Ltd.
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

package ast

import "strings"

type FuncType int

const (
	NotFoundFunc FuncType = iota - 1
	FuncTypeScalar
	FuncTypeAgg
	FuncTypeWindow
)

var aggFuncMap = map[string]string{
	"avg":   "",
	"count": "",
	"max":   "", "min": "",
	"sum":         "",
	"collect":     "",
	"deduplicate": "",
}

var windowFuncMap = map[string]string{
	"row_number": "",
	"lag":        "", "lead": "",
	"rank": "",
}

// FuncTypeOf classifies a function by name. Unknown names are scalar, the
// engine validates them before planning.
func FuncTypeOf(name string) FuncType {
	fn := strings.ToLower(name)
	if _, ok := aggFuncMap[fn]; ok {
		return FuncTypeAgg
	}
	if _, ok := windowFuncMap[fn]; ok {
		return FuncTypeWindow
	}
	return FuncTypeScalar
}

// HasAggFuncs reports whether any aggregate or window call appears in node.
func HasAggFuncs(node Node) bool {
	if node == nil {
		return false
	}
	r := false
	WalkFunc(node, func(n Node) bool {
		if f, ok := n.(*Call); ok && f.IsAggregate() {
			r = true
			return false
		}
		return true
	})
	return r
}
