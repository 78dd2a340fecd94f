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

// Package types holds the semantic type tag carried by pushed down
// expressions and pipeline row types. The engine's type system is much
// richer; pushdown only needs to copy the tag around and compare it.
package types

import (
	"math"

	"github.com/lf-edge/pushdown/pkg/errorx"
)

// Type is the type signature, e.g. "integer" or "varchar(10)".
type Type string

const (
	Unknown Type = "unknown"
	Boolean Type = "boolean"
	Integer Type = "integer"
	BigInt  Type = "bigint"
	Double  Type = "double"
	Varchar Type = "varchar"
	Date    Type = "date"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsIntegral() bool {
	return t == Integer || t == BigInt
}

// CheckIntegerRange validates a value written into an integer column or
// literal. It never truncates.
func CheckIntegerRange(value int64) error {
	if value > math.MaxInt32 {
		return errorx.NewValidationError("Value %d exceeds MAX_INT", value)
	} else if value < math.MinInt32 {
		return errorx.NewValidationError("Value %d is less than MIN_INT", value)
	}
	return nil
}

// FitsInteger reports whether v can be typed as integer instead of bigint.
func FitsInteger(v int64) bool {
	return CheckIntegerRange(v) == nil
}
