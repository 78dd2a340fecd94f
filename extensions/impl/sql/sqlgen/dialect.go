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

package sqlgen

import (
	"fmt"
	"strings"
)

// Dialect holds what differs between the supported databases: identifier
// quoting and the scalar functions that can be pushed down.
type Dialect struct {
	Name      string
	quote     string
	functions map[string]string
}

var infixOperators = map[string]string{
	"=":  "=",
	"<>": "<>",
	"!=": "<>",
	"<":  "<",
	"<=": "<=",
	">":  ">",
	">=": ">=",
	"+":  "+",
	"-":  "-",
	"*":  "*",
	"/":  "/",
	"%":  "%",
}

var predicateFunctions = map[string]int{
	"not":         1,
	"is_null":     1,
	"is_not_null": 1,
}

func commonFunctions() map[string]string {
	return map[string]string{
		"lower":    "LOWER",
		"upper":    "UPPER",
		"abs":      "ABS",
		"round":    "ROUND",
		"coalesce": "COALESCE",
		"trim":     "TRIM",
		"length":   "LENGTH",
	}
}

var dialects = map[string]*Dialect{}

func init() {
	sqlite := &Dialect{Name: "sqlite", quote: `"`, functions: commonFunctions()}
	sqlite.functions["substr"] = "SUBSTR"
	postgres := &Dialect{Name: "postgres", quote: `"`, functions: commonFunctions()}
	postgres.functions["substr"] = "SUBSTR"
	mysql := &Dialect{Name: "mysql", quote: "`", functions: commonFunctions()}
	mysql.functions["length"] = "CHAR_LENGTH"
	mysql.functions["substr"] = "SUBSTRING"
	dialects["sqlite"] = sqlite
	dialects["sqlite3"] = sqlite
	dialects["postgres"] = postgres
	dialects["pgx"] = postgres
	dialects["mysql"] = mysql
}

// GetDialect returns the dialect for a database/sql driver name.
func GetDialect(driver string) (*Dialect, error) {
	d, ok := dialects[strings.ToLower(driver)]
	if !ok {
		return nil, fmt.Errorf("unsupported sql driver %s", driver)
	}
	return d, nil
}

func (d *Dialect) QuoteIdentifier(identifier string) string {
	return d.quote + strings.ReplaceAll(identifier, d.quote, d.quote+d.quote) + d.quote
}

// SupportsFunction reports whether a pushed down function with the given
// name and number of inputs can be rendered.
func (d *Dialect) SupportsFunction(name string, arity int) bool {
	n := strings.ToLower(name)
	if _, ok := infixOperators[n]; ok {
		return arity == 2
	}
	if a, ok := predicateFunctions[n]; ok {
		return arity == a
	}
	_, ok := d.functions[n]
	return ok
}
