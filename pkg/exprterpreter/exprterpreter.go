// Copyright 2023 Paolo Fabio Zaino
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

// Package exprterpreter contains the expression interpreter logic used by
// macro conditions: variable and status substitution over the raw condition
// text, followed by a sandboxed arithmetic/boolean evaluation.
package exprterpreter

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/Knetic/govaluate"

	"github.com/pzaino/gomacro/pkg/vars"
)

// Matches a '$' that is NOT introducing a variable name: the bare status
// token. The trailing character (or end of string) is kept by the replacer.
var bareStatusPattern = regexp.MustCompile(`\$([^A-Za-z0-9_]|$)`)

// Matches an equality or inequality between two literal position pairs.
// Pairs carry no arithmetic meaning, so they are reduced to boolean
// literals before the generic evaluation pass.
var pairComparePattern = regexp.MustCompile(
	`\(\s*(-?\d+)\s*,\s*(-?\d+)\s*\)\s*(==|!=)\s*\(\s*(-?\d+)\s*,\s*(-?\d+)\s*\)`)

// StatusFunc supplies the current last-status value for the bare $ token.
type StatusFunc func() int

// Evaluator substitutes macro variables into condition text and evaluates
// the result as a boolean expression.
type Evaluator struct {
	store  *vars.Store
	status StatusFunc
}

// NewEvaluator binds an Evaluator to a variable store and a status source.
func NewEvaluator(store *vars.Store, status StatusFunc) *Evaluator {
	return &Evaluator{store: store, status: status}
}

// Substitute rewrites the raw condition text: every $name reference to a
// defined variable becomes its textual value (longest names first, so a
// name that is a prefix of another is never clipped), then any remaining
// bare $ becomes the decimal last-status. References to undefined
// variables are left in place and fail evaluation later.
func (e *Evaluator) Substitute(condition string) string {
	for _, name := range e.store.Names() {
		v, err := e.store.Get(name)
		if err != nil {
			continue
		}
		re := regexp.MustCompile(`\$` + regexp.QuoteMeta(name) + `\b`)
		condition = re.ReplaceAllString(condition, v.String())
	}

	status := strconv.Itoa(e.status())
	condition = bareStatusPattern.ReplaceAllString(condition, status+"$1")

	return condition
}

// Evaluate substitutes variables into condition and evaluates it to a
// boolean. A malformed expression or a non-boolean result is an error;
// the caller decides whether that is fatal (for macro conditions it is
// logged and treated as false).
func (e *Evaluator) Evaluate(condition string) (bool, error) {
	substituted := e.Substitute(condition)

	// Position pairs only support (in)equality; fold those comparisons to
	// boolean literals so the generic evaluator never sees a bare pair.
	substituted = pairComparePattern.ReplaceAllStringFunc(substituted, foldPairCompare)

	parsedExpr, err := govaluate.NewEvaluableExpression(substituted)
	if err != nil {
		return false, fmt.Errorf("invalid expression: %s", substituted)
	}

	result, err := parsedExpr.Evaluate(nil)
	if err != nil {
		return false, fmt.Errorf("error evaluating expression: %v", err)
	}

	booleanResult, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("expression did not return a boolean: %v", result)
	}

	return booleanResult, nil
}

func foldPairCompare(match string) string {
	m := pairComparePattern.FindStringSubmatch(match)
	if m == nil {
		return match
	}
	equal := m[1] == m[4] && m[2] == m[5]
	if m[3] == "!=" {
		equal = !equal
	}
	if equal {
		return "true"
	}
	return "false"
}
