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

// Package engine implements the macro execution loop: it owns the program
// counter, decodes each instruction, dispatches it to the matching handler
// and applies jumps and conditional skips.
package engine

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pzaino/gomacro/pkg/automation"
	cmn "github.com/pzaino/gomacro/pkg/common"
	cfg "github.com/pzaino/gomacro/pkg/config"
	expr "github.com/pzaino/gomacro/pkg/exprterpreter"
	"github.com/pzaino/gomacro/pkg/locator"
	"github.com/pzaino/gomacro/pkg/macro"
	"github.com/pzaino/gomacro/pkg/vars"
)

// Last-status values reported by cv match and read by the bare $ token.
const (
	StatusSuccess = 0
	StatusFailure = 1
)

// ErrUnknownCheckpoint is returned by goto for an unregistered name.
var ErrUnknownCheckpoint = errors.New("checkpoint not found")

// FatalError aborts the run. It carries the 1-based line of the offending
// instruction within the loaded program.
type FatalError struct {
	Line int
	Text string
	Err  error
}

func (f *FatalError) Error() string {
	return fmt.Sprintf("line %d: %v (instruction: %s)", f.Line, f.Err, f.Text)
}

func (f *FatalError) Unwrap() error { return f.Err }

// Instruction argument patterns. The grammar is line oriented, one
// instruction per line, so anchored regexes are all the parsing needed.
var (
	varSetPattern       = regexp.MustCompile(`^var\s+set\s+\$(\w+)\s+(.+)$`)
	positionPattern     = regexp.MustCompile(`^\(\s*(-?\d+)\s*,\s*(-?\d+)\s*\)$`)
	varIncreasePattern  = regexp.MustCompile(`^var\s+increase\s+\$(\w+)\s+(-?\d+)$`)
	gotoPattern         = regexp.MustCompile(`^goto\s+"([^"]+)"$`)
	mouseMoveXYPattern  = regexp.MustCompile(`^mouse\s+move\s+(-?\d+)\s*,\s*(-?\d+)$`)
	mouseMoveVarPattern = regexp.MustCompile(`^mouse\s+move\s+\$(\w+)$`)
	mouseButtonPattern  = regexp.MustCompile(`^mouse\s+(left|right)\s+(click|down|up)$`)
	keyActionPattern    = regexp.MustCompile(`^key\s+(down|up|press)\s+(\w+)$`)
	keyTypePattern      = regexp.MustCompile(`^key\s+type\s+"([^"]*)"$`)
	sleepPattern        = regexp.MustCompile(`^sleep\s+(\d+)$`)
	ifPattern           = regexp.MustCompile(`^if\s*\((.*)\)$`)
	cvMatchPattern      = regexp.MustCompile(`^cv\s+match\s+(\S+)\s+(?:(\d+)%\s+)?\$(\w+)$`)
)

// Engine executes one loaded macro program. It is single threaded: the
// program counter, variable store and last-status are owned exclusively by
// the Run loop for the duration of the run.
type Engine struct {
	program     macro.Program
	checkpoints macro.Checkpoints
	store       *vars.Store
	eval        *expr.Evaluator
	act         automation.Actuator
	sense       automation.Sensor
	conf        cfg.Config

	pc         int
	lastStatus int
}

// New builds an Engine for the given program and providers.
func New(program macro.Program, checkpoints macro.Checkpoints, act automation.Actuator, sense automation.Sensor, conf cfg.Config) *Engine {
	e := &Engine{
		program:     program,
		checkpoints: checkpoints,
		store:       vars.NewStore(),
		act:         act,
		sense:       sense,
		conf:        conf,
		lastStatus:  StatusSuccess,
	}
	e.eval = expr.NewEvaluator(e.store, func() int { return e.lastStatus })
	return e
}

// Store exposes the variable store, mainly for tests.
func (e *Engine) Store() *vars.Store { return e.store }

// LastStatus returns the current last-status value.
func (e *Engine) LastStatus() int { return e.lastStatus }

// Run executes the program from the top. It returns a *FatalError on a
// malformed recognized instruction, a missing checkpoint or a missing or
// mistyped variable; ctx cancellation ends the run with ctx.Err(). Unknown
// instructions are logged and skipped.
func (e *Engine) Run(ctx context.Context) error {
	e.pc = 0
	for e.pc < len(e.program) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		ins := e.program[e.pc]
		if err := e.execute(ins); err != nil {
			return &FatalError{Line: ins.Index + 1, Text: ins.Text, Err: err}
		}

		// Every handler, goto included, is followed by this advance. A
		// goto therefore resumes at the instruction right after the
		// checkpoint line it targeted.
		e.pc++
	}
	return nil
}

// execute decodes and runs a single instruction.
func (e *Engine) execute(ins macro.Instruction) error {
	text := ins.Text

	switch {
	case strings.HasPrefix(text, "var set"):
		return e.executeVarSet(text)
	case strings.HasPrefix(text, "var increase"):
		return e.executeVarIncrease(text)
	case strings.HasPrefix(text, "checkpoint"):
		// Registered at load time, a no-op here
		return nil
	case strings.HasPrefix(text, "goto"):
		return e.executeGoto(text)
	case strings.HasPrefix(text, "mouse"):
		return e.executeMouseCommand(text)
	case strings.HasPrefix(text, "key"):
		return e.executeKeyCommand(text)
	case strings.HasPrefix(text, "sleep"):
		return e.executeSleep(text)
	case strings.HasPrefix(text, "if"):
		return e.executeIf(text)
	case text == "end":
		// Terminator of a conditional block, a no-op when reached
		return nil
	case strings.HasPrefix(text, "cv match"):
		return e.executeCvMatch(text)
	default:
		cmn.DebugMsg(cmn.DbgLvlInfo, "Unknown command: %s", text)
		return nil
	}
}

func (e *Engine) executeVarSet(text string) error {
	m := varSetPattern.FindStringSubmatch(text)
	if m == nil {
		return fmt.Errorf("invalid var set syntax")
	}
	name, raw := m[1], strings.TrimSpace(m[2])

	if pm := positionPattern.FindStringSubmatch(raw); pm != nil {
		x, _ := strconv.ParseInt(pm[1], 10, 64)
		y, _ := strconv.ParseInt(pm[2], 10, 64)
		e.store.Set(name, vars.PosValue(x, y))
		cmn.DebugMsg(cmn.DbgLvlDebug, "Set $%s = (%d, %d)", name, x, y)
		return nil
	}

	i, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid var set value: %s", raw)
	}
	e.store.Set(name, vars.IntValue(i))
	cmn.DebugMsg(cmn.DbgLvlDebug, "Set $%s = %d", name, i)
	return nil
}

func (e *Engine) executeVarIncrease(text string) error {
	m := varIncreasePattern.FindStringSubmatch(text)
	if m == nil {
		return fmt.Errorf("invalid var increase syntax")
	}
	name := m[1]
	delta, _ := strconv.ParseInt(m[2], 10, 64)

	now, err := e.store.Increase(name, delta)
	if err != nil {
		return err
	}
	cmn.DebugMsg(cmn.DbgLvlDebug, "Increased $%s by %d, now = %d", name, delta, now)
	return nil
}

func (e *Engine) executeGoto(text string) error {
	m := gotoPattern.FindStringSubmatch(text)
	if m == nil {
		return fmt.Errorf("invalid goto syntax")
	}
	name := m[1]
	idx, ok := e.checkpoints[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCheckpoint, name)
	}
	cmn.DebugMsg(cmn.DbgLvlDebug, "Jumping to checkpoint: %s", name)
	e.pc = idx
	return nil
}

func (e *Engine) executeMouseCommand(text string) error {
	if m := mouseButtonPattern.FindStringSubmatch(text); m != nil {
		button, action := m[1], m[2]
		var err error
		switch action {
		case "click":
			err = e.act.Click(button)
		case "down":
			err = e.act.ButtonDown(button)
		case "up":
			err = e.act.ButtonUp(button)
		}
		if err != nil {
			return err
		}
		cmn.DebugMsg(cmn.DbgLvlDebug, "Mouse %s %s", button, action)
		return nil
	}

	if m := mouseMoveXYPattern.FindStringSubmatch(text); m != nil {
		x, _ := strconv.Atoi(m[1])
		y, _ := strconv.Atoi(m[2])
		return e.moveTo(x, y)
	}

	if m := mouseMoveVarPattern.FindStringSubmatch(text); m != nil {
		v, err := e.store.Get(m[1])
		if err != nil {
			return err
		}
		if v.Kind != vars.Position {
			return fmt.Errorf("%w: $%s is not a position", vars.ErrTypeMismatch, m[1])
		}
		return e.moveTo(int(v.X), int(v.Y))
	}

	return fmt.Errorf("invalid mouse command syntax")
}

func (e *Engine) moveTo(x, y int) error {
	if err := e.act.MoveTo(x, y); err != nil {
		return err
	}
	cmn.DebugMsg(cmn.DbgLvlDebug, "Mouse moved to (%d, %d)", x, y)
	return nil
}

func (e *Engine) executeKeyCommand(text string) error {
	if m := keyActionPattern.FindStringSubmatch(text); m != nil {
		action, key := m[1], m[2]
		var err error
		switch action {
		case "down":
			err = e.act.KeyDown(key)
		case "up":
			err = e.act.KeyUp(key)
		case "press":
			err = e.act.KeyPress(key)
		}
		if err != nil {
			return err
		}
		cmn.DebugMsg(cmn.DbgLvlDebug, "Key %s: %s", action, key)
		return nil
	}

	if m := keyTypePattern.FindStringSubmatch(text); m != nil {
		if err := e.act.TypeText(m[1]); err != nil {
			return err
		}
		cmn.DebugMsg(cmn.DbgLvlDebug, "Typed: %s", m[1])
		return nil
	}

	return fmt.Errorf("invalid key command syntax")
}

func (e *Engine) executeSleep(text string) error {
	m := sleepPattern.FindStringSubmatch(text)
	if m == nil {
		return fmt.Errorf("invalid sleep syntax")
	}
	ms, _ := strconv.Atoi(m[1])
	cmn.DebugMsg(cmn.DbgLvlDebug, "Sleeping for %dms", ms)
	time.Sleep(time.Duration(ms) * time.Millisecond)
	return nil
}

// executeIf evaluates the condition. True falls through into the block;
// false skips forward to the next literal "end" line. The scan is flat: a
// nested if/end inside a skipped block is not balanced, the first "end"
// found terminates the skip. Existing macros rely on that.
func (e *Engine) executeIf(text string) error {
	m := ifPattern.FindStringSubmatch(text)
	if m == nil {
		return fmt.Errorf("invalid if syntax")
	}
	condition := m[1]

	result, err := e.eval.Evaluate(condition)
	if err != nil {
		cmn.DebugMsg(cmn.DbgLvlError, "Error evaluating condition '%s': %v", condition, err)
		result = false
	}
	if result {
		cmn.DebugMsg(cmn.DbgLvlDebug, "Condition '%s' is true, entering block", condition)
		return nil
	}

	cmn.DebugMsg(cmn.DbgLvlDebug, "Condition '%s' is false, skipping to end", condition)
	for i := e.pc + 1; i < len(e.program); i++ {
		if e.program[i].Text == "end" {
			e.pc = i
			return nil
		}
	}
	// No terminator: the skip runs off the end of the program
	e.pc = len(e.program)
	return nil
}

func (e *Engine) executeCvMatch(text string) error {
	m := cvMatchPattern.FindStringSubmatch(text)
	if m == nil {
		return fmt.Errorf("invalid cv match syntax")
	}
	path, name := m[1], m[3]
	pct := e.conf.Match.DefaultThreshold
	if m[2] != "" {
		pct, _ = strconv.Atoi(m[2])
	}
	threshold := float64(pct) / 100.0

	template, err := e.sense.LoadImage(path)
	if err != nil {
		return e.matchFailed("loading template '%s': %v", path, err)
	}
	capture, err := e.sense.CaptureScreen()
	if err != nil {
		return e.matchFailed("capturing screen: %v", err)
	}
	logicalW, logicalH, err := e.sense.LogicalScreenSize()
	if err != nil {
		return e.matchFailed("reading screen size: %v", err)
	}

	match, found := locator.Locate(capture, template, threshold)
	if !found {
		return e.matchFailed("template '%s' not found (best score %.3f, threshold %.3f)",
			path, match.Score, threshold)
	}

	// The capture may be denser than the logical coordinate space the
	// actuator works in; rescale the center before storing it.
	bounds := capture.Bounds()
	x, y := locator.ScaleToLogical(match.X, match.Y, bounds.Dx(), bounds.Dy(), logicalW, logicalH)

	e.store.Set(name, vars.PosValue(int64(x), int64(y)))
	e.lastStatus = StatusSuccess
	cmn.DebugMsg(cmn.DbgLvlDebug, "Matched '%s' at (%d, %d) score %.3f, stored in $%s",
		path, x, y, match.Score, name)
	return nil
}

// matchFailed records a cv match failure: last-status flips to failure and
// the run continues. This operation never aborts the run.
func (e *Engine) matchFailed(format string, args ...interface{}) error {
	cmn.DebugMsg(cmn.DbgLvlError, "cv match: "+format, args...)
	e.lastStatus = StatusFailure
	return nil
}
