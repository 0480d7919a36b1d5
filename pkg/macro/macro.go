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

// Package macro contains the macro file parsing logic: it turns raw macro
// source into an ordered instruction sequence and a checkpoint table.
package macro

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var checkpointPattern = regexp.MustCompile(`^checkpoint\s+"([^"]+)"`)

// Instruction is a single executable line of macro source plus the slot it
// occupies in the loaded program. The opcode is derived at dispatch time.
type Instruction struct {
	Text  string
	Index int
}

// Program is the ordered, 0-indexed instruction sequence of one macro file.
// It is immutable once loaded.
type Program []Instruction

// Checkpoints maps a checkpoint name to the slot index of the checkpoint
// instruction itself. The execution loop advances the program counter after
// every instruction, goto included, so a jump resumes at the instruction
// right after the checkpoint line. Re-declaring a name overwrites it.
type Checkpoints map[string]int

// Parse turns macro source text into a Program and its Checkpoints.
// Blank lines and lines whose first non-space character is '#' are dropped
// and do not occupy an instruction slot.
func Parse(src string) (Program, Checkpoints) {
	var program Program
	checkpoints := make(Checkpoints)

	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		program = append(program, Instruction{Text: line, Index: len(program)})

		// Register checkpoints during parsing
		if m := checkpointPattern.FindStringSubmatch(line); m != nil {
			checkpoints[m[1]] = len(program) - 1
		}
	}

	return program, checkpoints
}

// LoadFile reads and parses the macro file at path.
func LoadFile(path string) (Program, Checkpoints, error) {
	data, err := os.ReadFile(path) //nolint:gosec // The path comes from the CLI user
	if err != nil {
		return nil, nil, fmt.Errorf("macro file '%s': %w", path, err)
	}
	program, checkpoints := Parse(string(data))
	return program, checkpoints, nil
}

// String renders the numbered instruction listing shown by the CLI in
// verbose and dry-run modes.
func (p Program) String() string {
	var sb strings.Builder
	for _, ins := range p {
		fmt.Fprintf(&sb, "  %d: %s\n", ins.Index+1, ins.Text)
	}
	return sb.String()
}
