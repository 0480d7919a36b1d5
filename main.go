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

// Package main (gomacro) is the application.
// It's responsible for loading the configuration and the macro file and for
// kickstarting the execution engine.
// Macro parsing is performed by the pkg/macro package.
// Execution is performed by the pkg/engine package.
// Input injection and screen sensing are handled by the pkg/automation package.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pzaino/gomacro/pkg/automation"
	cmn "github.com/pzaino/gomacro/pkg/common"
	cfg "github.com/pzaino/gomacro/pkg/config"
	"github.com/pzaino/gomacro/pkg/engine"
	"github.com/pzaino/gomacro/pkg/macro"
)

func main() {
	var (
		verbose    bool
		dryRun     bool
		simulate   bool
		configFile string
		debugLevel int
	)

	flag.BoolVar(&verbose, "verbose", false, "print the full instruction list before running")
	flag.BoolVar(&verbose, "v", false, "print the full instruction list before running (shorthand)")
	flag.BoolVar(&dryRun, "dry-run", false, "parse and print the macro without executing it")
	flag.BoolVar(&simulate, "simulate", false, "run the control/variable logic but skip real input injection")
	flag.StringVar(&configFile, "config", "", "path to an optional YAML configuration file")
	flag.IntVar(&debugLevel, "debug", -1, "override the configured debug level")
	flag.Parse()

	cmn.InitLogger("GoMacro")

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: gomacro [flags] <macro-file>")
		flag.PrintDefaults()
		os.Exit(1)
	}
	filename := flag.Arg(0)

	conf, err := cfg.LoadConfig(configFile)
	if err != nil {
		cmn.DebugMsg(cmn.DbgLvlError, "Error reading configuration: %v", err)
		os.Exit(1)
	}
	if debugLevel >= 0 {
		conf.DebugLevel = debugLevel
	}
	cmn.SetDebugLevel(cmn.DbgLevel(conf.DebugLevel))
	cmn.UpdateLoggerConfig()

	program, checkpoints, err := macro.LoadFile(filename)
	if err != nil {
		cmn.DebugMsg(cmn.DbgLvlError, "Error: %v", err)
		os.Exit(1)
	}

	if verbose || dryRun {
		fmt.Printf("Parsed %d commands from %s\n", len(program), filename)
		fmt.Print(program.String())
		fmt.Println()
	}
	if dryRun {
		fmt.Println("Dry run mode - commands parsed but not executed")
		return
	}

	var act automation.Actuator
	var sense automation.Sensor
	if simulate {
		sim := automation.NewSimulator(conf.Simulation.ScreenWidth, conf.Simulation.ScreenHeight)
		act, sense = sim, sim
		fmt.Printf("Simulating macro file: %s\n", filename)
		fmt.Println("Simulation mode - logic executed but no input injection performed")
	} else {
		robot := automation.NewRobot(conf.Actuation.ActionsPerSecond, conf.Actuation.Failsafe)
		act, sense = robot, robot
		fmt.Printf("Executing macro file: %s\n", filename)
		fmt.Println("Press Ctrl+C to stop, or move the pointer to the top-left corner to trigger the failsafe")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng := engine.New(program, checkpoints, act, sense, conf)
	err = eng.Run(ctx)
	switch {
	case err == nil:
		fmt.Println("Macro execution completed")
	case errors.Is(err, context.Canceled):
		fmt.Println("Macro execution interrupted by user")
	default:
		cmn.DebugMsg(cmn.DbgLvlError, "Error: %v", err)
		os.Exit(1)
	}
}
