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

// Package common is used to store common functions and variables
// shared by the gomacro packages, logging first of all.
package common

import (
	"log"
	"os"
	"strconv"

	"github.com/google/uuid"
)

// DbgLevel is an enum to represent the debug level type
type DbgLevel int

const (
	// DbgLvlNone is the default debug level
	DbgLvlNone = iota
	// DbgLvlInfo is the info debug level
	DbgLvlInfo
	// DbgLvlDebug is the debug debug level
	DbgLvlDebug
	// DbgLvlError is the error debug level
	DbgLvlError
	// DbgLvlFatal is the fatal debug level (this will also exit the program!)
	DbgLvlFatal
)

var (
	debugLevel   DbgLevel
	loggerPrefix string
	runID        string
)

// InitLogger initializes the logger. Every run gets a fresh run ID so that
// log lines from separate invocations can be told apart.
func InitLogger(appName string) {
	log.SetOutput(os.Stdout)

	pid := os.Getpid()

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	runID = uuid.New().String()[:8]

	// process instance name: <hostname>:<pid>:<runID>
	processName := hostname + ":" + strconv.Itoa(pid) + ":" + runID

	loggerPrefix = appName + " [" + processName + "]: "

	log.SetFlags(log.LstdFlags | log.Ldate | log.Ltime | log.Lmicroseconds)
}

// UpdateLoggerConfig Updates the logger configuration
func UpdateLoggerConfig() {
	if debugLevel > 0 {
		log.SetFlags(log.LstdFlags | log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags | log.Ldate | log.Ltime | log.Lmicroseconds)
	}
}

// RunID returns the identifier of the current run.
func RunID() string {
	return runID
}

// SetDebugLevel allows to set the current debug level
func SetDebugLevel(dbgLvl DbgLevel) {
	debugLevel = dbgLvl
}

// GetDebugLevel returns the value of the current debug level
func GetDebugLevel() DbgLevel {
	return debugLevel
}

// DebugMsg is a function that prints debug information
func DebugMsg(dbgLvl DbgLevel, msg string, args ...interface{}) {
	// Info, Error and Fatal messages always log, whatever the configured
	// debug level; errors must never be silently swallowed.
	if dbgLvl <= DbgLvlInfo || dbgLvl >= DbgLvlError {
		log.Printf(loggerPrefix+msg, args...)
		if dbgLvl == DbgLvlFatal {
			os.Exit(1)
		}
		return
	}
	if debugLevel >= dbgLvl {
		// For Debug messages, log only if the set debug level is equal or higher
		log.Printf(loggerPrefix+msg, args...)
	}
}
