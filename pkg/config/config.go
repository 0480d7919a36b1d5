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

// The config package contains the configuration file parsing logic.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v2"
)

// Actuation holds the settings that pace and guard input injection.
type Actuation struct {
	// ActionsPerSecond caps the rate of injected mouse/keyboard actions.
	ActionsPerSecond float64 `yaml:"actions_per_second"`
	// Failsafe aborts actuation when the pointer is slammed into a corner.
	Failsafe bool `yaml:"failsafe"`
}

// Match holds the template-matching settings.
type Match struct {
	// DefaultThreshold is the confidence threshold (in percent) used when a
	// cv match instruction does not carry one.
	DefaultThreshold int `yaml:"default_threshold"`
}

// Simulation holds the stand-in sensing values used in simulate mode.
type Simulation struct {
	ScreenWidth  int `yaml:"screen_width"`
	ScreenHeight int `yaml:"screen_height"`
}

// Config is the gomacro configuration "object".
type Config struct {
	DebugLevel int        `yaml:"debug_level"`
	Actuation  Actuation  `yaml:"actuation"`
	Match      Match      `yaml:"match"`
	Simulation Simulation `yaml:"simulation"`
}

// fileExists checks if a file exists at the given filename.
// It returns true if the file exists and is not a directory, and false otherwise.
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// interpolateEnvVars replaces occurrences of `${VAR}` or `$VAR` in the input string
// with the value of the VAR environment variable.
func interpolateEnvVars(input string) string {
	envVarPattern := regexp.MustCompile(`\$\{?(\w+)\}?`)
	return envVarPattern.ReplaceAllStringFunc(input, func(varName string) string {
		trimmedVarName := strings.TrimPrefix(varName, "${")
		trimmedVarName = strings.TrimSuffix(trimmedVarName, "}")
		return os.Getenv(trimmedVarName)
	})
}

// NewConfig returns a Config with default values.
func NewConfig() Config {
	return Config{
		DebugLevel: 0,
		Actuation: Actuation{
			ActionsPerSecond: 10,
			Failsafe:         true,
		},
		Match: Match{
			DefaultThreshold: 80,
		},
		Simulation: Simulation{
			ScreenWidth:  1920,
			ScreenHeight: 1080,
		},
	}
}

// LoadConfig reads the YAML configuration from the given path. A missing or
// empty path yields the defaults, so running without a config file is fine.
func LoadConfig(confName string) (Config, error) {
	config := NewConfig()

	if strings.TrimSpace(confName) == "" {
		return config, nil
	}
	if !fileExists(confName) {
		return config, fmt.Errorf("configuration file '%s' not found", confName)
	}

	data, err := os.ReadFile(confName) //nolint:gosec // The path comes from the CLI user
	if err != nil {
		return config, err
	}

	// Interpolate environment variables before unmarshalling
	interpolatedData := interpolateEnvVars(string(data))

	err = yaml.Unmarshal([]byte(interpolatedData), &config)
	if err != nil {
		return config, err
	}

	if config.Actuation.ActionsPerSecond <= 0 {
		config.Actuation.ActionsPerSecond = 10
	}
	if config.Match.DefaultThreshold <= 0 || config.Match.DefaultThreshold > 100 {
		config.Match.DefaultThreshold = 80
	}

	return config, nil
}
