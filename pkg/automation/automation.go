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

// Package automation defines the boundary between the interpreter core and
// the desktop it drives. Handlers call the Actuator to inject input and the
// Sensor to observe the screen; concrete providers live behind these
// interfaces so the core never touches an injection library directly.
package automation

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// ErrImageNotFound is returned by Sensor.LoadImage for an unreadable path.
var ErrImageNotFound = errors.New("image not found")

// Actuator injects mouse and keyboard input.
type Actuator interface {
	MoveTo(x, y int) error
	Click(button string) error
	ButtonDown(button string) error
	ButtonUp(button string) error
	KeyDown(key string) error
	KeyUp(key string) error
	KeyPress(key string) error
	TypeText(text string) error
}

// Sensor observes the screen and loads template images from disk.
type Sensor interface {
	CaptureScreen() (image.Image, error)
	LogicalScreenSize() (w, h int, err error)
	LoadImage(path string) (image.Image, error)
}

// Simulator is an Actuator/Sensor that performs no real input injection.
// Every actuation call is recorded, sensing returns configurable stand-ins.
// It backs the CLI --simulate mode and the interpreter tests.
type Simulator struct {
	Actions []string

	ScreenW, ScreenH int
	Capture          image.Image
	Images           map[string]image.Image

	// CaptureErr, when set, makes CaptureScreen fail.
	CaptureErr error
}

// NewSimulator returns a Simulator pretending to drive a w x h screen.
func NewSimulator(w, h int) *Simulator {
	return &Simulator{
		ScreenW: w,
		ScreenH: h,
		Images:  make(map[string]image.Image),
	}
}

func (s *Simulator) record(format string, args ...interface{}) error {
	s.Actions = append(s.Actions, fmt.Sprintf(format, args...))
	return nil
}

// MoveTo records a pointer move.
func (s *Simulator) MoveTo(x, y int) error { return s.record("mouse move %d,%d", x, y) }

// Click records a button click.
func (s *Simulator) Click(button string) error { return s.record("mouse %s click", button) }

// ButtonDown records a button press.
func (s *Simulator) ButtonDown(button string) error { return s.record("mouse %s down", button) }

// ButtonUp records a button release.
func (s *Simulator) ButtonUp(button string) error { return s.record("mouse %s up", button) }

// KeyDown records a key press.
func (s *Simulator) KeyDown(key string) error { return s.record("key down %s", key) }

// KeyUp records a key release.
func (s *Simulator) KeyUp(key string) error { return s.record("key up %s", key) }

// KeyPress records a key tap.
func (s *Simulator) KeyPress(key string) error { return s.record("key press %s", key) }

// TypeText records typed text.
func (s *Simulator) TypeText(text string) error { return s.record("key type %q", text) }

// CaptureScreen returns the configured capture image, or a uniform gray
// frame of the simulated screen size when none was set.
func (s *Simulator) CaptureScreen() (image.Image, error) {
	if s.CaptureErr != nil {
		return nil, s.CaptureErr
	}
	if s.Capture != nil {
		return s.Capture, nil
	}
	img := image.NewGray(image.Rect(0, 0, s.ScreenW, s.ScreenH))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	return img, nil
}

// LogicalScreenSize returns the simulated screen size.
func (s *Simulator) LogicalScreenSize() (int, int, error) {
	return s.ScreenW, s.ScreenH, nil
}

// LoadImage returns a registered stand-in image, or a tiny fixed template
// when the path is unknown, so simulated runs never touch the filesystem.
func (s *Simulator) LoadImage(path string) (image.Image, error) {
	if img, ok := s.Images[path]; ok {
		return img, nil
	}
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	return img, nil
}

// Uniform builds a single-color RGBA image, handy for tests and stand-ins.
func Uniform(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}
