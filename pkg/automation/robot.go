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

package automation

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // template decoders
	_ "image/png"
	"os"

	"github.com/go-vgo/robotgo"
	"golang.org/x/time/rate"
)

// failsafeMargin is the corner size (in logical pixels) that triggers the
// failsafe abort when the pointer is parked there by the user.
const failsafeMargin = 5

// Robot is the real Actuator/Sensor, backed by robotgo. Actions are paced
// by a rate limiter so injected input does not outrun the target
// application, and an optional failsafe aborts actuation when the user
// slams the pointer into the top-left screen corner.
type Robot struct {
	limiter  *rate.Limiter
	failsafe bool
}

// NewRobot returns a Robot pacing actuation at actionsPerSecond.
func NewRobot(actionsPerSecond float64, failsafe bool) *Robot {
	return &Robot{
		limiter:  rate.NewLimiter(rate.Limit(actionsPerSecond), 1),
		failsafe: failsafe,
	}
}

// pace blocks until the next action slot and runs the failsafe check.
func (r *Robot) pace() error {
	if err := r.limiter.Wait(context.Background()); err != nil {
		return err
	}
	if r.failsafe {
		x, y := robotgo.Location()
		if x < failsafeMargin && y < failsafeMargin {
			return fmt.Errorf("failsafe triggered: pointer parked in the top-left corner")
		}
	}
	return nil
}

// MoveTo moves the pointer to logical coordinates (x, y).
func (r *Robot) MoveTo(x, y int) error {
	if err := r.pace(); err != nil {
		return err
	}
	robotgo.Move(x, y)
	return nil
}

// Click presses and releases the given mouse button.
func (r *Robot) Click(button string) error {
	if err := r.pace(); err != nil {
		return err
	}
	robotgo.Click(button)
	return nil
}

// ButtonDown presses the given mouse button.
func (r *Robot) ButtonDown(button string) error {
	if err := r.pace(); err != nil {
		return err
	}
	return robotgo.Toggle(button, "down")
}

// ButtonUp releases the given mouse button.
func (r *Robot) ButtonUp(button string) error {
	if err := r.pace(); err != nil {
		return err
	}
	return robotgo.Toggle(button, "up")
}

// KeyDown presses and holds key.
func (r *Robot) KeyDown(key string) error {
	if err := r.pace(); err != nil {
		return err
	}
	return robotgo.KeyToggle(key, "down")
}

// KeyUp releases key.
func (r *Robot) KeyUp(key string) error {
	if err := r.pace(); err != nil {
		return err
	}
	return robotgo.KeyToggle(key, "up")
}

// KeyPress taps key.
func (r *Robot) KeyPress(key string) error {
	if err := r.pace(); err != nil {
		return err
	}
	return robotgo.KeyTap(key)
}

// TypeText types the given text.
func (r *Robot) TypeText(text string) error {
	if err := r.pace(); err != nil {
		return err
	}
	robotgo.TypeStr(text)
	return nil
}

// CaptureScreen grabs the full screen as an image. The capture resolution
// may exceed the logical screen size on high-density displays; callers
// rescale matched coordinates accordingly.
func (r *Robot) CaptureScreen() (image.Image, error) {
	img := robotgo.CaptureImg()
	if img == nil {
		return nil, fmt.Errorf("screen capture failed")
	}
	return img, nil
}

// LogicalScreenSize returns the screen size in logical pixels.
func (r *Robot) LogicalScreenSize() (int, int, error) {
	w, h := robotgo.GetScreenSize()
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("could not determine screen size")
	}
	return w, h, nil
}

// LoadImage reads and decodes a PNG or JPEG template image from disk.
func (r *Robot) LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path) //nolint:gosec // The path comes from the macro file
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrImageNotFound, path)
	}
	defer f.Close() //nolint:errcheck

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image '%s': %v", path, err)
	}
	return img, nil
}
