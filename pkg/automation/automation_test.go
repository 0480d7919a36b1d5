// Package automation defines the boundary between the interpreter core and
// the desktop it drives.
package automation

import (
	"errors"
	"image/color"
	"reflect"
	"testing"
)

func TestSimulatorRecordsActions(t *testing.T) {
	sim := NewSimulator(800, 600)

	if err := sim.MoveTo(10, 20); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := sim.Click("left"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := sim.ButtonDown("right"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := sim.ButtonUp("right"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := sim.KeyPress("a"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := sim.TypeText("hello"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expected := []string{
		"mouse move 10,20",
		"mouse left click",
		"mouse right down",
		"mouse right up",
		"key press a",
		`key type "hello"`,
	}
	if !reflect.DeepEqual(sim.Actions, expected) {
		t.Errorf("Expected %v, got %v", expected, sim.Actions)
	}
}

func TestSimulatorSensing(t *testing.T) {
	sim := NewSimulator(320, 200)

	w, h, err := sim.LogicalScreenSize()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if w != 320 || h != 200 {
		t.Errorf("Expected 320x200, got %dx%d", w, h)
	}

	img, err := sim.CaptureScreen()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 320 || b.Dy() != 200 {
		t.Errorf("Expected a 320x200 capture, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestSimulatorCaptureError(t *testing.T) {
	sim := NewSimulator(100, 100)
	sim.CaptureErr = errors.New("no display")

	if _, err := sim.CaptureScreen(); err == nil {
		t.Fatal("Expected the configured capture error")
	}
}

func TestSimulatorLoadImage(t *testing.T) {
	sim := NewSimulator(100, 100)

	img, err := sim.LoadImage("anything.png")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if img == nil {
		t.Fatal("Expected a stand-in image")
	}

	custom := Uniform(2, 3, color.White)
	sim.Images["button.png"] = custom
	img, err = sim.LoadImage("button.png")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if img != custom {
		t.Error("Expected the registered image to be returned")
	}
}
