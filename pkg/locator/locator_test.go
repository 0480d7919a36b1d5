// Package locator finds a template image inside a captured screen image.
package locator

import (
	"image"
	"image/color"
	"testing"
)

// checkerTemplate builds a small high-contrast pattern that correlates
// strongly only where it was stamped.
func checkerTemplate(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 255})
			} else {
				img.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return img
}

// sceneWith stamps template into a uniform gray scene at (ox, oy).
func sceneWith(w, h int, template *image.Gray, ox, oy int) *image.Gray {
	scene := image.NewGray(image.Rect(0, 0, w, h))
	for i := range scene.Pix {
		scene.Pix[i] = 128
	}
	tb := template.Bounds()
	for y := 0; y < tb.Dy(); y++ {
		for x := 0; x < tb.Dx(); x++ {
			scene.SetGray(ox+x, oy+y, template.GrayAt(x, y))
		}
	}
	return scene
}

func TestLocateFindsStampedTemplate(t *testing.T) {
	template := checkerTemplate(6, 4)
	scene := sceneWith(40, 30, template, 20, 10)

	match, found := Locate(scene, template, 0.9)
	if !found {
		t.Fatalf("Expected a match, best score was %.3f", match.Score)
	}

	// Center of the matched region: offset + template/2, integer division
	if match.X != 20+3 || match.Y != 10+2 {
		t.Errorf("Expected center (23, 12), got (%d, %d)", match.X, match.Y)
	}
	if match.Score < 0.99 {
		t.Errorf("Expected near-perfect score for an exact stamp, got %.3f", match.Score)
	}
}

func TestLocateBelowThreshold(t *testing.T) {
	template := checkerTemplate(6, 4)

	// Uniform scene: nothing correlates with the checker pattern
	scene := image.NewGray(image.Rect(0, 0, 40, 30))
	for i := range scene.Pix {
		scene.Pix[i] = 128
	}

	if _, found := Locate(scene, template, 0.8); found {
		t.Error("Expected no match in a uniform scene")
	}
}

func TestLocateDegenerateInputs(t *testing.T) {
	scene := sceneWith(10, 10, checkerTemplate(2, 2), 0, 0)

	// Template larger than the capture
	if _, found := Locate(scene, checkerTemplate(20, 20), 0.5); found {
		t.Error("Expected no match for an oversized template")
	}

	// Flat template has zero variance and correlates everywhere equally
	flat := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range flat.Pix {
		flat.Pix[i] = 200
	}
	if _, found := Locate(scene, flat, 0.5); found {
		t.Error("Expected no match for a zero-variance template")
	}
}

var ScaleTests = []struct {
	name                 string
	x, y                 int
	captureW, captureH   int
	logicalW, logicalH   int
	expectedX, expectedY int
}{
	{"HiDPI 2x", 80, 60, 200, 200, 100, 100, 40, 30},
	{"Identity", 80, 60, 100, 100, 100, 100, 80, 60},
	{"Per-axis ratios", 90, 90, 300, 150, 100, 100, 30, 60},
	{"Truncation", 5, 5, 300, 300, 100, 100, 1, 1},
}

func TestScaleToLogical(t *testing.T) {
	for _, tt := range ScaleTests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := ScaleToLogical(tt.x, tt.y, tt.captureW, tt.captureH, tt.logicalW, tt.logicalH)
			if x != tt.expectedX || y != tt.expectedY {
				t.Errorf("Expected (%d, %d), got (%d, %d)", tt.expectedX, tt.expectedY, x, y)
			}
		})
	}
}
