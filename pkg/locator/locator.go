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

// Package locator finds a template image inside a captured screen image by
// normalized cross-correlation over single-channel intensity data, and maps
// the matched center into the logical coordinate space used for actuation.
package locator

import (
	"image"
	"math"
)

// Match is the best-scoring placement of a template inside a capture.
// X and Y are the center of the matched region in capture-pixel coordinates.
type Match struct {
	X, Y  int
	Score float64
}

// grayPlane is a single-channel intensity matrix extracted from an image.
type grayPlane struct {
	w, h int
	pix  []float64
}

func toGray(img image.Image) grayPlane {
	b := img.Bounds()
	g := grayPlane{w: b.Dx(), h: b.Dy(), pix: make([]float64, b.Dx()*b.Dy())}
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, gr, bl, _ := img.At(x, y).RGBA()
			// ITU-R 601 luma weights, on the 16-bit channel values
			g.pix[i] = 0.299*float64(r) + 0.587*float64(gr) + 0.114*float64(bl)
			i++
		}
	}
	return g
}

func (g grayPlane) at(x, y int) float64 {
	return g.pix[y*g.w+x]
}

func (g grayPlane) regionMean(ox, oy, w, h int) float64 {
	sum := 0.0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum += g.at(ox+x, oy+y)
		}
	}
	return sum / float64(w*h)
}

// Locate searches capture for template and returns the best match. The
// second return value reports whether the best correlation score reached
// threshold (a fraction in [0,1]). A template larger than the capture, or
// one with zero intensity variance, never matches.
func Locate(capture, template image.Image, threshold float64) (Match, bool) {
	src := toGray(capture)
	tpl := toGray(template)

	if tpl.w == 0 || tpl.h == 0 || tpl.w > src.w || tpl.h > src.h {
		return Match{}, false
	}

	tplMean := tpl.regionMean(0, 0, tpl.w, tpl.h)
	tplNorm := 0.0
	for i := range tpl.pix {
		d := tpl.pix[i] - tplMean
		tplNorm += d * d
	}
	if tplNorm == 0 {
		// A flat template correlates equally everywhere
		return Match{}, false
	}

	best := Match{Score: math.Inf(-1)}
	for oy := 0; oy <= src.h-tpl.h; oy++ {
		for ox := 0; ox <= src.w-tpl.w; ox++ {
			score := correlate(src, tpl, ox, oy, tplMean, tplNorm)
			if score > best.Score {
				best = Match{X: ox, Y: oy, Score: score}
			}
		}
	}

	// Center of the matched region, integer division
	best.X += tpl.w / 2
	best.Y += tpl.h / 2

	return best, best.Score >= threshold
}

// correlate computes the normalized cross-correlation of the template
// against the capture window at offset (ox, oy).
func correlate(src, tpl grayPlane, ox, oy int, tplMean, tplNorm float64) float64 {
	winMean := src.regionMean(ox, oy, tpl.w, tpl.h)

	num := 0.0
	winNorm := 0.0
	for y := 0; y < tpl.h; y++ {
		for x := 0; x < tpl.w; x++ {
			td := tpl.at(x, y) - tplMean
			wd := src.at(ox+x, oy+y) - winMean
			num += td * wd
			winNorm += wd * wd
		}
	}
	if winNorm == 0 {
		return 0
	}
	return num / math.Sqrt(tplNorm*winNorm)
}

// ScaleToLogical maps a point in capture-pixel coordinates into the logical
// coordinate space used for actuation. High-density displays capture at a
// higher resolution than the logical screen, so each axis is divided by the
// capture/logical ratio, truncating to integer. The division is applied
// even when the ratio is 1.
func ScaleToLogical(x, y, captureW, captureH, logicalW, logicalH int) (int, int) {
	sx := float64(captureW) / float64(logicalW)
	sy := float64(captureH) / float64(logicalH)
	return int(float64(x) / sx), int(float64(y) / sy)
}
