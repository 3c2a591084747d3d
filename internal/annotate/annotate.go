// Package annotate draws recognition and detection results onto frames.
package annotate

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Style selects how boxes are drawn.
type Style string

const (
	// StyleBox draws a plain rectangle around each box.
	StyleBox Style = "box"
	// StyleCorners draws L-shaped brackets at the four corners.
	StyleCorners Style = "corners"
)

const (
	thickness   = 2
	fontScale   = 0.5
	labelOffset = 10
)

// Green is the colour used for all annotations.
var Green = color.RGBA{R: 0, G: 255, B: 0, A: 0}

// Box is a labelled region of a frame.
type Box struct {
	Rect  image.Rectangle
	Label string
}

// ParseStyle maps a config value to a Style. Unknown values fall back to box.
func ParseStyle(s string) Style {
	if Style(s) == StyleCorners {
		return StyleCorners
	}
	return StyleBox
}

// Draw renders every box onto frame in place.
func Draw(frame *gocv.Mat, boxes []Box, style Style) {
	if frame == nil || frame.Empty() {
		return
	}

	for _, b := range boxes {
		switch style {
		case StyleCorners:
			drawCorners(frame, b.Rect)
		default:
			gocv.Rectangle(frame, b.Rect, Green, thickness)
		}

		if b.Label != "" {
			gocv.PutText(frame, b.Label, labelOrigin(b.Rect), gocv.FontHersheySimplex, fontScale, Green, thickness)
		}
	}
}

// labelOrigin places the label above the box, or inside it when the box
// touches the top edge.
func labelOrigin(r image.Rectangle) image.Point {
	p := image.Pt(r.Min.X, r.Min.Y-labelOffset)
	if p.Y < labelOffset {
		p.Y = r.Min.Y + 2*labelOffset
	}
	return p
}

func drawCorners(frame *gocv.Mat, r image.Rectangle) {
	arm := cornerLength(r)

	segments := [][2]image.Point{
		// top-left
		{r.Min, image.Pt(r.Min.X+arm, r.Min.Y)},
		{r.Min, image.Pt(r.Min.X, r.Min.Y+arm)},
		// top-right
		{image.Pt(r.Max.X, r.Min.Y), image.Pt(r.Max.X-arm, r.Min.Y)},
		{image.Pt(r.Max.X, r.Min.Y), image.Pt(r.Max.X, r.Min.Y+arm)},
		// bottom-left
		{image.Pt(r.Min.X, r.Max.Y), image.Pt(r.Min.X+arm, r.Max.Y)},
		{image.Pt(r.Min.X, r.Max.Y), image.Pt(r.Min.X, r.Max.Y-arm)},
		// bottom-right
		{r.Max, image.Pt(r.Max.X-arm, r.Max.Y)},
		{r.Max, image.Pt(r.Max.X, r.Max.Y-arm)},
	}

	for _, s := range segments {
		gocv.Line(frame, s[0], s[1], Green, thickness)
	}
}

// cornerLength is a quarter of the shorter side, at least 4px.
func cornerLength(r image.Rectangle) int {
	side := r.Dx()
	if r.Dy() < side {
		side = r.Dy()
	}
	arm := side / 4
	if arm < 4 {
		arm = 4
	}
	return arm
}
