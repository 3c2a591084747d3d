package capture

import (
	"image"

	"gocv.io/x/gocv"
)

// EnhanceBlurSize is the Gaussian kernel used for denoising before sharpening.
const EnhanceBlurSize = 5

// Enhancer denoises and sharpens frames. The sharpen kernel is allocated once
// and must be released with Close.
type Enhancer struct {
	kernel gocv.Mat
}

// NewEnhancer builds the 3x3 sharpen kernel (centre 9, neighbours -1).
func NewEnhancer() *Enhancer {
	kernel := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV32F)
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			kernel.SetFloatAt(row, col, -1)
		}
	}
	kernel.SetFloatAt(1, 1, 9)

	return &Enhancer{kernel: kernel}
}

// Apply writes a blurred then sharpened copy of src into dst.
func (e *Enhancer) Apply(src gocv.Mat, dst *gocv.Mat) {
	smoothed := gocv.NewMat()
	defer smoothed.Close()

	gocv.GaussianBlur(src, &smoothed, image.Point{X: EnhanceBlurSize, Y: EnhanceBlurSize}, 0, 0, gocv.BorderDefault)
	gocv.Filter2D(smoothed, dst, -1, e.kernel, image.Point{X: -1, Y: -1}, 0, gocv.BorderDefault)
}

// Close releases the kernel.
func (e *Enhancer) Close() {
	e.kernel.Close()
}
