package reduce

import (
	"gonum.org/v1/gonum/mat"

	"github.com/nodeusage/nodeusage/internal/common/linalg"
)

// LabelOffset places a feature label slightly beyond the tip of its arrow.
const LabelOffset = 1.15

// BiplotArrow is the loading vector of one feature drawn in the plane of the first two components.
type BiplotArrow struct {
	Feature string
	X, Y    float64
	LabelX  float64
	LabelY  float64
}

type Biplot struct {
	// Multiplier applied to the loadings so that arrows are visible against the projected points.
	Scale  float64
	Arrows []BiplotArrow
}

// NewBiplot scales the loadings of the first two components by fraction × the largest absolute projected coordinate.
func NewBiplot(components mat.Matrix, projection mat.Matrix, labels []string, fraction float64) Biplot {
	scale := fraction * linalg.MaxAbs(projection)
	_, c := components.Dims()
	rv := Biplot{Scale: scale, Arrows: make([]BiplotArrow, c)}
	for j := 0; j < c; j++ {
		x := components.At(0, j) * scale
		y := components.At(1, j) * scale
		rv.Arrows[j] = BiplotArrow{
			Feature: labels[j],
			X:       x,
			Y:       y,
			LabelX:  x * LabelOffset,
			LabelY:  y * LabelOffset,
		}
	}
	return rv
}
