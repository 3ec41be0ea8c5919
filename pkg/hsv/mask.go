package hsv

import (
	"gocv.io/x/gocv"
)

// BuildMask returns a binary mask (CV_8U, 255 = accepted) of the pixels of
// an HSV frame that fall inside r. A wrapping range is masked as the OR of
// its two non-wrapping halves; a single inRange over a wrapped interval
// would select the complement instead.
//
// The caller owns the returned Mat and must Close it.
func (r ColorRange) BuildMask(hsvFrame gocv.Mat) gocv.Mat {
	mask := gocv.NewMat()
	if hsvFrame.Empty() {
		return mask
	}

	parts := r.Split()
	inRange(hsvFrame, parts[0], &mask)

	for _, part := range parts[1:] {
		sub := gocv.NewMat()
		inRange(hsvFrame, part, &sub)
		gocv.BitwiseOr(mask, sub, &mask)
		sub.Close()
	}

	return mask
}

func inRange(hsvFrame gocv.Mat, r ColorRange, dst *gocv.Mat) {
	gocv.InRangeWithScalar(hsvFrame,
		gocv.NewScalar(float64(r.Lower.H), float64(r.Lower.S), float64(r.Lower.V), 0),
		gocv.NewScalar(float64(r.Upper.H), float64(r.Upper.S), float64(r.Upper.V), 0),
		dst)
}
