package chisq

import "math"

// reducer accumulates the weighted sum of squared residuals over a
// voxel range. Two implementations exist — flagged and unflagged — chosen
// once per (re)initialisation by scanning the observation cube for
// non-finite samples, a monomorphized stand-in for the reference engine's
// function pointer (spec §9 design note).
type reducer interface {
	// reduce returns the sum of (o-m)^2, each term divided by w(x,y,v)
	// when weighted is true, for one contiguous range of v-slices
	// [vStart, vEnd).
	reduce(o, m, w []float32, strideX, sizeX, sizeY, vStart, vEnd int, weighted bool) float64
}

type unflaggedReducer struct{}

func (unflaggedReducer) reduce(o, m, w []float32, strideX, sizeX, sizeY, vStart, vEnd int, weighted bool) float64 {
	var sum float64
	for iv := vStart; iv < vEnd; iv++ {
		sliceBase := iv * strideX * sizeY
		for iy := 0; iy < sizeY; iy++ {
			rowBase := sliceBase + iy*strideX
			for ix := 0; ix < sizeX; ix++ {
				idx := rowBase + ix
				d := float64(o[idx]) - float64(m[idx])
				term := d * d
				if weighted {
					term /= float64(w[idx])
				}
				sum += term
			}
		}
	}
	return sum
}

type flaggedReducer struct{}

func (flaggedReducer) reduce(o, m, w []float32, strideX, sizeX, sizeY, vStart, vEnd int, weighted bool) float64 {
	var sum float64
	for iv := vStart; iv < vEnd; iv++ {
		sliceBase := iv * strideX * sizeY
		for iy := 0; iy < sizeY; iy++ {
			rowBase := sliceBase + iy*strideX
			for ix := 0; ix < sizeX; ix++ {
				idx := rowBase + ix
				ov := o[idx]
				if ov != ov || math.IsInf(float64(ov), 0) { // NaN or ±Inf
					continue
				}
				d := float64(ov) - float64(m[idx])
				term := d * d
				if weighted {
					term /= float64(w[idx])
				}
				sum += term
			}
		}
	}
	return sum
}

func hasNonFinite(o []float32, strideX, sizeX, sizeY, sizeV int) bool {
	for iv := 0; iv < sizeV; iv++ {
		sliceBase := iv * strideX * sizeY
		for iy := 0; iy < sizeY; iy++ {
			rowBase := sliceBase + iy*strideX
			for ix := 0; ix < sizeX; ix++ {
				v := o[rowBase+ix]
				if v != v || math.IsInf(float64(v), 0) {
					return true
				}
			}
		}
	}
	return false
}
