package cube

import "math"

// Stats summarizes the finite samples of a Cube: minimum, maximum, mean and
// RMS, plus the count of non-finite (NaN/Inf) samples that were excluded.
type Stats struct {
	Min, Max, Mean, RMS float64
	NFinite, NFlagged   int
}

// Stat reduces the cube over its meaningful voxels only (it never touches
// the reserved padding columns), skipping non-finite samples the way the
// χ² accumulator's flagged reduction strategy does.
func (c *Cube) Stat() Stats {
	var sum, sumSq float64
	var min, max float64
	first := true
	var nFinite, nFlagged int

	for iv := 0; iv < c.SizeV; iv++ {
		for iy := 0; iy < c.SizeY; iy++ {
			for ix := 0; ix < c.SizeX; ix++ {
				v := float64(c.At(ix, iy, iv))
				if v != v || math.IsInf(v, 0) {
					nFlagged++
					continue
				}
				nFinite++
				sum += v
				sumSq += v * v
				if first || v < min {
					min = v
				}
				if first || v > max {
					max = v
				}
				first = false
			}
		}
	}

	var mean, rms float64
	if nFinite > 0 {
		mean = sum / float64(nFinite)
		rms = math.Sqrt(sumSq / float64(nFinite))
	}
	return Stats{Min: min, Max: max, Mean: mean, RMS: rms, NFinite: nFinite, NFlagged: nFlagged}
}
