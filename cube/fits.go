package cube

import (
	"fmt"
	"os"
	"strings"

	"github.com/astrogo/fitsio"
)

// Read parses the primary HDU of the FITS file at path into a Cube,
// applying the axis grammar of spec §4.1: NAXIS >= 3, NAXIS1..3 > 0, the
// first three axes typed RA*/DEC*/VELO|FELO|FREQ, any further axis a
// singleton, and CRPIXi/CRVALi/CDELTi/CTYPEi, EPOCH and BUNIT mandatory.
// Rest frequency, VOBS, CELLSCAL, beam and BSCALE/BZERO/BTYPE are optional
// with documented defaults. Pixel values are rescaled by BSCALE/BZERO.
func Read(path string) (*Cube, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newFITSError(ErrRead, "%v", err)
	}
	defer f.Close()

	ff, err := fitsio.Open(f)
	if err != nil {
		return nil, newFITSError(ErrRead, "%v", err)
	}
	defer ff.Close()

	hdu := ff.HDU(0)
	if hdu == nil {
		return nil, newFITSError(ErrRead, "no primary HDU")
	}
	img, ok := hdu.(fitsio.Image)
	if !ok {
		return nil, newFITSError(ErrRead, "primary HDU is not an image")
	}
	hdr := hdu.Header()

	naxis, err := headerInt(hdr, "NAXIS")
	if err != nil {
		return nil, newFITSError(ErrNoNaxis, "missing NAXIS")
	}
	if naxis < 3 {
		return nil, newFITSError(ErrWrongNaxis, "NAXIS=%d, need >= 3", naxis)
	}

	sizes := make([]int, naxis)
	for i := 1; i <= naxis; i++ {
		n, err := headerInt(hdr, fmt.Sprintf("NAXIS%d", i))
		if err != nil {
			return nil, newFITSError(ErrNoNaxisI, "missing NAXIS%d", i)
		}
		if i <= 3 {
			if n <= 0 {
				return nil, newFITSError(ErrWrongNaxisI, "NAXIS%d=%d, need > 0", i, n)
			}
		} else if n != 1 {
			return nil, newFITSError(ErrWrongNaxisI, "NAXIS%d=%d, singleton axes beyond 3 required", i, n)
		}
		sizes[i-1] = n
	}

	c := &Cube{SizeX: sizes[0], SizeY: sizes[1], SizeV: sizes[2]}

	axisKinds := []struct {
		prefixes []string
		name     string
	}{
		{[]string{"RA"}, "x"},
		{[]string{"DEC"}, "y"},
		{[]string{"VELO", "FELO", "FREQ"}, "v"},
	}
	axes := [3]*Axis{&c.WCS.X, &c.WCS.Y, &c.WCS.V}
	for i := 0; i < 3; i++ {
		n := i + 1
		ctype, err := headerString(hdr, fmt.Sprintf("CTYPE%d", n))
		if err != nil {
			return nil, newFITSError(ErrNoCtypeI, "missing CTYPE%d", n)
		}
		matched := false
		for _, p := range axisKinds[i].prefixes {
			if strings.HasPrefix(ctype, p) {
				matched = true
				break
			}
		}
		if !matched {
			return nil, newFITSError(ErrWrongCtypeI, "CTYPE%d=%q does not match expected axis type", n, ctype)
		}
		crpix, err := headerFloat(hdr, fmt.Sprintf("CRPIX%d", n))
		if err != nil {
			return nil, newFITSError(ErrNoCrpixI, "missing CRPIX%d", n)
		}
		crval, err := headerFloat(hdr, fmt.Sprintf("CRVAL%d", n))
		if err != nil {
			return nil, newFITSError(ErrNoCrvalI, "missing CRVAL%d", n)
		}
		cdelt, err := headerFloat(hdr, fmt.Sprintf("CDELT%d", n))
		if err != nil {
			return nil, newFITSError(ErrNoCdeltI, "missing CDELT%d", n)
		}
		axes[i].CType = ctype
		axes[i].CRPix = crpix
		axes[i].CRVal = crval
		axes[i].CDelt = cdelt
	}

	epoch, err := headerFloat(hdr, "EPOCH")
	if err != nil {
		return nil, newFITSError(ErrNoEpoch, "missing EPOCH")
	}
	if epoch < 1800 || epoch > 2200 {
		return nil, newFITSError(ErrWrongEpoch, "EPOCH=%v out of plausible range", epoch)
	}
	c.Epoch = epoch

	bunit, err := headerString(hdr, "BUNIT")
	if err != nil {
		return nil, newFITSError(ErrWrongBunit, "missing BUNIT")
	}
	c.Unit = bunit

	bitpix, err := headerInt(hdr, "BITPIX")
	if err == nil && bitpix != -32 && bitpix != -64 && bitpix != 32 && bitpix != 16 {
		return nil, newFITSError(ErrWrongBitpix, "unsupported BITPIX=%d", bitpix)
	}

	c.RestFreq = headerFloatOr(hdr, "RESTFREQ", DefaultRestFreqHI)
	c.VObs = headerFloatOr(hdr, "VOBS", 0)
	c.CellScal = headerStringOr(hdr, "CELLSCAL", "CONSTANT")
	c.Beam.MajorDeg = headerFloatOr(hdr, "BMAJ", 0)
	c.Beam.MinorDeg = headerFloatOr(hdr, "BMIN", 0)
	c.Beam.PADeg = headerFloatOr(hdr, "BPA", 0)
	c.BScale = headerFloatOr(hdr, "BSCALE", 1.0)
	c.BZero = headerFloatOr(hdr, "BZERO", 0.0)
	c.BType = headerStringOr(hdr, "BTYPE", "")

	raw := make([]float32, c.SizeX*c.SizeY*c.SizeV)
	if err := img.Read(&raw); err != nil {
		return nil, newFITSError(ErrRead, "%v", err)
	}

	cube, err := New(c.SizeX, c.SizeY, c.SizeV)
	if err != nil {
		return nil, newFITSError(ErrMem, "%v", err)
	}
	cube.WCS = c.WCS
	cube.Epoch = c.Epoch
	cube.Unit = c.Unit
	cube.RestFreq = c.RestFreq
	cube.VObs = c.VObs
	cube.CellScal = c.CellScal
	cube.Beam = c.Beam
	cube.BScale = c.BScale
	cube.BZero = c.BZero
	cube.BType = c.BType

	for i, v := range raw {
		cube.Data[i] = float32(float64(v)*cube.BScale + cube.BZero)
	}
	return cube, nil
}

// Write dumps the canonical header and the pixel buffer as IEEE float
// (BITPIX=-32), padded to the FITS block size. If overridePixels is
// non-nil it is written instead of the Cube's own buffer, which is left
// untouched; overridePixels must be logically unpadded (SizeX*SizeY*SizeV
// elements in voxel order). Pixels are written as (value-BZERO)/BSCALE, with
// a zero BScale written as 1, so Read returns the original values.
func (c *Cube) Write(path string, overridePixels []float32) error {
	f, err := os.Create(path)
	if err != nil {
		return newFITSError(ErrRead, "%v", err)
	}
	defer f.Close()

	ff, err := fitsio.Create(f)
	if err != nil {
		return newFITSError(ErrRead, "%v", err)
	}
	defer ff.Close()

	bscale := c.BScale
	if bscale == 0 {
		bscale = 1
	}

	axes := []int{c.SizeX, c.SizeY, c.SizeV}
	img := fitsio.NewImage(-32, axes)
	hdr := img.Header()

	cards := []fitsio.Card{
		{Name: "CTYPE1", Value: c.WCS.X.CType},
		{Name: "CRPIX1", Value: c.WCS.X.CRPix},
		{Name: "CRVAL1", Value: c.WCS.X.CRVal},
		{Name: "CDELT1", Value: c.WCS.X.CDelt},
		{Name: "CTYPE2", Value: c.WCS.Y.CType},
		{Name: "CRPIX2", Value: c.WCS.Y.CRPix},
		{Name: "CRVAL2", Value: c.WCS.Y.CRVal},
		{Name: "CDELT2", Value: c.WCS.Y.CDelt},
		{Name: "CTYPE3", Value: c.WCS.V.CType},
		{Name: "CRPIX3", Value: c.WCS.V.CRPix},
		{Name: "CRVAL3", Value: c.WCS.V.CRVal},
		{Name: "CDELT3", Value: c.WCS.V.CDelt},
		{Name: "EPOCH", Value: c.Epoch},
		{Name: "BUNIT", Value: c.Unit},
		{Name: "RESTFREQ", Value: c.RestFreq},
		{Name: "VOBS", Value: c.VObs},
		{Name: "CELLSCAL", Value: c.CellScal},
		{Name: "BMAJ", Value: c.Beam.MajorDeg},
		{Name: "BMIN", Value: c.Beam.MinorDeg},
		{Name: "BPA", Value: c.Beam.PADeg},
		{Name: "BSCALE", Value: bscale},
		{Name: "BZERO", Value: c.BZero},
		{Name: "BTYPE", Value: c.BType},
	}
	for _, card := range cards {
		if err := hdr.Append(card); err != nil {
			return newFITSError(ErrRead, "writing card %s: %v", card.Name, err)
		}
	}

	// Stored values are (physical - BZERO) / BSCALE, so that Read's
	// rescaling returns the physical values.
	pix := make([]float32, c.SizeX*c.SizeY*c.SizeV)
	if overridePixels != nil {
		copy(pix, overridePixels)
	} else {
		i := 0
		for iv := 0; iv < c.SizeV; iv++ {
			for iy := 0; iy < c.SizeY; iy++ {
				for ix := 0; ix < c.SizeX; ix++ {
					pix[i] = c.At(ix, iy, iv)
					i++
				}
			}
		}
	}
	for i, v := range pix {
		pix[i] = float32((float64(v) - c.BZero) / bscale)
	}
	if err := img.Write(pix); err != nil {
		return newFITSError(ErrRead, "%v", err)
	}
	if err := ff.Write(img); err != nil {
		return newFITSError(ErrRead, "%v", err)
	}
	return nil
}

func headerInt(hdr *fitsio.Header, key string) (int, error) {
	card := hdr.Get(key)
	if card == nil {
		return 0, fmt.Errorf("missing %s", key)
	}
	switch v := card.Value.(type) {
	case int64:
		return int(v), nil
	case int:
		return v, nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("%s: unexpected type %T", key, v)
	}
}

func headerFloat(hdr *fitsio.Header, key string) (float64, error) {
	card := hdr.Get(key)
	if card == nil {
		return 0, fmt.Errorf("missing %s", key)
	}
	switch v := card.Value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("%s: unexpected type %T", key, v)
	}
}

func headerString(hdr *fitsio.Header, key string) (string, error) {
	card := hdr.Get(key)
	if card == nil {
		return "", fmt.Errorf("missing %s", key)
	}
	s, ok := card.Value.(string)
	if !ok {
		return "", fmt.Errorf("%s: unexpected type %T", key, card.Value)
	}
	return strings.TrimSpace(s), nil
}

func headerFloatOr(hdr *fitsio.Header, key string, def float64) float64 {
	if v, err := headerFloat(hdr, key); err == nil {
		return v
	}
	return def
}

func headerStringOr(hdr *fitsio.Header, key, def string) string {
	if v, err := headerString(hdr, key); err == nil {
		return v
	}
	return def
}
