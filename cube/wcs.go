package cube

import (
	"fmt"
	"math"
)

// Axis carries one of the three canonical WCS axes (RA, DEC, spectral).
type Axis struct {
	CType string  `desc:"FITS CTYPEi, e.g. RA---SIN, DEC--SIN, VELO-HEL"`
	CRPix float64 `desc:"reference pixel, 1-based FITS convention"`
	CRVal float64 `desc:"world value at the reference pixel"`
	CDelt float64 `desc:"world units per pixel"`
}

// WCS holds the three canonical axes kept by a Cube; any further singleton
// axes present in a FITS header are discarded at read time.
type WCS struct {
	X Axis // RA*
	Y Axis // DEC*
	V Axis // VELO*, FELO*, or FREQ*
}

// world converts a zero-based pixel coordinate to a world coordinate along
// one axis using the linear CRPIX/CRVAL/CDELT relation. Non-goals exclude
// any sky projection beyond this — the cube I/O boundary only needs the
// linear relation tirific's fit loop relies on.
func (a Axis) world(pixel float64) float64 {
	return a.CRVal + (pixel+1-a.CRPix)*a.CDelt
}

func (a Axis) pixel(world float64) (float64, error) {
	if a.CDelt == 0 {
		return 0, fmt.Errorf("cube: zero CDELT on axis %q", a.CType)
	}
	return a.CRPix - 1 + (world-a.CRVal)/a.CDelt, nil
}

// PixelToWorld converts a zero-based [x,y,v] pixel triplet to [ra, dec,
// spec] world coordinates (degrees, degrees, m/s or Hz).
func (c *Cube) PixelToWorld(pix [3]int) [3]float64 {
	return [3]float64{
		c.WCS.X.world(float64(pix[0])),
		c.WCS.Y.world(float64(pix[1])),
		c.WCS.V.world(float64(pix[2])),
	}
}

// WorldToPixel is the inverse of PixelToWorld, returning fractional pixel
// coordinates.
func (c *Cube) WorldToPixel(world [3]float64) ([3]float64, error) {
	x, err := c.WCS.X.pixel(world[0])
	if err != nil {
		return [3]float64{}, err
	}
	y, err := c.WCS.Y.pixel(world[1])
	if err != nil {
		return [3]float64{}, err
	}
	v, err := c.WCS.V.pixel(world[2])
	if err != nil {
		return [3]float64{}, err
	}
	return [3]float64{x, y, v}, nil
}

// FindPixel looks up the nearest-integer pixel for a world coordinate and
// reports whether it falls within the cube's logical bounds.
func (c *Cube) FindPixel(world [3]float64) (pix [3]int, inRange bool) {
	fp, err := c.WorldToPixel(world)
	if err != nil {
		return [3]int{}, false
	}
	ix := int(math.Round(fp[0]))
	iy := int(math.Round(fp[1]))
	iv := int(math.Round(fp[2]))
	inRange = ix >= 0 && ix < c.SizeX && iy >= 0 && iy < c.SizeY && iv >= 0 && iv < c.SizeV
	return [3]int{ix, iy, iv}, inRange
}
