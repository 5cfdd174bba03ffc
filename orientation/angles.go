// Package orientation fuses accelerometer and magnetometer readings into
// pitch, roll and a compass heading.
//
// Angles passed between the functions of this package are in radians;
// headings are in degrees, normalized to [0, 360).
package orientation

import (
	"fmt"
	"math"

	"github.com/mklimuk/sensorlog/device"
)

// gimbalEpsilon is the smallest |cos(pitch)| roll is still defined for.
const gimbalEpsilon = 1e-9

var ErrGimbalLock = fmt.Errorf("%w: roll is undefined at +/-90 degrees pitch", device.ErrComputation)

// Directions is the 16 point compass, clockwise from north in 22.5 degree steps.
var Directions = [16]string{
	"N", "NNE", "NE", "ENE",
	"E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW",
	"W", "WNW", "NW", "NNW",
}

// TiltOrder selects which X term feeds the Y correction of the tilt
// compensated heading.
type TiltOrder int

const (
	// InPlaceTilt uses the already tilt adjusted X component.
	InPlaceTilt TiltOrder = iota
	// RawTilt uses the magnetometer X reading as measured.
	RawTilt
)

func (o TiltOrder) String() string {
	switch o {
	case InPlaceTilt:
		return "in-place"
	case RawTilt:
		return "raw"
	default:
		return fmt.Sprintf("TiltOrder(%d)", int(o))
	}
}

// ParseTiltOrder accepts the names returned by TiltOrder.String.
func ParseTiltOrder(s string) (TiltOrder, error) {
	switch s {
	case "", "in-place":
		return InPlaceTilt, nil
	case "raw":
		return RawTilt, nil
	}
	return InPlaceTilt, fmt.Errorf("unknown tilt order %q", s)
}

// Pitch returns asin of the normalized X acceleration.
func Pitch(accNormX float64) float64 {
	return math.Asin(clamp(accNormX))
}

// Roll returns -asin(accNormY / cos(pitch)).
func Roll(accNormY, pitch float64) (float64, error) {
	c := math.Cos(pitch)
	if math.Abs(c) < gimbalEpsilon {
		return 0, ErrGimbalLock
	}
	return -math.Asin(clamp(accNormY / c)), nil
}

// Heading is atan2(magY, magX) in degrees. A zero field maps to 0.
func Heading(magX, magY float64) float64 {
	if magX == 0 && magY == 0 {
		return 0
	}
	return normalize(math.Atan2(magY, magX) * 180 / math.Pi)
}

// CompensatedHeading corrects the magnetometer reading for pitch and roll
// before computing the heading.
func CompensatedHeading(magX, magY, magZ, pitch, roll float64, order TiltOrder) float64 {
	sinP, cosP := math.Sincos(pitch)
	sinR, cosR := math.Sincos(roll)
	x := magX*cosP + magZ*sinP
	term := x
	if order == RawTilt {
		term = magX
	}
	y := term*sinR*sinP + magY*cosR - magZ*sinR*cosP
	return Heading(x, y)
}

// CompassLabel rounds the heading half away from zero to the nearest of the
// 16 Directions, so 11.25 is NNE.
func CompassLabel(heading float64) string {
	idx := int(math.Round(heading/22.5)) % len(Directions)
	if idx < 0 {
		idx += len(Directions)
	}
	return Directions[idx]
}

func normalize(deg float64) float64 {
	h := math.Mod(deg, 360)
	if h < 0 {
		h += 360
	}
	// folds -0 and the 360 produced by adding to a tiny negative remainder
	if h == 0 || h >= 360 {
		return 0
	}
	return h
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
