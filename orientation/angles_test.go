package orientation

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/sensorlog/device"
)

func rad(deg float64) float64 {
	return deg * math.Pi / 180
}

func TestPitchRoll(t *testing.T) {
	assert.InDelta(t, rad(30), Pitch(0.5), 1e-12)
	assert.Equal(t, 0.0, Pitch(0))
	assert.InDelta(t, math.Pi/2, Pitch(1.0000000001), 1e-12, "input is clamped")

	roll, err := Roll(0.5, 0)
	require.NoError(t, err)
	assert.InDelta(t, rad(-30), roll, 1e-12)

	roll, err = Roll(-0.5, rad(60))
	require.NoError(t, err)
	assert.InDelta(t, math.Pi/2, roll, 1e-6)
}

func TestRoll_GimbalLock(t *testing.T) {
	for _, pitch := range []float64{math.Pi / 2, -math.Pi / 2, Pitch(1), Pitch(-1)} {
		_, err := Roll(0.1, pitch)
		assert.ErrorIs(t, err, ErrGimbalLock)
		assert.ErrorIs(t, err, device.ErrComputation)
	}
}

func TestHeading(t *testing.T) {
	tests := []struct {
		x, y     float64
		expected float64
	}{
		{0, 0, 0},
		{1, 0, 0},
		{0, 1, 90},
		{-1, 0, 180},
		{-1, math.Copysign(0, -1), 180},
		{0, -1, 270},
		{1, -1, 315},
		{1, math.Copysign(0, -1), 0},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v,%v", test.x, test.y), func(t *testing.T) {
			h := Heading(test.x, test.y)
			assert.InDelta(t, test.expected, h, 1e-9)
			assert.False(t, math.Signbit(h))
		})
	}
}

func TestHeading_Range(t *testing.T) {
	for x := -1000.0; x <= 1000; x += 37.5 {
		for y := -1000.0; y <= 1000; y += 41.25 {
			h := Heading(x, y)
			assert.GreaterOrEqual(t, h, 0.0)
			assert.Less(t, h, 360.0)
		}
	}
	assert.Less(t, Heading(1, -1e-300), 360.0)
}

func TestCompensatedHeading(t *testing.T) {
	const mx, my, mz = 300.0, -200.0, -450.0
	assert.InDelta(t, Heading(mx, my), CompensatedHeading(mx, my, mz, 0, 0, InPlaceTilt), 1e-9, "no tilt, no correction")

	inPlace := CompensatedHeading(mx, my, mz, rad(10), rad(-20), InPlaceTilt)
	raw := CompensatedHeading(mx, my, mz, rad(10), rad(-20), RawTilt)
	assert.InDelta(t, 301.6581594529601, inPlace, 1e-9)
	assert.InDelta(t, 301.304986486281, raw, 1e-9)
}

func TestCompassLabel(t *testing.T) {
	tests := []struct {
		heading  float64
		expected string
	}{
		{0, "N"},
		{11.24, "N"},
		{11.25, "NNE"},
		{22.5, "NNE"},
		{33.75, "NE"},
		{90, "E"},
		{180, "S"},
		{270, "W"},
		{332.6, "NNW"},
		{348.74, "NNW"},
		{348.75, "N"},
		{350, "N"},
		{359.99, "N"},
	}
	for _, test := range tests {
		t.Run(fmt.Sprint(test.heading), func(t *testing.T) {
			assert.Equal(t, test.expected, CompassLabel(test.heading))
		})
	}
	for i, d := range Directions {
		assert.Equal(t, d, CompassLabel(float64(i)*22.5))
	}
}

func TestParseTiltOrder(t *testing.T) {
	for _, o := range []TiltOrder{InPlaceTilt, RawTilt} {
		parsed, err := ParseTiltOrder(o.String())
		require.NoError(t, err)
		assert.Equal(t, o, parsed)
	}
	_, err := ParseTiltOrder("sideways")
	assert.Error(t, err)
}
