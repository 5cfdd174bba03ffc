package environment

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/mklimuk/sensorlog/device"
)

// Bosch BMP280 digital pressure sensor.
// See: https://www.bosch-sensortec.com/media/boschsensortec/downloads/datasheets/bst-bmp280-ds001.pdf
const (
	DefaultAddress = 0x77

	regID      = 0xD0
	chipID     = 0x58
	regCalib   = 0x88
	calibLen   = 24
	regCtrl    = 0xF4
	regConfig  = 0xF5
	regData    = 0xF7
	sampleLen  = 8
	ctrlNormal = 0x27 // osrs_t x1, osrs_p x1, normal mode
	config1s   = 0xA0 // standby 1000ms, filter off
)

// SeaLevelPressure is the standard atmosphere reference in hPa.
const SeaLevelPressure = 1013.25

var (
	ErrInvalidCalibration = fmt.Errorf("%w: invalid pressure calibration", device.ErrComputation)
	ErrInvalidPressure    = fmt.Errorf("%w: pressure must be positive", device.ErrComputation)
)

// Calibration holds the factory trim coefficients.
type Calibration struct {
	T1 uint16 `json:"t1" yaml:"t1"`
	T2 int16  `json:"t2" yaml:"t2"`
	T3 int16  `json:"t3" yaml:"t3"`
	P1 uint16 `json:"p1" yaml:"p1"`
	P2 int16  `json:"p2" yaml:"p2"`
	P3 int16  `json:"p3" yaml:"p3"`
	P4 int16  `json:"p4" yaml:"p4"`
	P5 int16  `json:"p5" yaml:"p5"`
	P6 int16  `json:"p6" yaml:"p6"`
	P7 int16  `json:"p7" yaml:"p7"`
	P8 int16  `json:"p8" yaml:"p8"`
	P9 int16  `json:"p9" yaml:"p9"`
}

// ParseCalibration decodes the 24 byte little-endian trim block.
func ParseCalibration(b []byte) (Calibration, error) {
	if len(b) != calibLen {
		return Calibration{}, fmt.Errorf("calibration block must be %d bytes, got %d", calibLen, len(b))
	}
	s := func(i int) int16 {
		return int16(binary.LittleEndian.Uint16(b[i:]))
	}
	return Calibration{
		T1: binary.LittleEndian.Uint16(b[0:]),
		T2: s(2),
		T3: s(4),
		P1: binary.LittleEndian.Uint16(b[6:]),
		P2: s(8),
		P3: s(10),
		P4: s(12),
		P5: s(14),
		P6: s(16),
		P7: s(18),
		P8: s(20),
		P9: s(22),
	}, nil
}

// RawSample is the pressure and temperature data block starting at 0xF7.
type RawSample [sampleLen]byte

// Temperature returns the 20 bit temperature ADC value.
func (r RawSample) Temperature() int32 {
	return (int32(r[3])<<16 | int32(r[4])<<8 | int32(r[5]&0xF0)) >> 4
}

// Pressure returns the 20 bit pressure ADC value.
func (r RawSample) Pressure() int32 {
	return (int32(r[0])<<16 | int32(r[1])<<8 | int32(r[2]&0xF0)) >> 4
}

// FineTemperature is the intermediate temperature every other output is
// derived from. Dividing it by 5120 yields degrees Celsius.
func (c Calibration) FineTemperature(adcT int32) float64 {
	t := float64(adcT)
	var1 := (t/16384.0 - float64(c.T1)/1024.0) * float64(c.T2)
	var2 := t/131072.0 - float64(c.T1)/8192.0
	var2 = var2 * var2 * float64(c.T3)
	return var1 + var2
}

// FinePressure returns the compensated pressure in Pa. The operation order
// follows the datasheet floating point reference.
func (c Calibration) FinePressure(adcP int32, fineT float64) (float64, error) {
	var1 := fineT/2.0 - 64000.0
	var2 := var1 * var1 * float64(c.P6) / 32768.0
	var2 = var2 + var1*float64(c.P5)*2.0
	var2 = var2/4.0 + float64(c.P4)*65536.0
	var1 = (float64(c.P3)*var1*var1/524288.0 + float64(c.P2)*var1) / 524288.0
	var1 = (1.0 + var1/32768.0) * float64(c.P1)
	if var1 == 0 {
		return 0, ErrInvalidCalibration
	}
	p := 1048576.0 - float64(adcP)
	p = (p - var2/4096.0) * 6250.0 / var1
	var1 = float64(c.P9) * p * p / 2147483648.0
	var2 = p * float64(c.P8) / 32768.0
	p = p + (var1+var2+float64(c.P7))/16.0
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, ErrInvalidCalibration
	}
	return p, nil
}

// Altitude converts pressure in hPa to meters above the seaLevel reference
// using the hypsometric formula.
func Altitude(hPa, tempC, seaLevel float64) (float64, error) {
	if hPa <= 0 || seaLevel <= 0 {
		return 0, ErrInvalidPressure
	}
	return (math.Pow(seaLevel/hPa, 1/5.257) - 1) * (tempC + 273.15) / 0.0065, nil
}

func celsiusToFahrenheit(c float64) float64 {
	return c*1.8 + 32
}

func metersToFeet(m float64) float64 {
	return m * 3.281
}
