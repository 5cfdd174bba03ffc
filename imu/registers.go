package imu

// ST LSM9DS1 register map.
// See: https://www.st.com/resource/en/datasheet/lsm9ds1.pdf
const (
	AccelGyroAddress = 0x6A
	MagAddress       = 0x1C

	regWhoAmI = 0x0F

	whoAmIAccelGyro = 0x68
	whoAmIMag       = 0x3D
)

// accelerometer / gyroscope
const (
	regCtrlReg1G  = 0x10
	regOrientCfgG = 0x13
	regOutXLG     = 0x18
	regOutYLG     = 0x1A
	regOutZLG     = 0x1C
	regCtrlReg4   = 0x1E
	regCtrlReg5XL = 0x1F
	regCtrlReg6XL = 0x20
	regOutXLXL    = 0x28
	regOutYLXL    = 0x2A
	regOutZLXL    = 0x2C
)

// magnetometer
const (
	regCtrlReg1M = 0x20
	regCtrlReg2M = 0x21
	regCtrlReg3M = 0x22
	regCtrlReg4M = 0x23
	regOutXLM    = 0x28
	regOutYLM    = 0x2A
	regOutZLM    = 0x2C
)

const (
	accelAxisEnable   = 0b00111000 // z, y, x axis enabled
	accelOutputConfig = 0b00101000 // +/- 16g

	gyroAxisEnable   = 0b00111000 // z, y, x axis enabled
	gyroOutputConfig = 0b10111000 // ODR 476Hz, 2000 dps
	gyroOrientation  = 0b00111000 // swap orientation

	magCtrl1 = 0b10011100 // temperature compensation enabled, low power mode, 80Hz ODR
	magCtrl2 = 0b01000000 // +/- 12 gauss
	magCtrl3 = 0b00000000 // continuous conversion
	magCtrl4 = 0b00000000 // low power mode for Z axis
)

// Sensitivity for the full scales configured above.
const (
	accelGainMg   = 0.732
	gyroGainDps   = 0.070
	magGainMgauss = 0.43
)
