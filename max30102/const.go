package max30102

// Register addresses
const (
	IntStat1  byte = 0x00
	IntStat2  byte = 0x01
	IntEna1   byte = 0x02
	IntEna2   byte = 0x03
	FIFOWrPtr byte = 0x04
	OvfCount  byte = 0x05
	FIFORdPtr byte = 0x06
	FIFOData  byte = 0x07
	FIFOCfg   byte = 0x08
	ModeCfg   byte = 0x09
	SpO2Cfg   byte = 0x0A
	Led1PA    byte = 0x0C
	Led2PA    byte = 0x0D
	TempInt   byte = 0x1F
	TempFrac  byte = 0x20
	TempCfg   byte = 0x21
	RegRevID  byte = 0xFE
	RegPartID byte = 0xFF
)

// Interrupt flags
const (
	// Status 1
	AlmostFull            byte = 1 << 7
	NewFIFOData           byte = 1 << 6
	AmbientLightCancelOvf byte = 1 << 5
	PowerReady            byte = 1 << 0

	// Status 2
	DieTempReady byte = 1 << 1
)

// Device constants
const (
	Addr   = 0x57
	PartID = 0x15

	fifoDepth  = 32
	sampleSize = 6 // 3 bytes per LED
	maxADC     = 1<<18 - 1
)

// Settings
const (
	TempEna      byte = 0b0000_0001
	ModeHR       byte = 0b010
	ModeSpO2     byte = 0b011
	ModeMultiLed byte = 0b111
	modeMask     byte = 0b1111_1000
	modeSHDN     byte = 0b1000_0000

	ResetControl byte = 0b0100_0000

	fifoFullMask byte = 0b1111_0000
)

// SpO2 Sample Rate Control
const (
	SR50 byte = iota << 2
	SR100
	SR200
	SR400
	SR800
	SR1000
	SR1600
	SR3200

	srMask byte = 0b1_11_000_11
)

// LED Pulse Width Control
const (
	PW69 byte = iota
	PW118
	PW215
	PW411

	pwMask byte = 0b1_11_111_00
)

// SampleRateHz returns the sampling frequency, in Hz, of a sample rate
// control value such as SR100.
func SampleRateHz(sr byte) float64 {
	switch sr &^ srMask {
	case SR50:
		return 50
	case SR100:
		return 100
	case SR200:
		return 200
	case SR400:
		return 400
	case SR800:
		return 800
	case SR1000:
		return 1000
	case SR1600:
		return 1600
	case SR3200:
		return 3200
	}
	return 0
}
