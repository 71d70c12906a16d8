// Package max30102 reads PPG samples from a MAX30102 pulse oximeter over I²C.
package max30102

import (
	"context"
	"errors"
	"fmt"
	"time"

	"periph.io/x/periph/conn"
	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/host"
)

var (
	// ErrNotDevice throws an error when the device part ID does not match a
	// MAX30102 signature (0x15).
	ErrNotDevice error = errors.New("max30102: part ID does not match (0x15)")
	// ErrSampleCount is returned when a negative number of samples is
	// requested.
	ErrSampleCount = errors.New("negative sample count")
)

// pollInterval is the wait between two reads of a status register.
const pollInterval = time.Millisecond

// Device defines a MAX30102 device.
type Device struct {
	dev conn.Conn
	bus i2c.BusCloser

	fs float64
}

// New returns a new MAX30102 device in SpO2 mode. By default, this sets the
// LED pulse amplitude to 2.8mA, with a pulse width of 411us and a sample rate
// of 50 samples/s.
//
// Argument "busName" can be used to specify the exact bus to use ("/dev/i2c-2", "I2C2", "2").
// Argument "addr" can be used to specify alternative address if default (0x57) is unavailable and changed.
// If "busName" argument is specified as an empty string "" the first available bus will be used.
func New(busName string, addr uint16) (*Device, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("max30102: could not initialize host: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("max30102: could not open I2C bus: %w", err)
	}

	if addr == 0 {
		addr = Addr
	}

	d, err := newDevice(context.Background(), &i2c.Dev{Addr: addr, Bus: bus})
	if err != nil {
		bus.Close()
		return nil, err
	}
	d.bus = bus

	return d, nil
}

func newDevice(ctx context.Context, c conn.Conn) (*Device, error) {
	d := &Device{dev: c}

	part, err := d.Read(RegPartID)
	if err != nil {
		return nil, fmt.Errorf("max30102: could not get part ID: %w", err)
	}
	if part != PartID {
		return nil, ErrNotDevice
	}

	if err := d.Reset(ctx); err != nil {
		return nil, fmt.Errorf("max30102: could not reset device: %w", err)
	}
	if _, err = d.Options(
		RedPulseAmp(2.8),
		IRPulseAmp(2.8),
		PulseWidth(PW411),
		SampleRate(SR50),
		InterruptEnable(NewFIFOData|AlmostFull),
		AlmostFullValue(0),
		Mode(ModeSpO2),
	); err != nil {
		return nil, fmt.Errorf("max30102: could not initialize device: %w", err)
	}
	if err := d.drain(); err != nil {
		return nil, fmt.Errorf("max30102: could not empty FIFO: %w", err)
	}

	return d, nil
}

// Close closes the devices and cleans after itself.
func (d *Device) Close() error {
	err := d.Shutdown()
	if d.bus != nil {
		if cerr := d.bus.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// SampleRate returns the configured sampling frequency in Hz.
func (d *Device) SampleRate() float64 {
	return d.fs
}

// RevID returns the revision ID of the device.
func (d *Device) RevID() (byte, error) {
	rev, err := d.Read(RegRevID)
	if err != nil {
		return 0, fmt.Errorf("max30102: could not get revision ID: %w", err)
	}
	return rev, nil
}

// waitUntil polls reg until flag is set (or cleared if set is false).
func (d *Device) waitUntil(ctx context.Context, reg, flag byte, set bool) error {
	for {
		state, err := d.Read(reg)
		if err != nil {
			return fmt.Errorf("could not wait for %#x in %#x: %w", flag, reg, err)
		}
		if (state&flag != 0) == set {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// Temperature returns the current temperature of the device.
func (d *Device) Temperature(ctx context.Context) (float64, error) {
	if err := d.Write(TempCfg, TempEna); err != nil {
		return 0, fmt.Errorf("max30102: could not enable temperature: %w", err)
	}
	if err := d.waitUntil(ctx, TempCfg, TempEna, false); err != nil {
		return 0, fmt.Errorf("max30102: could not read temperature: %w", err)
	}

	i, err := d.Read(TempInt)
	if err != nil {
		return 0, fmt.Errorf("max30102: could not read integer part of temperature: %w", err)
	}
	f, err := d.Read(TempFrac)
	if err != nil {
		return 0, fmt.Errorf("max30102: could not read fractional part of temperature: %w", err)
	}

	return float64(int8(i)) + float64(f)*0.0625, nil
}

// Read reads a single byte from a register.
func (d *Device) Read(reg byte) (byte, error) {
	b := make([]byte, 1)
	if err := d.dev.Tx([]byte{reg}, b); err != nil {
		return 0, fmt.Errorf("max30102: could not read byte: %w", err)
	}

	return b[0], nil
}

// ReadBytes read n bytes from a register.
func (d *Device) ReadBytes(reg byte, n int) ([]byte, error) {
	b := make([]byte, n)
	if err := d.dev.Tx([]byte{reg}, b); err != nil {
		return nil, fmt.Errorf("max30102: could not read %d bytes: %w", n, err)
	}

	return b, nil
}

// Write writes a byte to a register.
func (d *Device) Write(reg, data byte) error {
	if err := d.dev.Tx([]byte{reg, data}, nil); err != nil {
		return fmt.Errorf("max30102: could not write %#x: %w", reg, err)
	}

	return nil
}

// Reset resets the device. All configurations, thresholds, and data registers
// are reset to their power-on state.
func (d *Device) Reset(ctx context.Context) error {
	if err := d.Write(ModeCfg, ResetControl); err != nil {
		return fmt.Errorf("max30102: could not reset: %w", err)
	}
	if err := d.waitUntil(ctx, ModeCfg, ResetControl, false); err != nil {
		return fmt.Errorf("max30102: could not reset: %w", err)
	}

	return nil
}

// decode splits one FIFO sample into its red and IR values, normalized from
// 0.0 to 1.0.
func decode(b []byte) (red, ir float64) {
	const msbMask byte = 0b0000_0011

	red = float64(int(b[0]&msbMask)<<16|int(b[1])<<8|int(b[2])) / maxADC
	ir = float64(int(b[3]&msbMask)<<16|int(b[4])<<8|int(b[5])) / maxADC

	return red, ir
}

// pending returns the number of unread samples given the FIFO pointers.
func pending(wr, rd byte) int {
	return (int(wr) + fifoDepth - int(rd)) % fifoDepth
}

func (d *Device) available() (int, error) {
	wr, err := d.Read(FIFOWrPtr)
	if err != nil {
		return 0, err
	}
	rd, err := d.Read(FIFORdPtr)
	if err != nil {
		return 0, err
	}

	return pending(wr, rd), nil
}

// IRRedBatch waits for the AlmostFull flag and returns the IR and red LED
// values waiting in the FIFO. The amount of data returned can be configured by
// setting the AlmostFullValue leftover value, which is set to 0 by default.
// Therefore, this function returns 32 samples by default.
func (d *Device) IRRedBatch(ctx context.Context) (ir, red []float64, err error) {
	if err = d.waitUntil(ctx, IntStat1, AlmostFull, true); err != nil {
		return nil, nil, fmt.Errorf("max30102: error waiting for almost full interrupt: %w", err)
	}

	n, err := d.available()
	if err != nil {
		return nil, nil, fmt.Errorf("max30102: error reading available data: %w", err)
	}
	if n == 0 { // pointers wrapped around a full FIFO
		n = fifoDepth
	}

	ir = make([]float64, n)
	red = make([]float64, n)
	for i := 0; i < n; i++ {
		b, err := d.ReadBytes(FIFOData, sampleSize)
		if err != nil {
			return nil, nil, err
		}
		red[i], ir[i] = decode(b)
	}

	return ir, red, nil
}

// Record reads n consecutive samples from the FIFO. It blocks until the
// samples are read or ctx is done.
func (d *Device) Record(ctx context.Context, n int) (ir, red []float64, err error) {
	if n < 0 {
		return nil, nil, fmt.Errorf("max30102: could not record %d samples: %w", n, ErrSampleCount)
	}
	ir = make([]float64, 0, n)
	red = make([]float64, 0, n)
	for len(ir) < n {
		i, r, err := d.IRRedBatch(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("max30102: could not record: %w", err)
		}
		ir = append(ir, i...)
		red = append(red, r...)
	}

	return ir[:n], red[:n], nil
}

func (d *Device) drain() error {
	n, err := d.available()
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if _, err := d.ReadBytes(FIFOData, sampleSize); err != nil {
			return err
		}
	}
	return nil
}

// Calibrate raises the current of each LED in 0.5mA steps until the mean
// reading reaches 0.4 or the current reaches 5mA. It returns the selected
// currents.
func (d *Device) Calibrate(ctx context.Context) (irAmp, redAmp float64, err error) {
	if _, err = d.Options(IRPulseAmp(0), RedPulseAmp(0)); err != nil {
		return 0, 0, fmt.Errorf("max30102: could not calibrate sensor: %w", err)
	}

	step := func(amp *float64, opt func(float64) Option, pick func(ir, red []float64) []float64) error {
		var values []float64
		for mean(values) < 0.4 && *amp < 5 {
			*amp += 0.5
			if _, err := d.Options(opt(*amp)); err != nil {
				return err
			}
			if err := d.drain(); err != nil {
				return err
			}
			ir, red, err := d.IRRedBatch(ctx)
			if err != nil {
				return err
			}
			values = pick(ir, red)
		}
		return nil
	}

	if err := step(&irAmp, IRPulseAmp, func(ir, _ []float64) []float64 { return ir }); err != nil {
		return 0, 0, fmt.Errorf("max30102: could not calibrate IR LED: %w", err)
	}
	if err := step(&redAmp, RedPulseAmp, func(_, red []float64) []float64 { return red }); err != nil {
		return 0, 0, fmt.Errorf("max30102: could not calibrate red LED: %w", err)
	}

	return irAmp, redAmp, nil
}

func mean(a []float64) float64 {
	if len(a) == 0 {
		return 0
	}

	r := 0.0
	for _, v := range a {
		r += v
	}

	return r / float64(len(a))
}

// Shutdown sets the device into power-save mode.
func (d *Device) Shutdown() error {
	_, err := d.config(ModeCfg, ^modeSHDN, modeSHDN)

	return err
}

// Startup wakes the device from power-save mode.
func (d *Device) Startup() error {
	_, err := d.config(ModeCfg, ^modeSHDN, 0)

	return err
}
