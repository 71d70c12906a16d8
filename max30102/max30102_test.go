package max30102

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"periph.io/x/periph/conn"
)

// fakeConn emulates the register file and FIFO of a MAX30102.
type fakeConn struct {
	regs [256]byte
	fifo [][]byte
}

func newFakeConn() *fakeConn {
	c := &fakeConn{}
	c.regs[RegPartID] = PartID
	c.regs[RegRevID] = 3
	return c
}

func (c *fakeConn) String() string      { return "fake" }
func (c *fakeConn) Duplex() conn.Duplex { return conn.Half }

func (c *fakeConn) Tx(w, r []byte) error {
	if len(w) == 0 {
		return errors.New("no register")
	}
	reg := w[0]

	if len(w) == 2 {
		v := w[1]
		switch reg {
		case ModeCfg:
			v &^= ResetControl
		case TempCfg:
			v &^= TempEna
		}
		c.regs[reg] = v
		return nil
	}

	switch reg {
	case FIFOData:
		if len(c.fifo) > 0 {
			copy(r, c.fifo[0])
			c.fifo = c.fifo[1:]
		}
	case FIFOWrPtr:
		r[0] = byte(len(c.fifo) % fifoDepth)
	case FIFORdPtr:
		r[0] = 0
	case IntStat1:
		r[0] = 0
		if len(c.fifo) > 0 {
			r[0] = AlmostFull
		}
	default:
		r[0] = c.regs[reg]
	}
	return nil
}

// push queues samples holding the raw 18-bit red and IR values.
func (c *fakeConn) push(red, ir int) {
	c.fifo = append(c.fifo, []byte{
		byte(red >> 16), byte(red >> 8), byte(red),
		byte(ir >> 16), byte(ir >> 8), byte(ir),
	})
}

func TestNewDevice(t *testing.T) {
	c := newFakeConn()
	c.push(1, 1) // stale sample, drained on start

	d, err := newDevice(context.Background(), c)
	if err != nil {
		t.Fatalf("newDevice: %v", err)
	}
	if len(c.fifo) != 0 {
		t.Fatalf("FIFO not drained: %d samples left", len(c.fifo))
	}
	if d.SampleRate() != 50 {
		t.Fatalf("sample rate %v, want 50", d.SampleRate())
	}
	if mode := c.regs[ModeCfg] &^ modeMask; mode != ModeSpO2 {
		t.Fatalf("mode %#b, want %#b", mode, ModeSpO2)
	}
	if amp := ledCurrent(2.8); c.regs[Led1PA] != amp || c.regs[Led2PA] != amp {
		t.Fatalf("LED amplitudes %d/%d, want %d", c.regs[Led1PA], c.regs[Led2PA], amp)
	}
	if pw := c.regs[SpO2Cfg] &^ pwMask; pw != PW411 {
		t.Fatalf("pulse width %#b, want %#b", pw, PW411)
	}

	rev, err := d.RevID()
	if err != nil || rev != 3 {
		t.Fatalf("RevID = %d, %v", rev, err)
	}
}

func TestNewDeviceWrongPart(t *testing.T) {
	c := newFakeConn()
	c.regs[RegPartID] = 0x11

	if _, err := newDevice(context.Background(), c); !errors.Is(err, ErrNotDevice) {
		t.Fatalf("expected ErrNotDevice, got %v", err)
	}
}

func TestRecord(t *testing.T) {
	c := newFakeConn()
	d, err := newDevice(context.Background(), c)
	if err != nil {
		t.Fatalf("newDevice: %v", err)
	}

	for i := 0; i < 64; i++ {
		c.push(i*1000, maxADC-i)
	}

	ir, red, err := d.Record(context.Background(), 40)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(ir) != 40 || len(red) != 40 {
		t.Fatalf("got %d/%d samples, want 40", len(ir), len(red))
	}
	for i := range ir {
		if want := float64(i*1000) / maxADC; math.Abs(red[i]-want) > 1e-12 {
			t.Fatalf("red[%d] = %v, want %v", i, red[i], want)
		}
		if want := float64(maxADC-i) / maxADC; math.Abs(ir[i]-want) > 1e-12 {
			t.Fatalf("ir[%d] = %v, want %v", i, ir[i], want)
		}
	}
}

func TestRecordNegative(t *testing.T) {
	d, err := newDevice(context.Background(), newFakeConn())
	if err != nil {
		t.Fatalf("newDevice: %v", err)
	}

	if _, _, err := d.Record(context.Background(), -1); !errors.Is(err, ErrSampleCount) {
		t.Fatalf("expected ErrSampleCount, got %v", err)
	}
}

func TestRecordCancel(t *testing.T) {
	d, err := newDevice(context.Background(), newFakeConn())
	if err != nil {
		t.Fatalf("newDevice: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, _, err := d.Record(ctx, 10); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestTemperature(t *testing.T) {
	c := newFakeConn()
	d, err := newDevice(context.Background(), c)
	if err != nil {
		t.Fatalf("newDevice: %v", err)
	}

	for _, tc := range []struct {
		integer, frac byte
		want          float64
	}{
		{25, 4, 25.25},
		{0xFF, 0, -1},
	} {
		c.regs[TempInt] = tc.integer
		c.regs[TempFrac] = tc.frac
		got, err := d.Temperature(context.Background())
		if err != nil {
			t.Fatalf("Temperature: %v", err)
		}
		if got != tc.want {
			t.Fatalf("Temperature = %v, want %v", got, tc.want)
		}
	}
}

func TestShutdownStartup(t *testing.T) {
	c := newFakeConn()
	d, err := newDevice(context.Background(), c)
	if err != nil {
		t.Fatalf("newDevice: %v", err)
	}

	if err := d.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if c.regs[ModeCfg]&modeSHDN == 0 {
		t.Fatalf("shutdown bit not set: %#b", c.regs[ModeCfg])
	}
	if err := d.Startup(); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	if c.regs[ModeCfg]&modeSHDN != 0 {
		t.Fatalf("shutdown bit still set: %#b", c.regs[ModeCfg])
	}
	if c.regs[ModeCfg]&^modeMask != ModeSpO2 {
		t.Fatalf("mode lost: %#b", c.regs[ModeCfg])
	}
}

func TestOptionsRestore(t *testing.T) {
	c := newFakeConn()
	d, err := newDevice(context.Background(), c)
	if err != nil {
		t.Fatalf("newDevice: %v", err)
	}

	old, err := d.Options(SampleRate(SR100))
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	if d.SampleRate() != 100 || c.regs[SpO2Cfg]&^srMask != SR100 {
		t.Fatalf("sample rate not applied: %v %#b", d.SampleRate(), c.regs[SpO2Cfg])
	}
	if _, err := d.Options(old); err != nil {
		t.Fatalf("Options: %v", err)
	}
	if d.SampleRate() != 50 || c.regs[SpO2Cfg]&^pwMask != PW411 {
		t.Fatalf("sample rate not restored: %v %#b", d.SampleRate(), c.regs[SpO2Cfg])
	}
}

func TestLEDCurrent(t *testing.T) {
	for _, tc := range []struct {
		mA   float64
		want byte
	}{
		{-1, 0},
		{0, 0},
		{10, 50},
		{51, 255},
		{60, 255},
	} {
		if got := ledCurrent(tc.mA); got != tc.want {
			t.Fatalf("ledCurrent(%v) = %d, want %d", tc.mA, got, tc.want)
		}
	}
}

func TestDecode(t *testing.T) {
	red, ir := decode([]byte{0xFF, 0xFF, 0xFF, 0x00, 0x00, 0x01})
	if red != 1 {
		t.Fatalf("red = %v, want 1", red)
	}
	if ir != 1.0/maxADC {
		t.Fatalf("ir = %v, want %v", ir, 1.0/maxADC)
	}
}

func TestPending(t *testing.T) {
	for _, tc := range []struct {
		wr, rd byte
		want   int
	}{
		{5, 3, 2},
		{1, 30, 3},
		{7, 7, 0},
	} {
		if got := pending(tc.wr, tc.rd); got != tc.want {
			t.Fatalf("pending(%d, %d) = %d, want %d", tc.wr, tc.rd, got, tc.want)
		}
	}
}

func TestSampleRateHz(t *testing.T) {
	if got := SampleRateHz(SR100 | PW411); got != 100 {
		t.Fatalf("SampleRateHz = %v, want 100", got)
	}
	if got := SampleRateHz(SR3200); got != 3200 {
		t.Fatalf("SampleRateHz = %v, want 3200", got)
	}
}
