package ddc

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBus struct {
	written  [][]byte
	reply    []byte
	writeErr error
	readErr  error
	events   []string
}

func (f *fakeBus) Write(p []byte) (int, error) {
	f.events = append(f.events, "write")
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.written = append(f.written, append([]byte(nil), p...))
	return len(p), nil
}

func (f *fakeBus) Read(p []byte) (int, error) {
	f.events = append(f.events, "read")
	if f.readErr != nil {
		return 0, f.readErr
	}
	return copy(p, f.reply), nil
}

func newTestClient(bus *fakeBus) (*Client, *[]time.Duration) {
	var slept []time.Duration
	c := NewClient(bus, 0)
	c.sleep = func(d time.Duration) {
		bus.events = append(bus.events, "sleep")
		slept = append(slept, d)
	}
	return c, &slept
}

func TestClampSettle(t *testing.T) {
	assert.Equal(t, MinSettle, ClampSettle(0))
	assert.Equal(t, 45*time.Millisecond, ClampSettle(45*time.Millisecond))
	assert.Equal(t, MaxSettle, ClampSettle(time.Second))
}

func TestGetVCPWaitsBeforeReading(t *testing.T) {
	bus := &fakeBus{reply: reply(0, 100, 80)}
	c, slept := newTestClient(bus)

	r, err := c.GetVCP(VCPBrightness)
	require.NoError(t, err)
	assert.Equal(t, uint16(80), r.Current)
	assert.Equal(t, []string{"write", "sleep", "read"}, bus.events)
	assert.Equal(t, []time.Duration{MinSettle}, *slept)
	assert.Equal(t, EncodeGetVCP(VCPBrightness), bus.written[0])
}

func TestGetVCPTransportErrors(t *testing.T) {
	c, _ := newTestClient(&fakeBus{writeErr: errors.New("nack")})
	_, err := c.GetVCP(VCPBrightness)
	assert.ErrorIs(t, err, ErrTransport)

	c, _ = newTestClient(&fakeBus{readErr: errors.New("timeout")})
	_, err = c.GetVCP(VCPBrightness)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestGetVCPShortRead(t *testing.T) {
	c, _ := newTestClient(&fakeBus{reply: []byte{0x6E, 0x80}})
	_, err := c.GetVCP(VCPBrightness)
	assert.ErrorIs(t, err, ErrShortReply)
}

func TestSetVCP(t *testing.T) {
	bus := &fakeBus{}
	c, _ := newTestClient(bus)

	require.NoError(t, c.SetVCP(VCPBrightness, 42))
	require.Len(t, bus.written, 1)
	assert.Equal(t, EncodeSetVCP(VCPBrightness, 42), bus.written[0])

	bus.writeErr = errors.New("nack")
	assert.ErrorIs(t, c.SetVCP(VCPBrightness, 42), ErrTransport)
}
