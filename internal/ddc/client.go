package ddc

import (
	"fmt"
	"time"
)

const (
	// MinSettle and MaxSettle bound the delay between a request and reading its reply.
	MinSettle = 40 * time.Millisecond
	MaxSettle = 50 * time.Millisecond
)

// Client issues VCP requests over a Transport. A Client is not safe for
// concurrent use; one bus carries one exchange at a time.
type Client struct {
	t      Transport
	settle time.Duration
	sleep  func(time.Duration)
}

// NewClient wraps t. settle is clamped into [MinSettle, MaxSettle].
func NewClient(t Transport, settle time.Duration) *Client {
	return &Client{
		t:      t,
		settle: ClampSettle(settle),
		sleep:  time.Sleep,
	}
}

// ClampSettle keeps d inside the window monitors need to prepare a reply.
func ClampSettle(d time.Duration) time.Duration {
	if d < MinSettle {
		return MinSettle
	}
	if d > MaxSettle {
		return MaxSettle
	}
	return d
}

// GetVCP reads the current and maximum value of a VCP feature.
func (c *Client) GetVCP(code byte) (Reply, error) {
	if _, err := c.t.Write(EncodeGetVCP(code)); err != nil {
		return Reply{}, fmt.Errorf("%w: write get vcp 0x%02X: %v", ErrTransport, code, err)
	}

	c.sleep(c.settle)

	buf := make([]byte, replyReadSize)
	n, err := c.t.Read(buf)
	if err != nil && n == 0 {
		return Reply{}, fmt.Errorf("%w: read vcp 0x%02X reply: %v", ErrTransport, code, err)
	}

	return DecodeGetVCPReply(buf[:n], code)
}

// SetVCP writes a raw VCP feature value.
func (c *Client) SetVCP(code byte, value uint16) error {
	if _, err := c.t.Write(EncodeSetVCP(code, value)); err != nil {
		return fmt.Errorf("%w: write set vcp 0x%02X: %v", ErrTransport, code, err)
	}
	c.sleep(c.settle)
	return nil
}
