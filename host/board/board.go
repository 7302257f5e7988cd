package board

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang/glog"

	"hexcore/host/link"
	"hexcore/host/serial"
	"hexcore/protocol"
)

var ErrNotConnected = errors.New("not connected to board")

// Board is a connection to the request/response link of a control board
type Board struct {
	conn   *link.HostLink
	port   io.ReadWriteCloser
	layout protocol.Layout

	// Timeout bounds the wait for each reply
	Timeout time.Duration

	// Retries is how many times a request is re-sent after a timeout
	Retries int
}

// New creates a board client (not yet connected)
func New(layout protocol.Layout) *Board {
	return &Board{
		layout:  layout,
		Timeout: 200 * time.Millisecond,
		Retries: 2,
	}
}

// Connect opens the serial device with the default wired link settings
func (b *Board) Connect(device string) error {
	return b.ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig opens the serial device with a custom config
func (b *Board) ConnectWithConfig(cfg *serial.Config) error {
	port, err := serial.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}
	if err := port.Flush(); err != nil {
		glog.Warningf("flush %s: %v", cfg.Device, err)
	}
	b.Attach(port)
	glog.Infof("connected to %s at %d baud (%s link)", cfg.Device, cfg.Baud, b.layout.Name)
	return nil
}

// Attach runs the client over an already open port
func (b *Board) Attach(port io.ReadWriteCloser) {
	b.port = port
	b.conn = link.NewHostLink(port, b.layout)
}

// Close closes the connection
func (b *Board) Close() error {
	if b.conn == nil {
		return nil
	}
	err := b.conn.Close()
	b.conn = nil
	return err
}

// Send sends cmd and waits for the reply, re-sending after a timeout.
// A reply with an error status is returned together with an error.
func (b *Board) Send(cmd protocol.Command) (*link.Reply, error) {
	if b.conn == nil {
		return nil, ErrNotConnected
	}

	var lastErr error
	for attempt := 0; attempt <= b.Retries; attempt++ {
		reply, err := b.conn.Exchange(cmd, b.Timeout)
		if err == nil {
			if reply.Response.CommandStatus != protocol.StatusOK {
				return reply, fmt.Errorf("command %s rejected by board", cmd)
			}
			return reply, nil
		}
		lastErr = err
		if !errors.Is(err, link.ErrReplyTimeout) {
			break
		}
		glog.V(1).Infof("%s: attempt %d timed out", cmd, attempt+1)
	}
	return nil, fmt.Errorf("send %s: %w", cmd, lastErr)
}

// Poll sends cmd every interval until ctx is done and reports each result.
// This is how a controller keeps the board's communication timeout alive.
func (b *Board) Poll(ctx context.Context, cmd protocol.Command, interval time.Duration, report func(*link.Reply, error)) error {
	if b.conn == nil {
		return ErrNotConnected
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		reply, err := b.conn.Exchange(cmd, b.Timeout)
		report(reply, err)
		if errors.Is(err, link.ErrLinkClosed) {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Stats returns sent requests, matched replies and dropped frames
func (b *Board) Stats() (sent, replies, dropped uint32) {
	if b.conn == nil {
		return 0, 0, 0
	}
	return b.conn.Stats()
}

// Status is a decoded view of the status fields of a response
type Status struct {
	Modules []string
	Errors  []string
}

var errorNames = []struct {
	bit  uint8
	name string
}{
	{0x01, "fatal"},
	{0x02, "internal"},
	{0x04, "voltage"},
	{0x08, "sync"},
	{0x10, "math"},
	{0x20, "i2c"},
	{0x40, "calibration"},
	{0x80, "conn_lost"},
}

var moduleNames = []struct {
	bit  uint8
	name string
}{
	{0x01, "motion_core"},
	{0x02, "servo_driver"},
	{0x04, "system_monitor"},
	{0x08, "display"},
	{0x10, "mpu6050"},
	{0x20, "pca9555"},
	{0x40, "sensor_feed"},
}

// DecodeStatus names the set error bits and the disabled modules
func DecodeStatus(r protocol.Response) Status {
	var s Status
	for _, e := range errorNames {
		if r.SystemStatus&e.bit != 0 {
			s.Errors = append(s.Errors, e.name)
		}
	}
	for _, m := range moduleNames {
		if r.ModuleStatus&m.bit != 0 {
			s.Modules = append(s.Modules, m.name)
		}
	}
	return s
}
