// Package link runs the host side of the board request/response link
package link

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"hexcore/protocol"
)

var (
	ErrLinkClosed   = errors.New("link closed")
	ErrReplyTimeout = errors.New("reply timeout")
)

// HostLink is the host side of a request/response link. It sends request
// frames and matches the replies the board echoes back.
type HostLink struct {
	port   io.ReadWriteCloser
	layout protocol.Layout

	frameNumber uint32 // atomic uint16 stored as uint32

	inputBuffer *protocol.FifoBuffer
	replyChan   chan []byte

	writeMutex sync.Mutex

	// Statistics
	sent    atomic.Uint32
	replies atomic.Uint32
	dropped atomic.Uint32

	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once
}

// Reply is a decoded response frame
type Reply struct {
	FrameNumber uint16
	Response    protocol.Response
}

// NewHostLink starts a link over port using the given frame layout
func NewHostLink(port io.ReadWriteCloser, layout protocol.Layout) *HostLink {
	l := &HostLink{
		port:        port,
		layout:      layout,
		inputBuffer: protocol.NewFifoBuffer(512),
		replyChan:   make(chan []byte, 8),
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
	}

	go l.readLoop()

	return l
}

// Exchange sends cmd and waits for the matching reply
func (l *HostLink) Exchange(cmd protocol.Command, timeout time.Duration) (*Reply, error) {
	number := uint16(atomic.AddUint32(&l.frameNumber, 1))

	frame, err := l.buildRequest(number, cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	l.drainReplies()

	if err := l.writeFrame(frame); err != nil {
		return nil, fmt.Errorf("failed to write request: %w", err)
	}
	l.sent.Add(1)
	glog.V(2).Infof("TX %s frame=%d cmd=%s", l.layout.Name, number, cmd)

	deadline := time.After(timeout)
	for {
		select {
		case raw := <-l.replyChan:
			reply := l.decodeReply(raw)
			if !l.matches(reply, number, cmd) {
				glog.V(2).Infof("RX stale frame=%d cmd=%s", reply.FrameNumber, reply.Response.Command)
				continue
			}
			l.replies.Add(1)
			return reply, nil

		case <-deadline:
			return nil, fmt.Errorf("%w after %v (cmd=%s)", ErrReplyTimeout, timeout, cmd)

		case <-l.stopChan:
			return nil, ErrLinkClosed
		}
	}
}

// Send transmits a request without waiting for a reply
func (l *HostLink) Send(cmd protocol.Command) error {
	number := uint16(atomic.AddUint32(&l.frameNumber, 1))
	frame, err := l.buildRequest(number, cmd)
	if err != nil {
		return err
	}
	if err := l.writeFrame(frame); err != nil {
		return err
	}
	l.sent.Add(1)
	return nil
}

func (l *HostLink) matches(reply *Reply, number uint16, cmd protocol.Command) bool {
	if l.layout.HasFrameNumber {
		return reply.FrameNumber == number
	}
	return reply.Response.Command == cmd
}

func (l *HostLink) buildRequest(number uint16, cmd protocol.Command) ([]byte, error) {
	payload := make([]byte, l.layout.PayloadSize)
	protocol.MarshalRequest(payload, protocol.Request{Command: cmd})
	return l.layout.Encode(make([]byte, l.layout.Size()), number, payload)
}

func (l *HostLink) decodeReply(frame []byte) *Reply {
	return &Reply{
		FrameNumber: l.layout.FrameNumber(frame),
		Response:    protocol.UnmarshalResponse(l.layout.Payload(frame)),
	}
}

// writeFrame sends a frame to the port
func (l *HostLink) writeFrame(frame []byte) error {
	l.writeMutex.Lock()
	defer l.writeMutex.Unlock()

	n, err := l.port.Write(frame)
	if err != nil {
		return err
	}
	if n != len(frame) {
		return fmt.Errorf("incomplete write: %d/%d bytes", n, len(frame))
	}
	return nil
}

func (l *HostLink) drainReplies() {
	for {
		select {
		case <-l.replyChan:
		default:
			return
		}
	}
}

// readLoop continuously reads from the port and extracts frames
func (l *HostLink) readLoop() {
	defer close(l.doneChan)

	buffer := make([]byte, 256)

	for {
		select {
		case <-l.stopChan:
			return
		default:
		}

		n, err := l.port.Read(buffer)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return
			}
			glog.Warningf("read error: %v", err)
			time.Sleep(10 * time.Millisecond)
			continue
		}

		if n > 0 {
			l.inputBuffer.Write(buffer[:n])
			l.processFrames()
		}
	}
}

// processFrames scans the input for the start mark and validates full frames.
// On a bad frame only the first byte is skipped so a real frame that
// starts inside the garbage is still found.
func (l *HostLink) processFrames() {
	size := l.layout.Size()
	frame := make([]byte, size)
	var mark [protocol.StartMarkSize]byte
	binary.LittleEndian.PutUint32(mark[:], l.layout.StartMark)

	for l.inputBuffer.Available() >= size {
		l.inputBuffer.Peek(frame)

		if frame[0] != mark[0] || frame[1] != mark[1] || frame[2] != mark[2] || frame[3] != mark[3] {
			l.inputBuffer.Pop(1)
			continue
		}
		if err := l.layout.Validate(frame); err != nil {
			glog.V(2).Infof("RX drop: %v", err)
			l.dropped.Add(1)
			l.inputBuffer.Pop(1)
			continue
		}
		l.inputBuffer.Pop(size)

		out := make([]byte, size)
		copy(out, frame)
		select {
		case l.replyChan <- out:
		default:
			// Reply channel full, drop oldest
			select {
			case <-l.replyChan:
			default:
			}
			l.replyChan <- out
		}
	}
}

// Stats returns sent requests, matched replies and dropped frames
func (l *HostLink) Stats() (sent, replies, dropped uint32) {
	return l.sent.Load(), l.replies.Load(), l.dropped.Load()
}

// Close stops the link and closes the port
func (l *HostLink) Close() error {
	var err error
	l.stopOnce.Do(func() {
		close(l.stopChan)
		if l.port != nil {
			err = l.port.Close()
		}
		<-l.doneChan // Wait for read loop to finish
	})
	return err
}
