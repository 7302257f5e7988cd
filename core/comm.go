package core

import (
	"sync/atomic"

	"hexcore/protocol"
)

// FrameHandler consumes one received frame. It writes any reply into tx
// and returns its length (0 for no reply). valid reports whether the
// frame passed validation and counts as link activity.
type FrameHandler interface {
	HandleFrame(rx, tx []byte) (replyLen int, valid bool)
}

// ReplySentHandler is implemented by handlers that need to act once their
// reply has left the wire
type ReplySentHandler interface {
	ReplySent()
}

// LinkWatcher is told the link health on every poll
type LinkWatcher interface {
	LinkLost()
	LinkRestored()
}

// LinkConfig configures a FrameLink
type LinkConfig struct {
	Name string
	ID   uint8 // OID in the timing ring

	// TimeoutMS is the rolling communication timeout
	TimeoutMS uint32

	// LostAtStart reports the link lost until the first valid frame. When
	// false the timeout grace period starts at the first poll.
	LostAtStart bool
}

// LinkStats are the counted link events
type LinkStats struct {
	Frames   uint32 // valid frames
	Drops    uint32 // frames rejected by the handler
	RxErrors uint32 // receiver errors
	TxErrors uint32 // transmit errors
	Timeouts uint32 // transitions into the lost state
}

// FrameLink runs one physical link: the driver ISR callbacks feed the
// protocol.Link state machine, Poll consumes frames from the foreground and
// supervises the communication timeout.
type FrameLink struct {
	cfg     LinkConfig
	drv     SerialDriver
	handler FrameHandler
	clock   Clock
	watch   LinkWatcher

	link protocol.Link
	tx   [protocol.FrameMax]byte
	txN  int

	// Foreground only
	polled    bool
	seen      bool
	lost      bool
	lastFrame uint32

	replySent atomic.Bool

	frames   atomic.Uint32
	drops    atomic.Uint32
	rxErrors atomic.Uint32
	txErrors atomic.Uint32
	timeouts atomic.Uint32
}

// NewFrameLink creates a link in the NotInitialized state. handler and
// watch may be nil.
func NewFrameLink(cfg LinkConfig, drv SerialDriver, handler FrameHandler, clock Clock, watch LinkWatcher) *FrameLink {
	if clock == nil {
		clock = SystemClock{}
	}
	return &FrameLink{
		cfg:     cfg,
		drv:     drv,
		handler: handler,
		clock:   clock,
		watch:   watch,
	}
}

// Name returns the configured link name
func (l *FrameLink) Name() string {
	return l.cfg.Name
}

// State returns the link state
func (l *FrameLink) State() protocol.LinkState {
	return l.link.State()
}

// StartReceive arms the receiver. From FrameReceived it releases the
// pending frame without a reply.
func (l *FrameLink) StartReceive() {
	l.apply(l.link.HandleEvent(protocol.Event{Type: protocol.EventStart}))
}

// Buffer returns the received frame, or nil unless a frame is pending
func (l *FrameLink) Buffer() []byte {
	n, ok := l.link.Received()
	if !ok {
		return nil
	}
	return l.rxView(n)
}

// Send transmits data as the reply to the pending frame. It returns false
// when no frame is pending or data does not fit a frame.
func (l *FrameLink) Send(data []byte) bool {
	if len(data) == 0 || len(data) > len(l.tx) {
		return false
	}
	if _, ok := l.link.Received(); !ok {
		return false
	}
	l.txN = copy(l.tx[:], data)
	l.apply(l.link.HandleEvent(protocol.Event{Type: protocol.EventTransmit}))
	return true
}

// OnFrame is called from the receive ISR after the inter-character timeout
func (l *FrameLink) OnFrame(n uint32) {
	l.apply(l.link.HandleEvent(protocol.Event{Type: protocol.EventFrameComplete, Size: n}))
}

// OnError is called from the receive ISR on a line error
func (l *FrameLink) OnError() {
	l.apply(l.link.HandleEvent(protocol.Event{Type: protocol.EventRxError}))
}

// OnTransmitComplete is called when the reply has been sent
func (l *FrameLink) OnTransmitComplete() {
	if l.link.State() == protocol.StateTransmitting {
		l.replySent.Store(true)
	}
	l.apply(l.link.HandleEvent(protocol.Event{Type: protocol.EventTxComplete}))
}

// OnTransmitError is called when the reply could not be sent
func (l *FrameLink) OnTransmitError() {
	if l.link.State() == protocol.StateTransmitting {
		l.txErrors.Add(1)
	}
	l.apply(l.link.HandleEvent(protocol.Event{Type: protocol.EventTxError}))
}

// Poll handles a pending frame and then supervises the timeout. Call it
// from the main loop only.
func (l *FrameLink) Poll() {
	now := l.clock.Millis()
	if !l.polled {
		l.polled = true
		l.lastFrame = now
	}

	if l.replySent.Swap(false) {
		if h, ok := l.handler.(ReplySentHandler); ok {
			h.ReplySent()
		}
	}

	if n, ok := l.link.Received(); ok && l.handler != nil {
		replyLen, valid := l.handler.HandleFrame(l.rxView(n), l.tx[:])
		if valid {
			l.frames.Add(1)
			l.seen = true
			l.lastFrame = now
			RecordTiming(EvtFrameRx, l.cfg.ID, GetTime(), n, uint32(replyLen))
		} else {
			l.drops.Add(1)
			RecordTiming(EvtFrameDrop, l.cfg.ID, GetTime(), n, 0)
		}

		if replyLen > 0 {
			l.txN = min(replyLen, len(l.tx))
			l.apply(l.link.HandleEvent(protocol.Event{Type: protocol.EventTransmit}))
		} else {
			l.apply(l.link.HandleEvent(protocol.Event{Type: protocol.EventConsumed}))
		}
	}

	l.supervise(now)
}

// Lost reports the result of the last timeout check
func (l *FrameLink) Lost() bool {
	return l.lost
}

// Stats returns the link counters
func (l *FrameLink) Stats() LinkStats {
	return LinkStats{
		Frames:   l.frames.Load(),
		Drops:    l.drops.Load(),
		RxErrors: l.rxErrors.Load(),
		TxErrors: l.txErrors.Load(),
		Timeouts: l.timeouts.Load(),
	}
}

func (l *FrameLink) supervise(now uint32) {
	lost := elapsed(now, l.lastFrame) > l.cfg.TimeoutMS || (l.cfg.LostAtStart && !l.seen)
	if lost && !l.lost {
		l.timeouts.Add(1)
		RecordTiming(EvtLinkTimeout, l.cfg.ID, GetTime(), elapsed(now, l.lastFrame), 0)
		DebugAsync("link " + l.cfg.Name + " lost")
	} else if !lost && l.lost {
		DebugAsync("link " + l.cfg.Name + " restored")
	}
	l.lost = lost

	if l.watch == nil {
		return
	}
	if lost {
		l.watch.LinkLost()
	} else {
		l.watch.LinkRestored()
	}
}

// apply performs the driver side of a transition
func (l *FrameLink) apply(a protocol.Action) {
	switch a {
	case protocol.ActionArmReceiveAndReportError:
		l.rxErrors.Add(1)
		RecordTiming(EvtLinkError, l.cfg.ID, GetTime(), 0, 0)
		fallthrough
	case protocol.ActionArmReceive:
		if err := l.drv.StartAsyncReceive(); err != nil {
			l.rxErrors.Add(1)
			DebugAsync("link " + l.cfg.Name + " arm: " + err.Error())
		}
	case protocol.ActionStartTransmit:
		if err := l.drv.StartAsyncTransmit(l.tx[:l.txN]); err != nil {
			l.OnTransmitError()
		}
	}
}

func (l *FrameLink) rxView(n uint32) []byte {
	buf := l.drv.RxBuffer()
	if int(n) > len(buf) {
		n = uint32(len(buf))
	}
	return buf[:n]
}
