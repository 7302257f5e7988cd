package protocol

import "sync/atomic"

// LinkState is the receive/transmit state of one physical link
type LinkState uint32

const (
	StateNotInitialized LinkState = iota
	StateWaitingForFrame
	StateFrameReceived
	StateTransmitting
)

func (s LinkState) String() string {
	switch s {
	case StateNotInitialized:
		return "not_initialized"
	case StateWaitingForFrame:
		return "waiting_for_frame"
	case StateFrameReceived:
		return "frame_received"
	case StateTransmitting:
		return "transmitting"
	}
	return "invalid"
}

// EventType identifies what happened on the link
type EventType uint8

const (
	EventStart         EventType = iota // foreground: begin receiving
	EventFrameComplete                  // ISR: inter-character timeout, Size bytes received
	EventRxError                        // ISR: framing/noise/overrun/parity error
	EventConsumed                       // foreground: frame handled, no reply
	EventTransmit                       // foreground: frame handled, reply ready
	EventTxComplete                     // ISR: reply fully sent
	EventTxError                        // ISR: transmit failed
)

// Event is an input to the link state machine
type Event struct {
	Type EventType
	Size uint32
}

// Action tells the driver adapter what to do after a transition
type Action uint8

const (
	ActionNone Action = iota
	ActionArmReceive
	ActionArmReceiveAndReportError
	ActionDeliver
	ActionStartTransmit
)

// Link holds the state cells shared between the receive ISR and the
// foreground. The ISR publishes size before state, the foreground reads
// state before size.
type Link struct {
	state atomic.Uint32
	size  atomic.Uint32
}

// State returns the current state
func (l *Link) State() LinkState {
	return LinkState(l.state.Load())
}

// Received returns the size of the pending frame and true when a frame is
// waiting for the foreground
func (l *Link) Received() (uint32, bool) {
	if l.State() != StateFrameReceived {
		return 0, false
	}
	return l.size.Load(), true
}

// HandleEvent applies one event and returns the action for the driver.
// Events that do not apply to the current state are ignored.
func (l *Link) HandleEvent(e Event) Action {
	switch l.State() {
	case StateNotInitialized:
		if e.Type == EventStart {
			l.state.Store(uint32(StateWaitingForFrame))
			return ActionArmReceive
		}

	case StateWaitingForFrame:
		switch e.Type {
		case EventFrameComplete:
			l.size.Store(e.Size)
			l.state.Store(uint32(StateFrameReceived))
			return ActionDeliver
		case EventRxError:
			l.size.Store(0)
			return ActionArmReceiveAndReportError
		case EventStart:
			return ActionArmReceive
		}

	case StateFrameReceived:
		switch e.Type {
		case EventConsumed, EventStart:
			l.size.Store(0)
			l.state.Store(uint32(StateWaitingForFrame))
			return ActionArmReceive
		case EventTransmit:
			l.size.Store(0)
			l.state.Store(uint32(StateTransmitting))
			return ActionStartTransmit
		}

	case StateTransmitting:
		switch e.Type {
		case EventTxComplete, EventTxError:
			l.state.Store(uint32(StateWaitingForFrame))
			return ActionArmReceive
		}
	}
	return ActionNone
}

// Reset returns the link to NotInitialized
func (l *Link) Reset() {
	l.size.Store(0)
	l.state.Store(uint32(StateNotInitialized))
}
