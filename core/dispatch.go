package core

import "hexcore/protocol"

// StatusSource supplies the status and telemetry fields of responses
type StatusSource interface {
	Status() protocol.Response
}

// Dispatcher is the request/response FrameHandler. Invalid frames and
// unknown commands are dropped without a reply; a known command is answered
// with the echoed command and frame number plus the current status.
type Dispatcher struct {
	layout   protocol.Layout
	registry *CommandRegistry
	status   StatusSource

	afterReply func()
}

var _ FrameHandler = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher for one link layout
func NewDispatcher(layout protocol.Layout, registry *CommandRegistry, status StatusSource) *Dispatcher {
	return &Dispatcher{layout: layout, registry: registry, status: status}
}

// HandleFrame implements FrameHandler
func (d *Dispatcher) HandleFrame(rx, tx []byte) (int, bool) {
	if err := d.layout.Validate(rx); err != nil {
		return 0, false
	}

	req := protocol.UnmarshalRequest(d.layout.Payload(rx))
	cmd, ok := d.registry.Lookup(req.Command)
	if !ok {
		DebugAsync("dispatch: unknown command " + itoa(int(req.Command)))
		return 0, true
	}

	resp := d.status.Status()
	resp.Command = req.Command
	resp.CommandStatus = protocol.StatusOK
	if cmd.Handler != nil {
		if err := cmd.Handler(req); err != nil {
			resp.CommandStatus = protocol.StatusError
			DebugAsync("dispatch: " + req.Command.String() + ": " + err.Error())
		}
	}

	size := d.layout.Size()
	if len(tx) < size {
		return 0, true
	}
	frame := tx[:size]
	d.layout.SetFrameNumber(frame, d.layout.FrameNumber(rx))
	protocol.MarshalResponse(d.layout.Payload(frame), resp)
	d.layout.Seal(frame)

	d.afterReply = cmd.AfterReply
	return size, true
}

// ReplySent runs the deferred action of the last answered command
func (d *Dispatcher) ReplySent() {
	if fn := d.afterReply; fn != nil {
		d.afterReply = nil
		fn()
	}
}
