package core

import (
	"errors"
	"sync"

	"hexcore/protocol"
)

var ErrUnknownCommand = errors.New("unknown command")

// CommandHandler executes a decoded request
type CommandHandler func(req protocol.Request) error

// Command is a registered request handler
type Command struct {
	Code    protocol.Command
	Handler CommandHandler

	// AfterReply, when set, runs once the reply to this command was sent
	AfterReply func()
}

// CommandRegistry maps command codes to handlers
type CommandRegistry struct {
	mu       sync.RWMutex
	commands map[protocol.Command]*Command
}

// NewCommandRegistry creates an empty registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[protocol.Command]*Command),
	}
}

// Register adds or replaces the handler of a command
func (r *CommandRegistry) Register(code protocol.Command, handler CommandHandler) *Command {
	r.mu.Lock()
	defer r.mu.Unlock()

	cmd := &Command{Code: code, Handler: handler}
	r.commands[code] = cmd
	return cmd
}

// Lookup retrieves a command by code
func (r *CommandRegistry) Lookup(code protocol.Command) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[code]
	return cmd, ok
}

// Count returns the number of registered commands
func (r *CommandRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Dispatch calls the handler of req.Command
func (r *CommandRegistry) Dispatch(req protocol.Request) error {
	cmd, ok := r.Lookup(req.Command)
	if !ok {
		return ErrUnknownCommand
	}
	if cmd.Handler == nil {
		return nil
	}
	return cmd.Handler(req)
}

// Codes returns the registered codes in ascending order
func (r *CommandRegistry) Codes() []protocol.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codes := make([]protocol.Command, 0, len(r.commands))
	for _, c := range protocol.Commands() {
		if _, ok := r.commands[c]; ok {
			codes = append(codes, c)
		}
	}
	return codes
}
