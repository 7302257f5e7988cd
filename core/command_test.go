package core

import (
	"errors"
	"testing"

	"hexcore/protocol"
)

func TestCommandRegistry(t *testing.T) {
	registry := NewCommandRegistry()

	// Register a command
	var called bool
	handler := func(req protocol.Request) error {
		called = true
		return nil
	}

	cmd := registry.Register(protocol.CmdUp, handler)
	if cmd.Code != protocol.CmdUp {
		t.Errorf("Expected code %v, got %v", protocol.CmdUp, cmd.Code)
	}

	// Verify command can be retrieved
	got, ok := registry.Lookup(protocol.CmdUp)
	if !ok {
		t.Fatal("Failed to retrieve registered command")
	}
	if got != cmd {
		t.Error("Lookup returned a different command")
	}

	// Test dispatch
	if err := registry.Dispatch(protocol.Request{Command: protocol.CmdUp}); err != nil {
		t.Errorf("Dispatch failed: %v", err)
	}
	if !called {
		t.Error("Command handler was not called")
	}

	// Test unknown command
	err := registry.Dispatch(protocol.Request{Command: protocol.Command(0x77)})
	if !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("Expected ErrUnknownCommand, got %v", err)
	}
}

func TestCommandRegistryMultiple(t *testing.T) {
	registry := NewCommandRegistry()

	registry.Register(protocol.CmdReset, nil)
	registry.Register(protocol.CmdDown, func(protocol.Request) error { return nil })
	registry.Register(protocol.CmdUp, func(protocol.Request) error { return nil })

	if registry.Count() != 3 {
		t.Errorf("Expected 3 commands, got %d", registry.Count())
	}

	codes := registry.Codes()
	want := []protocol.Command{protocol.CmdUp, protocol.CmdDown, protocol.CmdReset}
	if len(codes) != len(want) {
		t.Fatalf("Expected %d codes, got %d", len(want), len(codes))
	}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("Code %d: expected %v, got %v", i, want[i], codes[i])
		}
	}

	// A nil handler accepts the command
	if err := registry.Dispatch(protocol.Request{Command: protocol.CmdReset}); err != nil {
		t.Errorf("Dispatch of nil handler failed: %v", err)
	}
}

func TestCommandRegistryReplace(t *testing.T) {
	registry := NewCommandRegistry()

	errFirst := errors.New("first")
	registry.Register(protocol.CmdDance, func(protocol.Request) error { return errFirst })
	registry.Register(protocol.CmdDance, func(protocol.Request) error { return nil })

	if registry.Count() != 1 {
		t.Errorf("Expected 1 command after replace, got %d", registry.Count())
	}
	if err := registry.Dispatch(protocol.Request{Command: protocol.CmdDance}); err != nil {
		t.Errorf("Expected replaced handler, got %v", err)
	}
}
