package main

import "testing"

func TestCommandsAreWellFormed(t *testing.T) {
	t.Parallel()

	for name, cmd := range commands() {
		if cmd.name != name {
			t.Errorf("command %q: name field %q does not match map key", name, cmd.name)
		}
		if cmd.description == "" {
			t.Errorf("command %q: missing description", name)
		}
		if cmd.run == nil {
			t.Errorf("command %q: missing run function", name)
		}
	}
}
