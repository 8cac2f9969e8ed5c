package ui

import "github.com/charmbracelet/bubbles/key"

// keymap defines the global key bindings of the console.
type keymap struct {
	send  key.Binding
	clear key.Binding
	quit  key.Binding
}

func newKeymap() keymap {
	return keymap{
		send:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "ask")),
		clear: key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear")),
		quit:  key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
	}
}

var defaultKeymap = newKeymap()

func (k keymap) help() string {
	parts := []key.Binding{k.send, k.clear, k.quit}
	out := ""

	for i, binding := range parts {
		if i > 0 {
			out += " • "
		}

		out += binding.Help().Key + " " + binding.Help().Desc
	}

	return out
}
