package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	quit  key.Binding
	sync  key.Binding
	force key.Binding
	drain key.Binding
	copy  key.Binding
}

var keys = keyMap{
	quit:  key.NewBinding(key.WithKeys("q", "ctrl+c")),
	sync:  key.NewBinding(key.WithKeys("s")),
	force: key.NewBinding(key.WithKeys("f")),
	drain: key.NewBinding(key.WithKeys("d")),
	copy:  key.NewBinding(key.WithKeys("c")),
}
