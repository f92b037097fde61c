package main

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Prev           key.Binding
	Next           key.Binding
	Start          key.Binding
	End            key.Binding
	MoreAmplitudes key.Binding
	LessAmplitudes key.Binding
	WiderGroups    key.Binding
	NarrowerGroups key.Binding
	Write          key.Binding
	Verify         key.Binding
	Focus          key.Binding
	Help           key.Binding
	Quit           key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Prev:           key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "step back")),
		Next:           key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "step")),
		Start:          key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "first")),
		End:            key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "last")),
		MoreAmplitudes: key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "amplitude budget")),
		LessAmplitudes: key.NewBinding(key.WithKeys("-")),
		WiderGroups:    key.NewBinding(key.WithKeys("]"), key.WithHelp("[/]", "group size budget")),
		NarrowerGroups: key.NewBinding(key.WithKeys("[")),
		Write:          key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "write .opt.qasm")),
		Verify:         key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "verify")),
		Focus:          key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch panel")),
		Help:           key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:           key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.Write, k.Verify, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Prev, k.Next, k.Start, k.End},
		{k.MoreAmplitudes, k.WiderGroups},
		{k.Write, k.Verify, k.Focus},
		{k.Help, k.Quit},
	}
}
