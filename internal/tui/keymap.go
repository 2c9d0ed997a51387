package tui

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"charm.land/bubbles/v2/key"
)

// keyMap holds every binding the board understands.
type keyMap struct {
	quit       key.Binding
	reload     key.Binding
	toggleHelp key.Binding
	switchPage key.Binding
	moveLeft   key.Binding
	moveRight  key.Binding
	moveUp     key.Binding
	moveDown   key.Binding
	openCard   key.Binding
	grab       key.Binding
	cancel     key.Binding
	newCard    key.Binding
	editCard   key.Binding
	archive    key.Binding
	hardDelete key.Binding
	copyField  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		switchPage: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "leads/tasks")),
		moveLeft:   key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "column left")),
		moveRight:  key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "column right")),
		moveUp:     key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "card up")),
		moveDown:   key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "card down")),
		openCard:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open / drop")),
		grab:       key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "grab / drop")),
		cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel move")),
		newCard:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new card")),
		editCard:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit card")),
		archive:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete (default)")),
		hardDelete: key.NewBinding(key.WithKeys("D", "shift+d"), key.WithHelp("D", "hard delete")),
		copyField:  key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy email/title")),
	}
}

// applyConfig rebinds the configurable actions. Blank entries keep defaults.
func (k *keyMap) applyConfig(cfg KeyConfig) {
	configureBinding(&k.newCard, cfg.NewCard, "n", "new card")
	configureBinding(&k.editCard, cfg.EditCard, "e", "edit card")
	configureBinding(&k.grab, cfg.Grab, "space", "grab / drop")
	configureBinding(&k.copyField, cfg.Copy, "y", "copy email/title")
	configureBinding(&k.reload, cfg.Reload, "r", "reload")
}

// configureBinding replaces the keys and help text of b.
func configureBinding(b *key.Binding, raw, fallback, desc string) {
	keys, help := parseBindingKeys(raw, fallback)
	b.SetKeys(keys...)
	b.SetHelp(help, desc)
}

// parseBindingKeys turns a configured key name into matcher keys and help text.
func parseBindingKeys(raw, fallback string) ([]string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = fallback
	}
	if strings.EqualFold(raw, "space") || raw == " " {
		return []string{" ", "space"}, "space"
	}
	if utf8.RuneCountInString(raw) == 1 {
		r, _ := utf8.DecodeRuneInString(raw)
		if unicode.IsUpper(r) {
			return []string{raw, "shift+" + string(unicode.ToLower(r))}, raw
		}
		return []string{raw}, raw
	}
	return []string{strings.ToLower(raw)}, raw
}

// ShortHelp returns the bindings shown on the footer line.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.switchPage, k.openCard, k.grab, k.newCard, k.editCard, k.copyField, k.toggleHelp, k.quit,
	}
}

// FullHelp returns the grouped bindings for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.moveLeft, k.moveRight, k.moveUp, k.moveDown, k.switchPage},
		{k.openCard, k.grab, k.cancel},
		{k.newCard, k.editCard, k.archive, k.hardDelete, k.copyField},
		{k.reload, k.toggleHelp, k.quit},
	}
}
