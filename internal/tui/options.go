package tui

import (
	"github.com/atotto/clipboard"

	"github.com/evanschultz/leadboard/internal/app"
)

// KeyConfig remaps configurable board keys. Blank fields keep defaults.
type KeyConfig struct {
	NewCard  string
	EditCard string
	Grab     string
	Copy     string
	Reload   string
}

type Option func(*Model)

// ClipboardFunc writes text to the system clipboard.
type ClipboardFunc func(string) error

func WithDefaultDeleteMode(mode app.DeleteMode) Option {
	return func(m *Model) {
		switch mode {
		case app.DeleteModeArchive, app.DeleteModeHard:
			m.defaultDeleteMode = mode
		}
	}
}

func WithKeyConfig(cfg KeyConfig) Option {
	return func(m *Model) {
		m.keys.applyConfig(cfg)
	}
}

// WithCardWidth caps the lane width of both boards.
func WithCardWidth(cells int) Option {
	return func(m *Model) {
		m.leads.SetMaxLaneWidth(cells)
		m.tasks.SetMaxLaneWidth(cells)
	}
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write ClipboardFunc) Option {
	return func(m *Model) {
		if write != nil {
			m.copyText = write
		}
	}
}

func systemClipboard(text string) error {
	return clipboard.WriteAll(text)
}
