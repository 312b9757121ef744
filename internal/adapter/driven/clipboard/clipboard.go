// Package clipboard implements the Clipboard port on the host's system
// clipboard.
package clipboard

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"

	"github.com/ericfisherdev/vaultpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Clipboard = (*System)(nil)

// ErrUnsupported is returned when no clipboard utility is available, as on
// headless servers without xclip, xsel or wl-clipboard.
var ErrUnsupported = errors.New("system clipboard is not available")

// System writes to the clipboard of the machine vaultpanel runs on. The panel
// is served on loopback, so that is also the browser's machine.
type System struct {
	write       func(string) error
	unsupported bool
}

// NewSystem creates a System clipboard.
func NewSystem() *System {
	return &System{write: clipboard.WriteAll, unsupported: clipboard.Unsupported}
}

// Available reports whether a clipboard utility was found.
func (s *System) Available() bool {
	return !s.unsupported
}

// WriteText implements driven.Clipboard.
func (s *System) WriteText(text string) error {
	if s.unsupported {
		return ErrUnsupported
	}
	if err := s.write(text); err != nil {
		return fmt.Errorf("writing clipboard: %w", err)
	}
	return nil
}
