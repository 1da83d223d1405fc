package ui

import (
	"io"
	"os"
	"runtime"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	unicodeOnce sync.Once
	unicodeOK   bool

	noColorMu sync.RWMutex
	noColor   bool
)

// UnicodeTerminal reports whether stderr can render Unicode glyphs.
// It is false when output is piped, TERM is "dumb", or on Windows
// outside Windows Terminal.
func UnicodeTerminal() bool {
	unicodeOnce.Do(func() {
		if os.Getenv("TERM") == "dumb" {
			return
		}
		if !term.IsTerminal(int(os.Stderr.Fd())) {
			return
		}
		if runtime.GOOS == "windows" {
			unicodeOK = os.Getenv("WT_SESSION") != ""
			return
		}
		unicodeOK = true
	})
	return unicodeOK
}

// Icon returns unicode when the terminal supports it, ascii otherwise.
func Icon(unicode, ascii string) string {
	if UnicodeTerminal() {
		return unicode
	}
	return ascii
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// SetNoColor disables colored output globally. NO_COLOR in the
// environment has the same effect.
func SetNoColor(disable bool) {
	noColorMu.Lock()
	defer noColorMu.Unlock()
	noColor = disable
	if disable {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// IsNoColor reports whether color is disabled.
func IsNoColor() bool {
	noColorMu.RLock()
	defer noColorMu.RUnlock()
	return noColor || os.Getenv("NO_COLOR") != ""
}

// Renderer returns a lipgloss renderer for w that emits color only when
// w is a terminal and color is enabled.
func Renderer(w io.Writer) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	if IsNoColor() || !IsTerminal(w) {
		r.SetColorProfile(termenv.Ascii)
	}
	return r
}
