package console

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"
)

var (
	StyleGood = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	StyleBad  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	StyleWarn = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	StyleDim  = lipgloss.NewStyle().Faint(true)
)

const (
	eraseLine    = "\r\x1b[2K"
	fallbackCols = 120
)

// UI keeps a mutable status on the last terminal line while letting normal
// output scroll above it. SetStatus and Println are safe from multiple
// goroutines; each call leaves the status line intact below the scrollback.
type UI struct {
	mu     sync.Mutex
	out    io.Writer
	width  func() int
	status string
}

func NewUI(out io.Writer) *UI {
	return &UI{out: out, width: terminalWidth}
}

// NewUIWithWidth overrides terminal width probing, used in tests.
func NewUIWithWidth(out io.Writer, width func() int) *UI {
	return &UI{out: out, width: width}
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return fallbackCols
	}
	return w
}

// SetStatus replaces the status line.
func (u *UI) SetStatus(text string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.status = text
	u.render()
}

// Println prints a scrolling line above the status line.
func (u *UI) Println(line string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fmt.Fprint(u.out, eraseLine+line+"\n")
	u.render()
}

// Done clears the status so the shell prompt lands on a fresh line.
func (u *UI) Done() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.status = ""
	fmt.Fprint(u.out, eraseLine)
}

func (u *UI) render() {
	fmt.Fprint(u.out, eraseLine+u.fit(u.status))
}

// fit trims the status to the terminal width. Truncation is escape-aware so
// a styled status never wraps onto a second line.
func (u *UI) fit(s string) string {
	max := u.width() - 1
	if max < 1 {
		max = 1
	}
	return ansi.Truncate(s, max, "")
}
