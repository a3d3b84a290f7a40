package interactive

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	titleStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// console writes styled status lines.
type console struct {
	out   io.Writer
	color bool
}

func newConsole(out io.Writer) *console {
	f, ok := out.(*os.File)
	return &console{out: out, color: ok && term.IsTerminal(int(f.Fd()))}
}

func (c *console) line(style lipgloss.Style, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if c.color {
		msg = style.Render(msg)
	}
	fmt.Fprintln(c.out, msg)
}

func (c *console) Info(format string, args ...any) { c.line(infoStyle, format, args...) }
func (c *console) OK(format string, args ...any)   { c.line(okStyle, format, args...) }
func (c *console) Warn(format string, args ...any) { c.line(warnStyle, format, args...) }

// Summary prints the summary as rendered markdown. Falls back to the raw
// text if rendering fails.
func (c *console) Summary(summary string) {
	fmt.Fprintln(c.out)
	c.line(titleStyle, "Summary")

	style := "notty"
	if c.color {
		style = "dark"
		if !lipgloss.HasDarkBackground() {
			style = "light"
		}
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(100),
	)
	if err == nil {
		var out string
		if out, err = r.Render(summary); err == nil {
			fmt.Fprint(c.out, out)
			return
		}
	}
	fmt.Fprintln(c.out, strings.TrimSpace(summary))
}
