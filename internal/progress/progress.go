package progress

import (
	"fmt"
	"io"

	"github.com/docker/go-units"
	"github.com/fatih/color"
)

// Reporter receives byte-transfer updates during a download. It exists for
// interactive feedback only and never influences the outcome of a fetch.
type Reporter interface {
	// Start announces the expected total size in bytes, or a negative
	// value when the server did not provide one.
	Start(total int64)
	// Add records n more transferred bytes.
	Add(n int)
	// Done marks the transfer as finished.
	Done()
}

// Console renders
//
//	downloading: 1.2MB / 3.4MB
//
// on a single rewritten line.
type Console struct {
	out         io.Writer
	label       string
	total       int64
	transferred int64
}

var labelColor = color.New(color.FgCyan)

// NewConsole returns a console reporter writing to out.
func NewConsole(out io.Writer, label string) *Console {
	return &Console{out: out, label: label}
}

// Start implements Reporter.
func (c *Console) Start(total int64) {
	c.total = total
	c.transferred = 0
	c.render()
}

// Add implements Reporter.
func (c *Console) Add(n int) {
	c.transferred += int64(n)
	c.render()
}

// Done implements Reporter.
func (c *Console) Done() {
	c.render()
	_, _ = fmt.Fprintln(c.out)
}

func (c *Console) render() {
	transferred := units.HumanSize(float64(c.transferred))
	if c.total <= 0 {
		_, _ = fmt.Fprintf(c.out, "\r%s: %s", labelColor.Sprint(c.label), transferred)
		return
	}

	_, _ = fmt.Fprintf(c.out, "\r%s: %s / %s",
		labelColor.Sprint(c.label), transferred, units.HumanSize(float64(c.total)))
}

// Nop is a Reporter that discards all updates. Useful in tests and
// non-interactive runs.
type Nop struct{}

// Start implements Reporter.
func (Nop) Start(int64) {}

// Add implements Reporter.
func (Nop) Add(int) {}

// Done implements Reporter.
func (Nop) Done() {}
