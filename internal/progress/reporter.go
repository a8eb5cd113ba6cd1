package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// Reporter provides progress feedback while a workflow walks its entities.
type Reporter interface {
	Start(total int, description string)
	Increment(message string)
	Finish()
}

// NewReporter returns a TerminalReporter when stderr is an interactive
// terminal, or a LineReporter in CI and when output is redirected.
func NewReporter() Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" || !isTerminal(os.Stderr) {
		return &LineReporter{Out: os.Stderr}
	}
	return &TerminalReporter{}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// TerminalReporter displays a progress bar in the terminal.
type TerminalReporter struct {
	bar *progressbar.ProgressBar
}

func (r *TerminalReporter) Start(total int, description string) {
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *TerminalReporter) Increment(message string) {
	if r.bar != nil {
		_ = r.bar.Add(1)
	}
}

func (r *TerminalReporter) Finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}

// LineReporter prints one line per entity, suitable for CI logs.
type LineReporter struct {
	Out io.Writer

	mu      sync.Mutex
	total   int
	current int
}

func (r *LineReporter) Start(total int, description string) {
	r.total = total
	r.current = 0
	fmt.Fprintf(r.Out, "%s: %d to process\n", description, total)
}

func (r *LineReporter) Increment(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current++
	fmt.Fprintf(r.Out, "[%d/%d] %s\n", r.current, r.total, message)
}

func (r *LineReporter) Finish() {
	fmt.Fprintf(r.Out, "done (%d/%d)\n", r.current, r.total)
}

// Nop discards progress.
type Nop struct{}

func (Nop) Start(int, string) {}
func (Nop) Increment(string)  {}
func (Nop) Finish()           {}
