package console

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/schollz/progressbar/v3"
)

// Console prints user-facing progress. Spinners are only drawn when enabled.
type Console struct {
	out      io.Writer
	spinners bool

	info    func(a ...interface{}) string
	success func(a ...interface{}) string
	warning func(a ...interface{}) string
	problem *color.Color
}

func New(out io.Writer, spinners bool) *Console {
	return &Console{
		out:      out,
		spinners: spinners,
		info:     color.New(color.FgCyan).SprintFunc(),
		success:  color.New(color.FgGreen).SprintFunc(),
		warning:  color.New(color.FgYellow).SprintFunc(),
		problem:  color.New(color.FgRed),
	}
}

func (c *Console) Writer() io.Writer {
	return c.out
}

func (c *Console) Println(a ...interface{}) {
	fmt.Fprintln(c.out, a...)
}

func (c *Console) Printf(format string, a ...interface{}) {
	fmt.Fprintf(c.out, format, a...)
}

func (c *Console) Info(format string, a ...interface{}) {
	fmt.Fprintf(c.out, "%s %s\n", c.info("INFO:"), fmt.Sprintf(format, a...))
}

func (c *Console) Success(format string, a ...interface{}) {
	fmt.Fprintf(c.out, "%s %s\n", c.success("SUCCESS:"), fmt.Sprintf(format, a...))
}

func (c *Console) Warn(format string, a ...interface{}) {
	fmt.Fprintf(c.out, "%s %s\n", c.warning("WARN:"), fmt.Sprintf(format, a...))
}

// Problem reports a failed run.
func (c *Console) Problem(err error) {
	c.problem.Fprintf(c.out, "\nProblem! :) %v\n", err)
}

// Spin shows an indeterminate spinner until the returned func is called.
func (c *Console) Spin(description string) func() {
	if !c.spinners {
		return func() {}
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionClearOnFinish(),
	)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
			_ = bar.Finish()
		})
	}
}

// Table renders rows with the first row as header.
func (c *Console) Table(rows [][]string) error {
	table, err := pterm.DefaultTable.WithHasHeader(true).WithData(rows).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, table)
	return nil
}
