package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	arg "github.com/alexflint/go-arg"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/ygunayer/bookcart/internal/book"
	"github.com/ygunayer/bookcart/internal/browser"
	"github.com/ygunayer/bookcart/internal/checkout"
	"github.com/ygunayer/bookcart/internal/console"
	"github.com/ygunayer/bookcart/internal/journey"
	"github.com/ztrue/tracerr"
)

type Args struct {
	ChromePath  string        `arg:"--chrome-path,env:BOOKCART_CHROME_PATH" help:"(Optional) Browser executable for the checkout window. Defaults to the usual Chrome location for this platform"`
	AwardsUrl   string        `arg:"--awards-url" help:"(Optional) Awards page listing the genres" default:"https://www.goodreads.com/choiceawards/best-books-2020"`
	RetailerUrl string        `arg:"--retailer-url" help:"(Optional) Retailer home page" default:"https://www.amazon.com"`
	Width       int           `arg:"--width" help:"(Optional) Checkout window width" default:"1000"`
	Height      int           `arg:"--height" help:"(Optional) Checkout window height" default:"800"`
	Timeout     time.Duration `arg:"--timeout" help:"(Optional) Time limit for each automated step, e.g. 2m. No limit by default"`
	ShowScraper bool          `arg:"--show-scraper" help:"(Optional) Show the scraping browser instead of running it headless"`
	NoStealth   bool          `arg:"--no-stealth" help:"(Optional) Do not hide automation fingerprints from the sites"`
	TerminalUI  bool          `arg:"-t, --termui" help:"(Optional) Pick the genre from a terminal menu instead of typing it"`
	Detach      bool          `arg:"--detach" help:"(Optional) Exit right after the checkout window opens"`
	Trace       bool          `arg:"--trace" help:"(Optional) Print a stack trace with source when the run fails"`
	Verbose     bool          `arg:"-v, --verbose" help:"(Optional) Show browser protocol logs"`
}

func (Args) Description() string {
	return "Picks a random award-nominated book from a genre of your choice and opens it in a retailer cart"
}

func mainWithErrors(args *Args) error {
	// resolve the checkout browser before touching any site
	execPath, err := browser.ResolveExecPath(args.ChromePath)
	if err != nil {
		return tracerr.Wrap(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	con := console.New(os.Stdout, !color.NoColor)

	selectGenre := journey.LineSelector(os.Stdin, os.Stdout)
	if args.TerminalUI {
		selectGenre = runGenrePicker
	}

	cfg := journey.Config{
		Source:      book.NewSource(args.AwardsUrl),
		Retailer:    checkout.NewRetailer(args.RetailerUrl, con.Warn),
		Select:      selectGenre,
		Scraper:     launcher(scraperOptions(args)),
		Display:     launcher(displayOptions(args, execPath)),
		Console:     con,
		StepTimeout: args.Timeout,
	}

	start := time.Now()
	res, err := journey.Run(ctx, cfg)
	if err != nil {
		return tracerr.Wrap(err)
	}

	if err := con.Table(summaryRows(res)); err != nil {
		return tracerr.Wrap(err)
	}
	con.Success("Checkout window ready in %s", formatDuration(time.Since(start)))

	if args.Detach {
		return nil
	}

	con.Info("Finish your purchase in the browser window, close it to exit")
	if err := res.Window.Wait(ctx); err != nil && ctx.Err() == nil {
		return tracerr.Wrap(err)
	}
	return nil
}

func scraperOptions(args *Args) browser.Options {
	return browser.Options{
		Headless: !args.ShowScraper,
		Width:    1920,
		Height:   1080,
		Stealth:  !args.NoStealth,
		Verbose:  args.Verbose,
	}
}

// displayOptions describe the window the user finishes the purchase in. It is a
// plain browser, without the fingerprint masking used while scraping.
func displayOptions(args *Args, execPath string) browser.Options {
	return browser.Options{
		ExecPath: execPath,
		Width:    args.Width,
		Height:   args.Height,
		Verbose:  args.Verbose,
	}
}

func launcher(opts browser.Options) browser.Launcher {
	return func(ctx context.Context) (browser.Window, error) {
		return browser.Launch(ctx, opts)
	}
}

func summaryRows(res *journey.Result) [][]string {
	edition := res.Session.Edition
	if edition == "" {
		edition = "not found, product page shown"
	}
	return [][]string{
		{"Genre", "Title", "Author", "Edition", "In cart", "Url", "Cookies"},
		{
			res.Genre.Name,
			res.Book.Title,
			res.Book.Author,
			edition,
			strconv.FormatBool(res.Session.AddedToCart),
			res.Session.Url,
			strconv.Itoa(len(res.Session.Cookies)),
		},
	}
}

// formatDuration formats time.Duration to a human-readable string (HH:MM:SS)
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

func main() {
	// a missing .env is fine, flags and the environment still apply
	_ = godotenv.Load()

	var args Args
	arg.MustParse(&args)

	if err := mainWithErrors(&args); err != nil {
		console.New(os.Stderr, false).Problem(err)
		if args.Trace {
			tracerr.PrintSourceColor(err)
		}
		os.Exit(1)
	}
}
