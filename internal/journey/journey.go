package journey

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ygunayer/bookcart/internal/book"
	"github.com/ygunayer/bookcart/internal/browser"
	"github.com/ygunayer/bookcart/internal/checkout"
	"github.com/ygunayer/bookcart/internal/console"
	"github.com/ztrue/tracerr"
)

// Selector asks the user to pick one of genres.
type Selector func(ctx context.Context, genres []book.Genre) (book.Genre, error)

// LineSelector prompts on out and reads answers from in. Cancelling ctx ends the
// prompt even while a read is blocked.
func LineSelector(in io.Reader, out io.Writer) Selector {
	return func(ctx context.Context, genres []book.Genre) (book.Genre, error) {
		type answer struct {
			genre book.Genre
			err   error
		}
		done := make(chan answer, 1)
		go func() {
			genre, err := book.SelectGenre(in, out, genres)
			done <- answer{genre, err}
		}()

		select {
		case a := <-done:
			return a.genre, a.err
		case <-ctx.Done():
			return book.Genre{}, tracerr.Wrap(ctx.Err())
		}
	}
}

type Config struct {
	Source   *book.Source
	Retailer *checkout.Retailer
	Select   Selector
	// Scraper starts the browser used for every automated step.
	Scraper browser.Launcher
	// Display starts the visible browser for the handoff.
	Display browser.Launcher
	Console *console.Console
	// StepTimeout bounds each automated step, zero means no bound.
	StepTimeout time.Duration
}

type Result struct {
	Genre   book.Genre
	Book    book.Book
	Session *checkout.Session
	Window  browser.Window
}

// Run drives the whole journey on a single scraping tab. The first failing step
// aborts the run and the scraping browser is always closed before returning.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	con := cfg.Console
	con.Println("\nHello! please stand by while we fetch some book genres")

	scraper, err := cfg.Scraper(ctx)
	if err != nil {
		return nil, tracerr.Wrap(fmt.Errorf("launch browser: %w", err))
	}
	defer scraper.Close()

	p := scraper.Page()
	result := &Result{}

	var genres []book.Genre
	err = step(ctx, cfg, "Fetching genres", func(ctx context.Context) error {
		var err error
		genres, err = cfg.Source.FetchGenres(ctx, p)
		return err
	})
	if err != nil {
		return nil, tracerr.Wrap(fmt.Errorf("fetch genres: %w", err))
	}

	result.Genre, err = cfg.Select(ctx, genres)
	if err != nil {
		return nil, tracerr.Wrap(fmt.Errorf("select genre: %w", err))
	}

	con.Println("\nNice! You selected: " + result.Genre.Name)
	con.Println("Fetching you a book...")

	err = step(ctx, cfg, "Picking a book", func(ctx context.Context) error {
		var err error
		result.Book, err = cfg.Source.FetchRandomBook(ctx, p, result.Genre)
		return err
	})
	if err != nil {
		return nil, tracerr.Wrap(fmt.Errorf("fetch random book: %w", err))
	}

	con.Println("\nYour book is: " + result.Book.Query())
	con.Println("Please hold")

	err = step(ctx, cfg, "Searching the retailer", func(ctx context.Context) error {
		var err error
		result.Session, err = cfg.Retailer.Navigate(ctx, p, result.Book)
		return err
	})
	if err != nil {
		return nil, tracerr.Wrap(fmt.Errorf("checkout: %w", err))
	}

	con.Println("\nAlmost done, enjoy your book!")

	// the handoff window outlives the run, so it does not get a step timeout
	result.Window, err = checkout.Handoff(ctx, cfg.Display, result.Session)
	if err != nil {
		return nil, tracerr.Wrap(fmt.Errorf("handoff: %w", err))
	}

	return result, nil
}

func step(ctx context.Context, cfg Config, description string, fn func(ctx context.Context) error) error {
	if cfg.StepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.StepTimeout)
		defer cancel()
	}

	stop := cfg.Console.Spin(description)
	defer stop()

	return fn(ctx)
}
