package book

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ygunayer/bookcart/internal/browser"
	"github.com/ztrue/tracerr"
)

// FetchRandomBook opens the genre's poll page and reads one nominee picked at random.
func (s *Source) FetchRandomBook(ctx context.Context, p browser.Page, genre Genre) (Book, error) {
	if err := p.Navigate(ctx, genre.Url); err != nil {
		return Book{}, tracerr.Wrap(err)
	}

	// pointer clicks don't reach this overlay, so click from inside the page
	hasModal, err := p.Exists(ctx, modalCloseSelector)
	if err != nil {
		return Book{}, tracerr.Wrap(err)
	}
	if hasModal {
		if err := p.EvalClick(ctx, modalCloseSelector); err != nil {
			return Book{}, tracerr.Wrap(err)
		}
	}

	count, err := p.Count(ctx, pollAnswerSelector)
	if err != nil {
		return Book{}, tracerr.Wrap(err)
	}
	if count == 0 {
		return Book{}, tracerr.Wrap(fmt.Errorf("%w in %s", ErrNoCandidates, genre.Name))
	}

	pick := s.Pick
	if pick == nil {
		pick = RandomPicker()
	}
	index := pick(count)
	if index < 0 || index >= count {
		return Book{}, tracerr.Errorf("picker returned %d for %d candidates", index, count)
	}

	if err := p.Hover(ctx, pollAnswerSelector, index); err != nil {
		return Book{}, tracerr.Wrap(err)
	}

	tooltip, err := p.WaitWithin(ctx, pollAnswerSelector, index, tooltipSelector)
	if err != nil {
		return Book{}, tracerr.Wrap(err)
	}

	return ParseTooltip(tooltip)
}

// ParseTooltip reads the title and author links out of a book tooltip.
func ParseTooltip(html string) (Book, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Book{}, tracerr.Wrap(err)
	}

	b := Book{
		Title:  strings.TrimSpace(doc.Find(titleSelector).First().Text()),
		Author: strings.TrimSpace(doc.Find(authorSelector).First().Text()),
	}
	if b.Title == "" || b.Author == "" {
		return Book{}, tracerr.Wrap(ErrIncompleteTooltip)
	}
	return b, nil
}
