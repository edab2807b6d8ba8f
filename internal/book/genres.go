package book

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ygunayer/bookcart/internal/browser"
	"github.com/ztrue/tracerr"
)

// FetchGenres loads the awards page and lists its categories in document order.
func (s *Source) FetchGenres(ctx context.Context, p browser.Page) ([]Genre, error) {
	if err := p.Navigate(ctx, s.AwardsUrl); err != nil {
		return nil, tracerr.Wrap(err)
	}

	html, err := p.OuterHTML(ctx, "html")
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	location, err := p.Location(ctx)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	return ParseGenres(html, location)
}

// ParseGenres extracts genre anchors from an awards page, resolving links against base.
func ParseGenres(html string, base string) ([]Genre, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	baseUrl, err := url.Parse(base)
	if err != nil {
		return nil, tracerr.Wrap(fmt.Errorf("invalid page url %q: %w", base, err))
	}

	genres := make([]Genre, 0)
	doc.Find(genreSelector).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		genres = append(genres, Genre{
			Name: strings.Join(strings.Fields(a.Text()), " "),
			Url:  baseUrl.ResolveReference(ref).String(),
		})
	})

	if len(genres) == 0 {
		return nil, tracerr.Wrap(ErrNoGenres)
	}
	return genres, nil
}
