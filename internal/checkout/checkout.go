package checkout

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ygunayer/bookcart/internal/book"
	"github.com/ygunayer/bookcart/internal/browser"
	"github.com/ztrue/tracerr"
)

const (
	DefaultRetailerURL = "https://www.amazon.com"

	searchSelector       = "input#twotabsearchtextbox, input#nav-bb-search"
	resultSelector       = `span[data-component-type="s-search-results"] div[data-index="1"]`
	resultImageSelector  = resultSelector + ` span[data-component-type="s-product-image"]`
	resultAnchorSelector = resultSelector + " a"
	addToCartSelector    = "#add-to-cart-button"
)

// physical formats as the retailer labels them in search results
var editionTokens = []string{"Hardcover", "Paperback", "Misc."}

// Session is the browsing state handed over to the visible window.
type Session struct {
	Url     string
	Cookies []browser.Cookie
	// Edition is the format token that matched, empty when the thumbnail fallback was used.
	Edition     string
	AddedToCart bool
}

type Retailer struct {
	HomeUrl string
	// Warnf reports non-fatal detours such as the thumbnail fallback.
	Warnf func(format string, a ...any)
}

func NewRetailer(homeUrl string, warnf func(format string, a ...any)) *Retailer {
	if homeUrl == "" {
		homeUrl = DefaultRetailerURL
	}
	return &Retailer{HomeUrl: homeUrl, Warnf: warnf}
}

// Navigate searches the retailer for b and tries to put a physical edition of the
// first organic result in the cart. Without one it opens the result's product page.
func (r *Retailer) Navigate(ctx context.Context, p browser.Page, b book.Book) (*Session, error) {
	if err := p.Navigate(ctx, r.HomeUrl); err != nil {
		return nil, tracerr.Wrap(err)
	}

	if err := p.Type(ctx, searchSelector, b.Query()); err != nil {
		return nil, tracerr.Wrap(err)
	}
	if err := p.PressEnterAndWait(ctx, searchSelector); err != nil {
		return nil, tracerr.Wrap(err)
	}

	result, err := p.OuterHTML(ctx, resultSelector)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	index, edition, err := PhysicalEditionIndex(result)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	session := &Session{Edition: edition}
	if index < 0 {
		r.warnf("Couldn't find a physical version to buy, displaying other format")
		if err := p.ClickAndWait(ctx, resultImageSelector, 0); err != nil {
			return nil, tracerr.Wrap(err)
		}
	} else {
		if err := p.ClickAndWait(ctx, resultAnchorSelector, index); err != nil {
			return nil, tracerr.Wrap(err)
		}
		if err := p.ClickAndWait(ctx, addToCartSelector, 0); err != nil {
			return nil, tracerr.Wrap(err)
		}
		session.AddedToCart = true
	}

	if session.Url, err = p.Location(ctx); err != nil {
		return nil, tracerr.Wrap(err)
	}
	if session.Cookies, err = p.Cookies(ctx); err != nil {
		return nil, tracerr.Wrap(err)
	}
	return session, nil
}

func (r *Retailer) warnf(format string, a ...any) {
	if r.Warnf != nil {
		r.Warnf(format, a...)
	}
}

// PhysicalEditionIndex finds the first anchor in a search result whose text names a
// print format. The index counts anchors in document order; -1 means none matched.
func PhysicalEditionIndex(resultHtml string) (int, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resultHtml))
	if err != nil {
		return -1, "", tracerr.Wrap(err)
	}

	index, edition := -1, ""
	doc.Find("a").EachWithBreak(func(i int, a *goquery.Selection) bool {
		text := a.Text()
		for _, token := range editionTokens {
			if strings.Contains(text, token) {
				index, edition = i, token
				return false
			}
		}
		return true
	})
	return index, edition, nil
}
