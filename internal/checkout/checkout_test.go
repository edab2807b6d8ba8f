package checkout

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ygunayer/bookcart/internal/book"
	"github.com/ygunayer/bookcart/internal/browser"
	"github.com/ygunayer/bookcart/internal/browser/browsertest"
)

const (
	searchUrl  = "https://www.amazon.com/s?k=Gone+Girl+Gillian+Flynn"
	productUrl = "https://www.amazon.com/Gone-Girl-Gillian-Flynn/dp/0307588378"
	cartUrl    = "https://www.amazon.com/gp/cart/view.html"
)

var goneGirl = book.Book{Title: "Gone Girl", Author: "Gillian Flynn"}

const physicalResult = `<div data-index="1">
<span data-component-type="s-product-image"><a href="/dp/0307588378"><img src="cover.jpg"></a></span>
<h2><a href="/dp/0307588378"><span>Gone Girl: A Novel</span></a></h2>
<a href="/dp/B006LSZECO">Kindle</a>
<a href="/dp/0307588378"><span>Paperback</span></a>
<a href="/dp/030758836X">Hardcover</a>
</div>`

const digitalResult = `<div data-index="1">
<span data-component-type="s-product-image"><a href="/dp/B006LSZECO"><img src="cover.jpg"></a></span>
<h2><a href="/dp/B006LSZECO">Gone Girl</a></h2>
<a href="/dp/B006LSZECO">Kindle</a>
<a href="/dp/B00A2RLH7K">Audible Audiobook</a>
</div>`

func retailerSite(result string, anchors int, editionIndex int) map[string]*browsertest.Document {
	search := &browsertest.Document{
		HTML: map[string]string{
			resultSelector:      result,
			resultImageSelector: `<span data-component-type="s-product-image"></span>`,
		},
		Counts: map[string]int{resultAnchorSelector: anchors},
		Links: map[string]string{
			browsertest.Key(resultImageSelector, 0, ""): productUrl,
		},
		Cookies: []browser.Cookie{{Name: "csm-hit", Value: "tb:s", Domain: "www.amazon.com", Path: "/"}},
	}
	if editionIndex >= 0 {
		search.Links[browsertest.Key(resultAnchorSelector, editionIndex, "")] = productUrl
	}

	return map[string]*browsertest.Document{
		DefaultRetailerURL: {
			HTML:    map[string]string{searchSelector: `<input id="twotabsearchtextbox">`},
			Links:   map[string]string{browsertest.Key(searchSelector, 0, ""): searchUrl},
			Cookies: []browser.Cookie{{Name: "session-id", Value: "131-0000000-0000000", Domain: ".amazon.com", Path: "/", Expires: 1800000000}},
		},
		searchUrl: search,
		productUrl: {
			HTML:  map[string]string{addToCartSelector: `<input id="add-to-cart-button">`},
			Links: map[string]string{browsertest.Key(addToCartSelector, 0, ""): cartUrl},
		},
		cartUrl: {
			Cookies: []browser.Cookie{{Name: "ubid-main", Value: "130-1111111-1111111", Domain: ".amazon.com", Path: "/", Session: true}},
		},
	}
}

func TestPhysicalEditionIndex(t *testing.T) {
	index, edition, err := PhysicalEditionIndex(physicalResult)
	require.NoError(t, err)
	assert.Equal(t, 3, index)
	assert.Equal(t, "Paperback", edition)

	index, edition, err = PhysicalEditionIndex(digitalResult)
	require.NoError(t, err)
	assert.Equal(t, -1, index)
	assert.Empty(t, edition)

	index, edition, err = PhysicalEditionIndex(`<div><a>Kindle</a><a>Misc. Supplies</a></div>`)
	require.NoError(t, err)
	assert.Equal(t, 1, index)
	assert.Equal(t, "Misc.", edition)
}

func TestNavigateAddsPhysicalEditionToCart(t *testing.T) {
	fake := browsertest.New(retailerSite(physicalResult, 5, 3))
	var warnings []string
	retailer := NewRetailer("", func(format string, a ...any) {
		warnings = append(warnings, fmt.Sprintf(format, a...))
	})

	session, err := retailer.Navigate(context.Background(), fake, goneGirl)
	require.NoError(t, err)

	assert.Equal(t, cartUrl, session.Url)
	assert.True(t, session.AddedToCart)
	assert.Equal(t, "Paperback", session.Edition)
	assert.Empty(t, warnings)
	require.Len(t, session.Cookies, 3)
	assert.Equal(t, []string{"session-id", "csm-hit", "ubid-main"},
		[]string{session.Cookies[0].Name, session.Cookies[1].Name, session.Cookies[2].Name})

	assert.Equal(t, []string{
		"Navigate", "Type", "PressEnterAndWait", "OuterHTML", "ClickAndWait", "ClickAndWait", "Cookies",
	}, fake.Methods())
	assert.Equal(t, "Gone Girl Gillian Flynn", fake.Calls[1].Arg)
	assert.Equal(t, resultAnchorSelector, fake.Calls[4].Selector)
	assert.Equal(t, 3, fake.Calls[4].Index)
	assert.Equal(t, addToCartSelector, fake.Calls[5].Selector)
}

func TestNavigateFallsBackToThumbnail(t *testing.T) {
	fake := browsertest.New(retailerSite(digitalResult, 4, -1))
	var warnings []string
	retailer := NewRetailer(DefaultRetailerURL, func(format string, a ...any) {
		warnings = append(warnings, fmt.Sprintf(format, a...))
	})

	session, err := retailer.Navigate(context.Background(), fake, goneGirl)
	require.NoError(t, err)

	assert.Equal(t, productUrl, session.Url)
	assert.False(t, session.AddedToCart)
	assert.Empty(t, session.Edition)
	assert.Len(t, session.Cookies, 2)
	assert.Equal(t, []string{"Couldn't find a physical version to buy, displaying other format"}, warnings)
	assert.Equal(t, resultImageSelector, fake.Calls[4].Selector)
	assert.NotContains(t, fake.Methods()[5:], "ClickAndWait")
}

func TestNavigateFailures(t *testing.T) {
	t.Run("missing search box", func(t *testing.T) {
		site := retailerSite(physicalResult, 5, 3)
		site[DefaultRetailerURL].HTML = map[string]string{}

		_, err := NewRetailer("", nil).Navigate(context.Background(), browsertest.New(site), goneGirl)
		assert.ErrorIs(t, err, browser.ErrElementNotFound)
	})

	t.Run("missing result", func(t *testing.T) {
		site := retailerSite(physicalResult, 5, 3)
		delete(site[searchUrl].HTML, resultSelector)

		_, err := NewRetailer("", nil).Navigate(context.Background(), browsertest.New(site), goneGirl)
		assert.ErrorIs(t, err, browser.ErrElementNotFound)
	})

	t.Run("missing cart button", func(t *testing.T) {
		site := retailerSite(physicalResult, 5, 3)
		site[productUrl].HTML = map[string]string{}

		_, err := NewRetailer("", nil).Navigate(context.Background(), browsertest.New(site), goneGirl)
		assert.ErrorIs(t, err, browser.ErrElementNotFound)
	})
}
