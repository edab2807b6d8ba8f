// Package browsertest provides a scripted in-memory browser for pipeline tests.
package browsertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/ygunayer/bookcart/internal/browser"
)

// Document is what the fake serves for one URL.
type Document struct {
	// HTML maps a selector to the outer HTML of its first match.
	HTML map[string]string
	// Counts overrides the number of matches per selector. A selector only
	// present in HTML counts as one match.
	Counts map[string]int
	// Within maps Key(selector, index, inner) to the outer HTML of inner.
	Within map[string]string
	// Links maps Key(selector, index, "") to the URL reached by clicking it or pressing enter on it.
	Links map[string]string
	// Cookies are added to the jar when the document loads.
	Cookies []browser.Cookie
}

type Call struct {
	Method   string
	Selector string
	Index    int
	Arg      string
}

// Fake implements browser.Page and browser.Window.
type Fake struct {
	mu sync.Mutex

	Docs  map[string]*Document
	URL   string
	Jar   []browser.Cookie
	Calls []Call

	ViewportReset bool
	Closed        bool
}

var (
	_ browser.Page   = (*Fake)(nil)
	_ browser.Window = (*Fake)(nil)
)

func New(docs map[string]*Document) *Fake {
	return &Fake{Docs: docs, URL: "about:blank"}
}

// Key builds the lookup key used by Document.Within and Document.Links.
func Key(selector string, index int, inner string) string {
	if inner == "" {
		return fmt.Sprintf("%s[%d]", selector, index)
	}
	return fmt.Sprintf("%s[%d] %s", selector, index, inner)
}

// Launcher returns a browser.Launcher that always hands out f.
func (f *Fake) Launcher() browser.Launcher {
	return func(ctx context.Context) (browser.Window, error) {
		f.record(Call{Method: "Launch"})
		return f, nil
	}
}

// Methods lists the recorded method names in call order.
func (f *Fake) Methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	methods := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		methods = append(methods, c.Method)
	}
	return methods
}

func (f *Fake) record(c Call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, c)
}

func (f *Fake) doc() *Document {
	if d, ok := f.Docs[f.URL]; ok {
		return d
	}
	return &Document{}
}

func (f *Fake) count(selector string) int {
	d := f.doc()
	if n, ok := d.Counts[selector]; ok {
		return n
	}
	if _, ok := d.HTML[selector]; ok {
		return 1
	}
	return 0
}

func (f *Fake) require(selector string, index int) error {
	if n := f.count(selector); index < 0 || index >= n {
		return fmt.Errorf("%w: %s[%d] on %s", browser.ErrElementNotFound, selector, index, f.URL)
	}
	return nil
}

func (f *Fake) load(url string) error {
	d, ok := f.Docs[url]
	if !ok {
		return fmt.Errorf("navigation to %s failed: no such page", url)
	}
	f.URL = url
	f.Jar = append(f.Jar, d.Cookies...)
	return nil
}

func (f *Fake) follow(selector string, index int) error {
	target, ok := f.doc().Links[Key(selector, index, "")]
	if !ok {
		return fmt.Errorf("%s[%d] on %s does not navigate anywhere", selector, index, f.URL)
	}
	return f.load(target)
}

func (f *Fake) Navigate(ctx context.Context, url string) error {
	f.record(Call{Method: "Navigate", Arg: url})
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.load(url)
}

func (f *Fake) Location(ctx context.Context) (string, error) {
	return f.URL, nil
}

func (f *Fake) OuterHTML(ctx context.Context, selector string) (string, error) {
	f.record(Call{Method: "OuterHTML", Selector: selector})
	html, ok := f.doc().HTML[selector]
	if !ok {
		return "", fmt.Errorf("%w: %s on %s", browser.ErrElementNotFound, selector, f.URL)
	}
	return html, nil
}

func (f *Fake) Exists(ctx context.Context, selector string) (bool, error) {
	f.record(Call{Method: "Exists", Selector: selector})
	return f.count(selector) > 0, nil
}

func (f *Fake) Count(ctx context.Context, selector string) (int, error) {
	f.record(Call{Method: "Count", Selector: selector})
	return f.count(selector), nil
}

func (f *Fake) EvalClick(ctx context.Context, selector string) error {
	f.record(Call{Method: "EvalClick", Selector: selector})
	return f.require(selector, 0)
}

func (f *Fake) Hover(ctx context.Context, selector string, index int) error {
	f.record(Call{Method: "Hover", Selector: selector, Index: index})
	return f.require(selector, index)
}

func (f *Fake) WaitWithin(ctx context.Context, selector string, index int, inner string) (string, error) {
	f.record(Call{Method: "WaitWithin", Selector: selector, Index: index, Arg: inner})
	if err := f.require(selector, index); err != nil {
		return "", err
	}
	html, ok := f.doc().Within[Key(selector, index, inner)]
	if !ok {
		return "", fmt.Errorf("%w: %s under %s[%d]", browser.ErrElementNotFound, inner, selector, index)
	}
	return html, nil
}

func (f *Fake) Type(ctx context.Context, selector string, text string) error {
	f.record(Call{Method: "Type", Selector: selector, Arg: text})
	return f.require(selector, 0)
}

func (f *Fake) PressEnterAndWait(ctx context.Context, selector string) error {
	f.record(Call{Method: "PressEnterAndWait", Selector: selector})
	if err := f.require(selector, 0); err != nil {
		return err
	}
	return f.follow(selector, 0)
}

func (f *Fake) ClickAndWait(ctx context.Context, selector string, index int) error {
	f.record(Call{Method: "ClickAndWait", Selector: selector, Index: index})
	if err := f.require(selector, index); err != nil {
		return err
	}
	return f.follow(selector, index)
}

func (f *Fake) Cookies(ctx context.Context) ([]browser.Cookie, error) {
	f.record(Call{Method: "Cookies"})
	return append([]browser.Cookie(nil), f.Jar...), nil
}

func (f *Fake) SetCookies(ctx context.Context, cookies []browser.Cookie) error {
	f.record(Call{Method: "SetCookies", Arg: fmt.Sprint(len(cookies))})
	f.Jar = append(f.Jar, cookies...)
	return nil
}

func (f *Fake) ResetViewport(ctx context.Context) error {
	f.record(Call{Method: "ResetViewport"})
	f.ViewportReset = true
	return nil
}

func (f *Fake) Page() browser.Page {
	return f
}

func (f *Fake) Wait(ctx context.Context) error {
	return nil
}

func (f *Fake) Close() {
	f.record(Call{Method: "Close"})
	f.Closed = true
}
