package browser

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/ztrue/tracerr"
	"golang.org/x/sync/errgroup"
)

var ErrElementNotFound = errors.New("element not found")

// bypassScript hides the most common automation fingerprints from the page
const bypassScript = `(function(w, n, wn) {
	Object.defineProperty(n, 'webdriver', {
		get: () => false,
	});

	Object.defineProperty(n, 'plugins', {
		get: () => [1, 2, 3, 4, 5],
	});

	Object.defineProperty(n, 'languages', {
		get: () => ['en-US', 'en'],
	});

	w.chrome = {
		runtime: {},
	};
})(window, navigator, window.navigator);`

// Page is a single browser tab. Every pipeline step receives one explicitly.
type Page interface {
	// Navigate loads url and waits for the load event.
	Navigate(ctx context.Context, url string) error
	Location(ctx context.Context) (string, error)
	// OuterHTML returns the outer HTML of the first element matching selector.
	OuterHTML(ctx context.Context, selector string) (string, error)
	Exists(ctx context.Context, selector string) (bool, error)
	Count(ctx context.Context, selector string) (int, error)
	// EvalClick calls element.click() inside the page instead of dispatching pointer events.
	EvalClick(ctx context.Context, selector string) error
	Hover(ctx context.Context, selector string, index int) error
	// WaitWithin waits for inner to exist under the index-th match of selector and returns its outer HTML.
	WaitWithin(ctx context.Context, selector string, index int, inner string) (string, error)
	Type(ctx context.Context, selector string, text string) error
	PressEnterAndWait(ctx context.Context, selector string) error
	ClickAndWait(ctx context.Context, selector string, index int) error
	Cookies(ctx context.Context) ([]Cookie, error)
	SetCookies(ctx context.Context, cookies []Cookie) error
	ResetViewport(ctx context.Context) error
}

// Window is a launched browser process together with its first tab.
type Window interface {
	Page() Page
	// Wait blocks until the user closes the window or ctx is done.
	Wait(ctx context.Context) error
	Close()
}

// Launcher starts a browser window.
type Launcher func(ctx context.Context) (Window, error)

type Options struct {
	Headless    bool
	ExecPath    string // empty means let chromedp find a browser
	Width       int
	Height      int
	Stealth     bool
	UserDataDir string
	Verbose     bool
	// NoSandbox is needed when Chrome runs as root, e.g. inside containers.
	NoSandbox bool
}

type Browser struct {
	tab         *Tab
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	closeOnce   sync.Once
}

// Launch starts a new browser process and attaches to its first default tab.
// The browser lives until Close is called or ctx is done.
func Launch(ctx context.Context, opts Options) (*Browser, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", opts.Headless),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("password-store", "basic"),
		chromedp.Flag("use-mock-keychain", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opts.NoSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}
	if opts.Stealth {
		allocOpts = append(allocOpts, chromedp.Flag("disable-blink-features", "AutomationControlled"))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.UserDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.UserDataDir))
	}
	if opts.Width > 0 && opts.Height > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.Width, opts.Height))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)

	logf := func(string, ...interface{}) {}
	if opts.Verbose {
		logf = log.Printf
	}
	tabCtx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(logf), chromedp.WithErrorf(logf))

	actions := []chromedp.Action{}
	if opts.Stealth {
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(bypassScript).Do(ctx)
			return err
		}))
	}
	actions = append(actions, chromedp.Navigate("about:blank"))

	// the first run starts the process and attaches to the initial tab
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		cancel()
		allocCancel()
		return nil, tracerr.Wrap(fmt.Errorf("error starting browser: %w", err))
	}

	return &Browser{
		tab:         &Tab{ctx: tabCtx},
		cancel:      cancel,
		allocCancel: allocCancel,
	}, nil
}

func (b *Browser) Page() Page {
	return b.tab
}

func (b *Browser) Tab() *Tab {
	return b.tab
}

func (b *Browser) Wait(ctx context.Context) error {
	c := chromedp.FromContext(b.tab.ctx)
	if c == nil || c.Browser == nil {
		return nil
	}

	select {
	case <-c.Browser.LostConnection:
		return nil
	case <-b.tab.ctx.Done():
		return nil
	case <-ctx.Done():
		return tracerr.Wrap(ctx.Err())
	}
}

func (b *Browser) Close() {
	b.closeOnce.Do(func() {
		b.cancel()
		b.allocCancel()
	})
}

// Tab is the chromedp implementation of Page.
type Tab struct {
	ctx context.Context
}

// scope derives a context that carries the tab but is cancelled together with ctx.
func (t *Tab) scope(ctx context.Context) (context.Context, context.CancelFunc) {
	c, cancel := context.WithCancel(t.ctx)
	stop := context.AfterFunc(ctx, cancel)
	return c, func() {
		stop()
		cancel()
	}
}

func (t *Tab) Navigate(ctx context.Context, url string) error {
	c, cancel := t.scope(ctx)
	defer cancel()

	if err := chromedp.Run(c, chromedp.Navigate(url)); err != nil {
		return tracerr.Wrap(fmt.Errorf("error navigating to %q: %w", url, err))
	}
	return nil
}

func (t *Tab) Location(ctx context.Context) (string, error) {
	c, cancel := t.scope(ctx)
	defer cancel()

	var location string
	if err := chromedp.Run(c, chromedp.Location(&location)); err != nil {
		return "", tracerr.Wrap(err)
	}
	return location, nil
}

func (t *Tab) OuterHTML(ctx context.Context, selector string) (string, error) {
	c, cancel := t.scope(ctx)
	defer cancel()

	node, err := nth(c, selector, 0)
	if err != nil {
		return "", err
	}

	var html string
	err = chromedp.Run(c, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		html, err = dom.GetOuterHTML().WithNodeID(node.NodeID).Do(ctx)
		return err
	}))
	if err != nil {
		return "", tracerr.Wrap(err)
	}
	return html, nil
}

func (t *Tab) Exists(ctx context.Context, selector string) (bool, error) {
	n, err := t.Count(ctx, selector)
	return n > 0, err
}

func (t *Tab) Count(ctx context.Context, selector string) (int, error) {
	c, cancel := t.scope(ctx)
	defer cancel()

	nodes, err := queryAll(c, selector)
	if err != nil {
		return 0, err
	}
	return len(nodes), nil
}

func (t *Tab) EvalClick(ctx context.Context, selector string) error {
	c, cancel := t.scope(ctx)
	defer cancel()

	if _, err := nth(c, selector, 0); err != nil {
		return err
	}

	script := fmt.Sprintf(`document.querySelector(%q).click()`, selector)
	if err := chromedp.Run(c, chromedp.Evaluate(script, nil)); err != nil {
		return tracerr.Wrap(fmt.Errorf("error clicking %q: %w", selector, err))
	}
	return nil
}

func (t *Tab) Hover(ctx context.Context, selector string, index int) error {
	c, cancel := t.scope(ctx)
	defer cancel()

	node, err := nth(c, selector, index)
	if err != nil {
		return err
	}

	err = chromedp.Run(c, chromedp.ActionFunc(func(ctx context.Context) error {
		if err := dom.ScrollIntoViewIfNeeded().WithNodeID(node.NodeID).Do(ctx); err != nil {
			return err
		}
		quads, err := dom.GetContentQuads().WithNodeID(node.NodeID).Do(ctx)
		if err != nil {
			return err
		}
		if len(quads) == 0 {
			return fmt.Errorf("%w: %s[%d] is not rendered", ErrElementNotFound, selector, index)
		}
		x, y := center(quads[0])
		return input.DispatchMouseEvent(input.MouseMoved, x, y).Do(ctx)
	}))
	if err != nil {
		return tracerr.Wrap(fmt.Errorf("error hovering %s[%d]: %w", selector, index, err))
	}
	return nil
}

func (t *Tab) WaitWithin(ctx context.Context, selector string, index int, inner string) (string, error) {
	c, cancel := t.scope(ctx)
	defer cancel()

	node, err := nth(c, selector, index)
	if err != nil {
		return "", err
	}

	var html string
	err = chromedp.Run(c,
		chromedp.WaitReady(inner, chromedp.ByQuery, chromedp.FromNode(node)),
		chromedp.OuterHTML(inner, &html, chromedp.ByQuery, chromedp.FromNode(node)),
	)
	if err != nil {
		return "", tracerr.Wrap(fmt.Errorf("error waiting for %q: %w", inner, err))
	}
	return html, nil
}

func (t *Tab) Type(ctx context.Context, selector string, text string) error {
	c, cancel := t.scope(ctx)
	defer cancel()

	if _, err := nth(c, selector, 0); err != nil {
		return err
	}
	if err := chromedp.Run(c, chromedp.SendKeys(selector, text, chromedp.ByQuery)); err != nil {
		return tracerr.Wrap(fmt.Errorf("error typing into %q: %w", selector, err))
	}
	return nil
}

func (t *Tab) PressEnterAndWait(ctx context.Context, selector string) error {
	c, cancel := t.scope(ctx)
	defer cancel()

	if _, err := nth(c, selector, 0); err != nil {
		return err
	}
	if err := actAndWait(c, chromedp.SendKeys(selector, kb.Enter, chromedp.ByQuery)); err != nil {
		return tracerr.Wrap(fmt.Errorf("error submitting %q: %w", selector, err))
	}
	return nil
}

func (t *Tab) ClickAndWait(ctx context.Context, selector string, index int) error {
	c, cancel := t.scope(ctx)
	defer cancel()

	node, err := nth(c, selector, index)
	if err != nil {
		return err
	}
	if err := actAndWait(c, chromedp.MouseClickNode(node)); err != nil {
		return tracerr.Wrap(fmt.Errorf("error clicking %s[%d]: %w", selector, index, err))
	}
	return nil
}

func (t *Tab) Cookies(ctx context.Context) ([]Cookie, error) {
	c, cancel := t.scope(ctx)
	defer cancel()

	var raw []*network.Cookie
	err := chromedp.Run(c, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		raw, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	cookies := make([]Cookie, 0, len(raw))
	for _, rc := range raw {
		cookies = append(cookies, fromNetwork(rc))
	}
	return cookies, nil
}

func (t *Tab) SetCookies(ctx context.Context, cookies []Cookie) error {
	if len(cookies) == 0 {
		return nil
	}

	c, cancel := t.scope(ctx)
	defer cancel()

	params := make([]*network.CookieParam, 0, len(cookies))
	for _, cookie := range cookies {
		params = append(params, cookie.param())
	}
	err := chromedp.Run(c, chromedp.ActionFunc(func(ctx context.Context) error {
		return network.SetCookies(params).Do(ctx)
	}))
	if err != nil {
		return tracerr.Wrap(fmt.Errorf("error installing %d cookies: %w", len(cookies), err))
	}
	return nil
}

// ResetViewport drops the content size override so the page follows the window size.
func (t *Tab) ResetViewport(ctx context.Context) error {
	c, cancel := t.scope(ctx)
	defer cancel()

	err := chromedp.Run(c, chromedp.ActionFunc(func(ctx context.Context) error {
		return emulation.SetDeviceMetricsOverride(0, 0, 0, false).Do(ctx)
	}))
	return tracerr.Wrap(err)
}

func queryAll(ctx context.Context, selector string) ([]*cdp.Node, error) {
	var nodes []*cdp.Node
	if err := chromedp.Run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return nil, tracerr.Wrap(fmt.Errorf("error querying %q: %w", selector, err))
	}
	return nodes, nil
}

func nth(ctx context.Context, selector string, index int) (*cdp.Node, error) {
	nodes, err := queryAll(ctx, selector)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(nodes) {
		return nil, tracerr.Wrap(fmt.Errorf("%w: %s[%d] (%d matches)", ErrElementNotFound, selector, index, len(nodes)))
	}
	return nodes[index], nil
}

// actAndWait runs action while watching for the main frame navigation it causes.
// The watcher is registered before the action starts and both have to finish.
// A same-document navigation (fragment or history API) fires no load event and
// counts as finished on its own.
func actAndWait(ctx context.Context, action chromedp.Action) error {
	var mainFrame cdp.FrameID
	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		tree, err := page.GetFrameTree().Do(ctx)
		if err != nil {
			return err
		}
		mainFrame = tree.Frame.ID
		return nil
	}))
	if err != nil {
		return err
	}

	var navigated atomic.Bool
	var once sync.Once
	loaded := make(chan struct{})
	done := func() { once.Do(func() { close(loaded) }) }

	listenCtx, stop := context.WithCancel(ctx)
	defer stop()

	chromedp.ListenTarget(listenCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *page.EventFrameNavigated:
			if e.Frame != nil && e.Frame.ParentID == "" {
				navigated.Store(true)
			}
		case *page.EventNavigatedWithinDocument:
			if e.FrameID == mainFrame {
				done()
			}
		case *page.EventLoadEventFired:
			if navigated.Load() {
				done()
			}
		}
	})

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		select {
		case <-loaded:
			return nil
		case <-egCtx.Done():
			return egCtx.Err()
		}
	})
	eg.Go(func() error {
		return chromedp.Run(egCtx, action)
	})
	return eg.Wait()
}

func center(q dom.Quad) (float64, float64) {
	var x, y float64
	for i := 0; i+1 < len(q); i += 2 {
		x += q[i]
		y += q[i+1]
	}
	points := float64(len(q) / 2)
	if points == 0 {
		return 0, 0
	}
	return x / points, y / points
}
