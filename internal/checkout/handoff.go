package checkout

import (
	"context"

	"github.com/ygunayer/bookcart/internal/browser"
	"github.com/ztrue/tracerr"
)

// Handoff opens a visible window, installs the session cookies and loads the session url.
// The window stays open for the user; it is only closed here if the handoff itself fails.
func Handoff(ctx context.Context, launch browser.Launcher, s *Session) (browser.Window, error) {
	window, err := launch(ctx)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	p := window.Page()
	err = func() error {
		if err := p.ResetViewport(ctx); err != nil {
			return err
		}
		if err := p.SetCookies(ctx, s.Cookies); err != nil {
			return err
		}
		return p.Navigate(ctx, s.Url)
	}()
	if err != nil {
		window.Close()
		return nil, tracerr.Wrap(err)
	}

	return window, nil
}
