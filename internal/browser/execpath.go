package browser

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/ztrue/tracerr"
)

var ErrExecPathNotFound = errors.New("browser executable not found")

// binary names looked up on $PATH when no default location exists
var lookupNames = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"chrome",
}

// DefaultExecPaths lists where a Chrome install usually lives on the given platform.
func DefaultExecPaths(goos string) []string {
	switch goos {
	case "windows":
		return []string{
			`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Microsoft\Edge\Application\msedge.exe`,
		}
	case "darwin":
		return []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
		}
	case "linux", "freebsd", "openbsd", "netbsd":
		return []string{
			"/usr/bin/google-chrome",
			"/usr/bin/google-chrome-stable",
			"/usr/bin/chromium",
			"/usr/bin/chromium-browser",
			"/snap/bin/chromium",
		}
	default:
		return nil
	}
}

// ResolveExecPath picks the browser binary for the visible window.
// An explicit path must exist; otherwise the platform defaults and $PATH are searched.
func ResolveExecPath(explicit string) (string, error) {
	return resolveExecPath(explicit, runtime.GOOS, exec.LookPath)
}

func resolveExecPath(explicit string, goos string, lookPath func(string) (string, error)) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		if isFile(explicit) {
			return explicit, nil
		}
		return "", tracerr.Wrap(fmt.Errorf("%w: %s", ErrExecPathNotFound, explicit))
	}

	for _, candidate := range DefaultExecPaths(goos) {
		if isFile(candidate) {
			return candidate, nil
		}
	}

	for _, name := range lookupNames {
		if path, err := lookPath(name); err == nil {
			return path, nil
		}
	}

	return "", tracerr.Wrap(fmt.Errorf("%w on %s, set --chrome-path or BOOKCART_CHROME_PATH", ErrExecPathNotFound, goos))
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
