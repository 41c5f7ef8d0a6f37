package browser

import (
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/jmylchreest/storepage/internal/logger"
)

// Common Chrome/Chromium binary names across different systems
var chromeBinaryNames = []string{
	"google-chrome-stable",
	"google-chrome",
	"chromium",
	"chromium-browser",
	"chrome",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	"/Applications/Chromium.app/Contents/MacOS/Chromium",
	"/usr/bin/google-chrome-stable",
	"/usr/bin/chromium",
	"/snap/bin/chromium",
	`C:\Program Files\Google\Chrome\Application\chrome.exe`,
	`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// FindChromePath searches PATH and common install locations for a Chrome
// binary. Returns "" when none is found, leaving chromedp's own lookup.
func FindChromePath() string {
	for _, name := range chromeBinaryNames {
		if path, err := lookPath(name); err == nil {
			logger.Debug("found Chrome binary", "name", name, "path", path)
			return path
		}
	}
	logger.Warn("no Chrome binary found, relying on chromedp defaults")
	return ""
}

// ResolveExecPath maps the configured driver path to a browser executable.
//
// chromedp talks DevTools to Chrome directly, so a chromedriver binary is
// of no use here. A path that resolves and is not chromedriver is taken as
// the browser itself; anything else falls back to FindChromePath.
func ResolveExecPath(driverPath string) string {
	if driverPath != "" && !isChromeDriver(driverPath) {
		if path, err := lookPath(driverPath); err == nil {
			return path
		}
		logger.Warn("configured browser binary not found, auto-detecting", "driver_path", driverPath)
	}
	return FindChromePath()
}

func isChromeDriver(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	return strings.HasPrefix(base, "chromedriver")
}
