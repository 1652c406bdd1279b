// Package device turns raw User-Agent strings into the short display names
// stored on audit events.
package device

import (
	"fmt"

	"github.com/mssola/useragent"
)

// ParseUserAgent renders "Browser on OS" from a raw User-Agent string.
// Unrecognized parts degrade to placeholders rather than failing; the
// result is for humans reading the audit trail, nothing routes on it.
func ParseUserAgent(raw string) string {
	if raw == "" {
		return "Unknown Device"
	}

	ua := useragent.New(raw)
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}

	platform := ua.OSInfo().Name
	if ua.Mobile() && ua.Platform() != "" {
		platform = ua.Platform()
	}
	if platform == "" {
		platform = "Unknown OS"
	}

	return fmt.Sprintf("%s on %s", browser, platform)
}
