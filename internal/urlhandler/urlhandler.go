package urlhandler

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/aleister1102/faleproxy/internal/common/errorwrapper"
)

// DefaultScheme is prepended to inputs that carry no http(s) scheme.
const DefaultScheme = "https://"

var schemePrefixRegex = regexp.MustCompile(`(?i)^https?://`)

// HasProtocol reports whether rawURL starts with http:// or https://, in any letter case.
func HasProtocol(rawURL string) bool {
	return schemePrefixRegex.MatchString(rawURL)
}

// EnsureURLHasProtocol returns rawURL unchanged when it already starts with an
// http(s) scheme and prefixes it with https:// otherwise. The remainder of the
// string is never inspected.
func EnsureURLHasProtocol(rawURL string) string {
	if HasProtocol(rawURL) {
		return rawURL
	}
	return DefaultScheme + rawURL
}

// ValidateURLFormat checks that rawURL is an absolute http(s) URL with a host.
func ValidateURLFormat(rawURL string) error {
	trimmedURL := strings.TrimSpace(rawURL)
	if trimmedURL == "" {
		return errorwrapper.NewError("URL is empty")
	}

	parsedURL, err := url.ParseRequestURI(trimmedURL)
	if err != nil {
		return errorwrapper.WrapError(err, "invalid URL format '"+trimmedURL+"'")
	}

	scheme := strings.ToLower(parsedURL.Scheme)
	if scheme != "http" && scheme != "https" {
		return errorwrapper.NewError("unsupported URL scheme '%s'", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return errorwrapper.NewError("URL '%s' has no host", trimmedURL)
	}

	return nil
}

// ExtractHostname returns the lowercased hostname of rawURL, or an empty string
// when it cannot be parsed.
func ExtractHostname(rawURL string) string {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsedURL.Hostname())
}
