// urlmatch.go — the URL-match policy shared by the state machine's
// URL_CHANGED payload semantics (spec.md §4.1) and the step router
// (spec.md §4.4). Kept as its own small package because both callers need
// the identical predicate and it is independently testable (spec.md §8).
package urlmatch

import (
	"net/url"
	"strings"
)

// normalizePath strips a trailing slash; "" becomes "/".
func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		return strings.TrimSuffix(p, "/")
	}
	return p
}

// stripQueryFragment removes a leading "?..." or "#..." suffix from a raw
// URL string, for the string-compare fallback.
func stripQueryFragment(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		return raw[:i]
	}
	return raw
}

// Matches implements the URL-match policy:
//  1. Parse both URLs; compare origin and normalized pathname. Query and
//     fragment are ignored.
//  2. If the expected pathname is "/", any path on the same origin
//     matches — sanitized/default recorded URLs must not force a
//     same-origin re-navigation.
//  3. If either URL fails to parse, fall back to a string compare after
//     stripping "?" and "#" from both sides.
func Matches(currentURL, expectedURL string) bool {
	cur, errCur := url.Parse(currentURL)
	exp, errExp := url.Parse(expectedURL)
	if errCur != nil || errExp != nil {
		return stripQueryFragment(currentURL) == stripQueryFragment(expectedURL)
	}

	if !strings.EqualFold(origin(cur), origin(exp)) {
		return false
	}

	expPath := normalizePath(exp.Path)
	if expPath == "/" {
		return true
	}
	return normalizePath(cur.Path) == expPath
}

func origin(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}

// IsRestricted reports whether a URL should never produce a URL_CHANGED
// event (spec.md §4.3): browser-internal schemes, extension scheme,
// about:/data:/javascript:/file://, and files ending in .pdf.
func IsRestricted(raw string, restrictedPrefixes []string) bool {
	lower := strings.ToLower(raw)
	for _, prefix := range restrictedPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return strings.HasSuffix(lower, ".pdf")
}
