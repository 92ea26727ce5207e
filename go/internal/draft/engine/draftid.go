package engine

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	bareDraftID = regexp.MustCompile(`^[A-Za-z0-9]{4,}$`)
	urlDraftID  = regexp.MustCompile(`(?:^|/)(?:draft|observer)/([A-Za-z0-9]+)(?:[/?#]|$)`)
)

// ParseDraftID extracts a draft id from a bare id or a vendor URL using either the
// /draft/{id} or /observer/{id} path.
func ParseDraftID(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if bareDraftID.MatchString(s) {
		return s, nil
	}
	if m := urlDraftID.FindStringSubmatch(s); m != nil {
		return m[1], nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, raw)
}
