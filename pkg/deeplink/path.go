package deeplink

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/BrandonKowalski/deeplink/pkg/deeplink/constants"
)

// Path is an ordered sequence of non-empty segments.
type Path []string

// ParsePath splits raw on "/" and discards empty segments. Segments are kept
// byte for byte. A path with no segments returns ErrInvalidPath.
func ParsePath(raw string) (Path, error) {
	parts := strings.Split(raw, constants.Separator)
	path := make(Path, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		path = append(path, part)
	}

	if len(path) == 0 {
		return nil, ErrInvalidPath
	}
	return path, nil
}

// ParseURL turns a deep-link URL ("app://root/list/42?tab=info") into a Path.
//
// The scheme, query and fragment are dropped. For URLs with an authority the
// host is the first segment. Segments are percent-decoded and NFC-normalized
// so that visually identical links compare equal.
func ParseURL(raw string) (Path, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPath, err)
	}

	rest := u.Path
	if u.Opaque != "" {
		rest = u.Opaque
		if unescaped, err := url.PathUnescape(rest); err == nil {
			rest = unescaped
		}
	}
	if u.Host != "" {
		rest = u.Host + constants.Separator + rest
	}

	p, err := ParsePath(rest)
	if err != nil {
		return nil, err
	}
	for i, seg := range p {
		p[i] = norm.NFC.String(seg)
	}
	return p, nil
}

// MustParsePath is like ParsePath but panics on invalid input.
// Intended for constants and tests.
func MustParsePath(raw string) Path {
	p, err := ParsePath(raw)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Path) String() string {
	return strings.Join(p, constants.Separator)
}

// Last returns the final segment, or "" for an empty path.
func (p Path) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// HasPrefix reports whether prefix matches the leading segments of p.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Equal reports whether p and other contain the same segments.
func (p Path) Equal(other Path) bool {
	return len(p) == len(other) && p.HasPrefix(other)
}
