package types

import (
	"fmt"
	"regexp"
	"strings"
)

// CompilePattern compiles a regular expression with ECMAScript-style flags.
// The i, m and s flags map to RE2 flags; g, u and y do not change matching
// and are accepted. Any other flag is an error.
func CompilePattern(pattern, flags string) (*regexp.Regexp, error) {
	var prefix strings.Builder
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			if !strings.ContainsRune(prefix.String(), f) {
				prefix.WriteRune(f)
			}
		case 'g', 'u', 'y':
		default:
			return nil, fmt.Errorf("invalid regular expression flag %q", string(f))
		}
	}

	source := pattern
	if prefix.Len() > 0 {
		source = "(?" + prefix.String() + ")" + pattern
	}
	re, err := regexp.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("invalid regular expression /%s/%s: %w", pattern, flags, err)
	}
	return re, nil
}
