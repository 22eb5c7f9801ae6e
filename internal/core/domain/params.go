package domain

import (
	"fmt"
	"strings"
)

// ResolveParameters replaces {name} tokens in value with entries from
// params. A token with no entry is replaced by its own name.
//
// Tokens are substituted one at a time, rescanning from the start of the
// string after every substitution. A substituted value that still holds a
// {...} pair is rejected so that expansion always terminates.
func ResolveParameters(value string, params map[string]string) (string, error) {
	resolved := value
	for {
		start := strings.Index(resolved, "{")
		if start < 0 {
			break
		}
		end := strings.Index(resolved, "}")
		if end <= start {
			break
		}

		name := resolved[start+1 : end]
		replacement, ok := params[name]
		if !ok {
			replacement = name
		}

		if open := strings.Index(replacement, "{"); open >= 0 {
			if strings.Index(replacement, "}") > open {
				return "", fmt.Errorf("%w: parameter %q resolves to %q",
					ErrRecursiveParameter, name, replacement)
			}
		}

		resolved = resolved[:start] + replacement + resolved[end+1:]
	}
	return resolved, nil
}

// ParseFlag interprets a boolean property value.
// Accepted forms are 1/true/yes/on and 0/false/no/off, case-insensitive.
func ParseFlag(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q is not a boolean", ErrInvalidProperty, value)
	}
}
