package hostname

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/code/app-dub-agpl/internal/apierror"
)

// MaxHostnames caps the allowed-hostname list on a workspace
const MaxHostnames = 10

// hostnamePattern matches dotted lower-case labels with an alphabetic
// top-level domain
var hostnamePattern = regexp.MustCompile(`^([a-z0-9]([a-z0-9-]*[a-z0-9])?\.)+[a-z]{2,}$`)

// ValidateList normalizes every entry (lower-case, trimmed) and returns the
// deduplicated list. A single leading "*." wildcard label is allowed, as is
// "localhost". Any invalid entry fails the whole list with an error naming
// the offending values.
func ValidateList(hostnames []string) ([]string, error) {
	if len(hostnames) > MaxHostnames {
		return nil, apierror.Unprocessable(
			fmt.Sprintf("At most %d allowed hostnames can be set.", MaxHostnames))
	}

	seen := make(map[string]bool, len(hostnames))
	normalized := make([]string, 0, len(hostnames))
	var invalid []string

	for _, raw := range hostnames {
		h := strings.ToLower(strings.TrimSpace(raw))
		if !valid(h) {
			invalid = append(invalid, raw)
			continue
		}
		if seen[h] {
			continue
		}
		seen[h] = true
		normalized = append(normalized, h)
	}

	if len(invalid) > 0 {
		return nil, apierror.Unprocessable(
			fmt.Sprintf("Invalid hostnames: %s", strings.Join(invalid, ", ")))
	}

	return normalized, nil
}

func valid(h string) bool {
	if h == "localhost" {
		return true
	}
	h = strings.TrimPrefix(h, "*.")
	return hostnamePattern.MatchString(h)
}
