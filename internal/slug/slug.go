package slug

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/code/app-dub-agpl/internal/apierror"

	"github.com/redis/go-redis/v9"
)

// Slug length bounds
const (
	MinLength = 3
	MaxLength = 48
)

// slugPattern matches lower-case hyphen-separated labels
var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// defaultRedirects lists slugs that collide with system route targets and can
// never name a workspace
var defaultRedirects = map[string]bool{
	"home":       true,
	"signin":     true,
	"sign-in":    true,
	"login":      true,
	"log-in":     true,
	"signup":     true,
	"sign-up":    true,
	"register":   true,
	"signout":    true,
	"sign-out":   true,
	"logout":     true,
	"log-out":    true,
	"settings":   true,
	"welcome":    true,
	"account":    true,
	"onboarding": true,
	"pricing":    true,
}

// ReservedChecker reports whether a slug is in the reserved-keyword set.
// The lookup is remote, so validation of a slug is an I/O step.
type ReservedChecker interface {
	IsReserved(ctx context.Context, slug string) (bool, error)
}

// Normalize lower-cases and trims a candidate slug and turns spaces into
// hyphens
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	return strings.ReplaceAll(s, " ", "-")
}

// Validate normalizes the candidate and rejects it when it is out of range,
// malformed, a default-redirect target or a reserved keyword. Rule failures
// come back as unprocessable_entity API errors; a failed reserved lookup is
// an infrastructure error. Validation always runs before any mutation.
func Validate(ctx context.Context, checker ReservedChecker, raw string) (string, error) {
	s := Normalize(raw)

	if len(s) < MinLength || len(s) > MaxLength {
		return "", apierror.Unprocessable(
			fmt.Sprintf("Slug must be between %d and %d characters.", MinLength, MaxLength))
	}
	if !slugPattern.MatchString(s) {
		return "", apierror.Unprocessable(
			"Slug may only contain lower-case letters, numbers and hyphens.")
	}
	if defaultRedirects[s] {
		return "", apierror.Unprocessable(fmt.Sprintf("The slug %q is reserved.", s))
	}

	if checker != nil {
		reserved, err := checker.IsReserved(ctx, s)
		if err != nil {
			return "", fmt.Errorf("reserved slug lookup: %w", err)
		}
		if reserved {
			return "", apierror.Unprocessable(fmt.Sprintf("The slug %q is reserved.", s))
		}
	}

	return s, nil
}

// reservedKey is the Redis set holding reserved slugs
const reservedKey = "reserved:slugs"

// RedisReserved is a ReservedChecker backed by the shared Redis set
type RedisReserved struct {
	Client *redis.Client
}

// IsReserved checks membership in the reserved-slug set
func (r *RedisReserved) IsReserved(ctx context.Context, slug string) (bool, error) {
	return r.Client.SIsMember(ctx, reservedKey, slug).Result()
}
