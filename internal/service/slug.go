package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/folio/site-server-go/internal/util"
)

const (
	slugBaseMaxLength = 40
	slugSuffixLength  = 6
	slugMaxAttempts   = 5
)

// SlugChecker reports whether a slug is already taken.
type SlugChecker interface {
	Exists(ctx context.Context, slug string) (bool, error)
}

type SlugGenerator struct {
	checker   SlugChecker
	randomHex func(n int) (string, error)
	now       func() time.Time
}

func NewSlugGenerator(checker SlugChecker) *SlugGenerator {
	return &SlugGenerator{
		checker:   checker,
		randomHex: util.RandomHex,
		now:       time.Now,
	}
}

// Generate returns "{base}-{6 hex}" that the checker does not know about.
// After five collisions it settles for "{base}-{epoch millis}" without
// checking again.
func (g *SlugGenerator) Generate(ctx context.Context, companyName string, companyID int64) (string, error) {
	base := SlugBase(companyName, companyID)

	for attempt := 0; attempt < slugMaxAttempts; attempt++ {
		suffix, err := g.randomHex(slugSuffixLength)
		if err != nil {
			return "", fmt.Errorf("generate slug suffix: %w", err)
		}

		candidate := base + "-" + suffix
		taken, err := g.checker.Exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}

	return fmt.Sprintf("%s-%d", base, g.now().UnixMilli()), nil
}

// SlugBase normalizes a company name into a URL-safe slug prefix.
func SlugBase(companyName string, companyID int64) string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		strings.ToLower(companyName),
	)
	if err != nil {
		folded = strings.ToLower(companyName)
	}

	var b strings.Builder
	pendingHyphen := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	base := b.String()
	if len(base) > slugBaseMaxLength {
		base = strings.TrimRight(base[:slugBaseMaxLength], "-")
	}
	if base == "" {
		return fmt.Sprintf("company-%d", companyID)
	}
	return base
}
