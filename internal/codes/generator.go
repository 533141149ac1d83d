// Package codes issues the human-readable business identifiers used on
// change and payment requests: {PREFIX}-{YEAR}-{NNN}.
package codes

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

const (
	PrefixChange  = "BQ"
	PrefixPayment = "ZF"

	maxAttempts = 10
)

// ExistsFunc reports whether a candidate code is already taken.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

type Generator struct {
	rng *rand.Rand
	now func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
}

// Next produces a unique code, retrying on collision. The 3-digit random
// suffix keeps codes short; uniqueness is enforced against storage, not
// by the suffix space.
func (g *Generator) Next(ctx context.Context, prefix string, exists ExistsFunc) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code := fmt.Sprintf("%s-%s-%03d", prefix, g.now().Format("2006"), g.rng.Intn(999)+1)
		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check code %s: %w", code, err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique %s code after %d attempts", prefix, maxAttempts)
}
