package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"

	"parcellocker/internal/core/domain/model/order"
	"parcellocker/internal/core/ports"
)

// ErrPickupCodeSpaceExhausted is returned when every draw of one Generate call collided.
var ErrPickupCodeSpaceExhausted = errors.New("could not allocate a unique pickup code")

// DefaultPickupCodeAttempts bounds the number of draws per Generate call.
const DefaultPickupCodeAttempts = 10

// PickupCodeGenerator produces globally unique pickup codes.
//
// Uniqueness does not rely on a read before write: every candidate is claimed
// through the registry in one atomic statement, and a colliding draw is simply
// replaced by a fresh one. The orders table carries its own unique index on the
// code as a second line of defence.
type PickupCodeGenerator struct {
	registry    ports.PickupCodeRegistry
	random      io.Reader
	maxAttempts int
}

func NewPickupCodeGenerator(registry ports.PickupCodeRegistry) PickupCodeGenerator {
	return PickupCodeGenerator{
		registry:    registry,
		random:      rand.Reader,
		maxAttempts: DefaultPickupCodeAttempts,
	}
}

// WithRandom replaces the entropy source. Intended for tests.
func (g PickupCodeGenerator) WithRandom(random io.Reader) PickupCodeGenerator {
	g.random = random
	return g
}

// Generate draws codes until one is claimed or the attempts are exhausted.
func (g PickupCodeGenerator) Generate(ctx context.Context) (order.PickupCode, error) {
	upper := new(big.Int).Exp(big.NewInt(10), big.NewInt(order.PickupCodeLength), nil)

	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		n, err := rand.Int(g.random, upper)
		if err != nil {
			return order.PickupCode{}, fmt.Errorf("draw pickup code: %w", err)
		}

		code, err := order.NewPickupCode(fmt.Sprintf("%0*d", order.PickupCodeLength, n))
		if err != nil {
			return order.PickupCode{}, err
		}

		claimed, err := g.registry.Claim(ctx, code)
		if err != nil {
			return order.PickupCode{}, err
		}
		if claimed {
			return code, nil
		}
	}

	return order.PickupCode{}, ErrPickupCodeSpaceExhausted
}
