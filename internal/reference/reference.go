package reference

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Prefixes identify the operation that generated a payment reference.
const (
	DepositPrefix    = "tx"
	WithdrawalPrefix = "wd"
)

// Generator produces collision-resistant payment references of the form
// <prefix>_<ULID>. The ULID carries a millisecond timestamp plus random
// entropy, and the monotonic reader guarantees uniqueness even for calls
// within the same millisecond.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// New constructs a Generator seeded with crypto/rand entropy.
func New() *Generator {
	return &Generator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// Deposit returns a fresh deposit reference.
func (g *Generator) Deposit() string {
	return g.next(DepositPrefix)
}

// Withdrawal returns a fresh withdrawal reference.
func (g *Generator) Withdrawal() string {
	return g.next(WithdrawalPrefix)
}

func (g *Generator) next(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
	return prefix + "_" + id.String()
}
