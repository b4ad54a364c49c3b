package env

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// idPrefix starts every record identifier.
const idPrefix = "D"

// idDateLayout is the date component embedded in every identifier.
const idDateLayout = "20060102"

// suffixLen is the length of the random/seeded hex suffix.
const suffixLen = 8

// formatID assembles "D-YYYYMMDD-<suffix>".
func formatID(now time.Time, suffix string) string {
	return idPrefix + "-" + now.Format(idDateLayout) + "-" + suffix
}

// randomIDs generates unique, non-reproducible identifiers.
type randomIDs struct{}

// NewRandomIDs returns the production identifier source: date plus a random
// suffix taken from a v4 UUID.
func NewRandomIDs() IDSource {
	return randomIDs{}
}

// NewID implements IDSource.
func (randomIDs) NewID(now time.Time) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")

	return formatID(now, raw[:suffixLen])
}

// seededIDs generates a reproducible pseudo-random identifier sequence.
type seededIDs struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededIDs returns an identifier source whose sequence is fully
// determined by the seed. Used for reproducible synthetic datasets.
func NewSeededIDs(seed int64) IDSource {
	return &seededIDs{rng: rand.New(rand.NewSource(seed))} //nolint:gosec // reproducibility is the point
}

// NewID implements IDSource.
func (s *seededIDs) NewID(now time.Time) string {
	s.mu.Lock()
	suffix := fmt.Sprintf("%08x", s.rng.Uint32())
	s.mu.Unlock()

	return formatID(now, suffix)
}

// sequentialIDs generates predictable counter-based identifiers.
type sequentialIDs struct {
	next atomic.Uint64
}

// NewSequentialIDs returns an identifier source that counts up from
// 00000001. Used by exact-value unit tests.
func NewSequentialIDs() IDSource {
	return &sequentialIDs{}
}

// NewID implements IDSource.
func (s *sequentialIDs) NewID(now time.Time) string {
	return formatID(now, fmt.Sprintf("%08d", s.next.Add(1)))
}
