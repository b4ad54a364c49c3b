package env

import (
	"strings"
	"testing"
	"time"
)

var testDate = time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)

func TestSequentialIDs_ExactValues(t *testing.T) {
	t.Parallel()

	ids := NewSequentialIDs()

	first := ids.NewID(testDate)
	if first != "D-20250315-00000001" {
		t.Errorf("expected D-20250315-00000001, got %q", first)
	}

	second := ids.NewID(testDate)
	if second != "D-20250315-00000002" {
		t.Errorf("expected D-20250315-00000002, got %q", second)
	}
}

func TestSeededIDs_ReproducibleAcrossInstances(t *testing.T) {
	t.Parallel()

	const seed = 42

	const count = 10

	first := NewSeededIDs(seed)
	second := NewSeededIDs(seed)

	for i := 0; i < count; i++ {
		a := first.NewID(testDate)
		b := second.NewID(testDate)

		if a != b {
			t.Fatalf("sequence diverged at %d: %q vs %q", i, a, b)
		}
	}
}

func TestSeededIDs_DifferentSeedsDiverge(t *testing.T) {
	t.Parallel()

	a := NewSeededIDs(1).NewID(testDate)
	b := NewSeededIDs(2).NewID(testDate)

	if a == b {
		t.Errorf("different seeds produced identical first ID %q", a)
	}
}

func TestRandomIDs_Shape(t *testing.T) {
	t.Parallel()

	id := NewRandomIDs().NewID(testDate)

	if !strings.HasPrefix(id, "D-20250315-") {
		t.Errorf("unexpected prefix: %q", id)
	}

	if len(id) != len("D-20250315-")+suffixLen {
		t.Errorf("unexpected length: %q", id)
	}
}

func TestRandomIDs_Unique(t *testing.T) {
	t.Parallel()

	ids := NewRandomIDs()
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		id := ids.NewID(testDate)
		if seen[id] {
			t.Fatalf("duplicate ID %q", id)
		}

		seen[id] = true
	}
}

func TestEnv_FixedClockThreadsThrough(t *testing.T) {
	t.Parallel()

	e := Env{Clock: NewFixedClock(testDate), IDs: NewSequentialIDs()}

	if !e.Now().Equal(testDate) {
		t.Errorf("expected fixed time, got %v", e.Now())
	}

	id := e.NewID()
	if id != "D-20250315-00000001" {
		t.Errorf("unexpected ID %q", id)
	}
}
