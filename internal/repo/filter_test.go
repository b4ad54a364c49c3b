package repo

import (
	"context"
	"testing"
	"time"

	"dealpipe/internal/deal"
)

func ptr[T any](v T) *T {
	return &v
}

// seedDeals returns a small fixed pipeline for filter tests.
func seedDeals() []deal.Deal {
	return []deal.Deal{
		{
			ID: "D-1", Name: "Acme rollout", Owner: "Alice", Stage: deal.StageProposal,
			Probability: 60, Amount: ptr(75000.0), Region: "London",
			Created:     time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC),
			NextStepDate: ptr(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)),
			LastContact: ptr(time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)),
			Tags:        []string{"enterprise", "renewal"},
			PromoterName: "Carol", PromoterEmail: "carol@example.com",
		},
		{
			ID: "D-2", Name: "Beta pilot", Owner: "Alice", Stage: deal.StageLead,
			Probability: 10, Amount: ptr(20000.0), Region: "Manchester",
			Created:     time.Date(2025, time.February, 5, 0, 0, 0, 0, time.UTC),
			LastContact: ptr(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)),
			Tags:        []string{"pilot"},
		},
		{
			ID: "D-3", Name: "Gamma expansion", Owner: "Bob", Stage: deal.StageNegotiation,
			Probability: 80, Region: "London", Notes: "expansion of acme estate",
			Created: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}

func seededRepo(t *testing.T) *Memory {
	t.Helper()

	m := NewMemory(testEnv())

	for _, d := range seedDeals() {
		_, _, err := m.Upsert(context.Background(), d)
		if err != nil {
			t.Fatalf("seeding failed: %v", err)
		}
	}

	return m
}

func queryIDs(t *testing.T, m *Memory, f Filter) []string {
	t.Helper()

	got, err := m.Query(context.Background(), f, fixedDate)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	ids := make([]string, 0, len(got))
	for _, d := range got {
		ids = append(ids, d.ID)
	}

	return ids
}

func assertIDs(t *testing.T, got, want []string) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestFilter_EmptyMatchesEverything(t *testing.T) {
	t.Parallel()

	m := seededRepo(t)

	assertIDs(t, queryIDs(t, m, Filter{}), []string{"D-1", "D-2", "D-3"})
}

func TestFilter_ConjunctionOwnerAndMinAmount(t *testing.T) {
	t.Parallel()

	m := seededRepo(t)

	// Owner alone matches D-1 and D-2; the amount bound narrows to D-1.
	f := Filter{Owner: "Alice", MinAmount: ptr(50000.0)}

	assertIDs(t, queryIDs(t, m, f), []string{"D-1"})
}

func TestFilter_AmountRangeExcludesMissingAmount(t *testing.T) {
	t.Parallel()

	m := seededRepo(t)

	// D-3 has no amount and must not match a bounded filter.
	f := Filter{MinAmount: ptr(0.0)}

	assertIDs(t, queryIDs(t, m, f), []string{"D-1", "D-2"})
}

func TestFilter_StageSetMembership(t *testing.T) {
	t.Parallel()

	m := seededRepo(t)

	f := Filter{Stages: []deal.Stage{deal.StageLead, deal.StageNegotiation}}

	assertIDs(t, queryIDs(t, m, f), []string{"D-2", "D-3"})
}

func TestFilter_SearchAcrossFields(t *testing.T) {
	t.Parallel()

	m := seededRepo(t)

	// Matches D-1 on name and D-3 on notes.
	assertIDs(t, queryIDs(t, m, Filter{Search: "ACME"}), []string{"D-1", "D-3"})
}

func TestFilter_OverdueNextStepUsesReferenceDate(t *testing.T) {
	t.Parallel()

	m := seededRepo(t)

	assertIDs(t, queryIDs(t, m, Filter{OverdueNextStep: true}), []string{"D-1"})

	// Earlier reference date: D-1's next step is not yet overdue.
	got, err := m.Query(context.Background(), Filter{OverdueNextStep: true},
		time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	if len(got) != 0 {
		t.Errorf("expected no overdue deals at earlier reference date, got %d", len(got))
	}
}

func TestFilter_NoContactInDays(t *testing.T) {
	t.Parallel()

	m := seededRepo(t)

	// 30 days before 2025-03-15 is 2025-02-13: D-2 (contacted Jan 1) and
	// D-3 (never contacted) qualify; D-1 (contacted Mar 10) does not.
	f := Filter{NoContactInDays: 30}

	assertIDs(t, queryIDs(t, m, f), []string{"D-2", "D-3"})
}

func TestFilter_DateRangeOverDesignatedField(t *testing.T) {
	t.Parallel()

	m := seededRepo(t)

	f := Filter{
		DateField: DateCreated,
		DateFrom:  ptr(time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)),
		DateTo:    ptr(time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC)),
	}

	assertIDs(t, queryIDs(t, m, f), []string{"D-2"})
}

func TestFilter_TagsSuperset(t *testing.T) {
	t.Parallel()

	m := seededRepo(t)

	assertIDs(t, queryIDs(t, m, Filter{Tags: []string{"Enterprise"}}), []string{"D-1"})
	assertIDs(t, queryIDs(t, m, Filter{Tags: []string{"enterprise", "missing"}}), nil)
}

func TestFilter_PromoterIdentity(t *testing.T) {
	t.Parallel()

	m := seededRepo(t)

	assertIDs(t, queryIDs(t, m, Filter{PromoterEmail: "CAROL@example.com"}), []string{"D-1"})
}

func TestFilter_RegionEquality(t *testing.T) {
	t.Parallel()

	m := seededRepo(t)

	assertIDs(t, queryIDs(t, m, Filter{Region: "london"}), []string{"D-1", "D-3"})
}
