package importer

import (
	"context"
	"testing"
	"time"

	"github.com/mmdigital/analytics_backend/models"
	"github.com/shopspring/decimal"
)

// fakeStore keeps records in memory so reconciliation can be exercised
// without a database.
type fakeStore struct {
	records []*models.AnalyticsRecord
	nextID  int
	updates int
}

func (s *fakeStore) FindBySourceFile(ctx context.Context, sourceFile string) ([]*models.AnalyticsRecord, error) {
	var out []*models.AnalyticsRecord
	for _, r := range s.records {
		if r.SourceFile == sourceFile {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) Insert(ctx context.Context, record *models.AnalyticsRecord) error {
	s.nextID++
	record.ID = s.nextID
	s.records = append(s.records, record)
	return nil
}

func (s *fakeStore) Update(ctx context.Context, record *models.AnalyticsRecord, patch models.RecordPatch) error {
	s.updates++
	for _, r := range s.records {
		if r.ID == record.ID {
			r.Agency = patch.Agency
			r.Budget = patch.Budget
			r.SourceFile = patch.SourceFile
			return nil
		}
	}
	return nil
}

func dateOf(year, month, day int) *time.Time {
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return &d
}

func validCandidate() Candidate {
	return Candidate{
		Client:   "Acme",
		Agency:   "direct",
		Budget:   decimal.NewFromInt(1200),
		Platform: models.PlatformGoogle,
		Country:  "DE",
		Date:     dateOf(2024, 3, 15),
	}
}

func newTestReconciler(t *testing.T, store RecordStore, sourceFile string) *Reconciler {
	t.Helper()
	rc, err := NewReconciler(context.Background(), store, sourceFile)
	if err != nil {
		t.Fatalf("NewReconciler error: %v", err)
	}
	return rc
}

func TestReconcile_CreatesNewRecord(t *testing.T) {
	store := &fakeStore{}
	rc := newTestReconciler(t, store, "google.xlsx")

	outcome, reason, err := rc.Reconcile(context.Background(), validCandidate())
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if outcome != OutcomeCreated {
		t.Fatalf("expected created, got %v (%s)", outcome, reason)
	}
	if len(store.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(store.records))
	}
	if store.records[0].SourceFile != "google.xlsx" {
		t.Fatalf("unexpected source file %q", store.records[0].SourceFile)
	}
}

func TestReconcile_DuplicateInSameFileUpdates(t *testing.T) {
	store := &fakeStore{}
	rc := newTestReconciler(t, store, "google.xlsx")

	first := validCandidate()
	if outcome, _, _ := rc.Reconcile(context.Background(), first); outcome != OutcomeCreated {
		t.Fatal("expected first row to create")
	}

	second := validCandidate()
	second.Budget = decimal.NewFromInt(2000)
	outcome, _, err := rc.Reconcile(context.Background(), second)
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if outcome != OutcomeUpdated {
		t.Fatalf("expected updated, got %v", outcome)
	}
	if len(store.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(store.records))
	}
	if !store.records[0].Budget.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("expected budget 2000, got %s", store.records[0].Budget)
	}
}

func TestReconcile_ReimportUpdatesInPlace(t *testing.T) {
	store := &fakeStore{}

	rc := newTestReconciler(t, store, "google.xlsx")
	if outcome, _, _ := rc.Reconcile(context.Background(), validCandidate()); outcome != OutcomeCreated {
		t.Fatal("expected create on first import")
	}

	// Second import of the same file: a fresh reconciler must find the
	// existing record and update it, not duplicate it.
	rc2 := newTestReconciler(t, store, "google.xlsx")
	c := validCandidate()
	c.Budget = decimal.NewFromInt(999)
	outcome, _, err := rc2.Reconcile(context.Background(), c)
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if outcome != OutcomeUpdated {
		t.Fatalf("expected updated, got %v", outcome)
	}
	if len(store.records) != 1 {
		t.Fatalf("expected 1 record after re-import, got %d", len(store.records))
	}
}

func TestReconcile_SkipsMissingClient(t *testing.T) {
	store := &fakeStore{}
	rc := newTestReconciler(t, store, "google.xlsx")

	for _, client := range []string{"", "Unknown Client"} {
		c := validCandidate()
		c.Client = client
		outcome, reason, err := rc.Reconcile(context.Background(), c)
		if err != nil {
			t.Fatalf("Reconcile error: %v", err)
		}
		if outcome != OutcomeSkipped {
			t.Fatalf("client %q: expected skipped, got %v", client, outcome)
		}
		if reason != "missing or invalid client data" {
			t.Fatalf("client %q: unexpected reason %q", client, reason)
		}
	}
}

func TestReconcile_NegativeBudgetClampedToMinimum(t *testing.T) {
	store := &fakeStore{}
	rc := newTestReconciler(t, store, "google.xlsx")

	c := validCandidate()
	c.Budget = decimal.NewFromInt(-5)
	outcome, _, err := rc.Reconcile(context.Background(), c)
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if outcome != OutcomeCreated {
		t.Fatalf("expected created, got %v", outcome)
	}
	if !store.records[0].Budget.Equal(decimal.NewFromFloat(0.01)) {
		t.Fatalf("expected clamped budget 0.01, got %s", store.records[0].Budget)
	}
}

func TestReconcile_SkipsZeroBudget(t *testing.T) {
	store := &fakeStore{}
	rc := newTestReconciler(t, store, "google.xlsx")

	c := validCandidate()
	c.Budget = decimal.Zero
	outcome, reason, err := rc.Reconcile(context.Background(), c)
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if outcome != OutcomeSkipped {
		t.Fatalf("expected skipped, got %v", outcome)
	}
	if reason != "invalid budget (zero or negative)" {
		t.Fatalf("unexpected reason %q", reason)
	}
}

func TestReconcile_SkipsMissingDate(t *testing.T) {
	store := &fakeStore{}
	rc := newTestReconciler(t, store, "google.xlsx")

	c := validCandidate()
	c.Date = nil
	outcome, reason, err := rc.Reconcile(context.Background(), c)
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if outcome != OutcomeSkipped {
		t.Fatalf("expected skipped, got %v", outcome)
	}
	if reason != "invalid or missing date" {
		t.Fatalf("unexpected reason %q", reason)
	}
}

func TestIdentityKey_StableAndCaseInsensitive(t *testing.T) {
	a := IdentityKey("Acme", models.PlatformGoogle, "DE", 2024)
	b := IdentityKey("acme", models.PlatformGoogle, "de", 2024)
	if a != b {
		t.Fatal("identity key must be case insensitive")
	}
	c := IdentityKey("Acme", models.PlatformGoogle, "DE", 2025)
	if a == c {
		t.Fatal("identity key must change with the year")
	}
}
