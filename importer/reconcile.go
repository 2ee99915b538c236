package importer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mmdigital/analytics_backend/models"
	"github.com/shopspring/decimal"
)

// RecordStore is the persistence surface the reconciler needs. models.Store
// backs it in production; tests swap in an in-memory fake.
type RecordStore interface {
	FindBySourceFile(ctx context.Context, sourceFile string) ([]*models.AnalyticsRecord, error)
	Insert(ctx context.Context, record *models.AnalyticsRecord) error
	Update(ctx context.Context, record *models.AnalyticsRecord, patch models.RecordPatch) error
}

const unknownClient = "Unknown Client"

// minimum budget a record may carry after the negative-value clamp
var clampBudget = decimal.NewFromFloat(0.01)

// IdentityKey derives the stable identity of a record from its client,
// platform, country and year. Re-imports of the same file must hit the
// same key so budgets get updated in place instead of duplicated.
func IdentityKey(client string, platform models.Platform, country string, year int) string {
	raw := strings.ToLower(fmt.Sprintf("%s|%s|%s|%d", client, platform, country, year))
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func candidateKey(c Candidate) string {
	year := 0
	if c.Date != nil {
		year = c.Date.Year()
	}
	return IdentityKey(c.Client, c.Platform, c.Country, year)
}

func recordKey(r *models.AnalyticsRecord) string {
	year := 0
	if r.Date != nil {
		year = r.Date.Year()
	}
	return IdentityKey(r.Client, r.Platform, r.Country, year)
}

// Reconciler upserts candidates against the records already imported from
// the same source file. The cache is loaded once per file and kept in sync
// with inserts, so duplicate rows inside one file collapse to updates.
type Reconciler struct {
	store      RecordStore
	sourceFile string
	cache      map[string]*models.AnalyticsRecord
}

func NewReconciler(ctx context.Context, store RecordStore, sourceFile string) (*Reconciler, error) {
	existing, err := store.FindBySourceFile(ctx, sourceFile)
	if err != nil {
		return nil, err
	}
	cache := make(map[string]*models.AnalyticsRecord, len(existing))
	for _, record := range existing {
		cache[recordKey(record)] = record
	}
	return &Reconciler{store: store, sourceFile: sourceFile, cache: cache}, nil
}

// Outcome classifies what Reconcile did with a candidate.
type Outcome int

const (
	OutcomeCreated Outcome = iota
	OutcomeUpdated
	OutcomeSkipped
)

// Reconcile validates a candidate and persists it. Skips return the
// human-readable reason carried into the import diagnostics.
func (rc *Reconciler) Reconcile(ctx context.Context, c Candidate) (Outcome, string, error) {
	if c.Client == "" || c.Client == unknownClient {
		return OutcomeSkipped, "missing or invalid client data", nil
	}

	if c.Budget.IsNegative() {
		c.Budget = clampBudget
	}
	if !c.Budget.IsPositive() {
		return OutcomeSkipped, "invalid budget (zero or negative)", nil
	}

	if c.Date == nil {
		return OutcomeSkipped, "invalid or missing date", nil
	}

	key := candidateKey(c)
	if existing, ok := rc.cache[key]; ok {
		patch := models.RecordPatch{
			Agency:     c.Agency,
			Budget:     c.Budget,
			SourceFile: rc.sourceFile,
		}
		if err := rc.store.Update(ctx, existing, patch); err != nil {
			return OutcomeSkipped, "", err
		}
		existing.Agency = patch.Agency
		existing.Budget = patch.Budget
		existing.SourceFile = patch.SourceFile
		return OutcomeUpdated, "", nil
	}

	record := &models.AnalyticsRecord{
		Client:     c.Client,
		Agency:     c.Agency,
		Budget:     c.Budget,
		Platform:   c.Platform,
		Country:    c.Country,
		Date:       c.Date,
		SourceFile: rc.sourceFile,
	}
	if err := rc.store.Insert(ctx, record); err != nil {
		return OutcomeSkipped, "", err
	}
	rc.cache[key] = record
	return OutcomeCreated, "", nil
}
