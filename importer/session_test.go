package importer

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/mmdigital/analytics_backend/models"
)

func vendorRow(client, budget, date string) Row {
	return Row{"client": client, "budget": budget, "date": date, "country": "DE", "agency": "direct"}
}

func TestRunImport_VendorFileCounts(t *testing.T) {
	store := &fakeStore{}
	rows := []Row{
		vendorRow("Acme", "$1,200.00", "2024-03-15"),
		vendorRow("Globex", "500", "2024-03-15"),
		vendorRow("", "100", "2024-03-15"),       // missing client
		vendorRow("Initech", "0", "2024-03-15"),  // zero budget
		vendorRow("Umbrella", "300", "not-a-date"),
		{},                                        // empty row
	}

	result, err := RunImport(context.Background(), store, "google-q1.xlsx", rows)
	if err != nil {
		t.Fatalf("RunImport error: %v", err)
	}
	if result.Created != 2 {
		t.Fatalf("expected 2 created, got %d", result.Created)
	}
	if result.Skipped != 4 {
		t.Fatalf("expected 4 skipped, got %d", result.Skipped)
	}
	if result.Failed != 0 {
		t.Fatalf("expected 0 failed, got %d", result.Failed)
	}
	if len(result.Diagnostics) != 4 {
		t.Fatalf("expected 4 diagnostics, got %d", len(result.Diagnostics))
	}

	// All created records carry the platform inferred from the filename.
	for _, r := range store.records {
		if r.Platform != "google" {
			t.Fatalf("expected google platform, got %q", r.Platform)
		}
	}
}

func TestRunImport_RowIndexMatchesSpreadsheet(t *testing.T) {
	store := &fakeStore{}
	rows := []Row{
		vendorRow("Acme", "100", "2024-03-15"),
		vendorRow("", "100", "2024-03-15"),
	}
	result, err := RunImport(context.Background(), store, "google.xlsx", rows)
	if err != nil {
		t.Fatalf("RunImport error: %v", err)
	}
	if len(result.Diagnostics) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(result.Diagnostics))
	}
	// Header is row 1, so the second data row is row 3.
	if result.Diagnostics[0].RowIndex != 3 {
		t.Fatalf("expected row index 3, got %d", result.Diagnostics[0].RowIndex)
	}
}

func TestRunImport_ExportFileReadsPlatformColumn(t *testing.T) {
	store := &fakeStore{}
	rows := []Row{
		{"client": "Acme", "agency": "Dentsu", "budget": "1000", "platform": "TikTok", "country": "FR", "date": "2024-01-10"},
	}
	result, err := RunImport(context.Background(), store, "analytics-records-2024-01-05-10-30-00.xlsx", rows)
	if err != nil {
		t.Fatalf("RunImport error: %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("expected 1 created, got %d", result.Created)
	}
	if store.records[0].Platform != "tiktok" {
		t.Fatalf("expected tiktok, got %q", store.records[0].Platform)
	}
	if store.records[0].Agency != "Dentsu" {
		t.Fatalf("expected Dentsu, got %q", store.records[0].Agency)
	}
}

func TestRunImport_ReimportIsIdempotent(t *testing.T) {
	store := &fakeStore{}
	var rows []Row
	for i := 0; i < 5; i++ {
		rows = append(rows, vendorRow(fmt.Sprintf("Client %d", i), "100", "2024-03-15"))
	}

	first, err := RunImport(context.Background(), store, "google.xlsx", rows)
	if err != nil {
		t.Fatalf("first RunImport error: %v", err)
	}
	if first.Created != 5 || first.Updated != 0 {
		t.Fatalf("first import: expected 5 created, got %d created %d updated", first.Created, first.Updated)
	}

	second, err := RunImport(context.Background(), store, "google.xlsx", rows)
	if err != nil {
		t.Fatalf("second RunImport error: %v", err)
	}
	if second.Created != 0 || second.Updated != 5 {
		t.Fatalf("second import: expected 5 updated, got %d created %d updated", second.Created, second.Updated)
	}
	if len(store.records) != 5 {
		t.Fatalf("expected 5 records after re-import, got %d", len(store.records))
	}
}

// panicStore blows up on a chosen client to prove a bad row cannot sink
// the rest of the file.
type panicStore struct {
	fakeStore
	panicOnClient string
}

func (s *panicStore) Insert(ctx context.Context, record *models.AnalyticsRecord) error {
	if record.Client == s.panicOnClient {
		panic("corrupted row")
	}
	return s.fakeStore.Insert(ctx, record)
}

func TestRunImport_PanicConfinedToRow(t *testing.T) {
	store := &panicStore{panicOnClient: "Client 4"}
	var rows []Row
	for i := 0; i < 10; i++ {
		rows = append(rows, vendorRow(fmt.Sprintf("Client %d", i), "100", "2024-03-15"))
	}

	result, err := RunImport(context.Background(), store, "google.xlsx", rows)
	if err != nil {
		t.Fatalf("RunImport error: %v", err)
	}
	if result.Created != 9 {
		t.Fatalf("expected 9 created, got %d", result.Created)
	}
	if result.Failed != 1 {
		t.Fatalf("expected 1 failed, got %d", result.Failed)
	}
	var failed *Diagnostic
	for i := range result.Diagnostics {
		if result.Diagnostics[i].Kind == DiagnosticFailed {
			failed = &result.Diagnostics[i]
		}
	}
	if failed == nil {
		t.Fatal("expected a failed diagnostic")
	}
	if !strings.HasPrefix(failed.Reason, "processing error:") {
		t.Fatalf("unexpected reason %q", failed.Reason)
	}
}

func TestRunImport_DiagnosticReasonsAreHumanReadable(t *testing.T) {
	store := &fakeStore{}
	rows := []Row{vendorRow("", "100", "2024-03-15")}
	result, err := RunImport(context.Background(), store, "google.xlsx", rows)
	if err != nil {
		t.Fatalf("RunImport error: %v", err)
	}
	if len(result.Diagnostics) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(result.Diagnostics))
	}
	if strings.Contains(result.Diagnostics[0].Reason, "error code") {
		t.Fatalf("reason should be plain language, got %q", result.Diagnostics[0].Reason)
	}
	if result.Diagnostics[0].Kind != DiagnosticSkipped {
		t.Fatalf("expected skipped kind, got %q", result.Diagnostics[0].Kind)
	}
}
