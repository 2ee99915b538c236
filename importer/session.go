package importer

import (
	"context"
	"fmt"

	"github.com/mmdigital/analytics_backend/config"
	"github.com/mmdigital/analytics_backend/models"
	"github.com/sirupsen/logrus"
)

// DiagnosticKind separates rows that were rejected by validation from
// rows that blew up while being processed.
type DiagnosticKind string

const (
	DiagnosticSkipped DiagnosticKind = "skipped"
	DiagnosticFailed  DiagnosticKind = "failed"
)

// Diagnostic describes one row that did not result in a create or update.
// RowIndex matches what the user sees in a spreadsheet, so the first data
// row is 2.
type Diagnostic struct {
	File     string         `json:"file"`
	RowIndex int            `json:"row_index"`
	Reason   string         `json:"reason"`
	Row      Row            `json:"row,omitempty"`
	Kind     DiagnosticKind `json:"kind"`
}

// SessionResult aggregates the outcome of one uploaded file.
type SessionResult struct {
	File        string       `json:"file"`
	Created     int          `json:"created"`
	Updated     int          `json:"updated"`
	Skipped     int          `json:"skipped"`
	Failed      int          `json:"failed"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// RunImport pushes every row of one file through extraction and
// reconciliation. A panic while processing a row is confined to that row:
// it becomes a failed diagnostic and the remaining rows still run.
func RunImport(ctx context.Context, store RecordStore, filename string, rows []Row) (*SessionResult, error) {
	logger := config.GetLogger()

	kind, platform := ClassifyFile(filename)

	reconciler, err := NewReconciler(ctx, store, filename)
	if err != nil {
		return nil, err
	}

	result := &SessionResult{File: filename}

	for i, row := range rows {
		rowIndex := i + 2
		processRow(ctx, reconciler, result, kind, platform, filename, rowIndex, row)
	}

	logger.WithFields(logrus.Fields{
		"file":    filename,
		"kind":    kind,
		"created": result.Created,
		"updated": result.Updated,
		"skipped": result.Skipped,
		"failed":  result.Failed,
	}).Info("import finished")

	return result, nil
}

func processRow(ctx context.Context, reconciler *Reconciler, result *SessionResult,
	kind FileKind, platform models.Platform, filename string, rowIndex int, row Row) {

	defer func() {
		if r := recover(); r != nil {
			result.Failed++
			result.Diagnostics = append(result.Diagnostics, Diagnostic{
				File:     filename,
				RowIndex: rowIndex,
				Reason:   fmt.Sprintf("processing error: %v", r),
				Row:      row,
				Kind:     DiagnosticFailed,
			})
		}
	}()

	if row.IsEmpty() {
		result.Skipped++
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			File:     filename,
			RowIndex: rowIndex,
			Reason:   "empty row",
			Kind:     DiagnosticSkipped,
		})
		return
	}

	var candidate Candidate
	if kind == KindExport {
		candidate = ExtractExportRow(row, platform)
	} else {
		candidate = ExtractVendorRow(row, platform)
	}

	outcome, reason, err := reconciler.Reconcile(ctx, candidate)
	if err != nil {
		result.Failed++
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			File:     filename,
			RowIndex: rowIndex,
			Reason:   fmt.Sprintf("processing error: %v", err),
			Row:      row,
			Kind:     DiagnosticFailed,
		})
		return
	}

	switch outcome {
	case OutcomeCreated:
		result.Created++
	case OutcomeUpdated:
		result.Updated++
	case OutcomeSkipped:
		result.Skipped++
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			File:     filename,
			RowIndex: rowIndex,
			Reason:   reason,
			Row:      row,
			Kind:     DiagnosticSkipped,
		})
	}
}
