package main

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"xlink-ingest/services"
)

func TestRecordIngestMetrics(t *testing.T) {
	completedBefore := testutil.ToFloat64(uploadsCompleted)
	failedBefore := testutil.ToFloat64(uploadsFailed)
	matchesBefore := testutil.ToFloat64(matchesWritten)
	warningsBefore := testutil.ToFloat64(warningsAccumulated)

	recordIngestMetrics(services.IngestResult{Matches: 12, Warnings: 3})
	recordIngestMetrics(services.IngestResult{Matches: 5, Warnings: 2, Err: errors.New("parse failed")})

	if got := testutil.ToFloat64(uploadsCompleted) - completedBefore; got != 1 {
		t.Errorf("uploads_completed_total: got delta %v, want 1", got)
	}
	if got := testutil.ToFloat64(uploadsFailed) - failedBefore; got != 1 {
		t.Errorf("uploads_failed_total: got delta %v, want 1", got)
	}
	// A failed upload still contributes the matches and warnings it wrote
	// before giving up.
	if got := testutil.ToFloat64(matchesWritten) - matchesBefore; got != 17 {
		t.Errorf("matches_written_total: got delta %v, want 17", got)
	}
	if got := testutil.ToFloat64(warningsAccumulated) - warningsBefore; got != 5 {
		t.Errorf("upload_warnings_total: got delta %v, want 5", got)
	}
}
