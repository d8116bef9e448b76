package main

import "testing"

// TestCoverageGaps_IntentionallyUntested documents why cmd/dataset-import has no unit tests.
func TestCoverageGaps_IntentionallyUntested(t *testing.T) {
	t.Skip("main.go is wiring-only; loading and SQLite writes are tested in internal/dataset")
}
