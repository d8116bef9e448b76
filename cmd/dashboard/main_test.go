package main

import "testing"

// TestCoverageGaps_IntentionallyUntested documents why cmd/dashboard has no unit tests.
func TestCoverageGaps_IntentionallyUntested(t *testing.T) {
	t.Skip("main.go is wiring-only; all logic lives in internal packages with tests. Entrypoint coverage would require exec or heavy mocking")
}
