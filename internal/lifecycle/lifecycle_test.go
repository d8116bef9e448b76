package lifecycle

import "testing"

func TestShuttingDown(t *testing.T) {
	defer SetShuttingDown(false)
	if IsShuttingDown() {
		t.Fatal("IsShuttingDown() = true before any signal")
	}
	SetShuttingDown(true)
	if !IsShuttingDown() {
		t.Error("IsShuttingDown() = false after SetShuttingDown(true)")
	}
}

func TestReady(t *testing.T) {
	defer SetReady(false)
	if IsReady() {
		t.Fatal("IsReady() = true before startup completed")
	}
	SetReady(true)
	if !IsReady() {
		t.Error("IsReady() = false after SetReady(true)")
	}
}
