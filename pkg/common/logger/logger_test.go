package logger

import "testing"

func TestWithComponentTagsEntries(t *testing.T) {
	Init()

	entry := WithComponent("kafka")
	if got, ok := entry.Data["component"]; !ok || got != "kafka" {
		t.Fatalf("expected component field kafka, got %v", entry.Data)
	}

	chained := WithComponent("dashboard-cache").WithField("key", "dashboard:patient:p1:cycle:3")
	if chained.Data["component"] != "dashboard-cache" {
		t.Fatalf("expected component preserved through chaining, got %v", chained.Data)
	}
	if chained.Data["key"] != "dashboard:patient:p1:cycle:3" {
		t.Fatalf("expected chained field retained, got %v", chained.Data)
	}
}
