package db

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestPoolReport_JSONShape(t *testing.T) {
	report := PoolReport{
		Status:        "ok",
		TotalConns:    10,
		IdleConns:     6,
		AcquiredConns: 4,
		MaxConns:      20,
		WaitCount:     3,
		WaitTime:      "1.5s",
	}

	raw, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("marshal report: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}

	for _, key := range []string{"status", "totalConns", "idleConns", "acquiredConns", "maxConns", "waitCount", "waitTime"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("expected key %q in payload, got %s", key, raw)
		}
	}
	if _, ok := decoded["error"]; ok {
		t.Errorf("error key should be omitted for a healthy report, got %s", raw)
	}
}

func TestPoolReport_ErrorIncludedWhenUnavailable(t *testing.T) {
	report := PoolReport{
		Status: "unavailable",
		Error:  "connection refused",
	}

	raw, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("marshal report: %v", err)
	}
	if !strings.Contains(string(raw), `"error":"connection refused"`) {
		t.Errorf("expected error field in payload, got %s", raw)
	}
	if !strings.Contains(string(raw), `"status":"unavailable"`) {
		t.Errorf("expected unavailable status in payload, got %s", raw)
	}
}
