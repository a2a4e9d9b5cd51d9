package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"BusinessID", KeyBusinessID, "b-42", BusinessID("b-42")},
		{"Host", KeyHost, "coolbreeze.example.com", Host("coolbreeze.example.com")},
		{"Source", KeySource, "host-mapping", Source("host-mapping")},
		{"Resource", KeyResource, "services", Resource("services")},
		{"Endpoint", KeyEndpoint, "/api/businesses/b-42", Endpoint("/api/businesses/b-42")},
		{"Stage", KeyStage, "aggregate", Stage("aggregate")},
		{"Route", KeyRoute, "service/ac-repair", Route("service/ac-repair")},
		{"Trade", KeyTrade, "hvac", Trade("hvac")},
		{"RequestID", KeyRequestID, "rid-1", RequestID("rid-1")},
	}
	for _, c := range cases {
		if c.attr.Key != c.attrKey {
			t.Errorf("%s: expected key %q got %q", c.name, c.attrKey, c.attr.Key)
		}
		if c.attr.Value.String() != c.attrVal {
			t.Errorf("%s: expected value %q got %q", c.name, c.attrVal, c.attr.Value.String())
		}
	}
}

func TestIntHelpers(t *testing.T) {
	if a := Attempt(3); a.Key != KeyAttempt || a.Value.Int64() != 3 {
		t.Fatalf("Attempt mismatch: %v", a)
	}
	if a := Status(503); a.Key != KeyStatus || a.Value.Int64() != 503 {
		t.Fatalf("Status mismatch: %v", a)
	}
	if a := DurationMS(12.5); a.Key != KeyDurationMS || a.Value.Float64() != 12.5 {
		t.Fatalf("DurationMS mismatch: %v", a)
	}
}

func TestErrorHelper(t *testing.T) {
	if a := Error(nil); a.Value.String() != "" {
		t.Fatalf("nil error should yield empty string, got %q", a.Value.String())
	}
	if a := Error(errors.New("boom")); a.Value.String() != "boom" {
		t.Fatalf("expected boom got %q", a.Value.String())
	}
}
