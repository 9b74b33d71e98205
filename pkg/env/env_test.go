package env

import "testing"

func TestGetTrimsAndFallsBack(t *testing.T) {
	t.Setenv("NEARBUY_TEST_VALUE", "  ")
	if got := Get("NEARBUY_TEST_VALUE", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback for blank value, got %q", got)
	}
	t.Setenv("NEARBUY_TEST_VALUE", " console ")
	if got := Get("NEARBUY_TEST_VALUE", "json"); got != "console" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
}

func TestInstancePrefersExplicitID(t *testing.T) {
	t.Setenv("NEARBUY_INSTANCE_ID", "api-7")
	if got := Instance(); got != "api-7" {
		t.Fatalf("expected explicit instance id, got %q", got)
	}
	t.Setenv("NEARBUY_INSTANCE_ID", "")
	if got := Instance(); got == "" {
		t.Fatal("expected a non-empty instance fallback")
	}
}
