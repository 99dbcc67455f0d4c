package cli

import (
	"testing"

	"github.com/beriox/bexp/internal/experiment"
)

func TestParseVariants(t *testing.T) {
	variants, err := parseVariants("control=50,variant_a=25,variant_b=25")
	if err != nil {
		t.Fatalf("parseVariants: %v", err)
	}
	if len(variants) != 3 {
		t.Fatalf("expected 3 variants, got %d", len(variants))
	}

	if variants[0].ID != "control" || variants[0].Weight != 50 {
		t.Errorf("unexpected first variant: %+v", variants[0])
	}
	if variants[0].Type != experiment.VariantControl {
		t.Errorf("expected control type, got %q", variants[0].Type)
	}
	if variants[1].Type != experiment.VariantA {
		t.Errorf("expected variant_a type, got %q", variants[1].Type)
	}
	if variants[2].Type != experiment.VariantB {
		t.Errorf("expected variant_b type, got %q", variants[2].Type)
	}
}

func TestParseVariants_TrimsSpaces(t *testing.T) {
	variants, err := parseVariants("control=60, variant_a=40")
	if err != nil {
		t.Fatalf("parseVariants: %v", err)
	}
	if variants[1].ID != "variant_a" || variants[1].Weight != 40 {
		t.Errorf("unexpected second variant: %+v", variants[1])
	}
}

func TestParseVariants_Errors(t *testing.T) {
	tests := []struct {
		name string
		spec string
	}{
		{"single variant", "control=100"},
		{"missing weight", "control=50,variant_a"},
		{"empty id", "=50,variant_a=50"},
		{"bad weight", "control=fifty,variant_a=50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseVariants(tt.spec); err == nil {
				t.Errorf("expected error for %q", tt.spec)
			}
		})
	}
}

func TestVariantTypeFor(t *testing.T) {
	if got := variantTypeFor(2, "control"); got != experiment.VariantControl {
		t.Errorf("control id should always map to control type, got %q", got)
	}
	if got := variantTypeFor(3, "variant_c"); got != experiment.VariantC {
		t.Errorf("expected variant_c for index 3, got %q", got)
	}
	if got := variantTypeFor(5, "whatever"); got != experiment.VariantC {
		t.Errorf("indices past the named types fall back to variant_c, got %q", got)
	}
}
