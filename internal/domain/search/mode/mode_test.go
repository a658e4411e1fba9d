package mode

import "testing"

func TestIsValid(t *testing.T) {
	valid := []Mode{Simple, Complex}
	for _, m := range valid {
		if !m.IsValid() {
			t.Errorf("%q.IsValid() = false, want true", m)
		}
	}

	invalid := []Mode{"", "hybrid", "SIMPLE", "descriptive"}
	for _, m := range invalid {
		if m.IsValid() {
			t.Errorf("%q.IsValid() = true, want false", m)
		}
	}
}

func TestConstants(t *testing.T) {
	if Simple != "simple" {
		t.Errorf("Simple = %q", Simple)
	}
	if Complex != "complex" {
		t.Errorf("Complex = %q", Complex)
	}
}
