package ident_test

import (
	"encoding/json"
	"testing"

	"reelhouse/utils/ident"
)

func TestSameStringAndNumericForms(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"7", "7", true},
		{"7", "07", true},
		{"42", "42.0", true},
		{"abc", "abc", true},
		{"abc", "abc2", false},
		{"7", "8", false},
		{"", "7", false},
		{"", "", false},
		{"m4vk2x", "m4vk2x", true},
		{"Inf", "Inf", true}, // equal as strings even though not finite numbers
		{"NaN", "nan", false},
	}

	for _, tc := range cases {
		if got := ident.Same(ident.ID(tc.a), ident.ID(tc.b)); got != tc.want {
			t.Errorf("Same(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestSameIsSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"7", "07"}, {"abc", "abc2"}, {"12", "12"}, {"x", "12"},
	}
	for _, p := range pairs {
		a, b := ident.ID(p[0]), ident.ID(p[1])
		if ident.Same(a, b) != ident.Same(b, a) {
			t.Errorf("Same(%q, %q) is not symmetric", a, b)
		}
	}
}

func TestMatchesAny(t *testing.T) {
	targets := []ident.ID{"route-42", "42", "doc-abc"}

	if !ident.MatchesAny("042", targets...) {
		t.Fatal("expected numeric match against one of three targets")
	}
	if ident.MatchesAny("43", targets...) {
		t.Fatal("did not expect a match")
	}
	if ident.MatchesAny("", targets...) {
		t.Fatal("empty candidate must never match")
	}
}

func TestFromAny(t *testing.T) {
	if id, ok := ident.FromAny(float64(42)); !ok || id != "42" {
		t.Fatalf("FromAny(42.0) = %q, %v", id, ok)
	}
	if id, ok := ident.FromAny("  doc-1 "); !ok || id != "doc-1" {
		t.Fatalf("FromAny(string) = %q, %v", id, ok)
	}
	if _, ok := ident.FromAny(map[string]any{}); ok {
		t.Fatal("maps are not identifiers")
	}
	if _, ok := ident.FromAny(""); ok {
		t.Fatal("blank strings are not identifiers")
	}
}

func TestUnmarshalJSONAcceptsStringNumberNull(t *testing.T) {
	var holder struct {
		Movie ident.ID `json:"movie"`
	}

	for raw, want := range map[string]ident.ID{
		`{"movie": 42}`:      "42",
		`{"movie": "42"}`:    "42",
		`{"movie": "doc-x"}`: "doc-x",
		`{"movie": null}`:    "",
	} {
		holder.Movie = "sentinel"
		if err := json.Unmarshal([]byte(raw), &holder); err != nil {
			t.Fatalf("unmarshal %s: %v", raw, err)
		}
		if holder.Movie != want {
			t.Errorf("unmarshal %s = %q, want %q", raw, holder.Movie, want)
		}
	}
}
