package types

import "testing"

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"i64", "i64"},
		{"u8", "u8"},
		{"f32", "f32"},
		{"&i64", "&i64"},
		{"&'a i64", "&'a i64"},
		{"&'a mut Vec<&'b str>", "&'a mut Vec<&'b str>"},
		{"&mut [i32]", "&mut [i32]"},
		{"[i32; 4]", "[i32; 4]"},
		{"(i32, bool)", "(i32, bool)"},
		{"(i32,)", "(i32,)"},
		{"(i32)", "i32"},
		{"()", "unit"},
		{"i32?", "i32?"},
		{"Option<str>", "str?"},
		{"Result<i32, str>", "Result<i32, str>"},
		{"Map<str, i64>", "Map<str, i64>"},
		{"fn(i32, &str) -> bool", "fn(i32, &str) -> bool"},
		{"fn()", "fn() -> unit"},
		{"*const u8", "*u8"},
		{"std::Box<T>", "std::Box<T>"},
		{"_", "_"},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.in, err)
		}
		if got.String() != tt.want {
			t.Fatalf("Parse(%q).String() = %q, want %q", tt.in, got.String(), tt.want)
		}
		again, err := Parse(got.String())
		if err != nil || !Equal(got, again) {
			t.Fatalf("reparse of %q differs: %v", got.String(), err)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "&", "&'", "[i32", "[i32; x]", "(i32, bool", "Result<i32>", "Map<str>", "i32 i32", "fn(i32"} {
		if _, err := Parse(in); err == nil {
			t.Fatalf("Parse(%q): expected error", in)
		}
	}
}

func TestIsCopy(t *testing.T) {
	tests := []struct {
		ty   string
		want bool
	}{
		{"i64", true},
		{"bool", true},
		{"unit", true},
		{"never", true},
		{"&str", true},
		{"&mut i32", false},
		{"[i32]", false},
		{"[i32; 3]", true},
		{"[str; 3]", false},
		{"(i32, &str)", true},
		{"(i32, str)", false},
		{"i32?", true},
		{"str?", false},
		{"Result<i32, bool>", true},
		{"Result<i32, str>", false},
		{"str", false},
		{"Map<i32, i32>", false},
		{"Point", false},
		{"Vec<i32>", false},
		{"fn(i32) -> i32", true},
		{"*u8", true},
		{"_", true},
	}
	for _, tt := range tests {
		if got := IsCopy(MustParse(tt.ty)); got != tt.want {
			t.Fatalf("IsCopy(%s) = %v, want %v", tt.ty, got, tt.want)
		}
	}
}

func TestHasReference(t *testing.T) {
	if !MustParse("Vec<(i32, &str)>").HasReference() {
		t.Fatalf("expected nested reference to be found")
	}
	if MustParse("Result<i32, [u8]>").HasReference() {
		t.Fatalf("unexpected reference")
	}
	if MustParse("fn(&i64) -> &i64").HasReference() {
		t.Fatalf("references inside a function type leaked out")
	}
	if !MustParse("(fn(i64) -> i64, &str)").HasReference() {
		t.Fatalf("reference next to a function type missed")
	}
	if !MustParse("&i32").IsReference() || MustParse("*i32").IsReference() {
		t.Fatalf("IsReference mismatch")
	}
}
