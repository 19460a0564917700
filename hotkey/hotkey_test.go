package hotkey

import (
	"reflect"
	"testing"
)

func TestParseCombo(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"f8", []string{"f8"}},
		{"F10", []string{"f10"}},
		{"shift+f9", []string{"shift", "f9"}},
		{"Shift + F9", []string{"shift", "f9"}},
		{"Control+Alt+Q", []string{"ctrl", "alt", "q"}},
		{"win+Escape", []string{"cmd", "esc"}},
		{"", nil},
		{"+", nil},
	}
	for _, c := range cases {
		if got := ParseCombo(c.in); !reflect.DeepEqual(got, c.want) {
			t.Errorf("ParseCombo(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestRegister_RejectsEmptyCombo(t *testing.T) {
	m := NewManager(nil)
	if err := m.Register("", func() {}); err == nil {
		t.Fatal("expected error for empty combo")
	}
	if err := m.Register("shift+f9", func() {}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
