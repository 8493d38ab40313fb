package mention

import (
	"reflect"
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", []string{}},
		{"no at sign", "no mentions", []string{}},
		{"duplicates kept", "hi @bob and @bob", []string{"bob", "bob"}},
		{"lowercased", "ping @Alice.Smith", []string{"alice.smith"}},
		{"allowed punctuation", "@a-b_c.d done", []string{"a-b_c.d"}},
		{"start of text", "@carol", []string{"carol"}},
		{"email is not a mention", "mail me at bob@example.com", []string{}},
		{"bare at sign", "look @ this", []string{}},
		{"stops at disallowed char", "@dave! and (@erin)", []string{"dave", "erin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract(%q) = %#v, want %#v", tt.text, got, tt.want)
			}
		})
	}
}

// Extract keeps no state between calls, so the same input always yields the
// same output no matter how often or in what order it is scanned.
func TestExtractRestartable(t *testing.T) {
	first := Extract("@x @y")
	_ = Extract("@z")
	second := Extract("@x @y")
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated scans differ: %v vs %v", first, second)
	}
}

func TestContains(t *testing.T) {
	if !Contains("hey @Bob", "bob") {
		t.Error("expected bob to be mentioned")
	}
	if !Contains("hey @bob", "BOB") {
		t.Error("handle comparison should ignore case")
	}
	if Contains("hey @bobby", "bob") {
		t.Error("prefix of a handle is not a mention")
	}
	if Contains("hey @bob", "") {
		t.Error("empty handle never matches")
	}
}
