package llmjson

import (
	"reflect"
	"testing"
)

func TestClean(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"whitespace", "  {\"a\":1}\n", `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Clean(tc.in); got != tc.want {
				t.Fatalf("Clean(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseStringList(t *testing.T) {
	got, err := ParseStringList("Sure, here you go:\n```json\n[\"Congressional Bills\", \"News Articles\"]\n```")
	if err != nil {
		t.Fatalf("ParseStringList: %v", err)
	}
	want := []string{"Congressional Bills", "News Articles"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseStringList = %v, want %v", got, want)
	}

	if _, err := ParseStringList("no list here"); err == nil {
		t.Fatal("expected error for response without array")
	}
}

func TestUnmarshalMalformed(t *testing.T) {
	var v struct{ A int }
	if err := Unmarshal("{not json", &v); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
	if err := Unmarshal("", &v); err == nil {
		t.Fatal("expected error for empty response")
	}
}
