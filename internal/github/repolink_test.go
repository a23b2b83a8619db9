package github

import (
	"testing"

	"github.com/m-mizutani/gt"
)

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{input: "https://github.com/acme/widget", want: "acme/widget", ok: true},
		{input: "https://github.com/a/b/", want: "a/b", ok: true},
		{input: "  https://github.com/acme/widget.go  ", want: "acme/widget.go", ok: true},
		{input: "https://github.com/my-org/repo_name", want: "my-org/repo_name", ok: true},
		{input: "https://github.com/acme"},
		{input: "https://github.com/acme/"},
		{input: "https://github.com/acme/widget/tree/main"},
		{input: "https://github.com//widget"},
		{input: "https://github.com/acme/wid get"},
		{input: "http://github.com/acme/widget"},
		{input: "github.com/acme/widget"},
		{input: "not-a-url"},
		{input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseRepoURL(tt.input)
			gt.Equal(t, ok, tt.ok)
			gt.Equal(t, got, tt.want)
		})
	}
}
