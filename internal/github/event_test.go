package github

import (
	"testing"

	"github.com/m-mizutani/gt"
)

func TestParseEvent(t *testing.T) {
	t.Run("repository fields", func(t *testing.T) {
		ev := ParseEvent("push", []byte(`{"repository":{"full_name":"acme/widget","html_url":"https://github.example.com/acme/widget"}}`))
		gt.Equal(t, ev.Kind, KindPush)
		gt.Equal(t, ev.RepoFullName, "acme/widget")
		gt.Equal(t, ev.RepoURL, "https://github.example.com/acme/widget")
	})

	t.Run("url derived from name", func(t *testing.T) {
		ev := ParseEvent("star", []byte(`{"repository":{"full_name":"acme/widget"}}`))
		gt.Equal(t, ev.RepoURL, "https://github.com/acme/widget")
	})

	t.Run("no repository", func(t *testing.T) {
		ev := ParseEvent("ping", []byte(`{"zen":"hi"}`))
		gt.Equal(t, ev.RepoFullName, UnknownRepo)
		gt.Equal(t, ev.RepoURL, "https://github.com/"+UnknownRepo)
	})

	t.Run("invalid json", func(t *testing.T) {
		ev := ParseEvent("push", []byte(`{not json`))
		gt.Equal(t, ev.RepoFullName, UnknownRepo)
		gt.Equal(t, string(ev.RawPayload), `{not json`)
	})
}
