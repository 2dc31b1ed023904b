package apikey

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/rhuss/outings/pkg/auth"
)

func TestAuthenticate(t *testing.T) {
	a := New([]Entry{{Key: "secret-1", User: "alice"}, {Key: "secret-2", User: "bob"}, {Key: "", User: "nobody"}})

	tests := []struct {
		name    string
		header  string
		want    auth.Decision
		subject string
	}{
		{"no header", "", auth.Abstain, ""},
		{"basic scheme", "Basic Zm9vOmJhcg==", auth.Abstain, ""},
		{"jwt shaped", "Bearer aaa.bbb.ccc", auth.Abstain, ""},
		{"empty bearer", "Bearer ", auth.No, ""},
		{"unknown key", "Bearer nope", auth.No, ""},
		{"alice", "Bearer secret-1", auth.Yes, "alice"},
		{"bob", "Bearer secret-2", auth.Yes, "bob"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/chat", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			res := a.Authenticate(context.Background(), r)
			if res.Decision != tt.want {
				t.Fatalf("Decision = %d, want %d", res.Decision, tt.want)
			}
			if tt.subject != "" && res.Identity.Subject != tt.subject {
				t.Errorf("Subject = %q, want %q", res.Identity.Subject, tt.subject)
			}
		})
	}
}
