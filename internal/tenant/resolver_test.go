package tenant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	r := NewResolver([]string{"vercel.app", "netlify.app", "pages.dev"})

	tests := []struct {
		name     string
		host     string
		override string
		want     string
		wantOK   bool
	}{
		{name: "tenant subdomain", host: "shop1.example.com", want: "shop1", wantOK: true},
		{name: "www is root", host: "www.example.com", wantOK: false},
		{name: "bare root domain", host: "example.com", wantOK: false},
		{name: "single label", host: "example", wantOK: false},
		{name: "deep subdomain keeps first label", host: "shop1.staging.example.com", want: "shop1", wantOK: true},
		{name: "token is lowercased", host: "Shop1.Example.COM", want: "shop1", wantOK: true},
		{name: "port is stripped", host: "shop1.example.com:8080", want: "shop1", wantOK: true},
		{name: "preview host is root", host: "my-branch.vercel.app", wantOK: false},
		{name: "netlify preview is root", host: "deploy-preview-12.netlify.app", wantOK: false},
		{name: "localhost without override", host: "localhost", wantOK: false},
		{name: "localhost with port", host: "localhost:3000", wantOK: false},
		{name: "localhost honors override", host: "localhost:3000", override: "shop2", want: "shop2", wantOK: true},
		{name: "override is lowercased", host: "127.0.0.1", override: "Shop2", want: "shop2", wantOK: true},
		{name: "loopback ipv4", host: "127.0.0.1:8080", wantOK: false},
		{name: "loopback ipv6", host: "[::1]:8080", wantOK: false},
		{name: "override ignored on real host", host: "shop1.example.com", override: "other", want: "shop1", wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Resolve(tt.host, tt.override)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	r := NewResolver(nil)
	first, ok1 := r.Resolve("shop1.example.com", "")
	second, ok2 := r.Resolve("shop1.example.com", "")
	assert.Equal(t, first, second)
	assert.Equal(t, ok1, ok2)
}
