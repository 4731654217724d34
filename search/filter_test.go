package search

import (
	"testing"

	"github.com/poiesic/kbsearch/core"
	"github.com/stretchr/testify/assert"
)

func TestParseFilter(t *testing.T) {
	f := ParseFilter(map[string]string{
		"Category": " Billing ",
		"tag":      "setup",
		"SLUG":     "vpn-setup",
		"author":   "ignored",
	})
	assert.Equal(t, Filter{Category: "Billing", Tag: "setup", Slug: "vpn-setup"}, f)
	assert.False(t, f.IsEmpty())

	assert.True(t, ParseFilter(nil).IsEmpty())
	assert.True(t, ParseFilter(map[string]string{"lang": "en"}).IsEmpty())
}

func TestFilterMatch(t *testing.T) {
	article := &core.Article{
		Slug:     "vpn-setup",
		Category: "Getting Started",
		Tags:     []string{"Setup", "windows"},
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty filter", Filter{}, true},
		{"category case-insensitive", Filter{Category: "getting started"}, true},
		{"category mismatch", Filter{Category: "Billing"}, false},
		{"tag", Filter{Tag: "setup"}, true},
		{"missing tag", Filter{Tag: "mac"}, false},
		{"slug", Filter{Slug: "VPN-Setup"}, true},
		{"all fields", Filter{Category: "Getting Started", Tag: "windows", Slug: "vpn-setup"}, true},
		{"one field fails", Filter{Category: "Getting Started", Tag: "mac"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(article))
		})
	}

	assert.False(t, Filter{}.Match(nil))
}
