package core

import (
	"testing"
	"time"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "same content produces same ID",
			content:  "test content",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
		{
			name:     "long content",
			content:  "This is a much longer piece of content that should still hash consistently",
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if tt.wantSame && id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestChunkID(t *testing.T) {
	a := ChunkID(1, 0, "connect vpn now")
	b := ChunkID(1, 1, "connect vpn now")
	c := ChunkID(2, 0, "connect vpn now")

	if a == b || a == c || b == c {
		t.Errorf("ChunkID() collided across positions or documents: %d %d %d", a, b, c)
	}
	if a != ChunkID(1, 0, "connect vpn now") {
		t.Errorf("ChunkID() is not deterministic")
	}
}

func TestParseID(t *testing.T) {
	id, err := ParseID(" 42 ")
	if err != nil {
		t.Fatalf("ParseID() error = %v", err)
	}
	if id != 42 || id.String() != "42" {
		t.Errorf("ParseID() = %v, want 42", id)
	}

	if _, err := ParseID("not-a-number"); err == nil {
		t.Errorf("ParseID() accepted a non-numeric id")
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"VPN Setup", "vpn-setup"},
		{"  How do I   reset my password?  ", "how-do-i-reset-my-password"},
		{"Billing & Refunds -- FAQ", "billing-refunds-faq"},
		{"WireGuard vs. OpenVPN", "wireguard-vs-openvpn"},
		{"---", ""},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := Slugify(tt.title); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestArticle_HasTag(t *testing.T) {
	article := Article{Tags: []string{"Windows", "setup"}}

	if !article.HasTag("windows") {
		t.Errorf("HasTag() should match case-insensitively")
	}
	if article.HasTag("linux") {
		t.Errorf("HasTag() matched a missing tag")
	}
}

func TestStoredTime(t *testing.T) {
	if got := StoredTime(time.Time{}); !got.IsZero() {
		t.Errorf("StoredTime(zero) = %v, want zero", got)
	}

	local := time.Date(2025, 3, 1, 12, 0, 0, 123456789, time.FixedZone("CET", 3600))
	got := StoredTime(local)
	if got.Location() != time.UTC || got.Nanosecond() != 123456000 || !got.Equal(local.Truncate(time.Microsecond)) {
		t.Errorf("StoredTime(%v) = %v", local, got)
	}

	now := Now()
	if now.Nanosecond()%1000 != 0 {
		t.Errorf("Now() = %v, has sub-microsecond precision", now)
	}
	bs := make([]byte, timeMUS.Size(now))
	timeMUS.Marshal(now, bs)
	if decoded, _, err := timeMUS.Unmarshal(bs); err != nil || !decoded.Equal(now) {
		t.Errorf("Now() round trip = %v, %v; want %v", decoded, err, now)
	}
}
