package analyzer

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSentences(t *testing.T) {
	got := Sentences("Tariffs rose.  Prices followed!  Will it last? Maybe")
	want := []string{"Tariffs rose.", "Prices followed!", "Will it last?", "Maybe"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sentences mismatch (-want +got):\n%s", diff)
	}

	if got := Sentences("   "); got != nil {
		t.Errorf("expected nil for blank input, got %v", got)
	}
}

func TestTruncate(t *testing.T) {
	text := "One two. Three four. Five six."

	tests := []struct {
		name   string
		budget int
		want   string
		cut    bool
	}{
		{"no budget", 0, text, false},
		{"fits", 100, text, false},
		{"two sentences", 21, "One two. Three four.", true},
		{"one sentence", 10, "One two.", true},
		{"first sentence too long", 5, "One t", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, cut := Truncate(text, tt.budget)
			if got != tt.want || cut != tt.cut {
				t.Errorf("Truncate(%d) = %q, %v; want %q, %v", tt.budget, got, cut, tt.want, tt.cut)
			}
			if tt.budget > 0 && len(got) > tt.budget {
				t.Errorf("result exceeds budget: %d > %d", len(got), tt.budget)
			}
		})
	}
}

func TestTruncate_RuneBoundary(t *testing.T) {
	got, _ := Truncate("héllo wörld without any stop", 2)
	if got != "h" {
		t.Errorf("expected cut before multi-byte rune, got %q", got)
	}
}

func TestMentions(t *testing.T) {
	content := "Tariffs are taxes. The tariff policy was announced today! Critics dislike TARIFFS."
	got := Mentions(content, []string{"tariff", "policy", "trade"})

	want := []Mention{
		{Term: "tariff", Count: 3, Sentences: []string{"Tariffs are taxes.", "The tariff policy was announced today!", "Critics dislike TARIFFS."}},
		{Term: "policy", Count: 1, Sentences: []string{"The tariff policy was announced today!"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mentions mismatch (-want +got):\n%s", diff)
	}
}

func TestTerms(t *testing.T) {
	got := Terms("The new tariff policy, and the tariff-exempt goods")
	want := []string{"tariff", "policy", "tariff-exempt", "goods"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("terms mismatch (-want +got):\n%s", diff)
	}
}

func BenchmarkMentions(b *testing.B) {
	var sb strings.Builder
	for sb.Len() < 100*1024 {
		sb.WriteString("The tariff policy drew criticism from trade groups. Supporters say it protects jobs. ")
	}
	content := sb.String()
	terms := []string{"tariff", "policy", "trade", "jobs"}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Mentions(content, terms)
	}
}

func BenchmarkTruncate(b *testing.B) {
	content := strings.Repeat("Economists disagree on the impact of the new tariffs. ", 2000)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Truncate(content, 6000)
	}
}
