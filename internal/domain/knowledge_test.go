package domain

import (
	"encoding/json"
	"testing"
)

func TestSplitFacts(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty string", "", 0},
		{"sentinel", EmptyFacts, 0},
		{"single", "Bitcoin launched in 2009.", 1},
		{"blank lines skipped", "a\n\n  \nb\n", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitFacts(tt.text)
			if len(got) != tt.want {
				t.Errorf("SplitFacts(%q) returned %d facts, want %d", tt.text, len(got), tt.want)
			}
		})
	}
}

func TestJoinFacts(t *testing.T) {
	if got := JoinFacts(nil); got != EmptyFacts {
		t.Errorf("JoinFacts(nil) = %q, want %q", got, EmptyFacts)
	}
	if got := JoinFacts([]string{"a", "b"}); got != "a\nb" {
		t.Errorf("JoinFacts = %q, want %q", got, "a\nb")
	}
}

func TestIntentPatterns_MatchFirstInsertedWins(t *testing.T) {
	var p IntentPatterns
	p.Merge("tesla", []string{"Tesla", "elon"})
	p.Merge("spacex", []string{"elon", "rocket"})

	got, ok := p.Match("elon musk announced a new car")
	if !ok || got != "tesla" {
		t.Fatalf("Match = %q, %v; want tesla, true", got, ok)
	}

	if _, ok := p.Match("nothing relevant here"); ok {
		t.Error("expected no match")
	}
}

func TestIntentPatterns_MergeIsUnion(t *testing.T) {
	var p IntentPatterns
	if !p.Merge("bitcoin", []string{"btc", "Satoshi"}) {
		t.Fatal("first merge should add keywords")
	}
	if p.Merge("bitcoin", []string{"BTC", " satoshi "}) {
		t.Error("merging known keywords should report no change")
	}
	p.Merge("bitcoin", []string{"halving"})

	kws := p.Keywords("bitcoin")
	want := []string{"btc", "satoshi", "halving"}
	if len(kws) != len(want) {
		t.Fatalf("keywords = %v, want %v", kws, want)
	}
	for i := range want {
		if kws[i] != want[i] {
			t.Errorf("keywords[%d] = %q, want %q", i, kws[i], want[i])
		}
	}
}

func TestIntentPatterns_EmptyKeywordNeverMatches(t *testing.T) {
	p := IntentPatterns{{Intent: "broken", Keywords: []string{""}}}
	if _, ok := p.Match("anything"); ok {
		t.Error("empty keyword must not match")
	}
}

func TestIntentPatterns_OrderSurvivesJSON(t *testing.T) {
	var p IntentPatterns
	for _, intent := range []string{"zeta", "alpha", "mid"} {
		p.Merge(intent, []string{"shared"})
	}

	raw, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	var back IntentPatterns
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatal(err)
	}

	got, _ := back.Match("shared word")
	if got != "zeta" {
		t.Errorf("Match after round trip = %q, want zeta", got)
	}
}
