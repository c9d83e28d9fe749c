package postprocessors

import (
	"context"
	"strings"
	"testing"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
)

const rakeSample = "Compatibility of systems of linear constraints over the set of natural numbers. " +
	"Criteria of compatibility of a system of linear Diophantine equations, strict inequations, " +
	"and nonstrict inequations are considered."

func TestRake(t *testing.T) {
	opts := domain.DefaultKeywordConfig()
	opts.Algorithm = domain.KeywordRake

	keywords := Rake(rakeSample, opts)
	if len(keywords) == 0 {
		t.Fatal("expected keywords")
	}
	if keywords[0].Text != "linear diophantine equations" {
		t.Errorf("expected top keyword 'linear diophantine equations', got %q", keywords[0].Text)
	}
	if keywords[0].Score != 1 {
		t.Errorf("expected normalized top score 1, got %v", keywords[0].Score)
	}
	for i, kw := range keywords {
		if kw.Algorithm != "rake" {
			t.Errorf("expected algorithm rake, got %q", kw.Algorithm)
		}
		if i > 0 && kw.Score > keywords[i-1].Score {
			t.Errorf("keywords not sorted at %d", i)
		}
		if len(kw.Positions) == 0 {
			t.Errorf("expected positions for %q", kw.Text)
		}
		for _, p := range kw.Positions {
			if !strings.EqualFold(rakeSample[p:p+len(strings.Fields(kw.Text)[0])], strings.Fields(kw.Text)[0]) {
				t.Errorf("position %d of %q does not point at the phrase", p, kw.Text)
			}
		}
	}
}

func TestRake_MaxKeywordsAndMinScore(t *testing.T) {
	opts := domain.DefaultKeywordConfig()
	opts.MaxKeywords = 2
	if got := Rake(rakeSample, opts); len(got) != 2 {
		t.Errorf("expected 2 keywords, got %d", len(got))
	}

	opts.MaxKeywords = 0
	opts.MinScore = 0.9
	for _, kw := range Rake(rakeSample, opts) {
		if kw.Score < 0.9 {
			t.Errorf("keyword %q below min score: %v", kw.Text, kw.Score)
		}
	}
}

func TestRake_NgramRange(t *testing.T) {
	opts := domain.DefaultKeywordConfig()
	opts.NgramRange = [2]int{1, 1}
	opts.MaxKeywords = 0

	for _, kw := range Rake(rakeSample, opts) {
		if strings.Contains(kw.Text, " ") {
			t.Errorf("expected unigrams only, got %q", kw.Text)
		}
	}
}

func TestYake(t *testing.T) {
	text := "Machine learning is a field of artificial intelligence. " +
		"Machine learning systems learn from data. " +
		"Deep learning is a subset of machine learning that uses neural networks."

	opts := domain.DefaultKeywordConfig()
	keywords := Yake(text, opts)
	if len(keywords) == 0 {
		t.Fatal("expected keywords")
	}
	if len(keywords) > opts.MaxKeywords {
		t.Errorf("expected at most %d keywords, got %d", opts.MaxKeywords, len(keywords))
	}

	found := false
	for i, kw := range keywords {
		if kw.Algorithm != "yake" {
			t.Errorf("expected algorithm yake, got %q", kw.Algorithm)
		}
		if kw.Score <= 0 || kw.Score > 1 {
			t.Errorf("score out of range for %q: %v", kw.Text, kw.Score)
		}
		if i > 0 && kw.Score > keywords[i-1].Score {
			t.Errorf("keywords not sorted at %d", i)
		}
		words := strings.Fields(kw.Text)
		if isStopword(words[0]) || isStopword(words[len(words)-1]) {
			t.Errorf("keyword %q starts or ends with a stopword", kw.Text)
		}
		if strings.Contains(kw.Text, "learning") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a keyword about learning, got %+v", keywords)
	}
}

func TestYake_Empty(t *testing.T) {
	if got := Yake("", domain.DefaultKeywordConfig()); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
	if got := Yake("the and of", domain.DefaultKeywordConfig()); got != nil {
		t.Errorf("expected nil for stopwords only, got %v", got)
	}
}

func TestKeywordExtractor_Process(t *testing.T) {
	k := NewKeywordExtractor()

	cfg := domain.DefaultExtractionConfig()
	out, _ := k.Process(context.Background(), &domain.ExtractionResult{Content: rakeSample}, cfg)
	if out.Keywords != nil {
		t.Error("expected no keywords without keyword config")
	}

	kc := domain.DefaultKeywordConfig()
	kc.Algorithm = domain.KeywordRake
	cfg.Keywords = &kc
	out, _ = k.Process(context.Background(), &domain.ExtractionResult{Content: rakeSample}, cfg)
	if len(out.Keywords) == 0 || out.Keywords[0].Algorithm != "rake" {
		t.Errorf("expected rake keywords, got %+v", out.Keywords)
	}
}

func TestIsNumeric(t *testing.T) {
	tests := map[string]bool{"42": true, "3.14": true, "1,000": true, "abc": false, "4g": false, "": false}
	for in, want := range tests {
		if got := isNumeric(in); got != want {
			t.Errorf("isNumeric(%q) = %v, want %v", in, got, want)
		}
	}
}
