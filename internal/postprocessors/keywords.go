package postprocessors

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.StagedPostProcessor = (*KeywordExtractor)(nil)

// KeywordExtractor scores candidate phrases with RAKE or a YAKE-style
// statistical model. Scores are normalized to (0, 1], higher is better.
type KeywordExtractor struct{}

// NewKeywordExtractor creates a new keyword extractor.
func NewKeywordExtractor() *KeywordExtractor {
	return &KeywordExtractor{}
}

func (k *KeywordExtractor) Name() string { return "keywords" }

func (k *KeywordExtractor) ProcessingStage() driven.ProcessingStage { return driven.StageMiddle }

func (k *KeywordExtractor) Process(ctx context.Context, result *domain.ExtractionResult, cfg *domain.ExtractionConfig) (*domain.ExtractionResult, error) {
	if cfg == nil || cfg.Keywords == nil {
		return result, nil
	}
	opts := *cfg.Keywords

	var keywords []domain.Keyword
	switch opts.Algorithm {
	case domain.KeywordRake:
		keywords = Rake(result.Content, opts)
	default:
		keywords = Yake(result.Content, opts)
	}
	result.Keywords = keywords
	return result, nil
}

// token is a word with its byte offset and sentence index.
type token struct {
	text     string // lower-cased
	raw      string
	offset   int
	sentence int
}

var (
	wordRe     = regexp.MustCompile(`[\p{L}\p{N}][\p{L}\p{N}'’-]*`)
	sentenceRe = regexp.MustCompile(`[.!?;:]+(\s|$)|\n\s*\n`)
	// phraseBreakRe separates RAKE candidates in addition to stopwords.
	phraseBreakRe = regexp.MustCompile(`[,.!?;:()\[\]{}"“”\n]`)
)

func tokenize(text string) []token {
	sentenceEnds := sentenceRe.FindAllStringIndex(text, -1)
	var tokens []token
	s := 0
	for _, loc := range wordRe.FindAllStringIndex(text, -1) {
		for s < len(sentenceEnds) && sentenceEnds[s][1] <= loc[0] {
			s++
		}
		raw := text[loc[0]:loc[1]]
		tokens = append(tokens, token{text: strings.ToLower(raw), raw: raw, offset: loc[0], sentence: s})
	}
	return tokens
}

func ngramBounds(opts domain.KeywordConfig) (int, int) {
	lo, hi := opts.NgramRange[0], opts.NgramRange[1]
	if lo < 1 {
		lo = 1
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// Rake implements Rapid Automatic Keyword Extraction: candidates are runs
// of non-stopwords, word score is degree over frequency, and a phrase
// scores the sum of its words.
func Rake(text string, opts domain.KeywordConfig) []domain.Keyword {
	minLen, maxWords := 1, 0
	if opts.RakeParams != nil {
		minLen = max(1, opts.RakeParams.MinWordLength)
		maxWords = opts.RakeParams.MaxWordsPerPhrase
	}
	lo, hi := ngramBounds(opts)
	if maxWords <= 0 {
		maxWords = hi
	}

	type phrase struct {
		words   []string
		offsets []int
	}
	var phrases []phrase
	var cur phrase
	flush := func() {
		if len(cur.words) > 0 {
			phrases = append(phrases, cur)
		}
		cur = phrase{}
	}

	breaks := phraseBreakRe.FindAllStringIndex(text, -1)
	b := 0
	for _, loc := range wordRe.FindAllStringIndex(text, -1) {
		for b < len(breaks) && breaks[b][1] <= loc[0] {
			flush()
			b++
		}
		word := strings.ToLower(text[loc[0]:loc[1]])
		if isStopword(word) || len([]rune(word)) < minLen || isNumeric(word) {
			flush()
			continue
		}
		cur.words = append(cur.words, word)
		cur.offsets = append(cur.offsets, loc[0])
	}
	flush()

	freq := make(map[string]float64)
	degree := make(map[string]float64)
	for _, p := range phrases {
		for _, w := range p.words {
			freq[w]++
			degree[w] += float64(len(p.words))
		}
	}

	scores := make(map[string]float64)
	positions := make(map[string][]int)
	for _, p := range phrases {
		if len(p.words) < lo || len(p.words) > maxWords {
			continue
		}
		key := strings.Join(p.words, " ")
		if _, seen := scores[key]; !seen {
			total := 0.0
			for _, w := range p.words {
				total += degree[w] / freq[w]
			}
			scores[key] = total
		}
		positions[key] = append(positions[key], p.offsets[0])
	}

	return rankKeywords(scores, positions, opts, string(domain.KeywordRake), true)
}

// Yake scores candidates with YAKE-style word features (casing, position,
// frequency, context relatedness, sentence spread). Lower raw scores are
// better and are inverted before ranking.
func Yake(text string, opts domain.KeywordConfig) []domain.Keyword {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	window := 2
	if opts.YakeParams != nil && opts.YakeParams.WindowSize > 0 {
		window = opts.YakeParams.WindowSize
	}

	type stats struct {
		tf, upper   float64
		sentences   map[int]struct{}
		firstSent   []int
		left, right map[string]struct{}
	}
	words := make(map[string]*stats)
	numSentences := 1
	for i, t := range tokens {
		numSentences = max(numSentences, t.sentence+1)
		if isStopword(t.text) || isNumeric(t.text) {
			continue
		}
		st, ok := words[t.text]
		if !ok {
			st = &stats{sentences: map[int]struct{}{}, left: map[string]struct{}{}, right: map[string]struct{}{}}
			words[t.text] = st
		}
		st.tf++
		if r := []rune(t.raw); len(r) > 0 && unicode.IsUpper(r[0]) {
			st.upper++
		}
		st.sentences[t.sentence] = struct{}{}
		st.firstSent = append(st.firstSent, t.sentence)
		for j := max(0, i-window); j < i; j++ {
			st.left[tokens[j].text] = struct{}{}
		}
		for j := i + 1; j <= min(len(tokens)-1, i+window); j++ {
			st.right[tokens[j].text] = struct{}{}
		}
	}
	if len(words) == 0 {
		return nil
	}

	var sumTF, maxTF float64
	for _, st := range words {
		sumTF += st.tf
		maxTF = math.Max(maxTF, st.tf)
	}
	meanTF := sumTF / float64(len(words))
	var variance float64
	for _, st := range words {
		variance += (st.tf - meanTF) * (st.tf - meanTF)
	}
	stdTF := math.Sqrt(variance / float64(len(words)))

	wordScore := make(map[string]float64, len(words))
	for w, st := range words {
		tCase := st.upper / (1 + math.Log(st.tf))
		tPos := math.Log(math.Log(3 + median(st.firstSent)))
		tFreq := st.tf / (meanTF + stdTF)
		tRel := 1 + (float64(len(st.left))+float64(len(st.right)))/(2*st.tf)*(st.tf/maxTF)
		tSent := float64(len(st.sentences)) / float64(numSentences)
		wordScore[w] = (tRel * tPos) / (tCase + tFreq/tRel + tSent/tRel)
	}

	lo, hi := ngramBounds(opts)
	raw := make(map[string]float64)
	tf := make(map[string]float64)
	positions := make(map[string][]int)
	for i := range tokens {
		for n := lo; n <= hi && i+n <= len(tokens); n++ {
			gram := tokens[i : i+n]
			if gram[0].sentence != gram[n-1].sentence {
				break
			}
			if isStopword(gram[0].text) || isStopword(gram[n-1].text) {
				continue
			}
			parts := make([]string, n)
			prod, sum := 1.0, 0.0
			valid := true
			for k, t := range gram {
				parts[k] = t.text
				if isNumeric(t.text) {
					valid = false
					break
				}
				if s, ok := wordScore[t.text]; ok {
					prod *= s
					sum += s
				}
			}
			if !valid {
				continue
			}
			key := strings.Join(parts, " ")
			tf[key]++
			positions[key] = append(positions[key], gram[0].offset)
			raw[key] = prod / (1 + sum)
		}
	}

	scores := make(map[string]float64, len(raw))
	for key, s := range raw {
		scores[key] = 1 / (1 + s/tf[key])
	}
	return rankKeywords(scores, positions, opts, string(domain.KeywordYake), false)
}

// rankKeywords sorts candidates by score, applies min_score and
// max_keywords. When normalize is set scores are divided by the best one.
func rankKeywords(scores map[string]float64, positions map[string][]int, opts domain.KeywordConfig, algorithm string, normalize bool) []domain.Keyword {
	if len(scores) == 0 {
		return nil
	}
	best := 0.0
	for _, s := range scores {
		best = math.Max(best, s)
	}

	keywords := make([]domain.Keyword, 0, len(scores))
	for text, s := range scores {
		if normalize && best > 0 {
			s /= best
		}
		s = math.Round(s*10000) / 10000
		if s < opts.MinScore {
			continue
		}
		keywords = append(keywords, domain.Keyword{Text: text, Score: s, Algorithm: algorithm, Positions: positions[text]})
	}
	sort.Slice(keywords, func(i, j int) bool {
		if keywords[i].Score != keywords[j].Score {
			return keywords[i].Score > keywords[j].Score
		}
		return keywords[i].Text < keywords[j].Text
	})
	if opts.MaxKeywords > 0 && len(keywords) > opts.MaxKeywords {
		keywords = keywords[:opts.MaxKeywords]
	}
	return keywords
}

func median(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return float64(sorted[mid-1]+sorted[mid]) / 2
	}
	return float64(sorted[mid])
}

func isNumeric(word string) bool {
	for _, r := range word {
		if !unicode.IsDigit(r) && r != '.' && r != ',' && r != '-' {
			return false
		}
	}
	return word != ""
}
