package topics

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"spotiscience/internal/models"
)

// tokenPattern keeps alphabetic tokens of three or more characters, hyphens allowed.
var tokenPattern = regexp.MustCompile(`[a-zA-Z\-][a-zA-Z\-]{2,}`)

// Document-frequency bounds applied to every fit.
const (
	minDocCount = 1
	maxDocRatio = 0.9
)

// NGramRange is an inclusive range of n-gram sizes
type NGramRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Unigrams is the default n-gram range
var Unigrams = NGramRange{Min: 1, Max: 1}

func (r NGramRange) validate() error {
	if r.Min < 1 || r.Max < r.Min {
		return fmt.Errorf("ngram range (%d, %d): %w", r.Min, r.Max, models.ErrUnsupportedOption)
	}
	return nil
}

// Vectorizer builds a term-document count matrix
type Vectorizer struct {
	ngrams    NGramRange
	stopwords map[string]struct{}
}

// NewVectorizer creates a vectorizer. stopwords may be nil.
func NewVectorizer(ngrams NGramRange, stopwords map[string]struct{}) (*Vectorizer, error) {
	if err := ngrams.validate(); err != nil {
		return nil, err
	}
	return &Vectorizer{ngrams: ngrams, stopwords: stopwords}, nil
}

// Vocabulary maps column index to term; it is sorted alphabetically.
type Vocabulary []string

// FitTransform learns the vocabulary over docs and returns the
// documents x terms count matrix.
func (v *Vectorizer) FitTransform(docs []string) (*mat.Dense, Vocabulary, error) {
	if len(docs) == 0 {
		return nil, nil, fmt.Errorf("no documents to vectorize: %w", models.ErrInsufficientData)
	}

	analyzed := make([][]string, len(docs))
	docFreq := make(map[string]int)
	for i, doc := range docs {
		terms := v.analyze(doc)
		analyzed[i] = terms

		seen := make(map[string]struct{}, len(terms))
		for _, term := range terms {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			docFreq[term]++
		}
	}

	if len(docFreq) == 0 {
		return nil, nil, fmt.Errorf("empty vocabulary, text has only stop words or short tokens: %w", models.ErrInsufficientData)
	}

	maxDocCount := maxDocRatio * float64(len(docs))
	if maxDocCount < minDocCount {
		return nil, nil, fmt.Errorf("%d document(s) is too few for the document-frequency bounds: %w", len(docs), models.ErrInsufficientData)
	}

	vocab := make(Vocabulary, 0, len(docFreq))
	for term, df := range docFreq {
		if df >= minDocCount && float64(df) <= maxDocCount {
			vocab = append(vocab, term)
		}
	}
	if len(vocab) == 0 {
		return nil, nil, fmt.Errorf("no terms remain after document-frequency pruning: %w", models.ErrInsufficientData)
	}
	sort.Strings(vocab)

	index := make(map[string]int, len(vocab))
	for i, term := range vocab {
		index[term] = i
	}

	counts := mat.NewDense(len(docs), len(vocab), nil)
	for i, terms := range analyzed {
		for _, term := range terms {
			if j, ok := index[term]; ok {
				counts.Set(i, j, counts.At(i, j)+1)
			}
		}
	}
	return counts, vocab, nil
}

// analyze lower-cases, extracts tokens, removes stop words and expands n-grams.
func (v *Vectorizer) analyze(doc string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(doc), -1)
	tokens := raw[:0]
	for _, token := range raw {
		if _, stop := v.stopwords[token]; !stop {
			tokens = append(tokens, token)
		}
	}

	if v.ngrams.Min == 1 && v.ngrams.Max == 1 {
		return tokens
	}

	var terms []string
	for n := v.ngrams.Min; n <= v.ngrams.Max; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}
