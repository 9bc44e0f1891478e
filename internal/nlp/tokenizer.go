package nlp

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// embedArtifact is appended by the lyrics provider's page widget.
const embedArtifact = "EmbedShare Url:CopyEmbed:Copy"

// tokenPattern splits a line into word runs and punctuation runs.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{M}\p{N}]+|'[\p{L}]+|[^\s\p{L}\p{M}\p{N}]+`)

// Tokenizer turns raw lyric text into one normalized token string per line
type Tokenizer struct {
	lang       Language
	lemmatizer Lemmatizer
	stopwords  map[string]struct{}
}

// NewTokenizer builds a tokenizer for a language tag. Unknown tags fail with
// models.ErrUnsupportedOption.
func NewTokenizer(tag string) (*Tokenizer, error) {
	lang, err := ParseLanguage(tag)
	if err != nil {
		return nil, err
	}
	lemmatizer, err := NewLemmatizer(lang)
	if err != nil {
		return nil, err
	}
	return NewTokenizerWith(lang, lemmatizer)
}

// NewTokenizerWith builds a tokenizer around a caller supplied lemmatizer
func NewTokenizerWith(lang Language, lemmatizer Lemmatizer) (*Tokenizer, error) {
	stopwords, err := StopWords(lang)
	if err != nil {
		return nil, err
	}
	if lemmatizer == nil {
		return nil, fmt.Errorf("nil lemmatizer")
	}
	return &Tokenizer{lang: lang, lemmatizer: lemmatizer, stopwords: stopwords}, nil
}

// Language returns the tokenizer's language
func (t *Tokenizer) Language() Language {
	return t.lang
}

// Lines strips the embed artifact, splits on newlines and drops lines of
// length one or less.
func Lines(lyric string) []string {
	lyric = strings.ReplaceAll(lyric, embedArtifact, "")
	var lines []string
	for _, line := range strings.Split(lyric, "\n") {
		if len(line) > 1 {
			lines = append(lines, line)
		}
	}
	return lines
}

// Tokenize returns one space-joined token string per surviving line. A line
// whose tokens are all filtered still yields an empty document.
func (t *Tokenizer) Tokenize(lyric string) []string {
	lines := Lines(lyric)
	docs := make([]string, 0, len(lines))
	for _, line := range lines {
		docs = append(docs, t.TokenizeLine(line))
	}
	return docs
}

// TokenizeLine normalizes a single line
func (t *Tokenizer) TokenizeLine(line string) string {
	var kept []string
	for _, token := range splitTokens(line) {
		if isPunctuation(token) {
			continue
		}
		lower := strings.ToLower(token)
		if t.isStopword(lower) {
			continue
		}
		lemma := strings.ToLower(t.lemmatizer.Lemma(lower))
		if lemma == "" {
			lemma = lower
		}
		if t.isStopword(lemma) {
			continue
		}
		kept = append(kept, lemma)
	}
	return strings.Join(kept, " ")
}

func (t *Tokenizer) isStopword(word string) bool {
	_, ok := t.stopwords[word]
	return ok
}

func isPunctuation(token string) bool {
	for _, r := range token {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return false
		}
	}
	return true
}

// splitTokens separates words, clitics and punctuation. "don't" becomes
// "do" and "n't" so the negation clitic can be filtered as a stop word.
func splitTokens(line string) []string {
	tokens := tokenPattern.FindAllString(strings.ReplaceAll(line, "’", "'"), -1)
	for i := 1; i < len(tokens); i++ {
		prev := tokens[i-1]
		if strings.EqualFold(tokens[i], "'t") && len(prev) > 1 && strings.HasSuffix(strings.ToLower(prev), "n") {
			tokens[i-1] = prev[:len(prev)-1]
			tokens[i] = prev[len(prev)-1:] + tokens[i]
		}
	}
	return tokens
}
