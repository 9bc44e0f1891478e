package nlp

import (
	"log/slog"
	"sync"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/aaaton/golem/v4/dicts/es"
	"github.com/kljensen/snowball/english"
	"github.com/kljensen/snowball/spanish"
)

// Lemmatizer reduces a lower-cased word to its dictionary base form
type Lemmatizer interface {
	Lemma(word string) string
}

// LemmatizerFunc adapts a plain function to Lemmatizer
type LemmatizerFunc func(word string) string

func (f LemmatizerFunc) Lemma(word string) string { return f(word) }

// dictionaryLemmatizer looks words up in a golem dictionary. Words missing
// from the dictionary come back unchanged.
type dictionaryLemmatizer struct {
	dict *golem.Lemmatizer
}

func (l *dictionaryLemmatizer) Lemma(word string) string {
	return l.dict.Lemma(word)
}

// stemLemmatizer uses a Snowball stemmer. Stop words are returned unchanged
// so they can still be filtered after lemmatization.
type stemLemmatizer struct {
	stem func(word string, stemStopWords bool) string
}

func (l *stemLemmatizer) Lemma(word string) string {
	return l.stem(word, false)
}

var dictionaries = map[Language]*struct {
	once sync.Once
	pack func() golem.LanguagePack
	dict *golem.Lemmatizer
	err  error
}{
	English: {pack: func() golem.LanguagePack { return en.New() }},
	Spanish: {pack: func() golem.LanguagePack { return es.New() }},
}

// dictionary decodes a language's dictionary once per process
func dictionary(lang Language) (*golem.Lemmatizer, error) {
	lang, err := ParseLanguage(string(lang))
	if err != nil {
		return nil, err
	}
	entry := dictionaries[lang]
	entry.once.Do(func() {
		entry.dict, entry.err = golem.New(entry.pack())
	})
	return entry.dict, entry.err
}

// NewLemmatizer returns the dictionary lemmatizer for a language. If the
// dictionary cannot be decoded it falls back to the Snowball stemmer.
func NewLemmatizer(lang Language) (Lemmatizer, error) {
	dict, err := dictionary(lang)
	if err == nil {
		return &dictionaryLemmatizer{dict: dict}, nil
	}
	if _, parseErr := ParseLanguage(string(lang)); parseErr != nil {
		return nil, parseErr
	}

	slog.Warn("Lemma dictionary unavailable, falling back to stemming", "language", string(lang), "error", err)
	return NewStemmer(lang)
}

// NewStemmer returns the Snowball stemmer for a language
func NewStemmer(lang Language) (Lemmatizer, error) {
	lang, err := ParseLanguage(string(lang))
	if err != nil {
		return nil, err
	}
	if lang == Spanish {
		return &stemLemmatizer{stem: spanish.Stem}, nil
	}
	return &stemLemmatizer{stem: english.Stem}, nil
}
