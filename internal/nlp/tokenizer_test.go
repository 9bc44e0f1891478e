package nlp

import (
	"strings"
	"testing"

	"spotiscience/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var identity = LemmatizerFunc(func(word string) string { return word })

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		tag     string
		want    Language
		wantErr bool
	}{
		{tag: "english", want: English},
		{tag: "Spanish", want: Spanish},
		{tag: " english ", want: English},
		{tag: "french", wantErr: true},
		{tag: "", wantErr: true},
		{tag: "english-us", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, err := ParseLanguage(tt.tag)
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrUnsupportedOption)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewTokenizer_UnsupportedLanguage(t *testing.T) {
	tok, err := NewTokenizer("german")
	assert.Nil(t, tok)
	assert.ErrorIs(t, err, models.ErrUnsupportedOption)
}

func TestLines(t *testing.T) {
	lyric := "First line\n\nx\nSecond line" + embedArtifact + "\n  \n"

	lines := Lines(lyric)

	assert.Equal(t, []string{"First line", "Second line", "  "}, lines)
}

func TestTokenizer_DropsStopwordsAndPunctuation(t *testing.T) {
	tok, err := NewTokenizerWith(English, identity)
	require.NoError(t, err)

	docs := tok.Tokenize("I feel so happy today!\nYou make me smile\nSunshine in my heart")

	assert.Equal(t, []string{"feel happy today", "smile", "sunshine heart"}, docs)
}

func TestTokenizer_Contractions(t *testing.T) {
	tok, err := NewTokenizerWith(English, identity)
	require.NoError(t, err)

	assert.Equal(t, "stop", tok.TokenizeLine("Don't stop, you're"))
	assert.Equal(t, "believe", tok.TokenizeLine("I can’t believe"))
}

func TestTokenizer_EmptyDocumentsKept(t *testing.T) {
	tok, err := NewTokenizerWith(English, identity)
	require.NoError(t, err)

	docs := tok.Tokenize("and the\nmoonlight")

	assert.Equal(t, []string{"", "moonlight"}, docs)
}

func TestTokenizer_Spanish(t *testing.T) {
	tok, err := NewTokenizerWith(Spanish, identity)
	require.NoError(t, err)

	assert.Equal(t, "corazón late", tok.TokenizeLine("Mi corazón late por ti"))
}

func TestTokenizer_UsesLemmatizer(t *testing.T) {
	upper := LemmatizerFunc(func(word string) string { return strings.TrimSuffix(word, "s") })
	tok, err := NewTokenizerWith(English, upper)
	require.NoError(t, err)

	assert.Equal(t, "dream dream", tok.TokenizeLine("dreams dream"))
}

func TestTokenizer_DefaultLemmatizer(t *testing.T) {
	tok, err := NewTokenizer("english")
	require.NoError(t, err)
	assert.Equal(t, English, tok.Language())

	docs := tok.Tokenize("I feel so happy today\nYou make me smile\nSunshine in my heart")
	require.Len(t, docs, 3)
	assert.Equal(t, "feel happy today", docs[0])
	assert.Equal(t, "smile", docs[1])
	assert.Equal(t, "sunshine heart", docs[2])
	for _, doc := range docs {
		for _, word := range strings.Fields(doc) {
			_, stop := stopwordSets[English][word]
			assert.False(t, stop, word)
		}
	}
}

func TestNewLemmatizer_DictionaryForms(t *testing.T) {
	tests := []struct {
		lang Language
		word string
		want string
	}{
		{lang: English, word: "happy", want: "happy"},
		{lang: English, word: "sunshine", want: "sunshine"},
		{lang: English, word: "dreams", want: "dream"},
		{lang: English, word: "went", want: "go"},
		{lang: Spanish, word: "corazones", want: "corazón"},
	}

	for _, tt := range tests {
		t.Run(string(tt.lang)+"/"+tt.word, func(t *testing.T) {
			lemmatizer, err := NewLemmatizer(tt.lang)
			require.NoError(t, err)
			assert.Equal(t, tt.want, lemmatizer.Lemma(tt.word))
		})
	}

	_, err := NewLemmatizer(Language("klingon"))
	assert.ErrorIs(t, err, models.ErrUnsupportedOption)
}

func TestNewStemmer(t *testing.T) {
	stemmer, err := NewStemmer(English)
	require.NoError(t, err)
	assert.Equal(t, "happi", stemmer.Lemma("happy"))
	assert.Equal(t, "the", stemmer.Lemma("the"))

	_, err = NewStemmer(Language("klingon"))
	assert.ErrorIs(t, err, models.ErrUnsupportedOption)
}

func TestStopWords(t *testing.T) {
	en, err := StopWords(English)
	require.NoError(t, err)
	assert.Contains(t, en, "the")

	es, err := StopWords(Spanish)
	require.NoError(t, err)
	assert.Contains(t, es, "el")

	_, err = StopWords(Language("klingon"))
	assert.ErrorIs(t, err, models.ErrUnsupportedOption)
}
