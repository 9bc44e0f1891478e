package nlp

import (
	"bufio"
	"embed"
	"fmt"
	"strings"
	"sync"

	"spotiscience/internal/models"
)

// Language selects the tokenizer pipeline and stop-word set
type Language string

const (
	English Language = "english"
	Spanish Language = "spanish"
)

// ParseLanguage validates a language tag.
func ParseLanguage(tag string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(tag))) {
	case English:
		return English, nil
	case Spanish:
		return Spanish, nil
	default:
		return "", fmt.Errorf("language %q: %w", tag, models.ErrUnsupportedOption)
	}
}

//go:embed stopwords/*.txt
var stopwordFiles embed.FS

var (
	stopwordsOnce sync.Once
	stopwordSets  map[Language]map[string]struct{}
)

// StopWords returns the stop-word set of a language. The sets are read from
// the embedded lists once and shared read-only afterwards.
func StopWords(lang Language) (map[string]struct{}, error) {
	stopwordsOnce.Do(func() {
		stopwordSets = map[Language]map[string]struct{}{
			English: readStopwords("stopwords/english.txt"),
			Spanish: readStopwords("stopwords/spanish.txt"),
		}
	})

	set, ok := stopwordSets[lang]
	if !ok {
		return nil, fmt.Errorf("stop words for %q: %w", lang, models.ErrUnsupportedOption)
	}
	return set, nil
}

func readStopwords(name string) map[string]struct{} {
	set := make(map[string]struct{})
	f, err := stopwordFiles.Open(name)
	if err != nil {
		return set
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word != "" {
			set[word] = struct{}{}
		}
	}
	return set
}
