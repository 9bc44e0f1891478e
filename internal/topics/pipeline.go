package topics

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"

	"spotiscience/internal/models"
	"spotiscience/internal/nlp"
)

// Options configures one PredictTopic call
type Options struct {
	Model     ModelKind  `json:"model"`
	Language  string     `json:"lang"`
	StopWords string     `json:"stop_words,omitempty"` // "", "english" or "spanish"
	NGrams    NGramRange `json:"ngram_range"`
	NTopics   int        `json:"n_topics"`
	TopN      int        `json:"top_n"`
}

// DefaultOptions mirrors the usual call: one LDA topic of ten English unigrams.
func DefaultOptions() Options {
	return Options{
		Model:    LDA,
		Language: string(nlp.English),
		NGrams:   Unigrams,
		NTopics:  1,
		TopN:     10,
	}
}

// WordWeight is one vocabulary term and its component weight
type WordWeight struct {
	Word   string  `json:"word"`
	Weight float64 `json:"weight"`
}

// Topic is a labelled list of terms, heaviest first
type Topic struct {
	Label string       `json:"label"`
	Words []WordWeight `json:"words"`
}

// Topics keeps topics in component index order
type Topics []Topic

// Map returns the topics keyed by label
func (t Topics) Map() map[string][]WordWeight {
	out := make(map[string][]WordWeight, len(t))
	for _, topic := range t {
		out[topic.Label] = topic.Words
	}
	return out
}

// Label formats the label of the topic at component index idx
func Label(idx int) string {
	return fmt.Sprintf("Topic %d:", idx)
}

// Pipeline runs tokenize, vectorize, fit and extract. Tokenizers are built
// once per language and reused.
type Pipeline struct {
	mu         sync.Mutex
	tokenizers map[nlp.Language]*nlp.Tokenizer
	newTok     func(tag string) (*nlp.Tokenizer, error)
	decomposer func(kind ModelKind) (Decomposer, error)
}

// NewPipeline creates a pipeline with the default tokenizers and models
func NewPipeline() *Pipeline {
	return &Pipeline{
		tokenizers: make(map[nlp.Language]*nlp.Tokenizer),
		newTok:     nlp.NewTokenizer,
		decomposer: NewDecomposer,
	}
}

// NewPipelineWith lets callers supply the tokenizer constructor
func NewPipelineWith(newTok func(tag string) (*nlp.Tokenizer, error)) *Pipeline {
	p := NewPipeline()
	p.newTok = newTok
	return p
}

func (p *Pipeline) tokenizer(tag string) (*nlp.Tokenizer, error) {
	lang, err := nlp.ParseLanguage(tag)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if tok, ok := p.tokenizers[lang]; ok {
		return tok, nil
	}
	tok, err := p.newTok(string(lang))
	if err != nil {
		return nil, err
	}
	p.tokenizers[lang] = tok
	return tok, nil
}

// Validate checks every option before any work is done
func (o Options) Validate() error {
	if _, err := ParseModelKind(string(o.Model)); err != nil {
		return err
	}
	if _, err := nlp.ParseLanguage(o.Language); err != nil {
		return err
	}
	if o.StopWords != "" {
		if _, err := nlp.ParseLanguage(o.StopWords); err != nil {
			return fmt.Errorf("vectorizer stop words: %w", err)
		}
	}
	if err := o.NGrams.validate(); err != nil {
		return err
	}
	if o.NTopics < 1 {
		return fmt.Errorf("n_topics %d: %w", o.NTopics, models.ErrUnsupportedOption)
	}
	if o.TopN < 1 {
		return fmt.Errorf("top_n %d: %w", o.TopN, models.ErrUnsupportedOption)
	}
	return nil
}

// PredictTopic extracts the top terms of each topic found in a lyric.
func (p *Pipeline) PredictTopic(lyric string, opts Options) (Topics, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	kind, _ := ParseModelKind(string(opts.Model))

	tok, err := p.tokenizer(opts.Language)
	if err != nil {
		return nil, err
	}
	docs := tok.Tokenize(lyric)
	if len(docs) == 0 {
		return nil, fmt.Errorf("lyric has no usable lines: %w", models.ErrInsufficientData)
	}

	var stopwords map[string]struct{}
	if opts.StopWords != "" {
		lang, _ := nlp.ParseLanguage(opts.StopWords)
		if stopwords, err = nlp.StopWords(lang); err != nil {
			return nil, err
		}
	}

	vectorizer, err := NewVectorizer(opts.NGrams, stopwords)
	if err != nil {
		return nil, err
	}
	counts, vocab, err := vectorizer.FitTransform(docs)
	if err != nil {
		return nil, fmt.Errorf("insufficient text: %w", err)
	}

	model, err := p.decomposer(kind)
	if err != nil {
		return nil, err
	}
	components, err := model.Fit(counts, opts.NTopics)
	if err != nil {
		return nil, err
	}

	slog.Debug("Topic model fitted", "model", kind, "documents", len(docs), "vocabulary", len(vocab), "topics", opts.NTopics)
	return ExtractTopics(components, vocab, opts.TopN), nil
}

// ExtractTopics selects the topN heaviest terms of every component. Equal
// weights keep vocabulary order.
func ExtractTopics(components *mat.Dense, vocab Vocabulary, topN int) Topics {
	rows, cols := components.Dims()
	n := min(topN, cols)

	topics := make(Topics, 0, rows)
	for k := 0; k < rows; k++ {
		row := mat.Row(nil, k, components)
		order := make([]int, cols)
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return row[order[a]] > row[order[b]]
		})

		words := make([]WordWeight, n)
		for i := 0; i < n; i++ {
			words[i] = WordWeight{Word: vocab[order[i]], Weight: row[order[i]]}
		}
		topics = append(topics, Topic{Label: Label(k), Words: words})
	}
	return topics
}
