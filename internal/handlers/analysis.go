package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"spotiscience/internal/config"
	"spotiscience/internal/models"
	"spotiscience/internal/mood"
	"spotiscience/internal/repositories"
	"spotiscience/internal/services"
	"spotiscience/internal/similarity"
	"spotiscience/internal/topics"
)

// TopicsRequest represents the request to extract topics from a lyric
type TopicsRequest struct {
	Lyric      string `json:"lyric" binding:"required"`
	Model      string `json:"model,omitempty"`
	Lang       string `json:"lang,omitempty"`
	StopWords  string `json:"stop_words,omitempty"`
	NGramRange []int  `json:"ngram_range,omitempty"` // [min, max]
	NTopics    int    `json:"n_topics,omitempty"`
	TopN       int    `json:"top_n,omitempty"`
}

// TopicsResponse lists the topics in component order
type TopicsResponse struct {
	Model  string        `json:"model"`
	Topics topics.Topics `json:"topics"`
}

// SongRequest names a song either by a full record or by track id / link
type SongRequest struct {
	Record *models.FeatureRecord `json:"record,omitempty"`
	Track  string                `json:"track,omitempty"`
}

// MoodResponse is the predicted mood of one song
type MoodResponse struct {
	Name string           `json:"name"`
	Mood models.MoodLabel `json:"mood"`
}

// SimilarRequest represents the request to rank a collection against a song
type SimilarRequest struct {
	SongRequest
	CollectionID string `json:"collection_id" binding:"required"`
	Distance     string `json:"distance,omitempty"`
	SkipFields   int    `json:"skip_fields,omitempty"`
	TopN         int    `json:"top_n,omitempty"`
}

// AnalysisHandler serves the topic, mood and similarity models
type AnalysisHandler struct {
	pipeline    *topics.Pipeline
	classifier  *mood.Classifier
	acquisition *services.AcquisitionService
	records     repositories.RecordRepository
	defaults    func() *config.ModelDefaults
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(pipeline *topics.Pipeline, classifier *mood.Classifier, acquisition *services.AcquisitionService, records repositories.RecordRepository) *AnalysisHandler {
	return &AnalysisHandler{
		pipeline:    pipeline,
		classifier:  classifier,
		acquisition: acquisition,
		records:     records,
		defaults:    config.GetModelDefaults,
	}
}

// topicOptions fills omitted request fields from the model defaults
func (h *AnalysisHandler) topicOptions(req TopicsRequest) (topics.Options, error) {
	d := h.defaults().Topics
	opts := topics.Options{
		Model:     topics.ModelKind(d.Model),
		Language:  d.Language,
		StopWords: d.StopWords,
		NGrams:    topics.NGramRange{Min: d.NGramMin, Max: d.NGramMax},
		NTopics:   d.NTopics,
		TopN:      d.TopN,
	}

	if req.Model != "" {
		opts.Model = topics.ModelKind(req.Model)
	}
	if req.Lang != "" {
		opts.Language = req.Lang
	}
	if req.StopWords != "" {
		opts.StopWords = req.StopWords
	}
	switch len(req.NGramRange) {
	case 0:
	case 2:
		opts.NGrams = topics.NGramRange{Min: req.NGramRange[0], Max: req.NGramRange[1]}
	default:
		return opts, fmt.Errorf("ngram_range needs two values, got %d: %w", len(req.NGramRange), models.ErrUnsupportedOption)
	}
	if req.NTopics != 0 {
		opts.NTopics = req.NTopics
	}
	if req.TopN != 0 {
		opts.TopN = req.TopN
	}

	if kind, err := topics.ParseModelKind(string(opts.Model)); err == nil {
		opts.Model = kind
	}
	return opts, nil
}

// PredictTopics handles POST /api/v1/topics
func (h *AnalysisHandler) PredictTopics(c *gin.Context) {
	var req TopicsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	opts, err := h.topicOptions(req)
	if err != nil {
		respondError(c, "topic prediction", err)
		return
	}

	result, err := h.pipeline.PredictTopic(req.Lyric, opts)
	if err != nil {
		respondError(c, "topic prediction", err)
		return
	}

	c.JSON(http.StatusOK, TopicsResponse{Model: string(opts.Model), Topics: result})
}

// PredictMood handles POST /api/v1/mood
func (h *AnalysisHandler) PredictMood(c *gin.Context) {
	var req SongRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	record, err := h.resolveSong(c.Request.Context(), req)
	if err != nil {
		respondError(c, "mood prediction", err)
		return
	}

	label, err := h.classifier.PredictMood(record)
	if err != nil {
		respondError(c, "mood prediction", err)
		return
	}

	c.JSON(http.StatusOK, MoodResponse{Name: record.Name, Mood: label})
}

// FindSimilar handles POST /api/v1/similar
func (h *AnalysisHandler) FindSimilar(c *gin.Context) {
	var req SimilarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	d := h.defaults().Similarity
	opts := similarity.Options{
		Distance:   similarity.Distance(d.Distance),
		SkipFields: d.SkipFields,
		TopN:       d.TopN,
	}
	if req.Distance != "" {
		opts.Distance = similarity.Distance(req.Distance)
	}
	if req.SkipFields != 0 {
		opts.SkipFields = req.SkipFields
	}
	if req.TopN != 0 {
		opts.TopN = req.TopN
	}

	ctx := c.Request.Context()
	source, err := h.resolveSong(ctx, req.SongRequest)
	if err != nil {
		respondError(c, "similarity search", err)
		return
	}

	target, err := h.records.FindCollection(ctx, req.CollectionID)
	if err != nil {
		respondError(c, "similarity search", err)
		return
	}

	result, err := similarity.FindSimilar(source, target, opts)
	if err != nil {
		respondError(c, "similarity search", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// resolveSong returns the inline record, else the stored record for the
// track, else a freshly downloaded one
func (h *AnalysisHandler) resolveSong(ctx context.Context, req SongRequest) (models.FeatureRecord, error) {
	if req.Record != nil {
		return *req.Record, nil
	}
	if req.Track == "" {
		return models.FeatureRecord{}, fmt.Errorf("record or track is required: %w", models.ErrUnsupportedOption)
	}

	id, err := services.ResolveID(req.Track)
	if err != nil {
		return models.FeatureRecord{}, err
	}

	stored, err := h.records.FindRecord(ctx, id)
	if err == nil {
		return *stored, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return models.FeatureRecord{}, err
	}

	record, err := h.acquisition.SongFeatures(ctx, id)
	if err != nil {
		return models.FeatureRecord{}, err
	}
	if err := h.records.SaveRecords(ctx, []models.FeatureRecord{record}); err != nil {
		slog.Warn("Failed to store fetched record", "id", id, "error", err)
	}
	return record, nil
}
