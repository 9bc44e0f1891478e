package handlers

import (
	"testing"

	"spotiscience/internal/config"
	"spotiscience/internal/mood"
	"spotiscience/internal/services"
	"spotiscience/internal/testutil"
	"spotiscience/internal/topics"

	"github.com/stretchr/testify/require"
)

// testEnv wires real handlers to mocked upstreams and a mocked store
type testEnv struct {
	streaming *services.MockStreamingClient
	lyrics    *services.MockLyricsClient
	records   *testutil.MockRecordRepository
	http      *testutil.HTTPTestHelper
}

func newTestEnv(t *testing.T, secret string) *testEnv {
	t.Helper()

	env := &testEnv{
		streaming: &services.MockStreamingClient{},
		lyrics:    &services.MockLyricsClient{},
		records:   &testutil.MockRecordRepository{},
		http:      testutil.NewHTTPTestHelper(t),
	}

	acquisition := services.NewAcquisitionService(env.streaming, env.lyrics,
		services.WithThrottle(0),
		services.WithReporter(services.ProgressFunc(func(services.Progress) {})),
	)
	classifier, err := mood.Default()
	require.NoError(t, err)

	analysis := NewAnalysisHandler(topics.NewPipeline(), classifier, acquisition, env.records)
	analysis.defaults = config.DefaultModelDefaults

	env.http.SetRouter(NewRouter(Router{
		Analysis:    analysis,
		Collections: NewCollectionHandler(acquisition, env.records),
		Tracks:      NewTrackHandler(acquisition, env.records),
		Health:      NewHealthHandler(acquisition, env.records),
		Admin:       NewAdminHandler(env.records, nil),
		TokenSecret: secret,
	}))

	t.Cleanup(func() {
		env.streaming.AssertExpectations(t)
		env.lyrics.AssertExpectations(t)
		env.records.AssertExpectations(t)
	})
	return env
}
