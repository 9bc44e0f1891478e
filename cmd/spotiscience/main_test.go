package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"spotiscience/internal/app"
	"spotiscience/internal/config"
	"spotiscience/internal/handlers"
	"spotiscience/internal/models"
	"spotiscience/internal/services"
	"spotiscience/internal/store"
	"spotiscience/internal/testutil"
)

type testCLI struct {
	*cli
	out       *bytes.Buffer
	errOut    *bytes.Buffer
	streaming *services.MockStreamingClient
	records   *testutil.MockRecordRepository
}

func newTestCLI(t *testing.T) *testCLI {
	t.Helper()

	cfg := &config.Config{
		SnapshotPath:   filepath.Join(t.TempDir(), "snapshots.db"),
		APITokenSecret: "cli-secret",
	}
	tc := &testCLI{
		out:       &bytes.Buffer{},
		errOut:    &bytes.Buffer{},
		streaming: &services.MockStreamingClient{},
		records:   &testutil.MockRecordRepository{},
	}
	tc.cli = newCLI(cfg, tc.out, tc.errOut)
	tc.newApp = func(ctx context.Context) (*app.App, error) {
		return &app.App{
			Config:  cfg,
			Records: tc.records,
			Acquisition: services.NewAcquisitionService(tc.streaming, nil,
				services.WithThrottle(0),
				services.WithReporter(tc.progressReporter())),
		}, nil
	}

	t.Cleanup(func() {
		tc.streaming.AssertExpectations(t)
		tc.records.AssertExpectations(t)
	})
	return tc
}

func (tc *testCLI) saveSnapshot(t *testing.T, collection *models.Collection) {
	t.Helper()
	snapshots, err := tc.snapshots()
	require.NoError(t, err)
	defer snapshots.Close()
	require.NoError(t, snapshots.Save(collection))
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no command", args: nil},
		{name: "unknown command", args: []string{"remix"}},
		{name: "album without ids", args: []string{"album"}},
		{name: "artist with two ids", args: []string{"artist", "a", "b"}},
		{name: "playlist without id", args: []string{"playlist", "-n", "5"}},
		{name: "playlist bad flag", args: []string{"playlist", "p1", "-n", "many"}},
		{name: "topics without input", args: []string{"topics"}},
		{name: "similar without snapshot", args: []string{"similar", "t1"}},
		{name: "lyrics without artist", args: []string{"lyrics", "-title", "Song"}},
		{name: "snapshots with junk", args: []string{"snapshots", "purge"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestCLI(t)
			err := tc.run(context.Background(), tt.args)
			assert.ErrorIs(t, err, errUsage)
		})
	}
}

func TestRun_Help(t *testing.T) {
	tc := newTestCLI(t)
	require.NoError(t, tc.run(context.Background(), []string{"help"}))
	assert.Contains(t, tc.out.String(), "Usage: spotiscience")
}

func TestParseFlags_Interleaved(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	n := fs.Int("n", 0, "")
	positional, err := parseFlags(fs, []string{"first", "-n", "7", "second"})

	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, positional)
	assert.Equal(t, 7, *n)
}

func TestAlbum_SavesSnapshotAndRecords(t *testing.T) {
	tc := newTestCLI(t)
	tc.streaming.On("GetAlbum", mock.Anything, "a1").Return(&services.Album{ID: "a1", Name: "First Light"}, nil)
	tc.streaming.On("GetAlbumTrackIDs", mock.Anything, "a1").Return([]string{"t1", "t2"}, nil)
	tc.streaming.On("GetTrack", mock.Anything, "t1").Return(services.StubTrack("t1", "Dawn", "First Light", "Band"), nil)
	tc.streaming.On("GetAudioFeatures", mock.Anything, "t1").Return(services.StubFeatures("t1", 1), nil)
	tc.streaming.On("GetTrack", mock.Anything, "t2").Return(nil, &services.PlatformError{Platform: "spotify", Operation: "get track", StatusCode: 404})
	testutil.ExpectSaveCollection(tc.records, nil)

	require.NoError(t, tc.run(context.Background(), []string{"album", "a1"}))

	var summary models.CollectionSummary
	require.NoError(t, json.Unmarshal(tc.out.Bytes(), &summary))
	assert.Equal(t, models.CollectionAlbums, summary.Kind)
	assert.Equal(t, 1, summary.Records)
	assert.Equal(t, []string{"First Light"}, summary.Groups)

	assert.Contains(t, tc.errOut.String(), "First Light: t1")
	assert.Contains(t, tc.errOut.String(), "t2 failed")
	assert.Contains(t, tc.errOut.String(), "1 item(s) failed")

	snapshots, err := tc.snapshots()
	require.NoError(t, err)
	defer snapshots.Close()
	stored, err := snapshots.Load(summary.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Len())
}

func TestAlbum_NothingDownloaded(t *testing.T) {
	tc := newTestCLI(t)
	tc.streaming.On("GetAlbum", mock.Anything, "gone").Return(nil, &services.PlatformError{Platform: "spotify", Operation: "get album", StatusCode: 404})

	err := tc.run(context.Background(), []string{"album", "gone"})

	var batch *services.BatchError
	require.ErrorAs(t, err, &batch)
	assert.Len(t, batch.Items, 1)
}

func TestSnapshots_ListAndRemove(t *testing.T) {
	tc := newTestCLI(t)
	collection := testutil.CreateTestCollection()
	tc.saveSnapshot(t, collection)

	require.NoError(t, tc.run(context.Background(), []string{"snapshots"}))
	assert.Contains(t, tc.out.String(), "ID")
	assert.Contains(t, tc.out.String(), collection.ID)

	tc.out.Reset()
	require.NoError(t, tc.run(context.Background(), []string{"snapshots", "rm", collection.ID}))
	assert.Contains(t, tc.out.String(), "deleted "+collection.ID)

	err := tc.run(context.Background(), []string{"snapshots", "rm", collection.ID})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTopics_FromFile(t *testing.T) {
	tc := newTestCLI(t)
	path := filepath.Join(t.TempDir(), "lyric.txt")
	require.NoError(t, os.WriteFile(path, []byte("I feel so happy today\nYou make me smile\nSunshine in my heart"), 0o600))

	require.NoError(t, tc.run(context.Background(), []string{"topics", "-file", path, "-model", "lsi", "-top", "3"}))

	var topics map[string][]map[string]any
	require.NoError(t, json.Unmarshal(tc.out.Bytes(), &topics))
	require.Contains(t, topics, "Topic 0:")
	assert.Len(t, topics["Topic 0:"], 3)
}

func TestTopics_UnknownModel(t *testing.T) {
	tc := newTestCLI(t)
	path := filepath.Join(t.TempDir(), "lyric.txt")
	require.NoError(t, os.WriteFile(path, []byte("words words words"), 0o600))

	err := tc.run(context.Background(), []string{"topics", "-file", path, "-model", "bert"})
	assert.ErrorIs(t, err, models.ErrUnsupportedOption)
}

func TestSimilar_AgainstSnapshot(t *testing.T) {
	tc := newTestCLI(t)
	source := testutil.NewRecordBuilder().WithID("src").WithFeatures(0.5, 0.5, 0.5, 0.1, 0.1, 0.5, -8, 0.05, 120, 5, 4).Build()
	near := testutil.NewRecordBuilder().WithID("near").WithName("Near").WithFeatures(0.5, 0.5, 0.5, 0.1, 0.1, 0.5, -8, 0.05, 121, 5, 4).Build()
	far := testutil.NewRecordBuilder().WithID("far").WithName("Far").WithFeatures(0.9, 0.1, 0.9, 0.9, 0.9, 0.1, -30, 0.5, 60, 1, 3).Build()
	target := testutil.NewCollectionBuilder(models.CollectionPlaylist).WithID("target-snapshot").WithGroup("Mix", far, near).Build()
	tc.saveSnapshot(t, target)
	testutil.ExpectFindRecord(tc.records, "src", &source, nil)

	require.NoError(t, tc.run(context.Background(), []string{"similar", "src", "target", "-top", "1"}))

	var result struct {
		Matches []struct {
			Name string `json:"name"`
		} `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(tc.out.Bytes(), &result))
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "Near", result.Matches[0].Name)
}

func TestToken_Issues(t *testing.T) {
	tc := newTestCLI(t)

	require.NoError(t, tc.run(context.Background(), []string{"token", "-subject", "ops", "-ttl", "1h"}))

	claims, err := handlers.ParseToken("cli-secret", strings.TrimSpace(tc.out.String()))
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestToken_NoSecret(t *testing.T) {
	tc := newTestCLI(t)
	tc.cfg.APITokenSecret = ""

	err := tc.run(context.Background(), []string{"token"})
	assert.ErrorIs(t, err, errUsage)
}

func TestNewCLI_SnapshotsOpenStore(t *testing.T) {
	cfg := &config.Config{SnapshotPath: filepath.Join(t.TempDir(), "s.db")}
	c := newCLI(cfg, &bytes.Buffer{}, &bytes.Buffer{})

	snapshots, err := c.snapshots()
	require.NoError(t, err)
	assert.IsType(t, &store.SnapshotStore{}, snapshots)
	require.NoError(t, snapshots.Close())
}
