package app_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/lead-hunter/internal/app"
	"github.com/JakeFAU/lead-hunter/internal/clock/system"
	"github.com/JakeFAU/lead-hunter/internal/config"
	"github.com/JakeFAU/lead-hunter/internal/crawler"
	"github.com/JakeFAU/lead-hunter/internal/leads"
	memorypublisher "github.com/JakeFAU/lead-hunter/internal/publisher/memory"
	memorystorage "github.com/JakeFAU/lead-hunter/internal/storage/memory"
)

type sitePages map[string]crawler.Page

func (p sitePages) NewSession(context.Context) (crawler.Session, error) { return p, nil }

func (p sitePages) Visit(_ context.Context, rawURL string) (crawler.Page, error) {
	page, ok := p[rawURL]
	if !ok {
		return crawler.Page{}, errors.New("not found")
	}
	return page, nil
}

func (p sitePages) Close() error { return nil }

// MockLeadSink mocks the lead sink and run recorder.
type MockLeadSink struct {
	mock.Mock
}

func (m *MockLeadSink) StoreLeads(ctx context.Context, runID string, records []leads.Lead) error {
	return m.Called(ctx, runID, records).Error(0)
}

func (m *MockLeadSink) RecordRun(ctx context.Context, summary crawler.RunSummary) error {
	return m.Called(ctx, summary).Error(0)
}

type fixedID string

func (f fixedID) NewID() (string, error) { return string(f), nil }

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	cfg.PubSub.Topic = "runs"
	return cfg
}

func TestBuildRunAndFinish(t *testing.T) {
	pages := sitePages{
		"https://acme.test": {
			HTML:    "<p>Write to sales@acme.io</p>",
			Anchors: []string{"/contact"},
		},
		"https://acme.test/contact": {HTML: "<p>Call (555) 123-4567</p>"},
	}
	blobs := memorystorage.NewBlobStore()
	pub := memorypublisher.New()
	sink := new(MockLeadSink)
	sink.On("StoreLeads", mock.Anything, "run-7", mock.MatchedBy(func(l []leads.Lead) bool { return len(l) == 2 })).
		Return(nil)
	sink.On("RecordRun", mock.Anything, mock.MatchedBy(func(s crawler.RunSummary) bool { return s.RunID == "run-7" })).
		Return(nil)

	a, err := app.Build(context.Background(), testConfig(t), nil,
		app.WithFetcher(pages),
		app.WithBlobStore(blobs),
		app.WithLeadSink(sink, sink),
		app.WithPublisher(pub),
		app.WithPacer(crawler.NoopPacer{}),
		app.WithClock(system.NewStepping(time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC), time.Second)),
		app.WithIDGenerator(fixedID("run-7")),
	)
	require.NoError(t, err)
	defer a.Close(context.Background())

	summary := a.Runner().RunURLs(context.Background(), []string{"https://acme.test"})
	assert.Equal(t, 1, summary.Emails)
	assert.Equal(t, 1, summary.Phones)

	require.NoError(t, a.Finish(context.Background(), summary))
	assert.Equal(t, []string{"leads.csv", "leads.json", "leads.txt"}, blobs.Paths())
	msgs := pub.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "runs", msgs[0].Topic)
	assert.Equal(t, summary, msgs[0].Payload)
	sink.AssertExpectations(t)
}

func TestFinishAttemptsEverySink(t *testing.T) {
	pages := sitePages{"https://acme.test": {HTML: "<p>sales@acme.io</p>"}}
	pub := memorypublisher.New()
	sink := new(MockLeadSink)
	sink.On("StoreLeads", mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)

	a, err := app.Build(context.Background(), testConfig(t), nil,
		app.WithFetcher(pages),
		app.WithBlobStore(memorystorage.NewBlobStore()),
		app.WithLeadSink(sink, nil),
		app.WithPublisher(pub),
		app.WithPacer(crawler.NoopPacer{}),
	)
	require.NoError(t, err)
	defer a.Close(context.Background())

	summary := a.Runner().RunURLs(context.Background(), []string{"https://acme.test"})
	err = a.Finish(context.Background(), summary)
	require.ErrorIs(t, err, assert.AnError)
	assert.Len(t, pub.Messages(), 1)
}

func TestFinishWithoutLeadsWritesNothing(t *testing.T) {
	blobs := memorystorage.NewBlobStore()
	cfg := testConfig(t)
	cfg.PubSub.Topic = ""

	a, err := app.Build(context.Background(), cfg, nil,
		app.WithFetcher(sitePages{}),
		app.WithBlobStore(blobs),
		app.WithPacer(crawler.NoopPacer{}),
	)
	require.NoError(t, err)
	defer a.Close(context.Background())

	summary := a.Runner().RunURLs(context.Background(), []string{"https://down.test"})
	require.NoError(t, a.Finish(context.Background(), summary))
	assert.Empty(t, blobs.Paths())
}

func TestBuildUsesLocalExportDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.PubSub.Topic = ""
	cfg.Fetcher.Engine = config.EngineColly
	cfg.Export.Dir = t.TempDir()

	a, err := app.Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	a.Close(context.Background())
}

func TestFinishWritesLocalExportWhereOutputPoints(t *testing.T) {
	target := filepath.Join(t.TempDir(), "reports")
	cfg := testConfig(t)
	cfg.PubSub.Topic = ""
	cfg.Export.Dir = t.TempDir()
	cfg.Export.Output = filepath.Join(target, "acme")

	a, err := app.Build(context.Background(), cfg, nil,
		app.WithFetcher(sitePages{"https://acme.test": {HTML: "<p>sales@acme.io</p>"}}),
		app.WithPacer(crawler.NoopPacer{}),
	)
	require.NoError(t, err)
	defer a.Close(context.Background())

	summary := a.Runner().RunURLs(context.Background(), []string{"https://acme.test"})
	require.NoError(t, a.Finish(context.Background(), summary))

	for _, ext := range []string{"csv", "json", "txt"} {
		assert.FileExists(t, filepath.Join(target, "acme."+ext))
		assert.NoFileExists(t, filepath.Join(cfg.Export.Dir, "acme."+ext))
	}
}

func TestBuildAppliesExtractSettings(t *testing.T) {
	cfg := testConfig(t)
	cfg.PubSub.Topic = ""
	cfg.Extract.Denylist = []string{"acme"}
	cfg.Extract.MinPhoneDigits = 10

	a, err := app.Build(context.Background(), cfg, nil,
		app.WithFetcher(sitePages{"https://acme.test": {
			HTML: "<p>sales@acme.io ops@shop.org (555) 123-4567 +1-800-555-0199</p>",
		}}),
		app.WithBlobStore(memorystorage.NewBlobStore()),
		app.WithPacer(crawler.NoopPacer{}),
	)
	require.NoError(t, err)
	defer a.Close(context.Background())

	a.Runner().RunURLs(context.Background(), []string{"https://acme.test"})
	var values []string
	for _, l := range a.Runner().Leads() {
		values = append(values, l.Value)
	}
	assert.Equal(t, []string{"ops@shop.org", "+1-800-555-0199"}, values)
}
