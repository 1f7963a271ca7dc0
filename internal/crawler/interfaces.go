package crawler

import (
	"context"
	"io"
	"time"

	"github.com/JakeFAU/lead-hunter/internal/extract"
	"github.com/JakeFAU/lead-hunter/internal/leads"
)

// PageFetcher opens isolated browsing sessions. One session is used per site.
type PageFetcher interface {
	NewSession(ctx context.Context) (Session, error)
}

// Session visits pages inside one isolated browsing context.
type Session interface {
	// Visit navigates to rawURL and returns the rendered page. Navigation failures
	// are returned as errors, never panics.
	Visit(ctx context.Context, rawURL string) (Page, error)
	Close() error
}

// Searcher turns a query into an ordered list of result URLs.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]string, error)
}

// ContactExtractor finds contact values in page text.
type ContactExtractor interface {
	Extract(text string) extract.Result
}

// Pacer inserts politeness delays between operations.
type Pacer interface {
	Pause(ctx context.Context, delay time.Duration)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}

// BlobStore writes export artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Publisher pushes run summaries to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// LeadSink persists a run's leads outside the process.
type LeadSink interface {
	StoreLeads(ctx context.Context, runID string, records []leads.Lead) error
}
