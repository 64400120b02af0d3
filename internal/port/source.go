package port

import "context"

// ContentSource produces raw text for ingestion.
type ContentSource interface {
	Fetch(ctx context.Context) (string, error)

	// Name identifies the source in logs and stored metadata.
	Name() string
}
