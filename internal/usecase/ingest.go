package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/layrfelipe/hotmart-challenge/internal/domain"
	"github.com/layrfelipe/hotmart-challenge/internal/logging"
	"github.com/layrfelipe/hotmart-challenge/internal/port"
)

// IngestOptions holds per-stage limits for ingestion.
type IngestOptions struct {
	EmbedTimeout time.Duration
	StoreTimeout time.Duration
}

// IngestUseCase turns raw text into stored, embedded segments.
type IngestUseCase struct {
	segmenter port.Segmenter
	embedder  port.Embedder
	store     port.SegmentStore
	opts      IngestOptions
	logger    *slog.Logger
}

func NewIngestUseCase(
	segmenter port.Segmenter,
	embedder port.Embedder,
	store port.SegmentStore,
	opts IngestOptions,
	logger *slog.Logger,
) *IngestUseCase {
	if logger == nil {
		logger = logging.Discard()
	}
	return &IngestUseCase{
		segmenter: segmenter,
		embedder:  embedder,
		store:     store,
		opts:      opts,
		logger:    logger,
	}
}

// Ingest validates, segments, embeds and stores doc. Failures are *domain.IngestionError.
// Nothing is written unless every earlier stage succeeded.
func (u *IngestUseCase) Ingest(ctx context.Context, doc domain.RawDocument) (*domain.IngestResult, error) {
	log := u.logger.With("source", doc.Source)
	start := time.Now()

	if err := validateText(doc.Text); err != nil {
		return nil, u.fail(log, domain.StageValidation, err)
	}

	params, err := u.segmenter.ChunkParams(doc.Text)
	if err != nil {
		return nil, u.fail(log, domain.StageSizing, err)
	}
	log.Debug("chunk params", "length", utf8.RuneCountInString(doc.Text), "size", params.Size, "overlap", params.Overlap)

	segments, err := u.segmenter.Split(doc.Text, params)
	if err != nil {
		return nil, u.fail(log, domain.StageSegmentation, err)
	}
	if len(segments) == 0 {
		return nil, u.fail(log, domain.StageSegmentation, fmt.Errorf("splitter produced no segments"))
	}

	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Text
	}

	embedCtx, cancel := withTimeout(ctx, u.opts.EmbedTimeout)
	vectors, err := u.embedder.Embed(embedCtx, texts)
	cancel()
	if err != nil {
		return nil, u.fail(log, domain.StageEmbedding, err)
	}
	if len(vectors) != len(segments) {
		return nil, u.fail(log, domain.StageEmbedding,
			fmt.Errorf("embedder returned %d vectors for %d segments", len(vectors), len(segments)))
	}

	storeCtx, cancel := withTimeout(ctx, u.opts.StoreTimeout)
	_, err = u.store.Write(storeCtx, segments, vectors, doc.Source)
	cancel()
	if err != nil {
		return nil, u.fail(log, domain.StageStorage, err)
	}

	log.Info("ingested document",
		"chunks", len(segments),
		"chunk_size", params.Size,
		"chunk_overlap", params.Overlap,
		"duration", time.Since(start))

	return &domain.IngestResult{
		ChunksWritten: len(segments),
		Params:        params,
		Source:        doc.Source,
	}, nil
}

// IngestFrom fetches text from src and ingests it. Fetch failures carry the fetch stage.
func (u *IngestUseCase) IngestFrom(ctx context.Context, src port.ContentSource) (*domain.IngestResult, error) {
	log := u.logger.With("source", src.Name())

	text, err := src.Fetch(ctx)
	if err != nil {
		return nil, u.fail(log, domain.StageFetch, err)
	}
	log.Debug("fetched content", "length", utf8.RuneCountInString(text))

	return u.Ingest(ctx, domain.RawDocument{Text: text, Source: src.Name()})
}

func (u *IngestUseCase) fail(log *slog.Logger, stage domain.Stage, cause error) error {
	level := slog.LevelError
	if domain.IsClientError(cause) {
		level = slog.LevelWarn
	}
	log.Log(context.Background(), level, "ingestion failed", "stage", stage, "error", cause)
	return &domain.IngestionError{Stage: stage, Cause: cause}
}

func validateText(text string) error {
	switch {
	case text == "":
		return &domain.ValidationError{Field: "text", Reason: "must not be empty"}
	case !utf8.ValidString(text):
		return &domain.ValidationError{Field: "text", Reason: "must be valid UTF-8"}
	case strings.TrimSpace(text) == "":
		return &domain.ValidationError{Field: "text", Reason: "must not be blank"}
	}
	return nil
}

// withTimeout applies d to ctx when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
