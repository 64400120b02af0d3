package domain

import (
	"errors"
	"fmt"
)

// Stage names the pipeline step a failure originated from.
type Stage string

const (
	StageValidation   Stage = "validation"
	StageFetch        Stage = "fetch"
	StageSizing       Stage = "sizing"
	StageSegmentation Stage = "segmentation"
	StageEmbedding    Stage = "embedding"
	StageStorage      Stage = "storage"
	StageRetrieval    Stage = "retrieval"
	StagePrompt       Stage = "prompt"
	StageGeneration   Stage = "generation"
)

var (
	// ErrInputTooLarge is returned by the segmenter for texts at or above the size ceiling.
	ErrInputTooLarge = errors.New("text is too long to be processed")

	// ErrInvalidChunkParams is returned by the splitter for unusable window parameters.
	ErrInvalidChunkParams = errors.New("invalid chunk parameters")

	// ErrEmptyResponse is the cause reported when the model returns nothing usable.
	ErrEmptyResponse = errors.New("empty_response")
)

// ValidationError describes rejected caller input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// IngestionError wraps a failure of the ingestion pipeline with its stage.
type IngestionError struct {
	Stage Stage
	Cause error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingestion failed at %s: %v", e.Stage, e.Cause)
}

func (e *IngestionError) Unwrap() error { return e.Cause }

// RAGError wraps a failure of the query pipeline with its stage.
type RAGError struct {
	Stage Stage
	Cause error
}

func (e *RAGError) Error() string {
	return fmt.Sprintf("query failed at %s: %v", e.Stage, e.Cause)
}

func (e *RAGError) Unwrap() error { return e.Cause }

// ScrapeError is returned when a web page cannot be turned into text.
type ScrapeError struct {
	URL string
	Err error
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("scrape %s: %v", e.URL, e.Err)
}

func (e *ScrapeError) Unwrap() error { return e.Err }

// FetchError is returned when a non-web content source cannot be read.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// StageOf reports the stage carried by a pipeline error, if any.
func StageOf(err error) (Stage, bool) {
	var ie *IngestionError
	if errors.As(err, &ie) {
		return ie.Stage, true
	}
	var re *RAGError
	if errors.As(err, &re) {
		return re.Stage, true
	}
	return "", false
}

// IsClientError reports whether err was caused by the caller's input rather than a dependency.
func IsClientError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrInputTooLarge) {
		return true
	}
	var ve *ValidationError
	return errors.As(err, &ve)
}
