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

// QueryState is a step of the question answering state machine.
type QueryState string

const (
	StateReceived        QueryState = "received"
	StateValidated       QueryState = "validated"
	StateEmbedded        QueryState = "embedded"
	StateRetrieved       QueryState = "retrieved"
	StatePromptAssembled QueryState = "prompt_assembled"
	StateGenerated       QueryState = "generated"
	StateCompleted       QueryState = "completed"
	StateFailed          QueryState = "failed"
)

// AnswerOptions configures the query pipeline.
type AnswerOptions struct {
	TopK              int
	MaxQuestionLength int // in characters
	EmbedTimeout      time.Duration
	RetrievalTimeout  time.Duration
	GenerationTimeout time.Duration

	// OnTransition, when set, is called on every state change.
	OnTransition func(QueryState)
}

// AnswerUseCase answers questions from stored segments with a language model.
type AnswerUseCase struct {
	embedder port.Embedder
	store    port.SegmentStore
	llm      port.LLM
	prompt   *PromptBuilder
	opts     AnswerOptions
	logger   *slog.Logger
}

func NewAnswerUseCase(
	embedder port.Embedder,
	store port.SegmentStore,
	llm port.LLM,
	prompt *PromptBuilder,
	opts AnswerOptions,
	logger *slog.Logger,
) *AnswerUseCase {
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	if opts.MaxQuestionLength <= 0 {
		opts.MaxQuestionLength = 500
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &AnswerUseCase{
		embedder: embedder,
		store:    store,
		llm:      llm,
		prompt:   prompt,
		opts:     opts,
		logger:   logger,
	}
}

// Answer runs Received → Validated → Embedded → Retrieved → PromptAssembled →
// Generated → Completed. Any failure ends in Failed with a *domain.RAGError.
func (u *AnswerUseCase) Answer(ctx context.Context, req domain.QueryRequest) (*domain.Answer, error) {
	run := &queryRun{u: u, log: u.logger.With("question_length", utf8.RuneCountInString(req.Question)), start: time.Now()}
	run.enter(StateReceived)

	question, err := u.validate(req.Question)
	if err != nil {
		return nil, run.fail(domain.StageValidation, err)
	}
	run.enter(StateValidated)

	embedCtx, cancel := withTimeout(ctx, u.opts.EmbedTimeout)
	vectors, err := u.embedder.Embed(embedCtx, []string{question})
	cancel()
	if err != nil {
		return nil, run.fail(domain.StageEmbedding, err)
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return nil, run.fail(domain.StageEmbedding, fmt.Errorf("embedder returned %d vectors for 1 question", len(vectors)))
	}
	run.enter(StateEmbedded)

	retrieveCtx, cancel := withTimeout(ctx, u.opts.RetrievalTimeout)
	retrieved, err := u.store.Query(retrieveCtx, vectors[0], u.opts.TopK)
	cancel()
	if err != nil {
		return nil, run.fail(domain.StageRetrieval, err)
	}
	run.enter(StateRetrieved, "segments", len(retrieved))

	prompt, err := u.prompt.Build(question, retrieved)
	if err != nil {
		return nil, run.fail(domain.StagePrompt, err)
	}
	run.enter(StatePromptAssembled, "prompt_length", utf8.RuneCountInString(prompt))

	genCtx, cancel := withTimeout(ctx, u.opts.GenerationTimeout)
	output, err := u.llm.Generate(genCtx, prompt)
	cancel()
	if err != nil {
		return nil, run.fail(domain.StageGeneration, err)
	}
	output = strings.TrimSpace(output)
	if output == "" {
		return nil, run.fail(domain.StageGeneration, domain.ErrEmptyResponse)
	}
	run.enter(StateGenerated)

	run.enter(StateCompleted, "duration", time.Since(run.start))
	return &domain.Answer{Text: output, Sources: retrieved}, nil
}

func (u *AnswerUseCase) validate(question string) (string, error) {
	trimmed := strings.TrimSpace(question)
	switch {
	case trimmed == "":
		return "", &domain.ValidationError{Field: "question", Reason: "must not be empty"}
	case !utf8.ValidString(question):
		return "", &domain.ValidationError{Field: "question", Reason: "must be valid UTF-8"}
	case utf8.RuneCountInString(question) > u.opts.MaxQuestionLength:
		return "", &domain.ValidationError{
			Field:  "question",
			Reason: fmt.Sprintf("must be at most %d characters", u.opts.MaxQuestionLength),
		}
	}
	return trimmed, nil
}

type queryRun struct {
	u     *AnswerUseCase
	log   *slog.Logger
	start time.Time
}

func (r *queryRun) enter(state QueryState, attrs ...any) {
	r.log.Debug("query state", append([]any{"state", state}, attrs...)...)
	if r.u.opts.OnTransition != nil {
		r.u.opts.OnTransition(state)
	}
}

func (r *queryRun) fail(stage domain.Stage, cause error) error {
	level := slog.LevelError
	if domain.IsClientError(cause) {
		level = slog.LevelWarn
	}
	r.log.Log(context.Background(), level, "query failed", "stage", stage, "error", cause)
	r.enter(StateFailed)
	return &domain.RAGError{Stage: stage, Cause: cause}
}
