package usecase

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/layrfelipe/hotmart-challenge/internal/domain"
)

//go:embed templates/*.txt
var promptTemplates embed.FS

// NoContextMarker replaces the context block when retrieval found nothing,
// so the model is told explicitly instead of receiving an empty section.
const NoContextMarker = "Nenhum contexto relevante foi encontrado na base de conhecimento."

const contextSeparator = "\n\n"

type promptData struct {
	Context  string
	Question string
}

// PromptBuilder renders the grounding prompt from a text/template.
type PromptBuilder struct {
	tmpl *template.Template
}

// NewPromptBuilder uses the file at path, or the built-in Portuguese prompt when path is empty.
func NewPromptBuilder(path string) (*PromptBuilder, error) {
	var (
		content []byte
		err     error
		name    = "answer_prompt.txt"
	)
	if path == "" {
		content, err = promptTemplates.ReadFile("templates/" + name)
	} else {
		name = path
		content, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt template: %w", err)
	}
	return ParsePrompt(name, string(content))
}

// ParsePrompt parses text and checks that it uses both .Context and .Question.
func ParsePrompt(name, text string) (*PromptBuilder, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt template: %w", err)
	}

	const ctxProbe, questionProbe = "\x00ctx\x00", "\x00question\x00"
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, promptData{Context: ctxProbe, Question: questionProbe}); err != nil {
		return nil, fmt.Errorf("failed to execute prompt template: %w", err)
	}
	if !strings.Contains(buf.String(), ctxProbe) || !strings.Contains(buf.String(), questionProbe) {
		return nil, fmt.Errorf("prompt template %s must reference both {{.Context}} and {{.Question}}", name)
	}

	return &PromptBuilder{tmpl: tmpl}, nil
}

// Build renders the prompt with retrieved passages joined in rank order.
func (b *PromptBuilder) Build(question string, retrieved domain.RetrievedContext) (string, error) {
	ctx := NoContextMarker
	if len(retrieved) > 0 {
		ctx = strings.Join(retrieved.Texts(), contextSeparator)
	}

	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, promptData{Context: ctx, Question: question}); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}
