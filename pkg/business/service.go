package business

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/ingeniar/bizgen/pkg/document"
	"github.com/ingeniar/bizgen/pkg/llm"
	"github.com/ingeniar/bizgen/pkg/metrics"
)

// Request is one user-triggered generation.
type Request struct {
	Mode   string
	Locale string
	Input  RawInput
}

// DocumentInfo describes how an attached document contributed to the prompt.
type DocumentInfo struct {
	Filename  string `json:"filename"`
	CharsUsed int    `json:"charsUsed"`
	Excerpted bool   `json:"excerpted"`
	Skipped   string `json:"skipped,omitempty"`
}

// Result is the generated text with request metadata.
type Result struct {
	RequestID uuid.UUID     `json:"requestId"`
	Mode      string        `json:"mode"`
	Locale    string        `json:"locale"`
	Model     string        `json:"model"`
	Title     string        `json:"title"`
	Text      string        `json:"text"`
	Figures   *Figures      `json:"figures,omitempty"`
	Document  *DocumentInfo `json:"document,omitempty"`
}

// GenerationService describes the application use case behind every mode.
type GenerationService interface {
	Generate(ctx context.Context, req Request) (Result, error)
	Catalog() *Catalog
}

type service struct {
	catalog          *Catalog
	model            llm.TextModel
	logger           *slog.Logger
	extract          func(filename string, data []byte) (string, error)
	maxDocumentChars int
}

// NewService creates the default implementation.
func NewService(catalog *Catalog, model llm.TextModel, logger *slog.Logger, maxDocumentChars int) GenerationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		catalog:          catalog,
		model:            model,
		logger:           logger,
		extract:          document.ExtractText,
		maxDocumentChars: maxDocumentChars,
	}
}

func (s *service) Catalog() *Catalog { return s.catalog }

// Generate validates the input, builds the prompt and makes exactly one model call.
func (s *service) Generate(ctx context.Context, req Request) (Result, error) {
	m, ok := s.catalog.Mode(req.Mode)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownMode, req.Mode)
	}
	lang, loc := m.Locale(req.Locale)

	in, err := Collect(m, req.Input)
	if err != nil {
		metrics.IncGeneration(m.ID, "validation")
		return Result{}, err
	}
	var docInfo *DocumentInfo
	if name := m.documentField(); name != "" && req.Input.Document != nil {
		docInfo = s.attachDocument(req.Input.Document, name, in)
	}

	prompt, err := BuildPrompt(m, lang, in)
	if err != nil {
		metrics.IncError("prompt", "build")
		return Result{}, err
	}

	requestID := uuid.New()
	log := s.logger.With("request_id", requestID.String(), "mode", m.ID, "locale", lang)
	log.Debug("sending prompt", "prompt_chars", len(prompt), "model", s.model.ModelName())

	start := time.Now()
	text, err := s.model.Generate(ctx, loc.SystemInstruction, m.Generation, prompt)
	metrics.ObserveGenerationDuration(m.ID, time.Since(start))
	if err != nil {
		metrics.IncGeneration(m.ID, "service_error")
		log.Warn("model call failed", "err", err, "elapsed", time.Since(start))
		return Result{}, &ServiceError{Mode: m.ID, Prefix: loc.ErrorPrefix, Err: err}
	}
	metrics.IncGeneration(m.ID, "ok")
	log.Info("generation completed", "elapsed", time.Since(start), "response_chars", len(text))

	return Result{
		RequestID: requestID,
		Mode:      m.ID,
		Locale:    lang,
		Model:     s.model.ModelName(),
		Title:     loc.Title,
		Text:      text,
		Figures:   in.Profitability,
		Document:  docInfo,
	}, nil
}

// attachDocument extracts the upload's text into the document field. Failures only
// drop the document: it is optional context for the prompt.
func (s *service) attachDocument(up *Upload, field string, in Input) *DocumentInfo {
	info := &DocumentInfo{Filename: up.Filename}
	if len(up.Data) == 0 {
		info.Skipped = "empty file"
		return info
	}
	text, err := s.extract(up.Filename, up.Data)
	if err != nil {
		metrics.IncDocument("failed")
		s.logger.Warn("document skipped", "filename", up.Filename, "size", humanize.Bytes(uint64(len(up.Data))), "err", err)
		if errors.Is(err, document.ErrUnsupportedFormat) {
			info.Skipped = "unsupported format"
		} else {
			info.Skipped = "unreadable document"
		}
		return info
	}
	text, excerpted := document.Excerpt(text, s.maxDocumentChars)
	if text == "" {
		info.Skipped = "no text found"
		return info
	}
	if excerpted {
		metrics.IncDocument("excerpted")
	} else {
		metrics.IncDocument("ok")
	}
	in.Values[field] = text
	info.CharsUsed = len([]rune(text))
	info.Excerpted = excerpted
	return info
}
