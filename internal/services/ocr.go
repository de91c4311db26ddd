package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/developia-II/linguascreen-backend/internal/models"
)

// OCRLine is a detected text line in provider order.
type OCRLine struct {
	Text string
}

type OCRPage struct {
	Lines  []OCRLine
	Width  int
	Height int
}

// OCREngine is one OCR provider. Read returns the provider-neutral line model,
// Analyze the untouched provider payload.
type OCREngine interface {
	Name() string
	Read(ctx context.Context, image []byte) (*OCRPage, error)
	Analyze(ctx context.Context, image []byte) (json.RawMessage, error)
}

type OCRResult struct {
	// MergedText is nil when no line was detected.
	MergedText *string
	Width      int
	Height     int
}

// OCRGateway extracts text from images through the configured engine.
type OCRGateway struct {
	engine OCREngine
}

func NewOCRGateway(engine OCREngine) *OCRGateway {
	return &OCRGateway{engine: engine}
}

func (g *OCRGateway) ExtractText(ctx context.Context, image []byte) (*OCRResult, error) {
	if len(image) == 0 {
		return nil, models.NewValidationError("image is empty")
	}

	page, err := g.engine.Read(ctx, image)
	if err != nil {
		return nil, err
	}
	return &OCRResult{
		MergedText: MergeLines(page.Lines),
		Width:      page.Width,
		Height:     page.Height,
	}, nil
}

// Analyze returns the provider's raw READ result.
func (g *OCRGateway) Analyze(ctx context.Context, image []byte) (json.RawMessage, error) {
	if len(image) == 0 {
		return nil, models.NewValidationError("image is empty")
	}
	return g.engine.Analyze(ctx, image)
}

// MergeLines joins line texts with single spaces. No lines yields nil.
func MergeLines(lines []OCRLine) *string {
	if len(lines) == 0 {
		return nil
	}
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.Text
	}
	merged := strings.Join(parts, " ")
	return &merged
}
