package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"

	"github.com/developia-II/linguascreen-backend/internal/models"
)

// GoogleOCR runs Cloud Vision DOCUMENT_TEXT_DETECTION.
type GoogleOCR struct {
	svc     *vision.Service
	timeout time.Duration
}

// NewGoogleOCR authenticates with an API key. Calls are bounded by timeout
// through their context since a custom HTTP client would drop the key.
func NewGoogleOCR(ctx context.Context, apiKey string, timeout time.Duration, opts ...option.ClientOption) (*GoogleOCR, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(strings.TrimSpace(apiKey))}, opts...)
	svc, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create vision service: %w", err)
	}
	return &GoogleOCR{svc: svc, timeout: timeout}, nil
}

func (e *GoogleOCR) Name() string { return "google" }

func (e *GoogleOCR) annotate(ctx context.Context, image []byte) (*vision.AnnotateImageResponse, error) {
	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{{
			Image:    &vision.Image{Content: base64.StdEncoding.EncodeToString(image)},
			Features: []*vision.Feature{{Type: "DOCUMENT_TEXT_DETECTION"}},
		}},
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	resp, err := e.svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		var gErr *googleapi.Error
		if errors.As(err, &gErr) {
			return nil, remoteError(models.CodeOCRUnavailable, gErr.Code, gErr.Message, err)
		}
		return nil, remoteError(models.CodeOCRUnavailable, 0, "vision request failed", err)
	}
	if len(resp.Responses) == 0 {
		return nil, remoteError(models.CodeOCRUnavailable, resp.HTTPStatusCode, "vision returned no response", nil)
	}

	r := resp.Responses[0]
	if r.Error != nil && r.Error.Code != 0 {
		return nil, remoteError(models.CodeOCRUnavailable, resp.HTTPStatusCode, r.Error.Message, nil)
	}
	return r, nil
}

func (e *GoogleOCR) Analyze(ctx context.Context, image []byte) (json.RawMessage, error) {
	r, err := e.annotate(ctx, image)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal vision response: %w", err)
	}
	return raw, nil
}

// Read rebuilds lines from the symbol-level break markers of the full text
// annotation.
func (e *GoogleOCR) Read(ctx context.Context, image []byte) (*OCRPage, error) {
	r, err := e.annotate(ctx, image)
	if err != nil {
		return nil, err
	}
	return visionPage(r.FullTextAnnotation), nil
}

func visionPage(fta *vision.TextAnnotation) *OCRPage {
	page := &OCRPage{}
	if fta == nil {
		return page
	}

	var line strings.Builder
	flush := func() {
		if text := strings.TrimSpace(line.String()); text != "" {
			page.Lines = append(page.Lines, OCRLine{Text: text})
		}
		line.Reset()
	}

	for i, p := range fta.Pages {
		if i == 0 {
			page.Width, page.Height = int(p.Width), int(p.Height)
		}
		for _, block := range p.Blocks {
			for _, para := range block.Paragraphs {
				for _, word := range para.Words {
					for _, sym := range word.Symbols {
						line.WriteString(sym.Text)
						if sym.Property == nil || sym.Property.DetectedBreak == nil {
							continue
						}
						switch sym.Property.DetectedBreak.Type {
						case "SPACE", "SURE_SPACE":
							line.WriteByte(' ')
						case "HYPHEN":
							line.WriteByte('-')
							flush()
						case "EOL_SURE_SPACE", "LINE_BREAK":
							flush()
						}
					}
				}
				flush()
			}
		}
	}
	return page
}
