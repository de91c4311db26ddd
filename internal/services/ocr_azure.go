package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/developia-II/linguascreen-backend/internal/models"
)

const imageAnalysisAPIVersion = "2023-10-01"

// AzureOCR calls Azure AI Vision Image Analysis 4.0 with the READ feature.
type AzureOCR struct {
	endpoint string
	apiKey   string
	httpc    *http.Client
}

func NewAzureOCR(endpoint, apiKey string, httpc *http.Client) *AzureOCR {
	return &AzureOCR{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		httpc:    httpc,
	}
}

func (e *AzureOCR) Name() string { return "azure" }

type azureAnalyzeResult struct {
	Metadata struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"metadata"`
	ReadResult *struct {
		Blocks []struct {
			Lines []struct {
				Text string `json:"text"`
			} `json:"lines"`
		} `json:"blocks"`
	} `json:"readResult"`
}

func (e *AzureOCR) Read(ctx context.Context, image []byte) (*OCRPage, error) {
	raw, err := e.Analyze(ctx, image)
	if err != nil {
		return nil, err
	}

	var res azureAnalyzeResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, remoteError(models.CodeOCRUnavailable, http.StatusOK, "malformed image analysis response: "+preview(raw), err)
	}

	page := &OCRPage{Width: res.Metadata.Width, Height: res.Metadata.Height}
	if res.ReadResult != nil {
		for _, b := range res.ReadResult.Blocks {
			for _, l := range b.Lines {
				page.Lines = append(page.Lines, OCRLine{Text: l.Text})
			}
		}
	}
	return page, nil
}

func (e *AzureOCR) Analyze(ctx context.Context, image []byte) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("api-version", imageAnalysisAPIVersion)
	q.Set("features", "read")
	apiURL := e.endpoint + "/computervision/imageanalysis:analyze?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Ocp-Apim-Subscription-Key", e.apiKey)

	resp, err := e.httpc.Do(req)
	if err != nil {
		return nil, remoteError(models.CodeOCRUnavailable, 0, "image analysis request failed", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, remoteError(models.CodeOCRUnavailable, resp.StatusCode, "read image analysis response", err)
	}

	if resp.StatusCode != http.StatusOK {
		var eb azureErrorBody
		detail := preview(body)
		if json.Unmarshal(body, &eb) == nil && eb.Error.Message != "" {
			detail = eb.describe()
		}
		return nil, remoteError(models.CodeOCRUnavailable, resp.StatusCode, detail, nil)
	}
	if !json.Valid(body) {
		return nil, remoteError(models.CodeOCRUnavailable, resp.StatusCode, "malformed image analysis response: "+preview(body), nil)
	}
	return json.RawMessage(body), nil
}
