// internal/analysis/client.go
package analysis

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"planmark/pkg/core"
)

// Client handles communication with the defect analysis service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new analysis client. The timeout bounds the whole
// round trip including model inference on the server.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// elementInfo is the BIM context sent alongside the photo.
type elementInfo struct {
	ElementID  string            `json:"element_id"`
	Name       string            `json:"name,omitempty"`
	Category   string            `json:"category,omitempty"`
	StaticInfo map[string]string `json:"static_info,omitempty"`
}

// analyzeResponse is the wire format returned by the analysis service.
type analyzeResponse struct {
	DefectType  string       `json:"defectType"`
	Metrics     core.Metrics `json:"metrics"`
	RawResponse string       `json:"raw_response"`
}

// Healthcheck checks if the analysis service is reachable.
func (c *Client) Healthcheck() error {
	resp, err := c.httpClient.Get(c.baseURL + "/")
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck returned status %d", resp.StatusCode)
	}
	return nil
}

// Analyze sends the photo, inspector notes, and element context to the
// analysis service and returns the classified defect.
func (c *Client) Analyze(photo []byte, text string, element *core.PlanElement) (core.AnalysisResult, error) {
	// Create multipart form
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	// Write form fields and photo in goroutine
	errCh := make(chan error, 1)
	go func() {
		defer pw.Close()
		defer writer.Close()

		_ = writer.WriteField("user_input", text)

		info := elementInfo{}
		if element != nil {
			info = elementInfo{
				ElementID:  element.ElementID,
				Name:       element.Name,
				Category:   element.Category,
				StaticInfo: element.StaticProperties,
			}
		}
		infoJSON, err := json.Marshal(info)
		if err != nil {
			errCh <- fmt.Errorf("failed to encode element info: %w", err)
			return
		}
		_ = writer.WriteField("bim_info", string(infoJSON))

		part, err := writer.CreateFormFile("image", "photo.jpg")
		if err != nil {
			errCh <- fmt.Errorf("failed to create form file: %w", err)
			return
		}
		if _, err := part.Write(photo); err != nil {
			errCh <- fmt.Errorf("failed to write photo: %w", err)
			return
		}
		errCh <- nil
	}()

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/analyze", pr)
	if err != nil {
		return core.AnalysisResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return core.AnalysisResult{}, fmt.Errorf("analyze request failed: %w", err)
	}
	defer resp.Body.Close()

	// Check goroutine error
	if writeErr := <-errCh; writeErr != nil {
		return core.AnalysisResult{}, writeErr
	}

	if resp.StatusCode != http.StatusOK {
		return core.AnalysisResult{}, fmt.Errorf("analyze returned status %d", resp.StatusCode)
	}

	var parsed analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return core.AnalysisResult{}, fmt.Errorf("failed to parse analyze response: %w", err)
	}
	if parsed.DefectType == "" {
		return core.AnalysisResult{}, fmt.Errorf("analyze response missing defect type")
	}

	return core.AnalysisResult{
		DefectType: parsed.DefectType,
		Metrics:    parsed.Metrics,
	}, nil
}

// FallbackResult is returned to the caller when the analysis service
// cannot be reached or answers garbage. It is shown to the inspector
// but never merged into the draft.
func FallbackResult() core.AnalysisResult {
	return core.AnalysisResult{
		DefectType: "UNKNOWN",
		Metrics:    core.Metrics{"width": 0, "length": 0},
		Fallback:   true,
	}
}
