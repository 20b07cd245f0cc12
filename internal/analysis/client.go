package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ankit071105/VedaScore/internal/models"
	"github.com/rs/zerolog/log"
)

const defaultTimeout = 60 * time.Second

// Client asks the external analysis service to explain why two submissions
// look alike.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a client. An empty baseURL disables analysis.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// Unavailable is returned when no analysis service is configured.
func Unavailable() *models.Analysis {
	return &models.Analysis{
		Analysis:      "AI analysis unavailable",
		Severity:      "UNKNOWN",
		PatternsFound: []string{},
	}
}

// Failed is returned when the analysis service could not answer.
func Failed() *models.Analysis {
	return &models.Analysis{
		Analysis:       "Unable to analyze with AI",
		Severity:       "UNKNOWN",
		PatternsFound:  []string{},
		Recommendation: "Manual review required",
	}
}

// AnalyzePlagiarism never returns nil. Errors are logged and turned into the
// Failed placeholder so a flaky service cannot block report storage.
func (c *Client) AnalyzePlagiarism(ctx context.Context, req *models.AnalysisRequest) *models.Analysis {
	if !c.Enabled() {
		return Unavailable()
	}

	result, err := c.Analyze(ctx, req)
	if err != nil {
		log.Warn().Err(err).Float64("score", req.SimilarityScore).Msg("Analysis request failed")
		return Failed()
	}
	return result
}

func (c *Client) Analyze(ctx context.Context, req *models.AnalysisRequest) (*models.Analysis, error) {
	url := fmt.Sprintf("%s/api/v1/analyze", c.baseURL)

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusBadRequest ||
		resp.StatusCode == http.StatusUnprocessableEntity {
		var errResp models.AnalysisError
		if err := json.Unmarshal(body, &errResp); err != nil {
			return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("API error: %s - %s", errResp.Error, errResp.Message)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	var result models.Analysis
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if result.PatternsFound == nil {
		result.PatternsFound = []string{}
	}

	return &result, nil
}
