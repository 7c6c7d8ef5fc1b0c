package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"legal-assist-be/internal/entity"
)

// Client talks to the answer-generation service. Streaming responses arrive
// as newline-delimited JSON events; the non-streaming endpoint returns the
// whole payload at once. No retries here - terminal failures are the
// caller's to handle.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			// No overall timeout: streaming responses stay open for the
			// whole generation. The session timeout bounds it upstream.
			Timeout: 0,
		},
	}
}

type AskRequest struct {
	Question string        `json:"question"`
	History  []HistoryItem `json:"history,omitempty"`
}

type HistoryItem struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type AskResponse struct {
	Answer           string                   `json:"answer"`
	Citations        []entity.Citation        `json:"citations,omitempty"`
	Confidence       *entity.ConfidenceScore  `json:"confidence_score,omitempty"`
	Validation       *entity.ValidationResult `json:"validation,omitempty"`
	ProcessingTimeMs int64                    `json:"processing_time_ms"`
}

// Ask asks a question without streaming.
func (c *Client) Ask(ctx context.Context, req *AskRequest) (*AskResponse, error) {
	payloadJson, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		"POST",
		c.baseURL+"/v1/answers",
		bytes.NewBuffer(payloadJson),
	)
	if err != nil {
		return nil, err
	}
	c.setHeaders(httpReq)

	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf(
			"status error, got status %d. with response body %s",
			res.StatusCode,
			string(resBody),
		)
	}

	var answerRes AskResponse
	if err := json.Unmarshal(resBody, &answerRes); err != nil {
		return nil, err
	}
	return &answerRes, nil
}

// Stream asks a question and returns a source delivering the answer events
// in send order. The returned source must be closed by the consumer.
func (c *Client) Stream(ctx context.Context, req *AskRequest) (*StreamSource, error) {
	payloadJson, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	streamCtx, cancel := context.WithCancel(ctx)

	httpReq, err := http.NewRequestWithContext(
		streamCtx,
		"POST",
		c.baseURL+"/v1/answers/stream",
		bytes.NewBuffer(payloadJson),
	)
	if err != nil {
		cancel()
		return nil, err
	}
	c.setHeaders(httpReq)
	httpReq.Header.Set("Accept", "application/x-ndjson")

	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		cancel()
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		resBody, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		res.Body.Close()
		cancel()
		return nil, fmt.Errorf(
			"status error, got status %d. with response body %s",
			res.StatusCode,
			string(resBody),
		)
	}

	source := newStreamSource(res.Body, cancel)
	go source.read()
	return source, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
}

// Healthcheck pings the answer service.
func (c *Client) Healthcheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("answer service unhealthy, status %d", res.StatusCode)
	}
	return nil
}
