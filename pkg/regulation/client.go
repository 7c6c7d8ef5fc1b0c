package regulation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Regulation is one entry of the regulatory corpus as the backend exposes it.
type Regulation struct {
	Id           string    `json:"id"`
	Number       string    `json:"number"`
	Year         int       `json:"year"`
	Title        string    `json:"title"`
	DocumentType string    `json:"document_type"`
	Status       string    `json:"status"`
	IssuedAt     time.Time `json:"issued_at"`
}

type RegulationDetail struct {
	Regulation
	Summary  string    `json:"summary"`
	Articles []Article `json:"articles,omitempty"`
}

type Article struct {
	Number  string `json:"number"`
	Content string `json:"content"`
}

type ComplianceCheckRequest struct {
	BusinessType string   `json:"business_type"`
	Activities   []string `json:"activities,omitempty"`
	Region       string   `json:"region,omitempty"`
}

type ComplianceCheckResponse struct {
	Compliant    bool     `json:"compliant"`
	Requirements []string `json:"requirements"`
	Violations   []string `json:"violations,omitempty"`
	References   []string `json:"references,omitempty"`
}

type BusinessSetupRequest struct {
	BusinessType string `json:"business_type"`
	LegalForm    string `json:"legal_form,omitempty"`
	Region       string `json:"region,omitempty"`
}

type BusinessSetupResponse struct {
	Steps      []string `json:"steps"`
	Permits    []string `json:"permits"`
	References []string `json:"references,omitempty"`
}

// Client is a thin typed wrapper around the regulation REST collaborators.
// It carries no retry or caching logic of its own.
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
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) ListRegulations(ctx context.Context, query string) ([]Regulation, error) {
	endpoint := c.baseURL + "/v1/regulations"
	if query != "" {
		endpoint += "?q=" + url.QueryEscape(query)
	}

	var regulations []Regulation
	if err := c.get(ctx, endpoint, &regulations); err != nil {
		return nil, err
	}
	return regulations, nil
}

func (c *Client) GetRegulation(ctx context.Context, id string) (*RegulationDetail, error) {
	var detail RegulationDetail
	if err := c.get(ctx, c.baseURL+"/v1/regulations/"+url.PathEscape(id), &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *Client) CheckCompliance(ctx context.Context, req *ComplianceCheckRequest) (*ComplianceCheckResponse, error) {
	var res ComplianceCheckResponse
	if err := c.post(ctx, c.baseURL+"/v1/compliance/check", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) BusinessSetupGuidance(ctx context.Context, req *BusinessSetupRequest) (*BusinessSetupResponse, error) {
	var res BusinessSetupResponse
	if err := c.post(ctx, c.baseURL+"/v1/business-setup", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) get(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, endpoint string, body interface{}, out interface{}) error {
	payloadJson, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(payloadJson))
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf(
			"status error, got status %d. with response body %s",
			res.StatusCode,
			string(resBody),
		)
	}

	return json.Unmarshal(resBody, out)
}
