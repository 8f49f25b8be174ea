package contentstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/snackway/partner/internal/adapter/logger"
	"github.com/snackway/partner/internal/config"
)

// Client talks to the hosted document store over its HTTP API: GROQ queries,
// patch mutations and a change-listen stream. It carries no business logic;
// repositories compose queries on top of it.
type Client struct {
	baseURL    string
	dataset    string
	token      string
	httpClient *http.Client
	logger     logger.Logger
}

func NewClient(cfg config.ContentStoreConfig, lgr logger.Logger) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.api.sanity.io/v%s", cfg.ProjectID, cfg.APIVersion)
	}
	return &Client{
		baseURL: base,
		dataset: cfg.Dataset,
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: lgr,
	}
}

type queryRequest struct {
	Query  string         `json:"query"`
	Params map[string]any `json:"params,omitempty"`
}

type queryResponse struct {
	Result json.RawMessage `json:"result"`
}

type mutateRequest struct {
	Mutations []Mutation `json:"mutations"`
}

type apiError struct {
	Error struct {
		Description string `json:"description"`
		Type        string `json:"type"`
	} `json:"error"`
}

// Query runs a GROQ query and decodes the result envelope into `into`.
func (c *Client) Query(ctx context.Context, groq string, params map[string]any, into any) error {
	body, err := json.Marshal(queryRequest{Query: groq, Params: params})
	if err != nil {
		return fmt.Errorf("marshal query: %w", err)
	}

	url := fmt.Sprintf("%s/data/query/%s", c.baseURL, c.dataset)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create query request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("query request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.decodeError("query", resp)
	}

	var envelope queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode query response: %w", err)
	}
	if into == nil || len(envelope.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, into); err != nil {
		return fmt.Errorf("decode query result: %w", err)
	}
	return nil
}

// Mutate submits mutations in one transaction with synchronous visibility,
// so a follow-up query observes the write.
func (c *Client) Mutate(ctx context.Context, mutations ...Mutation) error {
	body, err := json.Marshal(mutateRequest{Mutations: mutations})
	if err != nil {
		return fmt.Errorf("marshal mutations: %w", err)
	}

	url := fmt.Sprintf("%s/data/mutate/%s?visibility=sync", c.baseURL, c.dataset)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create mutate request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mutate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.decodeError("mutate", resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *Client) decodeError(op string, resp *http.Response) error {
	var apiErr apiError
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Description != "" {
		return fmt.Errorf("%s failed (%d): %s", op, resp.StatusCode, apiErr.Error.Description)
	}
	return fmt.Errorf("%s failed: unexpected status %d", op, resp.StatusCode)
}
