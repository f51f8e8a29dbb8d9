package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tbraverman/leaselens/internal/core/domain"
	"github.com/tbraverman/leaselens/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Option func(*Client)

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithAPIKey enables bearer auth for hosted oracle deployments. Local
// ollama ignores it.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

func WithResilienceExecutor(executor *resilience.Executor) Option {
	return func(c *Client) {
		c.executor = executor
	}
}

func New(baseURL, model string, options ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Classifier implements document type classification against the oracle.
type Classifier struct {
	client *Client
}

func NewClassifier(client *Client) *Classifier {
	return &Classifier{client: client}
}

func (c *Classifier) Classify(ctx context.Context, text string) (domain.Classification, error) {
	respText, err := c.client.generateJSON(ctx, "classify", buildClassificationPrompt(text))
	if err != nil {
		return domain.Classification{}, err
	}

	var result domain.Classification
	if err := json.Unmarshal([]byte(extractJSONObject(respText)), &result); err != nil {
		return domain.Classification{}, fmt.Errorf("parse classification json: %w", err)
	}
	result.Type = domain.DocumentType(strings.ToLower(strings.TrimSpace(string(result.Type))))
	return result, nil
}

// Fields extracts structured lease and amendment records from document text.
type Fields struct {
	client *Client
}

func NewFields(client *Client) *Fields {
	return &Fields{client: client}
}

func (f *Fields) ExtractLease(ctx context.Context, text string) (*domain.Lease, error) {
	respText, err := f.client.generateJSON(ctx, "extract_lease", buildLeasePrompt(text))
	if err != nil {
		return nil, err
	}

	var payload leasePayload
	if err := json.Unmarshal([]byte(extractJSONObject(respText)), &payload); err != nil {
		return nil, fmt.Errorf("parse lease json: %w", err)
	}
	return payload.toDomain(), nil
}

func (f *Fields) ExtractAmendment(ctx context.Context, text string) (*domain.Amendment, error) {
	respText, err := f.client.generateJSON(ctx, "extract_amendment", buildAmendmentPrompt(text))
	if err != nil {
		return nil, err
	}

	var payload amendmentPayload
	if err := json.Unmarshal([]byte(extractJSONObject(respText)), &payload); err != nil {
		return nil, fmt.Errorf("parse amendment json: %w", err)
	}
	return payload.toDomain(), nil
}

func (c *Client) generateJSON(ctx context.Context, operation, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	}

	var response struct {
		Response string `json:"response"`
	}

	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/api/generate", reqBody, &response, operation)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "oracle."+operation, call, classifyOracleError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded(operation, err)
	}
	return strings.TrimSpace(response.Response), nil
}

// extractJSONObject trims model chatter around the JSON body.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
