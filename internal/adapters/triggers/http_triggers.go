// Package triggers implements the cascade trigger ports as HTTP calls into
// the collaborator services that own each pipeline stage.
package triggers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// HTTPTriggers posts stage kick-off requests to configured entry-point URLs.
// It implements all four cascade ports; a stage with an empty URL reports an
// error so the cascade runner logs the missed call.
type HTTPTriggers struct {
	client          *http.Client
	preValidatorURL string
	pricerURL       string
	rulesURL        string
	explanationURL  string
}

// Config carries the collaborator entry-point URLs.
type Config struct {
	PreValidatorURL string
	PricerURL       string
	RulesURL        string
	ExplanationURL  string
	Timeout         time.Duration
}

func NewHTTPTriggers(cfg Config) *HTTPTriggers {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &HTTPTriggers{
		client:          &http.Client{Timeout: timeout},
		preValidatorURL: cfg.PreValidatorURL,
		pricerURL:       cfg.PricerURL,
		rulesURL:        cfg.RulesURL,
		explanationURL:  cfg.ExplanationURL,
	}
}

func (t *HTTPTriggers) ValidateContent(ctx context.Context, lineItemID uuid.UUID) error {
	return t.post(ctx, t.preValidatorURL, map[string]any{
		"line_item_id": lineItemID,
	})
}

func (t *HTTPTriggers) ValidatePrice(ctx context.Context, lineItemID uuid.UUID, canonicalItemID string) error {
	return t.post(ctx, t.pricerURL, map[string]any{
		"line_item_id":      lineItemID,
		"canonical_item_id": canonicalItemID,
	})
}

func (t *HTTPTriggers) EvaluateRules(ctx context.Context, lineItemID uuid.UUID) error {
	return t.post(ctx, t.rulesURL, map[string]any{
		"line_item_id": lineItemID,
	})
}

func (t *HTTPTriggers) VerifyExplanation(ctx context.Context, lineItemID uuid.UUID, explanationID string) error {
	return t.post(ctx, t.explanationURL, map[string]any{
		"line_item_id":   lineItemID,
		"explanation_id": explanationID,
	})
}

func (t *HTTPTriggers) post(ctx context.Context, url string, body map[string]any) error {
	if url == "" {
		return fmt.Errorf("trigger url not configured")
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("trigger %s returned status %d", url, resp.StatusCode)
	}
	return nil
}
