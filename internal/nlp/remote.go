package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Remote talks to an NLP sidecar over HTTP JSON. It implements
// Sentimenter, Tokenizer, PhraseExtractor and Summarizer.
type Remote struct {
	baseURL string
	client  *http.Client
}

func NewRemote(baseURL string) *Remote {
	return &Remote{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type textRequest struct {
	Text      string `json:"text"`
	MaxLength int    `json:"max_length,omitempty"`
	MinLength int    `json:"min_length,omitempty"`
}

func (r *Remote) Sentiment(ctx context.Context, text string) (float64, error) {
	var resp struct {
		Compound float64 `json:"compound"`
	}
	if err := r.post(ctx, "/sentiment", textRequest{Text: text}, &resp); err != nil {
		return 0, err
	}
	return resp.Compound, nil
}

func (r *Remote) Tokenize(ctx context.Context, text string) ([]Token, error) {
	var resp struct {
		Tokens []Token `json:"tokens"`
	}
	if err := r.post(ctx, "/tokenize", textRequest{Text: text}, &resp); err != nil {
		return nil, err
	}
	return resp.Tokens, nil
}

func (r *Remote) NounPhrases(ctx context.Context, text string) ([]string, error) {
	var resp struct {
		Phrases []string `json:"noun_phrases"`
	}
	if err := r.post(ctx, "/noun_phrases", textRequest{Text: text}, &resp); err != nil {
		return nil, err
	}
	return resp.Phrases, nil
}

func (r *Remote) Summarize(ctx context.Context, text string, maxLen, minLen int) (string, error) {
	var resp struct {
		Summary string `json:"summary_text"`
	}
	req := textRequest{Text: text, MaxLength: maxLen, MinLength: minLen}
	if err := r.post(ctx, "/summarize", req, &resp); err != nil {
		return "", err
	}
	return resp.Summary, nil
}

func (r *Remote) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("nlp call %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("nlp error %d on %s: %s", resp.StatusCode, path, string(respBody))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
