package sui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SubmitResult is the answer of a wallet after signing and submitting a payload.
type SubmitResult struct {
	Digest string `json:"digest"`
}

// RemoteSigner forwards payloads to a wallet bridge that signs and submits them.
type RemoteSigner struct {
	baseURL    string
	sender     string
	httpClient *http.Client
}

// RemoteSignerConfig holds wallet bridge settings.
type RemoteSignerConfig struct {
	BaseURL string
	Timeout time.Duration
}

type signRequest struct {
	Sender  string  `json:"sender"`
	Payload Payload `json:"payload"`
}

type signResponse struct {
	Digest string `json:"digest"`
	Error  string `json:"error,omitempty"`
}

// NewRemoteSigner creates a wallet bridge client. A zero Timeout leaves the wait unbounded;
// users may take arbitrarily long to approve a signature.
func NewRemoteSigner(cfg RemoteSignerConfig) (*RemoteSigner, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("signer base URL required")
	}
	return &RemoteSigner{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// ForSender returns a copy of the signer that asks the bridge to sign as sender.
func (s *RemoteSigner) ForSender(sender string) *RemoteSigner {
	clone := *s
	clone.sender = sender
	return &clone
}

// SignAndSubmit asks the bridge to sign payload and submit it to the network.
func (s *RemoteSigner) SignAndSubmit(ctx context.Context, payload Payload) (SubmitResult, error) {
	body, err := json.Marshal(signRequest{Sender: s.sender, Payload: payload})
	if err != nil {
		return SubmitResult{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/sign-and-execute", bytes.NewReader(body))
	if err != nil {
		return SubmitResult{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("read response: %w", err)
	}

	var result signResponse
	if err := json.Unmarshal(respBody, &result); err != nil && resp.StatusCode == http.StatusOK {
		return SubmitResult{}, fmt.Errorf("unmarshal response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if result.Error != "" {
			return SubmitResult{}, fmt.Errorf("wallet rejected transaction: %s", result.Error)
		}
		return SubmitResult{}, fmt.Errorf("request failed: %s - %s", resp.Status, string(respBody))
	}

	if result.Digest == "" {
		return SubmitResult{}, fmt.Errorf("wallet returned no digest")
	}

	return SubmitResult{Digest: result.Digest}, nil
}
