// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MKhiriev/syncvault/internal/logger"
	"github.com/go-resty/resty/v2"
)

// HTTPSyncTransport is the resty-based [SyncTransport] implementation. It
// POSTs to "<base>/items/sync", attaching a bearer token from tokens (if
// any) to every request.
type HTTPSyncTransport struct {
	client *resty.Client
	tokens BearerTokenSource
	log    *logger.Logger
}

// NewHTTPSyncTransport constructs an [HTTPSyncTransport] against baseURL,
// defaulting the scheme to "http" if none is given. tokens may be nil, in
// which case no Authorization header is attached. log may be nil.
func NewHTTPSyncTransport(baseURL string, timeout time.Duration, tokens BearerTokenSource, log *logger.Logger) (*HTTPSyncTransport, error) {
	normalized, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, fmt.Errorf("transport: invalid base url: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(normalized).
		SetTimeout(timeout)

	return &HTTPSyncTransport{client: client, tokens: tokens, log: log}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}
	return strings.TrimRight(u.String(), "/"), nil
}

// Sync implements [SyncTransport].
func (h *HTTPSyncTransport) Sync(ctx context.Context, req SyncRequest) (SyncResponse, error) {
	var out SyncResponse

	httpReq := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&out)

	if h.tokens != nil {
		if token := h.tokens.Token(); token != "" {
			httpReq.SetHeader("Authorization", "Bearer "+token)
		}
	}

	resp, err := httpReq.Post("/items/sync")
	if err != nil {
		return SyncResponse{}, fmt.Errorf("transport: sync request: %w", err)
	}
	if err := mapHTTPError(resp); err != nil {
		return SyncResponse{}, err
	}

	return out, nil
}

func mapHTTPError(resp *resty.Response) error {
	status := resp.StatusCode()
	if status >= http.StatusOK && status < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))
	if body == "" {
		body = http.StatusText(status)
	}

	switch {
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrBadRequest, body)
	case status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %s", ErrServerError, body)
	default:
		return fmt.Errorf("transport: http %d: %s", status, body)
	}
}
