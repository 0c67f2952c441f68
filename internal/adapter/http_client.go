package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/compvault/compvault/models"
)

// HTTPClientConfig configures the HTTP server adapter.
type HTTPClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

type httpServerAdapter struct {
	client *resty.Client

	mu    sync.RWMutex
	token string
}

// NewHTTPServerAdapter constructs a [ServerAdapter] speaking the compvault
// REST API. An empty base URL defaults to a local server; a non-positive
// timeout defaults to 15 seconds.
func NewHTTPServerAdapter(cfg HTTPClientConfig) ServerAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout)

	return &httpServerAdapter{client: cli}
}

func (h *httpServerAdapter) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

func (h *httpServerAdapter) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

func (h *httpServerAdapter) Upsert(ctx context.Context, req models.UpsertRequest) (models.UpsertResponse, error) {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post("/api/records/upsert")
	if err != nil {
		return models.UpsertResponse{}, mapTransportError("upsert request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.UpsertResponse{}, err
	}

	var result models.UpsertResponse
	if err = json.Unmarshal(resp.Body(), &result); err != nil {
		return models.UpsertResponse{}, fmt.Errorf("decode upsert response: %w", err)
	}

	return result, nil
}

func (h *httpServerAdapter) Update(ctx context.Context, req models.UpdateRequest) (models.UpdateResponse, error) {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Patch("/api/records/update")
	if err != nil {
		return models.UpdateResponse{}, mapTransportError("update request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.UpdateResponse{}, err
	}

	var result models.UpdateResponse
	if err = json.Unmarshal(resp.Body(), &result); err != nil {
		return models.UpdateResponse{}, fmt.Errorf("decode update response: %w", err)
	}

	return result, nil
}

func (h *httpServerAdapter) PendingRecords(ctx context.Context) (models.PendingRecordsResponse, error) {
	resp, err := h.authedRequest(ctx).Get("/api/records/pending")
	if err != nil {
		return models.PendingRecordsResponse{}, mapTransportError("pending records request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.PendingRecordsResponse{}, err
	}

	var result models.PendingRecordsResponse
	if err = json.Unmarshal(resp.Body(), &result); err != nil {
		return models.PendingRecordsResponse{}, fmt.Errorf("decode pending records response: %w", err)
	}

	return result, nil
}

func (h *httpServerAdapter) EmergencyFlush(ctx context.Context, req models.EmergencyFlushRequest) (models.EmergencyFlushResponse, error) {
	req.Length = len(req.Operations)

	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post("/api/sync/emergency")
	if err != nil {
		return models.EmergencyFlushResponse{}, mapTransportError("emergency flush request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.EmergencyFlushResponse{}, err
	}

	var result models.EmergencyFlushResponse
	if err = json.Unmarshal(resp.Body(), &result); err != nil {
		return models.EmergencyFlushResponse{}, fmt.Errorf("decode emergency flush response: %w", err)
	}

	return result, nil
}

func (h *httpServerAdapter) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return req
}
