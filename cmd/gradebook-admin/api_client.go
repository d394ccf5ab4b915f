package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/noah-isme/sma-gradebook/internal/models"
	"github.com/noah-isme/sma-gradebook/internal/service"
	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
)

// apiRegistrar creates teachers through a running API so the records stay
// owned by that process.
type apiRegistrar struct {
	baseURL string
	client  *http.Client
}

func newAPIRegistrar(baseURL string) teacherRegistrar {
	return &apiRegistrar{baseURL: strings.TrimRight(baseURL, "/"), client: &http.Client{Timeout: 10 * time.Second}}
}

func (r *apiRegistrar) Register(ctx context.Context, req service.RegisterTeacherRequest) (*models.TeacherProfile, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/auth/register", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("reach gradebook api at %s: %w", r.baseURL, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	var body struct {
		Data  *models.TeacherProfile `json:"data"`
		Error *appErrors.Error       `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode register response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusCreated || body.Data == nil {
		if body.Error != nil {
			return nil, body.Error
		}
		return nil, fmt.Errorf("register teacher: unexpected status %d", resp.StatusCode)
	}
	return body.Data, nil
}
