package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/plateful-labs/plateful_api/dto"
)

// Extractor is the downstream collaborator contract. The gate neither
// knows nor cares how extraction works (HTML heuristics or an LLM call);
// it only needs the result and what it cost, to decide whether to record
// spend.
type Extractor interface {
	Extract(ctx context.Context, url string) (*dto.ExtractionResult, error)
}

// ExtractService is the production Extractor: a thin HTTP client for the
// separately deployed extraction worker. Every call here is billed
// upstream, which is exactly why the gate exists in front of it.
type ExtractService struct {
	appContext.DefaultService

	httpClient *http.Client
	apiURL     string
}

const EXTRACT_SVC = "extract_svc"

func (svc ExtractService) Id() string {
	return EXTRACT_SVC
}

func (svc *ExtractService) Configure(ctx *appContext.Context) error {
	svc.httpClient = &http.Client{
		Timeout: 30 * time.Second,
	}
	svc.apiURL = os.Getenv("EXTRACTOR_URL")
	if svc.apiURL == "" {
		svc.apiURL = "http://localhost:8090/extract"
	}
	return svc.DefaultService.Configure(ctx)
}

func (svc *ExtractService) Start() error {
	return nil
}

func (svc *ExtractService) Extract(ctx context.Context, url string) (*dto.ExtractionResult, error) {
	start := time.Now()

	payload, err := json.Marshal(map[string]string{"url": url})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, svc.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := svc.httpClient.Do(req)
	if err != nil {
		extractionDurationSeconds.WithLabelValues("error").Observe(time.Since(start).Seconds())
		log.WithError(err).WithField("url", url).Error("Extractor request failed")
		return nil, fmt.Errorf("extractor unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		extractionDurationSeconds.WithLabelValues("error").Observe(time.Since(start).Seconds())
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.WithFields(log.Fields{
			"status": resp.StatusCode,
			"url":    url,
		}).Error("Extractor returned non-200 status")
		return nil, fmt.Errorf("extractor returned status %d: %s", resp.StatusCode, string(body))
	}

	var result dto.ExtractionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		extractionDurationSeconds.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("failed to decode extractor response: %w", err)
	}
	if result.Recipe == nil {
		extractionDurationSeconds.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("extractor response missing recipe")
	}
	result.Recipe.SourceURL = url

	extractionDurationSeconds.WithLabelValues("success").Observe(time.Since(start).Seconds())
	return &result, nil
}
