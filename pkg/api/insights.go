package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/samvad-hq/inspectra/internal/domain"
	"github.com/samvad-hq/inspectra/pkg/httpclient"
)

// DetectionService forwards images to the backend's defect detector.
type DetectionService struct {
	c httpclient.Client
}

// Detect uploads image as multipart field "image". Extra form fields (e.g.
// inspectionId) are sent alongside.
func (s *DetectionService) Detect(ctx context.Context, filename string, image io.Reader, fields map[string]string) (domain.Detection, error) {
	if image == nil {
		return domain.Detection{}, fmt.Errorf("detect: image is required")
	}
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "." || name == "/" || name == "" {
		name = "upload"
	}

	var out domain.Detection
	err := call(ctx, s.c, &httpclient.Request{
		Method:   http.MethodPost,
		Path:     "/detection/analyze",
		FormData: fields,
		Files:    []httpclient.File{{Field: "image", Name: name, Reader: image}},
	}, &out)
	if err != nil {
		return domain.Detection{}, fmt.Errorf("detect: %w", err)
	}
	return out, nil
}

// AnalyticsService backs the dashboard and chart pages.
type AnalyticsService struct {
	c httpclient.Client
}

func (s *AnalyticsService) Dashboard(ctx context.Context) (domain.DashboardStats, error) {
	var out domain.DashboardStats
	if err := call(ctx, s.c, &httpclient.Request{Path: "/dashboard/stats"}, &out); err != nil {
		return domain.DashboardStats{}, fmt.Errorf("dashboard stats: %w", err)
	}
	return out, nil
}

// DefectTrends returns defect counts bucketed by period (e.g. "week", "month").
func (s *AnalyticsService) DefectTrends(ctx context.Context, period string) ([]domain.TrendPoint, error) {
	q := url.Values{}
	setIf(q, "period", period)
	var out []domain.TrendPoint
	if err := call(ctx, s.c, &httpclient.Request{Path: "/analytics/defects/trends", Query: q}, &out); err != nil {
		return nil, fmt.Errorf("defect trends: %w", err)
	}
	return out, nil
}

// SystemService addresses endpoints outside the /api prefix.
type SystemService struct {
	c httpclient.Client
}

type Health struct {
	Status string `json:"status"`
}

// Health accepts either an envelope or a bare {"status": ...} document.
func (s *SystemService) Health(ctx context.Context) (Health, error) {
	resp, err := s.c.Get(ctx, "/health", nil)
	if err != nil {
		return Health{}, fmt.Errorf("health: %w", err)
	}
	raw := resp.Body()
	var h Health
	if err := DecodeEnvelope(raw, &h); err == nil && h.Status != "" {
		return h, nil
	}
	h = Health{}
	if json.Unmarshal(raw, &h) != nil || h.Status == "" {
		h.Status = strings.TrimSpace(string(raw))
	}
	if h.Status == "" {
		h.Status = "ok"
	}
	return h, nil
}

// Download fetches a file (report export, uploaded image) by path and returns its bytes.
func (s *SystemService) Download(ctx context.Context, path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("download: path is required")
	}
	resp, err := s.c.Get(ctx, path, map[string]string{"Accept": "*/*"})
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", path, err)
	}
	return resp.Body(), nil
}
