package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samvad-hq/inspectra/internal/domain"
	"github.com/samvad-hq/inspectra/pkg/httpclient"
)

// Page selects a slice of a list endpoint. Zero values are omitted.
type Page struct {
	Page  int
	Limit int
}

func (p Page) apply(q url.Values) {
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
}

func setIf(q url.Values, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		q.Set(key, v)
	}
}

func itemPath(base, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%s: id is required", strings.TrimPrefix(base, "/"))
	}
	return base + "/" + url.PathEscape(id), nil
}

// DefectService is the defect log.
type DefectService struct {
	c httpclient.Client
}

type DefectFilter struct {
	Status       string
	Severity     string
	InspectionID string
	Search       string
	Page
}

func (f DefectFilter) values() url.Values {
	q := url.Values{}
	setIf(q, "status", f.Status)
	setIf(q, "severity", f.Severity)
	setIf(q, "inspectionId", f.InspectionID)
	setIf(q, "search", f.Search)
	f.Page.apply(q)
	return q
}

// DefectInput is the writable subset of a defect.
type DefectInput struct {
	Title        string `json:"title,omitempty"`
	Description  string `json:"description,omitempty"`
	Severity     string `json:"severity,omitempty"`
	Status       string `json:"status,omitempty"`
	Location     string `json:"location,omitempty"`
	InspectionID string `json:"inspectionId,omitempty"`
}

func (s *DefectService) List(ctx context.Context, f DefectFilter) ([]domain.Defect, error) {
	var out []domain.Defect
	if err := call(ctx, s.c, &httpclient.Request{Path: "/defects", Query: f.values()}, &out); err != nil {
		return nil, fmt.Errorf("list defects: %w", err)
	}
	return out, nil
}

func (s *DefectService) Get(ctx context.Context, id string) (domain.Defect, error) {
	path, err := itemPath("/defects", id)
	if err != nil {
		return domain.Defect{}, err
	}
	var d domain.Defect
	if err := call(ctx, s.c, &httpclient.Request{Path: path}, &d); err != nil {
		return domain.Defect{}, fmt.Errorf("get defect %s: %w", id, err)
	}
	return d, nil
}

func (s *DefectService) Create(ctx context.Context, in DefectInput) (domain.Defect, error) {
	if strings.TrimSpace(in.Title) == "" {
		return domain.Defect{}, fmt.Errorf("create defect: title is required")
	}
	var d domain.Defect
	if err := call(ctx, s.c, &httpclient.Request{Method: http.MethodPost, Path: "/defects", Body: in}, &d); err != nil {
		return domain.Defect{}, fmt.Errorf("create defect: %w", err)
	}
	return d, nil
}

func (s *DefectService) Update(ctx context.Context, id string, in DefectInput) (domain.Defect, error) {
	path, err := itemPath("/defects", id)
	if err != nil {
		return domain.Defect{}, err
	}
	var d domain.Defect
	if err := call(ctx, s.c, &httpclient.Request{Method: http.MethodPut, Path: path, Body: in}, &d); err != nil {
		return domain.Defect{}, fmt.Errorf("update defect %s: %w", id, err)
	}
	return d, nil
}

func (s *DefectService) Delete(ctx context.Context, id string) error {
	path, err := itemPath("/defects", id)
	if err != nil {
		return err
	}
	if err := call(ctx, s.c, &httpclient.Request{Method: http.MethodDelete, Path: path}, nil); err != nil {
		return fmt.Errorf("delete defect %s: %w", id, err)
	}
	return nil
}

// InspectionService schedules and tracks inspections.
type InspectionService struct {
	c httpclient.Client
}

type InspectionFilter struct {
	Status      string
	InspectorID string
	From        time.Time
	To          time.Time
	Page
}

func (f InspectionFilter) values() url.Values {
	q := url.Values{}
	setIf(q, "status", f.Status)
	setIf(q, "inspectorId", f.InspectorID)
	if !f.From.IsZero() {
		q.Set("from", f.From.UTC().Format(time.RFC3339))
	}
	if !f.To.IsZero() {
		q.Set("to", f.To.UTC().Format(time.RFC3339))
	}
	f.Page.apply(q)
	return q
}

type InspectionInput struct {
	Title       string     `json:"title,omitempty"`
	Area        string     `json:"area,omitempty"`
	InspectorID string     `json:"inspectorId,omitempty"`
	Status      string     `json:"status,omitempty"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
	Notes       string     `json:"notes,omitempty"`
}

func (s *InspectionService) List(ctx context.Context, f InspectionFilter) ([]domain.Inspection, error) {
	var out []domain.Inspection
	if err := call(ctx, s.c, &httpclient.Request{Path: "/inspections", Query: f.values()}, &out); err != nil {
		return nil, fmt.Errorf("list inspections: %w", err)
	}
	return out, nil
}

func (s *InspectionService) Get(ctx context.Context, id string) (domain.Inspection, error) {
	path, err := itemPath("/inspections", id)
	if err != nil {
		return domain.Inspection{}, err
	}
	var in domain.Inspection
	if err := call(ctx, s.c, &httpclient.Request{Path: path}, &in); err != nil {
		return domain.Inspection{}, fmt.Errorf("get inspection %s: %w", id, err)
	}
	return in, nil
}

// Schedule creates an inspection; Title and ScheduledAt are required.
func (s *InspectionService) Schedule(ctx context.Context, in InspectionInput) (domain.Inspection, error) {
	if strings.TrimSpace(in.Title) == "" || in.ScheduledAt == nil || in.ScheduledAt.IsZero() {
		return domain.Inspection{}, fmt.Errorf("schedule inspection: title and scheduledAt are required")
	}
	var out domain.Inspection
	if err := call(ctx, s.c, &httpclient.Request{Method: http.MethodPost, Path: "/inspections", Body: in}, &out); err != nil {
		return domain.Inspection{}, fmt.Errorf("schedule inspection: %w", err)
	}
	return out, nil
}

func (s *InspectionService) Update(ctx context.Context, id string, in InspectionInput) (domain.Inspection, error) {
	path, err := itemPath("/inspections", id)
	if err != nil {
		return domain.Inspection{}, err
	}
	var out domain.Inspection
	if err := call(ctx, s.c, &httpclient.Request{Method: http.MethodPut, Path: path, Body: in}, &out); err != nil {
		return domain.Inspection{}, fmt.Errorf("update inspection %s: %w", id, err)
	}
	return out, nil
}

func (s *InspectionService) Delete(ctx context.Context, id string) error {
	path, err := itemPath("/inspections", id)
	if err != nil {
		return err
	}
	if err := call(ctx, s.c, &httpclient.Request{Method: http.MethodDelete, Path: path}, nil); err != nil {
		return fmt.Errorf("delete inspection %s: %w", id, err)
	}
	return nil
}

// UserService is user management (admin pages).
type UserService struct {
	c httpclient.Client
}

type UserInput struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	Password string `json:"password,omitempty"`
	Active   *bool  `json:"active,omitempty"`
}

func (s *UserService) List(ctx context.Context, p Page) ([]domain.User, error) {
	q := url.Values{}
	p.apply(q)
	var out []domain.User
	if err := call(ctx, s.c, &httpclient.Request{Path: "/users", Query: q}, &out); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

func (s *UserService) Create(ctx context.Context, in UserInput) (domain.User, error) {
	if strings.TrimSpace(in.Email) == "" {
		return domain.User{}, fmt.Errorf("create user: email is required")
	}
	var u domain.User
	if err := call(ctx, s.c, &httpclient.Request{Method: http.MethodPost, Path: "/users", Body: in}, &u); err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *UserService) Update(ctx context.Context, id string, in UserInput) (domain.User, error) {
	path, err := itemPath("/users", id)
	if err != nil {
		return domain.User{}, err
	}
	var u domain.User
	if err := call(ctx, s.c, &httpclient.Request{Method: http.MethodPut, Path: path, Body: in}, &u); err != nil {
		return domain.User{}, fmt.Errorf("update user %s: %w", id, err)
	}
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	path, err := itemPath("/users", id)
	if err != nil {
		return err
	}
	if err := call(ctx, s.c, &httpclient.Request{Method: http.MethodDelete, Path: path}, nil); err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	return nil
}
