package domain

import (
	"encoding/json"
	"time"
)

// Domain contains the QC backend models shared by the API services and the syncer.

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

type Profile struct {
	User
	Phone      string `json:"phone,omitempty"`
	Department string `json:"department,omitempty"`
	AvatarURL  string `json:"avatarUrl,omitempty"`
}

type Defect struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Severity     string    `json:"severity"`
	Status       string    `json:"status"`
	Location     string    `json:"location,omitempty"`
	InspectionID string    `json:"inspectionId,omitempty"`
	ReportedBy   string    `json:"reportedBy,omitempty"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt,omitempty"`
}

type Inspection struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Area        string    `json:"area,omitempty"`
	InspectorID string    `json:"inspectorId,omitempty"`
	Status      string    `json:"status"`
	ScheduledAt time.Time `json:"scheduledAt"`
	CompletedAt time.Time `json:"completedAt,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// Detection is the server-side AI analysis of an uploaded image.
type Detection struct {
	ID       string          `json:"id,omitempty"`
	ImageURL string          `json:"imageUrl,omitempty"`
	Findings []DetectedIssue `json:"findings"`
}

type DetectedIssue struct {
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	Box        []float64 `json:"box,omitempty"`
}

type DashboardStats struct {
	TotalDefects        int            `json:"totalDefects"`
	OpenDefects         int            `json:"openDefects"`
	UpcomingInspections int            `json:"upcomingInspections"`
	CompletedThisMonth  int            `json:"completedThisMonth"`
	BySeverity          map[string]int `json:"bySeverity,omitempty"`
}

type TrendPoint struct {
	Period string `json:"period"`
	Count  int    `json:"count"`
}

// Record is a kind-tagged backend entity collected by the syncer.
type Record struct {
	Kind      string          `json:"kind"`
	ID        string          `json:"id"`
	UpdatedAt string          `json:"updated_at,omitempty"`
	Data      json.RawMessage `json:"data"`
}
