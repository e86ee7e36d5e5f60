package schedule

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Status is the lifecycle state of a visit as encoded by the server
type Status int

const (
	// StatusUnknown is used for the "no filter" case and for records without a status
	StatusUnknown Status = 0
	// StatusPending marks visits that are still scheduled
	StatusPending Status = 1
	// StatusCompleted marks visits that have been carried out; it is terminal
	StatusCompleted Status = 2
)

// String returns the status name
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// IsValid reports whether s is one of the server status codes
func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusCompleted
}

// ParseStatus accepts a status name or its numeric code
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return StatusUnknown, nil
	case "pending", "1":
		return StatusPending, nil
	case "completed", "2":
		return StatusCompleted, nil
	default:
		return StatusUnknown, fmt.Errorf("unknown visit status %q", s)
	}
}

// Visit is a scheduled field appointment
type Visit struct {
	ID      string    `json:"id"`
	Date    time.Time `json:"date"`
	Name    string    `json:"name"`
	Address string    `json:"address"`
	Phone   string    `json:"phone"`
	Status  Status    `json:"status"`
}

// IsCompleted reports whether the visit reached its terminal state
func (v Visit) IsCompleted() bool {
	return v.Status == StatusCompleted
}

// SortByDate returns a copy of visits ordered by date ascending.
// Visits on the same instant keep their relative order.
func SortByDate(visits []Visit) []Visit {
	sorted := make([]Visit, len(visits))
	copy(sorted, visits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}
