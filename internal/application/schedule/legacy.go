package schedule

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/javierleyes/vidro-android/internal/application/state"
	"github.com/javierleyes/vidro-android/internal/domain/schedule"
	"github.com/javierleyes/vidro-android/internal/infrastructure/remote"
)

var (
	dateKeys    = []string{"date", "Date", "visitDate", "visit_date"}
	nameKeys    = []string{"name", "Name"}
	addressKeys = []string{"address", "Address"}
	phoneKeys   = []string{"phone", "Phone"}
	statusKeys  = []string{"status", "Status"}
)

// Layouts accepted for visit dates in server payloads, most specific first.
// Values without a zone are read as UTC, unlike the CLI --date flag which
// reads them in local time.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func decodeVisits(resp *remote.Response) ([]schedule.Visit, error) {
	var records []state.Record
	if err := resp.Decode(&records); err != nil {
		return nil, err
	}

	visits := make([]schedule.Visit, 0, len(records))
	for i, rec := range records {
		v, err := normalizeVisit(rec)
		if err != nil {
			return nil, remote.NewBodyError(resp, fmt.Errorf("visit %d: %w", i, err))
		}
		visits = append(visits, v)
	}
	return visits, nil
}

func decodeVisit(resp *remote.Response) (schedule.Visit, error) {
	var rec state.Record
	if err := resp.Decode(&rec); err != nil {
		return schedule.Visit{}, err
	}
	v, err := normalizeVisit(rec)
	if err != nil {
		return schedule.Visit{}, remote.NewBodyError(resp, err)
	}
	return v, nil
}

func normalizeVisit(rec state.Record) (schedule.Visit, error) {
	var (
		v   schedule.Visit
		err error
	)
	if v.ID, err = rec.ID(); err != nil {
		return v, err
	}
	if v.Date, err = dateField(rec); err != nil {
		return v, err
	}
	if v.Name, err = rec.String(nameKeys...); err != nil {
		return v, err
	}
	if v.Address, err = rec.String(addressKeys...); err != nil {
		return v, err
	}
	if v.Phone, err = rec.String(phoneKeys...); err != nil {
		return v, err
	}
	if v.Status, err = statusField(rec); err != nil {
		return v, err
	}
	return v, nil
}

func dateField(rec state.Record) (time.Time, error) {
	s, err := rec.String(dateKeys...)
	if err != nil || s == "" {
		return time.Time{}, err
	}
	return parseDate(s)
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// statusField reads the status code, a numeric string, or a status name.
// A missing status is StatusUnknown.
func statusField(rec state.Record) (schedule.Status, error) {
	raw, ok := rec.First(statusKeys...)
	if !ok {
		return schedule.StatusUnknown, nil
	}

	var code int
	if err := json.Unmarshal(raw, &code); err == nil {
		status := schedule.Status(code)
		if !status.IsValid() {
			return schedule.StatusUnknown, fmt.Errorf("unknown visit status %d", code)
		}
		return status, nil
	}

	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return schedule.StatusUnknown, fmt.Errorf("field status: %w", err)
	}
	return schedule.ParseStatus(name)
}
