// Package schedule holds the client-side store of pending and completed visits.
package schedule

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/javierleyes/vidro-android/internal/application/state"
	"github.com/javierleyes/vidro-android/internal/domain/schedule"
	"github.com/javierleyes/vidro-android/internal/domain/shared"
	"github.com/javierleyes/vidro-android/internal/infrastructure/logger"
	"github.com/javierleyes/vidro-android/internal/infrastructure/remote"
	"github.com/javierleyes/vidro-android/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	storeName  = "schedule"
	visitsPath = "/visits"

	opFetch    = "fetch"
	opCreate   = "create"
	opUpdate   = "update"
	opDelete   = "delete"
	opComplete = "complete"
)

// API is the part of the remote client the store needs
type API interface {
	Get(ctx context.Context, path string, queryParams map[string]string) (*remote.Response, error)
	Post(ctx context.Context, path string, body any) (*remote.Response, error)
	Patch(ctx context.Context, path string, body any) (*remote.Response, error)
	Delete(ctx context.Context, path string) (*remote.Response, error)
}

// Snapshot is a consistent copy of the store state.
// A visit id appears in at most one of Pending and Completed.
type Snapshot struct {
	Pending   []schedule.Visit
	Completed []schedule.Visit
	Loading   bool
	Error     string
	Version   uint64
}

// Store owns the two visit collections. Visits move pending -> completed
// or pending -> removed, and only after the server confirms the change.
type Store struct {
	api     API
	logger  *zap.Logger
	metrics *telemetry.StoreMetrics
	hub     *state.Hub[Snapshot]

	mu        sync.RWMutex
	pending   []schedule.Visit
	completed []schedule.Visit
	errMsg    string
	tracker   *state.Tracker
	version   uint64
}

// NewStore creates an empty store. metrics may be nil.
func NewStore(api API, log *zap.Logger, metrics *telemetry.StoreMetrics) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named(storeName)
	return &Store{
		api:     api,
		logger:  log,
		metrics: metrics,
		hub:     state.NewHub[Snapshot](log),
		tracker: state.NewTracker(),
	}
}

// completeBody is the PATCH /visits/{id} body of a completion
type completeBody struct {
	Status schedule.Status `json:"status"`
}

// Fetch replaces visits with the server's list. StatusUnknown fetches
// everything and partitions by status, a missing status counting as pending.
// A filtered fetch replaces only the matching collection.
// Failures are recorded in Error and never returned.
func (s *Store) Fetch(ctx context.Context, filter schedule.Status) {
	ctx, span := telemetry.StartServiceSpan(ctx, storeName, opFetch,
		telemetry.WithAttribute(telemetry.SpanAttrVisitStatus, filter.String()),
	)
	defer span.End()
	start := time.Now()

	if filter != schedule.StatusUnknown && !filter.IsValid() {
		err := shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("unknown visit status %d", int(filter)))
		s.mu.Lock()
		s.errMsg = err.Error()
		s.publishLocked()
		s.metrics.RecordOperation(ctx, storeName, opFetch, time.Since(start), err)
		return
	}

	scope := state.ScopeAll
	var query map[string]string
	if filter.IsValid() {
		scope = state.Scope(filter.String())
		query = map[string]string{"status": strconv.Itoa(int(filter))}
	}

	s.mu.Lock()
	tok := s.tracker.BeginFetch(scope)
	s.errMsg = ""
	s.publishLocked()

	var visits []schedule.Visit
	resp, err := s.api.Get(ctx, visitsPath, query)
	if err == nil {
		visits, err = decodeVisits(resp)
	}

	s.mu.Lock()
	s.tracker.End()
	fresh := s.tracker.Fresh(tok)
	switch {
	case !fresh:
	case err != nil:
		s.errMsg = err.Error()
	case filter == schedule.StatusUnknown:
		s.replaceAllLocked(visits)
	default:
		s.replaceLocked(filter, visits)
	}
	s.publishLocked()

	log := logger.L(ctx, s.logger).With(zap.Stringer("filter", filter))
	switch {
	case !fresh:
		s.metrics.RecordStaleDiscard(ctx, storeName, opFetch)
		telemetry.AddEvent(span, "discarded_stale")
		log.Debug("discarded stale visits fetch", zap.Uint64("token", tok.Seq))
	case err != nil:
		telemetry.RecordError(span, err)
		log.Warn("failed to fetch visits", zap.Error(err))
	default:
		telemetry.SetAttribute(span, telemetry.SpanAttrCount, len(visits))
		log.Debug("fetched visits", zap.Int("count", len(visits)))
	}
	s.metrics.RecordOperation(ctx, storeName, opFetch, time.Since(start), err)
}

func (s *Store) replaceAllLocked(visits []schedule.Visit) {
	pending := make([]schedule.Visit, 0, len(visits))
	completed := make([]schedule.Visit, 0)
	for _, v := range visits {
		if v.Status == schedule.StatusCompleted {
			completed = upsert(completed, v)
			pending = without(pending, v.ID)
			continue
		}
		v.Status = schedule.StatusPending
		pending = upsert(pending, v)
		completed = without(completed, v.ID)
	}
	s.pending, s.completed = pending, completed
}

// replaceLocked swaps the collection of status and drops the same ids from the other one
func (s *Store) replaceLocked(status schedule.Status, visits []schedule.Visit) {
	replaced := make([]schedule.Visit, 0, len(visits))
	for _, v := range visits {
		v.Status = status
		replaced = upsert(replaced, v)
	}

	if status == schedule.StatusCompleted {
		s.completed = replaced
		for _, v := range replaced {
			s.pending = without(s.pending, v.ID)
		}
		return
	}
	s.pending = replaced
	for _, v := range replaced {
		s.completed = without(s.completed, v.ID)
	}
}

// Create posts a new visit and appends the server's record, with its
// assigned id, to the pending collection. The request is sent as given.
func (s *Store) Create(ctx context.Context, req schedule.CreateVisitRequest) (schedule.Visit, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, storeName, opCreate)
	defer span.End()
	start := time.Now()

	s.beginMutation()

	var created schedule.Visit
	resp, err := s.api.Post(ctx, visitsPath, req)
	if err == nil {
		created, err = decodeVisit(resp)
	}

	s.mu.Lock()
	s.tracker.End()
	if err != nil {
		s.errMsg = err.Error()
	} else {
		created.Status = schedule.StatusPending
		s.tracker.Commit()
		s.pending = upsert(s.pending, created)
		s.completed = without(s.completed, created.ID)
	}
	s.publishLocked()

	s.finish(ctx, span, opCreate, start, created.ID, err)
	return created, err
}

// Update sends the changed fields of a pending visit and merges them on success.
// Completed visits are terminal and rejected without a request.
func (s *Store) Update(ctx context.Context, id string, patch schedule.VisitPatch) (schedule.Visit, error) {
	if err := requireID(id); err != nil {
		return schedule.Visit{}, err
	}
	if patch.IsEmpty() {
		return schedule.Visit{}, shared.NewDomainError("INVALID_INPUT", "Visit patch has no changes")
	}

	s.mu.RLock()
	_, isPending := find(s.pending, id)
	_, isCompleted := find(s.completed, id)
	s.mu.RUnlock()
	switch {
	case isCompleted:
		return schedule.Visit{}, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Visit %s is completed and cannot be edited", id))
	case !isPending:
		return schedule.Visit{}, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Visit %s not found", id))
	}

	ctx, span := telemetry.StartServiceSpan(ctx, storeName, opUpdate,
		telemetry.WithAttribute(telemetry.SpanAttrVisitID, id),
	)
	defer span.End()
	start := time.Now()

	s.beginMutation()

	resp, err := s.api.Patch(ctx, visitPath(id), patch)

	var updated schedule.Visit
	s.mu.Lock()
	s.tracker.End()
	if err != nil {
		s.errMsg = err.Error()
	} else {
		s.tracker.Commit()
		if i, ok := find(s.pending, id); ok {
			updated = s.mergeLocked(s.pending[i], patch, resp)
			s.pending[i] = updated
		}
	}
	s.publishLocked()

	s.finish(ctx, span, opUpdate, start, id, err)
	return updated, err
}

// mergeLocked prefers the server's echo of the record and falls back to the local merge.
func (s *Store) mergeLocked(current schedule.Visit, patch schedule.VisitPatch, resp *remote.Response) schedule.Visit {
	merged := patch.Apply(current)
	if resp == nil || len(strings.TrimSpace(string(resp.Body))) == 0 {
		return merged
	}
	echoed, err := decodeVisit(resp)
	if err != nil || echoed.ID != current.ID {
		s.logger.Debug("ignoring update response body", zap.String("visit_id", current.ID), zap.Error(err))
		return merged
	}
	echoed.Status = schedule.StatusPending
	return echoed
}

// Delete removes a visit on the server, then from whichever collection holds it.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}

	ctx, span := telemetry.StartServiceSpan(ctx, storeName, opDelete,
		telemetry.WithAttribute(telemetry.SpanAttrVisitID, id),
	)
	defer span.End()
	start := time.Now()

	s.beginMutation()

	_, err := s.api.Delete(ctx, visitPath(id))

	s.mu.Lock()
	s.tracker.End()
	if err != nil {
		s.errMsg = err.Error()
	} else {
		s.tracker.Commit()
		s.pending = without(s.pending, id)
		s.completed = without(s.completed, id)
	}
	s.publishLocked()

	s.finish(ctx, span, opDelete, start, id, err)
	return err
}

// Complete marks a visit completed on the server, then moves it from
// pending to completed in one state change. An id that is already
// completed, or unknown locally, leaves the collections as they are.
func (s *Store) Complete(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}

	ctx, span := telemetry.StartServiceSpan(ctx, storeName, opComplete,
		telemetry.WithAttribute(telemetry.SpanAttrVisitID, id),
	)
	defer span.End()
	start := time.Now()

	s.beginMutation()

	_, err := s.api.Patch(ctx, visitPath(id), completeBody{Status: schedule.StatusCompleted})

	s.mu.Lock()
	s.tracker.End()
	if err != nil {
		s.errMsg = err.Error()
	} else {
		s.tracker.Commit()
		if i, ok := find(s.pending, id); ok {
			v := s.pending[i]
			v.Status = schedule.StatusCompleted
			s.pending = without(s.pending, id)
			s.completed = upsert(s.completed, v)
		}
	}
	s.publishLocked()

	s.finish(ctx, span, opComplete, start, id, err)
	return err
}

func (s *Store) beginMutation() {
	s.mu.Lock()
	s.tracker.Begin()
	s.errMsg = ""
	s.publishLocked()
}

func (s *Store) finish(ctx context.Context, span trace.Span, op string, start time.Time, id string, err error) {
	log := logger.L(ctx, s.logger).With(zap.String("op", op), zap.String("visit_id", id))
	if err != nil {
		telemetry.RecordError(span, err)
		log.Warn("visit operation failed", zap.Error(err))
	} else {
		log.Info("visit operation applied")
	}
	s.metrics.RecordOperation(ctx, storeName, op, time.Since(start), err)
}

// publishLocked bumps the version, releases the lock and notifies listeners.
// The caller must hold s.mu; it is unlocked on return.
func (s *Store) publishLocked() {
	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.hub.Publish(snap)
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Pending:   clone(s.pending),
		Completed: clone(s.completed),
		Loading:   s.tracker.Busy(),
		Error:     s.errMsg,
		Version:   s.version,
	}
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Pending returns a copy of the pending visits in stored order.
// Use schedule.SortByDate for display.
func (s *Store) Pending() []schedule.Visit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.pending)
}

// Completed returns a copy of the completed visits in stored order
func (s *Store) Completed() []schedule.Visit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.completed)
}

// Visit looks up a visit in either collection
func (s *Store) Visit(id string) (schedule.Visit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i, ok := find(s.pending, id); ok {
		return s.pending[i], true
	}
	if i, ok := find(s.completed, id); ok {
		return s.completed[i], true
	}
	return schedule.Visit{}, false
}

// IsLoading reports whether any operation is in flight
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracker.Busy()
}

// Error returns the message of the last failure, or ""
func (s *Store) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// Subscribe registers fn to receive a snapshot after every change
func (s *Store) Subscribe(fn state.Listener[Snapshot]) (unsubscribe func()) {
	return s.hub.Subscribe(fn)
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return shared.NewDomainError("INVALID_INPUT", "Visit id cannot be empty")
	}
	return nil
}

func visitPath(id string) string {
	return visitsPath + "/" + url.PathEscape(id)
}

func find(visits []schedule.Visit, id string) (int, bool) {
	for i, v := range visits {
		if v.ID == id {
			return i, true
		}
	}
	return -1, false
}

// upsert replaces the visit with the same id in place, or appends it
func upsert(visits []schedule.Visit, v schedule.Visit) []schedule.Visit {
	if i, ok := find(visits, v.ID); ok {
		visits[i] = v
		return visits
	}
	return append(visits, v)
}

func without(visits []schedule.Visit, id string) []schedule.Visit {
	i, ok := find(visits, id)
	if !ok {
		return visits
	}
	out := make([]schedule.Visit, 0, len(visits)-1)
	out = append(out, visits[:i]...)
	return append(out, visits[i+1:]...)
}

func clone(visits []schedule.Visit) []schedule.Visit {
	out := make([]schedule.Visit, len(visits))
	copy(out, visits)
	return out
}
