// Package catalog holds the client-side store of priced glasses.
package catalog

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/javierleyes/vidro-android/internal/application/state"
	"github.com/javierleyes/vidro-android/internal/domain/catalog"
	"github.com/javierleyes/vidro-android/internal/domain/shared"
	"github.com/javierleyes/vidro-android/internal/domain/shared/valueobject"
	"github.com/javierleyes/vidro-android/internal/infrastructure/logger"
	"github.com/javierleyes/vidro-android/internal/infrastructure/remote"
	"github.com/javierleyes/vidro-android/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const (
	storeName   = "catalog"
	glassesPath = "/glasses"
	opFetchAll  = "fetch_all"
	opEditPrice = "edit_price"
)

// API is the part of the remote client the store needs
type API interface {
	Get(ctx context.Context, path string, queryParams map[string]string) (*remote.Response, error)
	Patch(ctx context.Context, path string, body any) (*remote.Response, error)
}

// Snapshot is a consistent copy of the store state.
// Version increases with every change, so listeners can drop out-of-order deliveries.
type Snapshot struct {
	Glasses []catalog.Glass
	Loading bool
	Error   string
	Version uint64
}

// Store owns the glass collection. Every change goes through the API
// first and is applied locally only after the server confirms it.
type Store struct {
	api     API
	logger  *zap.Logger
	metrics *telemetry.StoreMetrics
	hub     *state.Hub[Snapshot]

	mu      sync.RWMutex
	glasses []catalog.Glass
	errMsg  string
	tracker *state.Tracker
	version uint64
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

// FetchAll replaces the collection with the server's list.
// Failures are recorded in Error and never returned; the previous collection is kept.
func (s *Store) FetchAll(ctx context.Context) {
	ctx, span := telemetry.StartServiceSpan(ctx, storeName, opFetchAll)
	defer span.End()
	start := time.Now()

	s.mu.Lock()
	tok := s.tracker.BeginFetch(state.ScopeAll)
	s.errMsg = ""
	s.publishLocked()
	telemetry.SetAttribute(span, telemetry.SpanAttrFetchToken, int64(tok.Seq))

	var glasses []catalog.Glass
	resp, err := s.api.Get(ctx, glassesPath, nil)
	if err == nil {
		glasses, err = decodeGlasses(resp)
	}

	s.mu.Lock()
	s.tracker.End()
	fresh := s.tracker.Fresh(tok)
	switch {
	case !fresh:
	case err != nil:
		s.errMsg = err.Error()
	default:
		s.glasses = glasses
	}
	s.publishLocked()

	log := logger.L(ctx, s.logger)
	switch {
	case !fresh:
		s.metrics.RecordStaleDiscard(ctx, storeName, opFetchAll)
		telemetry.AddEvent(span, "discarded_stale")
		log.Debug("discarded stale glasses fetch", zap.Uint64("token", tok.Seq))
	case err != nil:
		telemetry.RecordError(span, err)
		log.Warn("failed to fetch glasses", zap.Error(err))
	default:
		telemetry.SetAttribute(span, telemetry.SpanAttrCount, len(glasses))
		log.Debug("fetched glasses", zap.Int("count", len(glasses)))
	}
	s.metrics.RecordOperation(ctx, storeName, opFetchAll, time.Since(start), err)
}

// pricePatch is the PATCH /glasses/{id} body
type pricePatch struct {
	PriceTransparent valueobject.Price  `json:"priceTransparent"`
	PriceColor       *valueobject.Price `json:"priceColor,omitempty"`
}

// EditPrice sets the transparent price, and the color price when given, of glass id.
// Only the matching record's prices change locally, and only after the server accepts.
// The error is recorded and also returned.
func (s *Store) EditPrice(ctx context.Context, id string, transparent valueobject.Price, color ...valueobject.Price) error {
	if strings.TrimSpace(id) == "" {
		return shared.NewDomainError("INVALID_INPUT", "Glass id cannot be empty")
	}
	update, err := catalog.NewPriceUpdate(transparent, color...)
	if err != nil {
		return err
	}

	ctx, span := telemetry.StartServiceSpan(ctx, storeName, opEditPrice,
		telemetry.WithAttribute(telemetry.SpanAttrGlassID, id),
	)
	defer span.End()
	start := time.Now()

	body := pricePatch{PriceTransparent: update.Transparent}
	if update.Color.IsSet() {
		body.PriceColor = &update.Color
	}

	s.mu.Lock()
	s.tracker.Begin()
	s.errMsg = ""
	s.publishLocked()

	_, err = s.api.Patch(ctx, glassesPath+"/"+url.PathEscape(id), body)

	s.mu.Lock()
	s.tracker.End()
	if err != nil {
		s.errMsg = err.Error()
	} else {
		s.tracker.Commit()
		for i := range s.glasses {
			if s.glasses[i].ID == id {
				s.glasses[i] = update.Apply(s.glasses[i])
			}
		}
	}
	s.publishLocked()

	log := logger.L(ctx, s.logger).With(zap.String("glass_id", id))
	if err != nil {
		telemetry.RecordError(span, err)
		log.Warn("failed to edit glass price", zap.Error(err))
	} else {
		log.Info("edited glass price",
			zap.String("transparent", update.Transparent.Display()),
			zap.String("color", update.Color.Display()),
		)
	}
	s.metrics.RecordOperation(ctx, storeName, opEditPrice, time.Since(start), err)
	return err
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
	glasses := make([]catalog.Glass, len(s.glasses))
	copy(glasses, s.glasses)
	return Snapshot{
		Glasses: glasses,
		Loading: s.tracker.Busy(),
		Error:   s.errMsg,
		Version: s.version,
	}
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Glasses returns a copy of the collection in server order
func (s *Store) Glasses() []catalog.Glass {
	return s.Snapshot().Glasses
}

// Glass looks up one record by id
func (s *Store) Glass(id string) (catalog.Glass, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.glasses {
		if g.ID == id {
			return g, true
		}
	}
	return catalog.Glass{}, false
}

// IsLoading reports whether any operation is in flight
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracker.Busy()
}

// Error returns the message of the last failure, or "" when the last operation succeeded
func (s *Store) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// Subscribe registers fn to receive a snapshot after every change
func (s *Store) Subscribe(fn state.Listener[Snapshot]) (unsubscribe func()) {
	return s.hub.Subscribe(fn)
}
