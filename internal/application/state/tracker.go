package state

// Scope names the part of a store's state a fetch replaces.
type Scope string

// ScopeAll overlaps every other scope
const ScopeAll Scope = "*"

// Token identifies one fetch. It is only meaningful to the Tracker that issued it.
type Token struct {
	Seq   uint64
	Scope Scope
	epoch uint64
}

// Tracker counts in-flight operations and decides whether a fetch result
// is still fresh when it arrives. A fetch is stale when an overlapping
// fetch started after it, or when any mutation committed after it started.
//
// Tracker is not safe for concurrent use; the owning store guards it with
// its own mutex.
type Tracker struct {
	seq      uint64
	epoch    uint64
	started  map[Scope]uint64
	inFlight int
}

// NewTracker creates an idle tracker
func NewTracker() *Tracker {
	return &Tracker{started: make(map[Scope]uint64)}
}

// Begin marks an operation as in flight
func (t *Tracker) Begin() {
	t.inFlight++
}

// End marks an operation as finished
func (t *Tracker) End() {
	if t.inFlight > 0 {
		t.inFlight--
	}
}

// Busy reports whether any operation is in flight
func (t *Tracker) Busy() bool {
	return t.inFlight > 0
}

// BeginFetch marks a fetch of scope as in flight and issues its token
func (t *Tracker) BeginFetch(scope Scope) Token {
	t.Begin()
	t.seq++
	t.started[scope] = t.seq
	return Token{Seq: t.seq, Scope: scope, epoch: t.epoch}
}

// Commit records that a mutation changed the store's state
func (t *Tracker) Commit() {
	t.epoch++
}

// Fresh reports whether the result of tok may still be applied
func (t *Tracker) Fresh(tok Token) bool {
	if tok.epoch != t.epoch {
		return false
	}
	for scope, seq := range t.started {
		if seq > tok.Seq && overlaps(scope, tok.Scope) {
			return false
		}
	}
	return true
}

func overlaps(a, b Scope) bool {
	return a == b || a == ScopeAll || b == ScopeAll
}
