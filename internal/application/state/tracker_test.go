package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker_Busy(t *testing.T) {
	tr := NewTracker()
	assert.False(t, tr.Busy())

	tr.Begin()
	tok := tr.BeginFetch(ScopeAll)
	assert.True(t, tr.Busy())
	assert.Equal(t, uint64(1), tok.Seq)

	tr.End()
	assert.True(t, tr.Busy())
	tr.End()
	assert.False(t, tr.Busy())

	tr.End()
	assert.False(t, tr.Busy())
}

func TestTracker_Fresh(t *testing.T) {
	tests := []struct {
		name   string
		run    func(tr *Tracker) Token
		expect bool
	}{
		{
			name:   "lone fetch is fresh",
			run:    func(tr *Tracker) Token { return tr.BeginFetch(ScopeAll) },
			expect: true,
		},
		{
			name: "newer fetch of same scope wins",
			run: func(tr *Tracker) Token {
				tok := tr.BeginFetch("pending")
				tr.BeginFetch("pending")
				return tok
			},
			expect: false,
		},
		{
			name: "disjoint scopes do not interfere",
			run: func(tr *Tracker) Token {
				tok := tr.BeginFetch("pending")
				tr.BeginFetch("completed")
				return tok
			},
			expect: true,
		},
		{
			name: "newer unfiltered fetch invalidates filtered one",
			run: func(tr *Tracker) Token {
				tok := tr.BeginFetch("completed")
				tr.BeginFetch(ScopeAll)
				return tok
			},
			expect: false,
		},
		{
			name: "newer filtered fetch invalidates unfiltered one",
			run: func(tr *Tracker) Token {
				tok := tr.BeginFetch(ScopeAll)
				tr.BeginFetch("pending")
				return tok
			},
			expect: false,
		},
		{
			name: "older fetch does not invalidate newer one",
			run: func(tr *Tracker) Token {
				tr.BeginFetch(ScopeAll)
				return tr.BeginFetch(ScopeAll)
			},
			expect: true,
		},
		{
			name: "mutation committed after start",
			run: func(tr *Tracker) Token {
				tok := tr.BeginFetch(ScopeAll)
				tr.Commit()
				return tok
			},
			expect: false,
		},
		{
			name: "mutation committed before start",
			run: func(tr *Tracker) Token {
				tr.Commit()
				return tr.BeginFetch(ScopeAll)
			},
			expect: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker()
			tok := tt.run(tr)
			assert.Equal(t, tt.expect, tr.Fresh(tok))
		})
	}
}
