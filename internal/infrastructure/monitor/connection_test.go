package monitor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fastygo/revenue-engine/internal/infrastructure/buffer"
)

type fakeBuffer struct {
	stats buffer.Stats
	err   error
}

func (f fakeBuffer) Stats() (buffer.Stats, error) { return f.stats, f.err }

func TestMonitor_Refresh(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("down") }

	tests := []struct {
		name       string
		checks     Checks
		wantOnline bool
		want       func(t *testing.T, s Status)
	}{
		{
			name: "all healthy",
			checks: Checks{
				Postgres: ok,
				Redis:    ok,
				NATS:     func() bool { return true },
				Buffer:   fakeBuffer{stats: buffer.Stats{Pending: 2, Dead: 1}},
			},
			wantOnline: true,
			want: func(t *testing.T, s Status) {
				assert.True(t, s.Redis)
				assert.True(t, s.NATS)
				assert.True(t, s.Buffer)
				assert.Equal(t, 2, s.Pending)
				assert.Equal(t, 1, s.Dead)
			},
		},
		{
			name:       "redis down still online",
			checks:     Checks{Postgres: ok, Redis: down},
			wantOnline: true,
			want: func(t *testing.T, s Status) {
				assert.False(t, s.Redis)
				assert.False(t, s.Buffer)
			},
		},
		{
			name:       "postgres down",
			checks:     Checks{Postgres: down, Redis: ok, Buffer: fakeBuffer{err: errors.New("closed")}},
			wantOnline: false,
			want: func(t *testing.T, s Status) {
				assert.False(t, s.Buffer)
			},
		},
		{
			name:       "nothing configured",
			checks:     Checks{},
			wantOnline: false,
			want:       func(t *testing.T, s Status) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(tt.checks, 0, nil)
			m.Refresh()
			assert.Equal(t, tt.wantOnline, m.IsOnline())
			s := m.GetStatus()
			assert.False(t, s.LastCheck.IsZero())
			tt.want(t, s)
		})
	}
}

func TestMonitor_StopIsIdempotent(t *testing.T) {
	m := New(Checks{}, 0, nil)
	m.Start()
	m.Stop()
	m.Stop()
}
