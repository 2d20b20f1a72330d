package pipeline_test

import (
	"context"
	"testing"

	"github.com/couchcryptid/aq-forecast-gateway/internal/domain"
	"github.com/couchcryptid/aq-forecast-gateway/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessions_BeginCancelsPrevious(t *testing.T) {
	s := pipeline.NewSessions(4)

	ctx1, t1 := s.Begin(context.Background(), "k")
	ctx2, t2 := s.Begin(context.Background(), "k")

	assert.ErrorIs(t, ctx1.Err(), context.Canceled)
	assert.NoError(t, ctx2.Err())
	assert.NotEqual(t, t1.ID, t2.ID)
	assert.True(t, s.InFlight("k"))

	require.ErrorIs(t, s.Complete(t1, domain.ForecastResult{ID: "old"}), domain.ErrSuperseded)
	require.NoError(t, s.Complete(t2, domain.ForecastResult{ID: "new"}))
	assert.False(t, s.InFlight("k"))
	assert.ErrorIs(t, ctx2.Err(), context.Canceled, "completed tickets release their context")

	latest, ok := s.Latest("k")
	require.True(t, ok)
	assert.Equal(t, "new", latest.ID)
}

func TestSessions_OlderCompletionNeverOverwrites(t *testing.T) {
	s := pipeline.NewSessions(4)

	_, t1 := s.Begin(context.Background(), "k")
	_, t2 := s.Begin(context.Background(), "k")
	require.NoError(t, s.Complete(t2, domain.ForecastResult{ID: "new"}))
	require.ErrorIs(t, s.Complete(t1, domain.ForecastResult{ID: "old"}), domain.ErrSuperseded)

	latest, _ := s.Latest("k")
	assert.Equal(t, "new", latest.ID)
}

func TestSessions_Release(t *testing.T) {
	s := pipeline.NewSessions(4)

	_, t1 := s.Begin(context.Background(), "k")
	_, t2 := s.Begin(context.Background(), "k")

	assert.False(t, s.Release(t1))
	assert.True(t, s.Release(t2))
	assert.False(t, s.InFlight("k"))
	_, ok := s.Latest("k")
	assert.False(t, ok)
}

func TestSessions_EmptyKeyOptsOut(t *testing.T) {
	s := pipeline.NewSessions(4)

	ctx1, t1 := s.Begin(context.Background(), "")
	ctx2, t2 := s.Begin(context.Background(), "")
	assert.NoError(t, ctx1.Err())
	assert.NoError(t, ctx2.Err())

	require.NoError(t, s.Complete(t1, domain.ForecastResult{ID: "a"}))
	assert.True(t, s.Release(t2))
	_, ok := s.Latest("")
	assert.False(t, ok)
}

func TestSessions_ParentCancellation(t *testing.T) {
	s := pipeline.NewSessions(4)

	parent, cancel := context.WithCancel(context.Background())
	ctx, ticket := s.Begin(parent, "k")
	cancel()

	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.True(t, s.Release(ticket), "a cancelled request is not a superseded one")
}

func TestSessions_KeyIsolation(t *testing.T) {
	s := pipeline.NewSessions(4)

	ctxA, _ := s.Begin(context.Background(), "a")
	_, _ = s.Begin(context.Background(), "b")
	assert.NoError(t, ctxA.Err())
}
