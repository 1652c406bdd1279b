//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investgate/internal/audit"
	"investgate/internal/audit/store/postgres"
	"investgate/pkg/domain"
	"investgate/pkg/testutil/containers"
)

func TestPostgresAudit(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pg := containers.NewPostgresContainer(t)
	db, err := postgres.Open(pg.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := postgres.New(db)
	ctx := context.Background()

	t.Run("append and list round-trip", func(t *testing.T) {
		subject := domain.UserID(uuid.New())
		event := audit.Event{
			ID:         uuid.New(),
			SubjectID:  subject,
			Action:     audit.ActionUserRoleChanged,
			EntityType: "user",
			EntityID:   uuid.NewString(),
			Changes:    map[string]any{"role": map[string]any{"from": "INVESTOR", "to": "OFFICER"}},
			RequestID:  "req-42",
			Timestamp:  time.Now().Truncate(time.Microsecond),
		}
		require.NoError(t, store.Append(ctx, event))

		events, err := store.ListBySubject(ctx, subject)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, audit.ActionUserRoleChanged, events[0].Action)
		assert.Equal(t, "req-42", events[0].RequestID)
		assert.Contains(t, events[0].Changes, "role")
	})

	t.Run("retried append does not duplicate", func(t *testing.T) {
		subject := domain.UserID(uuid.New())
		event := audit.Event{
			ID:         uuid.New(),
			SubjectID:  subject,
			Action:     audit.ActionLogin,
			EntityType: "user",
			Timestamp:  time.Now().Truncate(time.Microsecond),
		}
		require.NoError(t, store.Append(ctx, event))
		require.NoError(t, store.Append(ctx, event))

		events, err := store.ListBySubject(ctx, subject)
		require.NoError(t, err)
		assert.Len(t, events, 1)
	})
}
