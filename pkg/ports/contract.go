package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/kiln/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewTestRecord builds a failed run record started at the given time.
func NewTestRecord(id string, started time.Time) *domain.RunRecord {
	return &domain.RunRecord{
		RunReport: domain.RunReport{
			ID:        id,
			Requested: []string{"ci"},
			Plan:      []string{"clean", "compile", "ci"},
			Tasks: []domain.TaskOutcome{
				{Name: "clean", Status: domain.TaskSucceeded, Started: started, Duration: time.Second},
				{Name: "compile", Status: domain.TaskFailed, Started: started.Add(time.Second), Error: "exit status 1"},
				{Name: "ci", Status: domain.TaskSkipped},
			},
			Status:     domain.RunFailed,
			Started:    started,
			Finished:   started.Add(3 * time.Second),
			FailedTask: "compile",
		},
		Identity: &domain.BuildIdentity{BaseVersion: "1.2.4", Revision: "42", Commit: "abc", Version: "1.2.4.42", FromCI: true},
		Error:    `task "compile" failed: exit status 1`,
	}
}

// RunStoreContract verifies that a RunStore implementation honours the
// interface contract. The store must start empty.
func RunStoreContract(t *testing.T, store RunStore) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Save and Load", func(t *testing.T) {
		rec := NewTestRecord("run-save", base)
		require.NoError(t, store.Save(ctx, rec))

		loaded, err := store.Load(ctx, "run-save")
		require.NoError(t, err)
		assert.Equal(t, rec.ID, loaded.ID)
		assert.Equal(t, rec.Plan, loaded.Plan)
		assert.Equal(t, domain.RunFailed, loaded.Status)
		assert.Equal(t, "compile", loaded.FailedTask)
		assert.Equal(t, domain.TaskSkipped, loaded.Tasks[2].Status)
		assert.True(t, rec.Started.Equal(loaded.Started))
		require.NotNil(t, loaded.Identity)
		assert.Equal(t, "1.2.4.42", loaded.Identity.Version)

		require.NoError(t, store.Delete(ctx, "run-save"))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "missing-run")
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Save Rejects Empty ID", func(t *testing.T) {
		assert.Error(t, store.Save(ctx, NewTestRecord("", base)))
	})

	t.Run("Overwrite", func(t *testing.T) {
		rec := NewTestRecord("run-overwrite", base)
		require.NoError(t, store.Save(ctx, rec))
		rec.Status = domain.RunSucceeded
		rec.FailedTask = ""
		require.NoError(t, store.Save(ctx, rec))

		loaded, err := store.Load(ctx, "run-overwrite")
		require.NoError(t, err)
		assert.Equal(t, domain.RunSucceeded, loaded.Status)

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"run-overwrite"}, ids)

		require.NoError(t, store.Delete(ctx, "run-overwrite"))
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, NewTestRecord("run-delete", base)))
		require.NoError(t, store.Delete(ctx, "run-delete"))

		_, err := store.Load(ctx, "run-delete")
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
		assert.NoError(t, store.Delete(ctx, "run-delete"), "deleting twice is fine")
	})

	t.Run("List Orders By Start", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, NewTestRecord("b-second", base.Add(time.Minute))))
		require.NoError(t, store.Save(ctx, NewTestRecord("c-first", base)))
		require.NoError(t, store.Save(ctx, NewTestRecord("a-third", base.Add(2*time.Minute))))
		defer func() {
			_ = store.Delete(ctx, "a-third")
			_ = store.Delete(ctx, "b-second")
			_ = store.Delete(ctx, "c-first")
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"c-first", "b-second", "a-third"}, ids)
	})
}
