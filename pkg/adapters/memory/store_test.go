package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/kiln/pkg/adapters/memory"
	"github.com/aretw0/kiln/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	rec := ports.NewTestRecord("run-1", time.Now())
	require.NoError(t, store.Save(ctx, rec))

	rec.Plan[0] = "mutated"
	rec.Identity.Version = "mutated"

	loaded, err := store.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "clean", loaded.Plan[0])
	assert.Equal(t, "1.2.4.42", loaded.Identity.Version)
}
