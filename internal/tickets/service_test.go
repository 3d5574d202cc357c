package tickets

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-wallet/internal/config"
	"ms-wallet/internal/database"
	"ms-wallet/internal/logger"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	log := logger.NewLogger()
	store, err := database.Open(context.Background(), config.DatabaseConfig{
		Path:           filepath.Join(t.TempDir(), "wallet.db"),
		ConnectTimeout: 5 * time.Second,
	}, log)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewService(store, log)
}

func TestGetNextTicketCountStartsAtOne(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	count, err := svc.GetNextTicketCount(ctx, 1, "support")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = svc.GetNextTicketCount(ctx, 1, "support")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = svc.GetNextTicketCount(ctx, 1, "support")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestTicketCountersAreIndependent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	count, err := svc.GetNextTicketCount(ctx, 1, "support")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Different type, same user
	count, err = svc.GetNextTicketCount(ctx, 1, "replacement")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Different user, same type
	count, err = svc.GetNextTicketCount(ctx, 2, "support")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestConcurrentTicketCountsAreUnique(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	const workers = 5
	results := make(chan int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			count, err := svc.GetNextTicketCount(ctx, 7, "support")
			assert.NoError(t, err)
			results <- count
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool)
	for count := range results {
		assert.False(t, seen[count], "duplicate ticket count %d", count)
		seen[count] = true
	}
	for want := int64(1); want <= workers; want++ {
		assert.True(t, seen[want], "missing ticket count %d", want)
	}
}
