package sqlitestore

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/league-invite-api/invites"
	"github.com/linesmerrill/league-invite-api/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "invites.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedInvite(t *testing.T, store *Store, code string, maxUses int, expiresAt *time.Time) {
	t.Helper()
	require.NoError(t, store.Create(context.Background(), models.InviteCode{
		Code:      code,
		LeagueID:  "league-1",
		IssuerID:  "owner-1",
		MaxUses:   maxUses,
		ExpiresAt: expiresAt,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}))
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "  ")
	assert.Error(t, err)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invites.db")
	first, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(context.Background(), path)
	require.NoError(t, err)
	assert.NoError(t, second.Close())
}

func TestCreateAndGet(t *testing.T) {
	store := openTestStore(t)
	expires := time.Date(2026, 3, 1, 12, 30, 0, 123456789, time.UTC)
	seedInvite(t, store, "abc", 3, &expires)

	got, err := store.Get(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "league-1", got.LeagueID)
	assert.Equal(t, "owner-1", got.IssuerID)
	assert.Equal(t, 3, got.MaxUses)
	assert.Equal(t, 0, got.UsedCount)
	require.NotNil(t, got.ExpiresAt)
	assert.True(t, got.ExpiresAt.Equal(expires.Truncate(time.Millisecond)))
}

func TestCreateDuplicateCode(t *testing.T) {
	store := openTestStore(t)
	seedInvite(t, store, "abc", 3, nil)

	err := store.Create(context.Background(), models.InviteCode{
		Code: "abc", LeagueID: "league-2", IssuerID: "owner-2", MaxUses: 1, CreatedAt: time.Now(),
	})
	assert.ErrorIs(t, err, invites.ErrDuplicateCode)
}

func TestGetUnknownCode(t *testing.T) {
	store := openTestStore(t)
	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, invites.ErrInvalidCode)
}

func TestTryRedeemOutcomes(t *testing.T) {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	store := openTestStore(t)
	seedInvite(t, store, "open", 1, nil)
	seedInvite(t, store, "stale", 5, &past)
	seedInvite(t, store, "fresh", 5, &future)
	seedInvite(t, store, "edge", 5, &now)

	res, err := store.TryRedeem(context.Background(), "open", now)
	require.NoError(t, err)
	assert.Equal(t, models.Redeemed, res.Outcome)
	assert.Equal(t, 1, res.Invite.UsedCount)

	res, err = store.TryRedeem(context.Background(), "open", now)
	require.NoError(t, err)
	assert.Equal(t, models.RedeemExhausted, res.Outcome)

	res, err = store.TryRedeem(context.Background(), "stale", now)
	require.NoError(t, err)
	assert.Equal(t, models.RedeemExpired, res.Outcome)

	res, err = store.TryRedeem(context.Background(), "edge", now)
	require.NoError(t, err)
	assert.Equal(t, models.RedeemExpired, res.Outcome)

	res, err = store.TryRedeem(context.Background(), "fresh", now)
	require.NoError(t, err)
	assert.Equal(t, models.Redeemed, res.Outcome)

	res, err = store.TryRedeem(context.Background(), "nope", now)
	require.NoError(t, err)
	assert.Equal(t, models.RedeemNotFound, res.Outcome)

	stale, err := store.Get(context.Background(), "stale")
	require.NoError(t, err)
	assert.Equal(t, 0, stale.UsedCount)
}

func TestTryRedeemConcurrent(t *testing.T) {
	cases := []struct {
		callers int
		maxUses int
	}{
		{callers: 3, maxUses: 2},
		{callers: 40, maxUses: 10},
		{callers: 10, maxUses: 25},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d callers %d uses", tc.callers, tc.maxUses), func(t *testing.T) {
			store := openTestStore(t)
			seedInvite(t, store, "race", tc.maxUses, nil)
			now := time.Now()

			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				redeemed  int
				exhausted int
			)
			for i := 0; i < tc.callers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					res, err := store.TryRedeem(context.Background(), "race", now)
					if !assert.NoError(t, err) {
						return
					}
					mu.Lock()
					defer mu.Unlock()
					switch res.Outcome {
					case models.Redeemed:
						redeemed++
					case models.RedeemExhausted:
						exhausted++
					}
				}()
			}
			wg.Wait()

			want := min(tc.callers, tc.maxUses)
			assert.Equal(t, want, redeemed)
			assert.Equal(t, tc.callers-want, exhausted)

			got, err := store.Get(context.Background(), "race")
			require.NoError(t, err)
			assert.Equal(t, want, got.UsedCount)
		})
	}
}

func TestTryRedeemConcurrentAcrossHandles(t *testing.T) {
	cases := []struct {
		handles int
		callers int
		maxUses int
	}{
		{handles: 2, callers: 3, maxUses: 2},
		{handles: 3, callers: 30, maxUses: 7},
		{handles: 4, callers: 8, maxUses: 20},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d handles %d callers %d uses", tc.handles, tc.callers, tc.maxUses), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "invites.db")
			stores := make([]*Store, tc.handles)
			for i := range stores {
				store, err := Open(context.Background(), path)
				require.NoError(t, err)
				t.Cleanup(func() { _ = store.Close() })
				stores[i] = store
			}
			seedInvite(t, stores[0], "shared", tc.maxUses, nil)
			now := time.Now()

			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				redeemed  int
				exhausted int
			)
			start := make(chan struct{})
			for i := 0; i < tc.callers; i++ {
				wg.Add(1)
				go func(store *Store) {
					defer wg.Done()
					<-start
					res, err := store.TryRedeem(context.Background(), "shared", now)
					if !assert.NoError(t, err) {
						return
					}
					mu.Lock()
					defer mu.Unlock()
					switch res.Outcome {
					case models.Redeemed:
						redeemed++
					case models.RedeemExhausted:
						exhausted++
					}
				}(stores[i%tc.handles])
			}
			close(start)
			wg.Wait()

			want := min(tc.callers, tc.maxUses)
			assert.Equal(t, want, redeemed)
			assert.Equal(t, tc.callers-want, exhausted)

			for _, store := range stores {
				got, err := store.Get(context.Background(), "shared")
				require.NoError(t, err)
				assert.Equal(t, want, got.UsedCount)
			}
		})
	}
}

func TestGrantQueue(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	first, err := store.Enqueue(ctx, models.MembershipGrant{LeagueID: "league-1", Identity: "u1", Code: "abc"}, "timeout", start)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Attempts)
	second, err := store.Enqueue(ctx, models.MembershipGrant{LeagueID: "league-1", Identity: "u2", Code: "abc"}, "timeout", start.Add(time.Second))
	require.NoError(t, err)

	pending, err := store.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)
	assert.Equal(t, "u1", pending[0].Grant.Identity)

	require.NoError(t, store.MarkApplied(ctx, first.ID, start.Add(time.Minute)))
	require.NoError(t, store.MarkAttemptFailed(ctx, second.ID, "still down", false, start.Add(time.Minute)))

	pending, err = store.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].Attempts)
	assert.Equal(t, "still down", pending[0].LastError)

	require.NoError(t, store.MarkAttemptFailed(ctx, second.ID, "gave up", true, start.Add(2*time.Minute)))
	pending, err = store.Pending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	assert.Error(t, store.MarkApplied(ctx, "unknown", start))
}

func TestExtractUp(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (id INTEGER);\n-- +migrate Down\nDROP TABLE a;\n"
	assert.Equal(t, "\nCREATE TABLE a (id INTEGER);\n", extractUp(content))
	assert.Equal(t, "SELECT 1;", extractUp("SELECT 1;"))
}

func TestSchedulerLocks(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	ok, err := store.TryAcquireLock(ctx, "reconcile", "web.1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.TryAcquireLock(ctx, "reconcile", "web.2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.TryAcquireLock(ctx, "reconcile", "web.1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.ReleaseLock(ctx, "reconcile", "web.1"))
	ok, err = store.TryAcquireLock(ctx, "reconcile", "web.2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
