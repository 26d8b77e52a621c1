package invites

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/league-invite-api/models"
)

func mustInvite(code string) models.InviteCode {
	return models.InviteCode{Code: code, LeagueID: "league-1", IssuerID: "owner-1", MaxUses: 100, CreatedAt: time.Now()}
}

func issue(t *testing.T, store *memoryStore, maxUses int, expiresAt *time.Time) models.InviteCode {
	t.Helper()
	a := newTestAuthority(t, store, nil)
	invite, err := a.Issue(context.Background(), IssueRequest{Identity: "owner-1", LeagueID: "league-1", MaxUses: &maxUses, ExpiresAt: expiresAt})
	require.NoError(t, err)
	return invite
}

func TestRedeemReturnsGrant(t *testing.T) {
	store := newMemoryStore()
	invite := issue(t, store, 3, nil)

	grant, err := NewRedeemer(store).Redeem(context.Background(), invite.Code, "player-1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "league-1", grant.LeagueID)
	assert.Equal(t, "player-1", grant.Identity)

	got, _ := store.Get(context.Background(), invite.Code)
	assert.Equal(t, 1, got.UsedCount)
}

func TestRedeemUnknownCode(t *testing.T) {
	_, err := NewRedeemer(newMemoryStore()).Redeem(context.Background(), "missing", "player-1", time.Now())
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestRedeemEmptyCodeAndIdentity(t *testing.T) {
	r := NewRedeemer(newMemoryStore())
	_, err := r.Redeem(context.Background(), "  ", "player-1", time.Now())
	assert.ErrorIs(t, err, ErrInvalidCode)
	_, err = r.Redeem(context.Background(), "code", "", time.Now())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRedeemExpiredCodeRegardlessOfCapacity(t *testing.T) {
	store := newMemoryStore()
	past := time.Now().Add(-time.Second)
	invite := issue(t, store, 100, &past)

	_, err := NewRedeemer(store).Redeem(context.Background(), invite.Code, "player-1", time.Now())
	assert.ErrorIs(t, err, ErrCodeExpired)

	got, _ := store.Get(context.Background(), invite.Code)
	assert.Equal(t, 0, got.UsedCount)
}

func TestRedeemExhaustedCode(t *testing.T) {
	store := newMemoryStore()
	invite := issue(t, store, 1, nil)
	r := NewRedeemer(store)

	_, err := r.Redeem(context.Background(), invite.Code, "player-1", time.Now())
	require.NoError(t, err)
	_, err = r.Redeem(context.Background(), invite.Code, "player-2", time.Now())
	assert.ErrorIs(t, err, ErrCodeExhausted)
}

func TestRedeemStoreFailure(t *testing.T) {
	store := newMemoryStore()
	store.redeemErr = errors.New("primary stepped down")
	_, err := NewRedeemer(store).Redeem(context.Background(), "code", "player-1", time.Now())
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestConcurrentRedemptionsNeverExceedMaxUses(t *testing.T) {
	for _, tc := range []struct{ attempts, maxUses int }{{3, 2}, {50, 10}, {10, 50}, {64, 64}} {
		t.Run(fmt.Sprintf("n=%d,m=%d", tc.attempts, tc.maxUses), func(t *testing.T) {
			store := newMemoryStore()
			invite := issue(t, store, tc.maxUses, nil)
			r := NewRedeemer(store)

			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				redeemed  int
				exhausted int
			)
			for i := 0; i < tc.attempts; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, err := r.Redeem(context.Background(), invite.Code, fmt.Sprintf("player-%d", i), time.Now())
					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						redeemed++
					case errors.Is(err, ErrCodeExhausted):
						exhausted++
					default:
						t.Errorf("unexpected error: %v", err)
					}
				}(i)
			}
			wg.Wait()

			want := min(tc.attempts, tc.maxUses)
			assert.Equal(t, want, redeemed)
			assert.Equal(t, tc.attempts-want, exhausted)
			got, _ := store.Get(context.Background(), invite.Code)
			assert.Equal(t, want, got.UsedCount)
		})
	}
}
