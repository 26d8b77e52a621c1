package invites

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/league-invite-api/models"
)

func TestAcceptAppliesMembership(t *testing.T) {
	store := newMemoryStore()
	invite := issue(t, store, 5, nil)
	members := newFlakyMembers(false)
	e := NewEnrollment(NewRedeemer(store), members, &memoryQueue{})

	grant, err := e.Accept(context.Background(), invite.Code, "player-1")
	require.NoError(t, err)
	assert.Equal(t, models.MembershipGrant{LeagueID: "league-1", Identity: "player-1", Code: invite.Code}, grant)
	assert.Equal(t, []string{"player-1"}, members.applied["league-1"])
}

func TestAcceptPropagatesRedeemErrorsWithoutApplying(t *testing.T) {
	members := newFlakyMembers(false)
	e := NewEnrollment(NewRedeemer(newMemoryStore()), members, &memoryQueue{})

	_, err := e.Accept(context.Background(), "missing", "player-1")
	assert.ErrorIs(t, err, ErrInvalidCode)
	assert.Empty(t, members.applied)
}

func TestAcceptQueuesGrantWhenMembershipFails(t *testing.T) {
	store := newMemoryStore()
	invite := issue(t, store, 5, nil)
	queue := &memoryQueue{}
	e := NewEnrollment(NewRedeemer(store), newFlakyMembers(true), queue)

	grant, err := e.Accept(context.Background(), invite.Code, "player-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMembershipApplyFailed)
	assert.Equal(t, "MembershipApplyFailed", Kind(err))

	var applyErr *MembershipApplyError
	require.True(t, errors.As(err, &applyErr))
	assert.True(t, applyErr.Queued)
	assert.Equal(t, grant, applyErr.Grant)

	// the use stays consumed
	got, _ := store.Get(context.Background(), invite.Code)
	assert.Equal(t, 1, got.UsedCount)

	pending, _ := queue.Pending(context.Background(), 10)
	require.Len(t, pending, 1)
	assert.Equal(t, grant, pending[0].Grant)
}

func TestAcceptQueuesEvenWhenCallerCancelled(t *testing.T) {
	store := newMemoryStore()
	invite := issue(t, store, 5, nil)
	queue := &memoryQueue{}
	e := NewEnrollment(NewRedeemer(store), newFlakyMembers(true), queue)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Accept(ctx, invite.Code, "player-1")
	assert.ErrorIs(t, err, ErrMembershipApplyFailed)
	pending, _ := queue.Pending(context.Background(), 10)
	assert.Len(t, pending, 1)
}

func TestReconcileAppliesQueuedGrantsWithoutConsumingUses(t *testing.T) {
	store := newMemoryStore()
	invite := issue(t, store, 5, nil)
	queue := &memoryQueue{}
	members := newFlakyMembers(true)
	e := NewEnrollment(NewRedeemer(store), members, queue)

	_, err := e.Accept(context.Background(), invite.Code, "player-1")
	require.ErrorIs(t, err, ErrMembershipApplyFailed)

	members.setFailing(false)
	report, err := e.Reconcile(context.Background(), 10, 3)
	require.NoError(t, err)
	assert.Equal(t, ReconcileReport{Applied: 1}, report)
	assert.Equal(t, []string{"player-1"}, members.applied["league-1"])

	got, _ := store.Get(context.Background(), invite.Code)
	assert.Equal(t, 1, got.UsedCount)
	pending, _ := queue.Pending(context.Background(), 10)
	assert.Empty(t, pending)
}

func TestReconcileParksAfterMaxAttempts(t *testing.T) {
	store := newMemoryStore()
	invite := issue(t, store, 5, nil)
	queue := &memoryQueue{}
	e := NewEnrollment(NewRedeemer(store), newFlakyMembers(true), queue)

	_, _ = e.Accept(context.Background(), invite.Code, "player-1")

	report, err := e.Reconcile(context.Background(), 10, 3)
	require.NoError(t, err)
	assert.Equal(t, ReconcileReport{Retried: 1}, report)

	report, err = e.Reconcile(context.Background(), 10, 3)
	require.NoError(t, err)
	assert.Equal(t, ReconcileReport{Parked: 1}, report)
	assert.Equal(t, models.GrantFailed, queue.grants[0].Status)
	assert.Equal(t, 3, queue.grants[0].Attempts)
}

func TestReconcileWithoutQueue(t *testing.T) {
	e := NewEnrollment(NewRedeemer(newMemoryStore()), newFlakyMembers(false), nil)
	report, err := e.Reconcile(context.Background(), 10, 3)
	assert.NoError(t, err)
	assert.Equal(t, ReconcileReport{}, report)
}
