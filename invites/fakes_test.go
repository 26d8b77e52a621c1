package invites

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/linesmerrill/league-invite-api/models"
)

type memoryStore struct {
	mu        sync.Mutex
	records   map[string]models.InviteCode
	createErr error
	redeemErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: map[string]models.InviteCode{}}
}

func (m *memoryStore) Create(_ context.Context, invite models.InviteCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.records[invite.Code]; ok {
		return ErrDuplicateCode
	}
	m.records[invite.Code] = invite
	return nil
}

func (m *memoryStore) TryRedeem(_ context.Context, code string, now time.Time) (models.Redemption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.redeemErr != nil {
		return models.Redemption{}, m.redeemErr
	}
	invite, ok := m.records[code]
	if !ok {
		return models.Redemption{Outcome: models.RedeemNotFound}, nil
	}
	if outcome := models.ClassifyRedemption(&invite, now); outcome != models.Redeemed {
		return models.Redemption{Outcome: outcome, Invite: invite}, nil
	}
	invite.UsedCount++
	m.records[code] = invite
	return models.Redemption{Outcome: models.Redeemed, Invite: invite}, nil
}

func (m *memoryStore) Get(_ context.Context, code string) (*models.InviteCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	invite, ok := m.records[code]
	if !ok {
		return nil, ErrInvalidCode
	}
	return &invite, nil
}

func (m *memoryStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

type ownerChecker struct {
	owners map[string]string
	err    error
}

func (o ownerChecker) IsOwner(_ context.Context, identity, leagueID string) (bool, error) {
	if o.err != nil {
		return false, o.err
	}
	owner, ok := o.owners[leagueID]
	if !ok {
		return false, ErrInvalidGroup
	}
	return owner == identity, nil
}

type sequenceGenerator struct {
	mu    sync.Mutex
	codes []string
	n     int
}

func (s *sequenceGenerator) Generate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	code := s.codes[s.n%len(s.codes)]
	s.n++
	return code
}

type flakyMembers struct {
	mu      sync.Mutex
	failing bool
	applied map[string][]string
}

func newFlakyMembers(failing bool) *flakyMembers {
	return &flakyMembers{failing: failing, applied: map[string][]string{}}
}

func (f *flakyMembers) ApplyMembership(_ context.Context, leagueID, identity string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("membership backend down")
	}
	for _, m := range f.applied[leagueID] {
		if m == identity {
			return nil
		}
	}
	f.applied[leagueID] = append(f.applied[leagueID], identity)
	return nil
}

func (f *flakyMembers) setFailing(failing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = failing
}

type memoryQueue struct {
	mu     sync.Mutex
	grants []models.PendingGrant
}

func (q *memoryQueue) Enqueue(_ context.Context, grant models.MembershipGrant, cause string, now time.Time) (models.PendingGrant, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	p := models.PendingGrant{
		ID:        fmt.Sprintf("grant-%d", len(q.grants)+1),
		Grant:     grant,
		Status:    models.GrantPending,
		Attempts:  1,
		LastError: cause,
		CreatedAt: now,
		UpdatedAt: now,
	}
	q.grants = append(q.grants, p)
	return p, nil
}

func (q *memoryQueue) Pending(_ context.Context, limit int) ([]models.PendingGrant, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []models.PendingGrant
	for _, g := range q.grants {
		if g.Status == models.GrantPending && len(out) < limit {
			out = append(out, g)
		}
	}
	return out, nil
}

func (q *memoryQueue) MarkApplied(_ context.Context, id string, now time.Time) error {
	return q.update(id, func(g *models.PendingGrant) {
		g.Status = models.GrantApplied
		g.UpdatedAt = now
	})
}

func (q *memoryQueue) MarkAttemptFailed(_ context.Context, id, cause string, park bool, now time.Time) error {
	return q.update(id, func(g *models.PendingGrant) {
		g.Attempts++
		g.LastError = cause
		g.UpdatedAt = now
		if park {
			g.Status = models.GrantFailed
		}
	})
}

func (q *memoryQueue) update(id string, fn func(*models.PendingGrant)) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.grants {
		if q.grants[i].ID == id {
			fn(&q.grants[i])
			return nil
		}
	}
	return fmt.Errorf("grant %s not found", id)
}
