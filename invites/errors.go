package invites

import (
	"errors"
	"fmt"

	"github.com/linesmerrill/league-invite-api/models"
)

var (
	// ErrUnauthorized means the caller does not own or administer the league
	ErrUnauthorized = errors.New("caller is not an owner of the league")
	// ErrInvalidGroup means the league does not exist
	ErrInvalidGroup = errors.New("league does not exist")
	// ErrInvalidCode means no invite exists for the presented code
	ErrInvalidCode = errors.New("invite code is not valid")
	// ErrCodeExpired means the invite is past its expiry
	ErrCodeExpired = errors.New("invite code has expired")
	// ErrCodeExhausted means every use of the invite has been consumed
	ErrCodeExhausted = errors.New("invite code has no uses left")
	// ErrGenerationExhausted means every generated code collided with an existing one
	ErrGenerationExhausted = errors.New("could not generate a unique invite code")
	// ErrStoreUnavailable wraps persistence failures; callers may retry with backoff
	ErrStoreUnavailable = errors.New("invite store unavailable")
	// ErrMembershipApplyFailed means a redemption committed but membership was not applied
	ErrMembershipApplyFailed = errors.New("membership could not be applied")
	// ErrInvalidPolicy means the requested max uses is outside the allowed range
	ErrInvalidPolicy = errors.New("invalid invite policy")
	// ErrDuplicateCode is returned by stores when a code already exists
	ErrDuplicateCode = errors.New("invite code already exists")
)

// MembershipApplyError carries the grant whose redemption already committed so it can
// be applied again without consuming another use.
type MembershipApplyError struct {
	Grant models.MembershipGrant
	// Queued is true when the grant was handed to the reconciliation queue
	Queued bool
	Err    error
}

func (e *MembershipApplyError) Error() string {
	return fmt.Sprintf("%s: league %s identity %s: %v", ErrMembershipApplyFailed, e.Grant.LeagueID, e.Grant.Identity, e.Err)
}

func (e *MembershipApplyError) Unwrap() []error {
	return []error{ErrMembershipApplyFailed, e.Err}
}

// Kind names the taxonomy entry for err, used by the transport layer
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMembershipApplyFailed):
		return "MembershipApplyFailed"
	case errors.Is(err, ErrUnauthorized):
		return "Unauthorized"
	case errors.Is(err, ErrInvalidGroup):
		return "InvalidGroup"
	case errors.Is(err, ErrInvalidCode):
		return "InvalidCode"
	case errors.Is(err, ErrCodeExpired):
		return "CodeExpired"
	case errors.Is(err, ErrCodeExhausted):
		return "CodeExhausted"
	case errors.Is(err, ErrGenerationExhausted):
		return "GenerationExhausted"
	case errors.Is(err, ErrInvalidPolicy):
		return "InvalidPolicy"
	case errors.Is(err, ErrStoreUnavailable):
		return "StoreUnavailable"
	default:
		return "Internal"
	}
}

func storeUnavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
