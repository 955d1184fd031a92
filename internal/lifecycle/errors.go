package lifecycle

import (
	"errors"
	"fmt"

	"github.com/EnuliForge/kwikorder-engine/internal/domain"
)

// ErrIllegalTransition matches every *IllegalTransitionError.
var ErrIllegalTransition = errors.New("illegal transition")

// IllegalTransitionError reports a target that is not reachable from the current status.
type IllegalTransitionError struct {
	From domain.TicketStatus
	To   domain.TargetStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition: %s -> %s", e.From, e.To)
}

func (e *IllegalTransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}
