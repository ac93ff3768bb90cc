// Package approval holds the report approval chain:
// draft → pending_ae → pending_supervisor → pending_accounting → approved,
// with rejection allowed from any pending status.
package approval

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"reportflow/internal/models"
)

type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// Stage names the approval stamp written by a transition.
type Stage string

const (
	StageNone       Stage = ""
	StageAE         Stage = "ae"
	StageSupervisor Stage = "supervisor"
	StageAccounting Stage = "accounting"
)

var (
	ErrUnknownAction     = errors.New("unknown approval action")
	ErrNotPermitted      = errors.New("role may not act on this report status")
	ErrFinalized         = errors.New("report is already finalized")
	ErrInvalidTransition = errors.New("transition not allowed from current status")
)

type step struct {
	actor models.Role
	next  models.ReportStatus
	stamp Stage
}

var chain = map[models.ReportStatus]step{
	models.StatusDraft:             {actor: models.RoleAE, next: models.StatusPendingAE, stamp: StageNone},
	models.StatusPendingAE:         {actor: models.RoleAE, next: models.StatusPendingSupervisor, stamp: StageAE},
	models.StatusPendingSupervisor: {actor: models.RoleSupervisor, next: models.StatusPendingAccounting, stamp: StageSupervisor},
	models.StatusPendingAccounting: {actor: models.RoleAccounting, next: models.StatusApproved, stamp: StageAccounting},
}

type Transition struct {
	Action Action
	From   models.ReportStatus
	To     models.ReportStatus
	Stage  Stage
}

func ParseAction(s string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case ActionApprove, "approved":
		return ActionApprove, nil
	case ActionReject, "rejected":
		return ActionReject, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// CanAct reports whether role is the designated actor for status.
func CanAct(status models.ReportStatus, role models.Role) bool {
	st, ok := chain[status]
	if !ok {
		return false
	}
	return role == models.RoleAdmin || role == st.actor
}

// Decide computes the transition for action taken by role on a report in current.
func Decide(current models.ReportStatus, role models.Role, action Action) (Transition, error) {
	if action != ActionApprove && action != ActionReject {
		return Transition{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	if current == models.StatusApproved || current == models.StatusRejected {
		return Transition{}, ErrFinalized
	}
	st, ok := chain[current]
	if !ok {
		return Transition{}, fmt.Errorf("%w: %q", ErrInvalidTransition, current)
	}
	if !CanAct(current, role) {
		return Transition{}, ErrNotPermitted
	}
	if action == ActionReject {
		if !current.Pending() {
			return Transition{}, ErrInvalidTransition
		}
		return Transition{Action: ActionReject, From: current, To: models.StatusRejected}, nil
	}
	return Transition{Action: ActionApprove, From: current, To: st.next, Stage: st.stamp}, nil
}

// DecideTarget accepts a requested target status instead of an action and
// checks it against what the chain would produce.
func DecideTarget(current models.ReportStatus, role models.Role, target models.ReportStatus) (Transition, error) {
	if !target.Valid() {
		return Transition{}, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, target)
	}
	action := ActionApprove
	if target == models.StatusRejected {
		action = ActionReject
	}
	t, err := Decide(current, role, action)
	if err != nil {
		return Transition{}, err
	}
	if t.To != target {
		return Transition{}, fmt.Errorf("%w: %s cannot move to %s", ErrInvalidTransition, current, target)
	}
	return t, nil
}

// Apply writes the transition onto r and stamps the approver for the stage.
func Apply(r *models.Report, t Transition, actorID string, at time.Time) {
	r.Status = t.To
	r.UpdatedAt = at
	if t.Action != ActionApprove {
		return
	}
	id, ts := actorID, at
	switch t.Stage {
	case StageAE:
		r.AEApprovedByID, r.AEApprovedAt = &id, &ts
	case StageSupervisor:
		r.SupervisorApprovedByID, r.SupervisorApprovedAt = &id, &ts
	case StageAccounting:
		r.AccountingApprovedByID, r.AccountingApprovedAt = &id, &ts
	}
}

// Columns lists the report columns changed by t, keyed by database name.
func Columns(r *models.Report, t Transition) map[string]any {
	cols := map[string]any{"status": r.Status, "updated_at": r.UpdatedAt}
	if t.Action != ActionApprove {
		return cols
	}
	switch t.Stage {
	case StageAE:
		cols["ae_approved_by_id"] = r.AEApprovedByID
		cols["ae_approved_at"] = r.AEApprovedAt
	case StageSupervisor:
		cols["supervisor_approved_by_id"] = r.SupervisorApprovedByID
		cols["supervisor_approved_at"] = r.SupervisorApprovedAt
	case StageAccounting:
		cols["accounting_approved_by_id"] = r.AccountingApprovedByID
		cols["accounting_approved_at"] = r.AccountingApprovedAt
	}
	return cols
}
