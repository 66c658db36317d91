package missions

import (
	"automedon/internal/models"
)

// Status is the canonical mission lifecycle state. The source data carried
// two spellings of the initial state ("Disponible" and "en attente");
// ParseStatus folds both onto StatusAvailable and this package is the only
// place status vocabulary is defined.
type Status string

const (
	StatusAvailable  Status = "available"
	StatusAccepted   Status = "accepted"
	StatusInProgress Status = "in_progress"
	StatusDelivered  Status = "delivered"
)

// ParseStatus normalizes a stored status label, including the legacy French
// spellings, onto the canonical enum.
func ParseStatus(s string) (Status, bool) {
	switch s {
	case "available", "Disponible", "disponible", "en attente":
		return StatusAvailable, true
	case "accepted", "acceptée":
		return StatusAccepted, true
	case "in_progress", "en cours":
		return StatusInProgress, true
	case "delivered", "livrée":
		return StatusDelivered, true
	}
	return "", false
}

// rank orders the lifecycle so transitions can be checked for monotonicity.
var rank = map[Status]int{
	StatusAvailable:  0,
	StatusAccepted:   1,
	StatusInProgress: 2,
	StatusDelivered:  3,
}

// CanTransition reports whether a mission may move from one status directly
// to the next. The lifecycle is linear and forward-only: available →
// accepted → in_progress → delivered, one step at a time.
func CanTransition(from, to Status) bool {
	rf, okF := rank[from]
	rt, okT := rank[to]
	return okF && okT && rt == rf+1
}

// Action is a mutating operation gated by the lifecycle.
type Action string

const (
	ActionCreate   Action = "create"
	ActionClaim    Action = "claim"
	ActionStart    Action = "start"
	ActionAppend   Action = "append" // updates, expenses, sheets
	ActionComplete Action = "complete"
	ActionSetPrice Action = "set_price"
	ActionReassign Action = "reassign"
)

// actionRoles is the authorization table: which roles may invoke which
// action class at all. Identity checks (is the caller the assigned
// convoyeur) come on top, in Authorize.
var actionRoles = map[Action]map[string]struct{}{
	ActionCreate:   {models.RoleClient: {}, models.RoleConcessionnaire: {}},
	ActionClaim:    {models.RoleConvoyeur: {}},
	ActionStart:    {models.RoleConvoyeur: {}},
	ActionAppend:   {models.RoleConvoyeur: {}},
	ActionComplete: {models.RoleConvoyeur: {}},
	ActionSetPrice: {models.RoleAdmin: {}},
	ActionReassign: {models.RoleAdmin: {}},
}

// actionStates lists the statuses in which each action is legal. Pricing and
// reassignment are admin side-operations outside the state machine; pricing
// is legal in every state, reassignment only while a convoyeur is attached
// and the mission is not finished.
var actionStates = map[Action]map[Status]struct{}{
	ActionClaim:    {StatusAvailable: {}},
	ActionStart:    {StatusAccepted: {}},
	ActionAppend:   {StatusInProgress: {}},
	ActionComplete: {StatusInProgress: {}},
	ActionSetPrice: {StatusAvailable: {}, StatusAccepted: {}, StatusInProgress: {}, StatusDelivered: {}},
	ActionReassign: {StatusAccepted: {}, StatusInProgress: {}},
}

// Authorize is the single authority deciding whether a caller may perform an
// action on a mission. It checks, in order: the caller's role admits the
// action class, the mission's status admits the action, and — for
// convoyeur-restricted actions beyond claim — the caller is the assigned
// convoyeur. It returns models.ErrForbidden or models.ErrInvalidTransition
// accordingly, nil when the action is allowed.
func Authorize(action Action, callerID, callerRole string, m *models.Mission) error {
	if _, ok := actionRoles[action][callerRole]; !ok {
		return models.ErrForbidden
	}
	if action == ActionCreate {
		return nil
	}

	status, ok := ParseStatus(m.Statut)
	if !ok {
		return models.ErrInvalidTransition
	}
	if _, ok := actionStates[action][status]; !ok {
		if action == ActionClaim && status != StatusAvailable {
			// The mission left the available pool; to the claimer this is a
			// lost race, not a generic state error.
			return models.ErrAlreadyClaimed
		}
		return models.ErrInvalidTransition
	}

	switch action {
	case ActionStart, ActionAppend, ActionComplete:
		if !m.ConvoyeurID.Valid || m.ConvoyeurID.String != callerID {
			return models.ErrForbidden
		}
	}
	return nil
}
