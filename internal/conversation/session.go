// Package conversation is the per-user dialogue state machine of the bot.
//
// Decide is a pure transition function over (Session, Event). Engine wraps it
// and executes the single catalog operation a decision may request.
package conversation

// State is the dialogue step a user is in.
type State string

const (
	StateIdle                  State = "idle"
	StateAdminMenu             State = "admin_menu"
	StateAwaitingRemoveName    State = "awaiting_remove_name"
	StateAwaitingAddName       State = "awaiting_add_name"
	StateAwaitingAddCarbs      State = "awaiting_add_carbs"
	StateAwaitingAddBreadUnits State = "awaiting_add_bread_units"
)

// States lists every valid state.
var States = []State{
	StateIdle,
	StateAdminMenu,
	StateAwaitingRemoveName,
	StateAwaitingAddName,
	StateAwaitingAddCarbs,
	StateAwaitingAddBreadUnits,
}

// Valid reports whether s is one of States.
func (s State) Valid() bool {
	for _, v := range States {
		if s == v {
			return true
		}
	}
	return false
}

// PendingProduct is a product being entered in the add flow.
type PendingProduct struct {
	Name       *string  `json:"name,omitempty"`
	Carbs      *float64 `json:"carbs,omitempty"`
	BreadUnits *float64 `json:"bread_units,omitempty"`
}

// Empty reports whether no field has been collected yet.
func (p PendingProduct) Empty() bool {
	return p.Name == nil && p.Carbs == nil && p.BreadUnits == nil
}

// Session is the per-user conversation record.
type Session struct {
	State   State          `json:"state"`
	Pending PendingProduct `json:"pending"`
	IsAdmin bool           `json:"is_admin"`
}

// NewSession returns the session every new user starts with.
func NewSession() Session {
	return Session{State: StateIdle}
}

// normalized maps a zero or unknown state to idle and drops pending data
// that the state does not collect.
func (s Session) normalized() Session {
	if !s.State.Valid() {
		return Session{State: StateIdle, IsAdmin: s.IsAdmin}
	}
	switch s.State {
	case StateAwaitingAddCarbs:
		s.Pending.Carbs, s.Pending.BreadUnits = nil, nil
	case StateAwaitingAddBreadUnits:
		s.Pending.BreadUnits = nil
	case StateIdle, StateAdminMenu, StateAwaitingRemoveName, StateAwaitingAddName:
		s.Pending = PendingProduct{}
	}
	return s
}

// idle is the resting session; admin privilege survives the reset.
func (s Session) idle() Session {
	return Session{State: StateIdle, IsAdmin: s.IsAdmin}
}
