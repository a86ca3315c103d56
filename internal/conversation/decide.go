package conversation

import (
	"crypto/subtle"
	"strings"
	"unicode/utf8"

	"github.com/Pleso100/Kolgidrat/internal/catalog"
)

// MinQueryLen is the shortest search query, in runes, that reaches the catalog.
const MinQueryLen = 2

// OpKind is the catalog operation a decision asks for.
type OpKind int

const (
	OpNone OpKind = iota
	OpSearch
	OpInsert
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpSearch:
		return "search"
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	}
	return "none"
}

// Op describes one catalog call. Query, Product and Name are used by
// OpSearch, OpInsert and OpDelete respectively.
type Op struct {
	Kind    OpKind
	Query   string
	Product catalog.Product
	Name    string
}

// Decision is the outcome of a transition before any catalog call.
// The result of Op, when present, is rendered after Replies.
type Decision struct {
	Next    Session
	Replies []Reply
	Op      Op
}

// Rules carries the configuration a transition depends on.
type Rules struct {
	// Password grants admin access. Empty disables admin access.
	Password string
}

func (r Rules) isPassword(text string) bool {
	if r.Password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(text)), []byte(r.Password)) == 1
}

// Decide computes the next session, the replies, and the catalog operation
// for ev. It does not touch s.
func Decide(s Session, ev Event, rules Rules) Decision {
	s = s.normalized()

	if ev.Kind == EventText {
		if name, _, ok := parseCommand(ev.Text); ok && name == CommandStart {
			return Decision{Next: s.idle(), Replies: []Reply{plain(textGreeting)}}
		}
	}

	if ev.Kind == EventButton {
		return decideButton(s, ev.Callback)
	}

	switch s.State {
	case StateIdle:
		return decideIdleText(s, ev.Text, rules)
	case StateAdminMenu:
		if name, args, ok := parseCommand(ev.Text); ok && name == CommandSearch {
			return search(s, args)
		}
		return stay(s, adminMenu(textChooseAction))
	case StateAwaitingAddName:
		name := catalog.NormalizeName(ev.Text)
		if name == "" {
			return stay(s, withCancel(textPromptName))
		}
		next := s
		next.State = StateAwaitingAddCarbs
		next.Pending = PendingProduct{Name: &name}
		return Decision{Next: next, Replies: []Reply{withCancel(textPromptCarbs)}}
	case StateAwaitingAddCarbs:
		if s.Pending.Name == nil {
			return Decision{Next: s.idle(), Replies: []Reply{plain(textFailure)}}
		}
		v, ok := ParseAmount(ev.Text)
		if !ok {
			return stay(s, withCancel(textInvalidNumber))
		}
		next := s
		next.State = StateAwaitingAddBreadUnits
		next.Pending = PendingProduct{Name: s.Pending.Name, Carbs: &v}
		return Decision{Next: next, Replies: []Reply{withCancel(textPromptBU)}}
	case StateAwaitingAddBreadUnits:
		if s.Pending.Name == nil || s.Pending.Carbs == nil {
			return Decision{Next: s.idle(), Replies: []Reply{plain(textFailure)}}
		}
		v, ok := ParseAmount(ev.Text)
		if !ok {
			return stay(s, withCancel(textInvalidNumber))
		}
		return Decision{
			Next: s.idle(),
			Op: Op{Kind: OpInsert, Product: catalog.Product{
				Name:       *s.Pending.Name,
				Carbs:      *s.Pending.Carbs,
				BreadUnits: v,
			}},
		}
	case StateAwaitingRemoveName:
		name := catalog.NormalizeName(ev.Text)
		if name == "" {
			return stay(s, withCancel(textPromptRemove))
		}
		return Decision{Next: s.idle(), Op: Op{Kind: OpDelete, Name: name}}
	}
	return stay(s, plain(textChooseAction))
}

func decideIdleText(s Session, text string, rules Rules) Decision {
	if name, args, ok := parseCommand(text); ok {
		switch name {
		case CommandSearch:
			return search(s, args)
		case CommandAdmin:
			if !s.IsAdmin {
				return stay(s, plain(textAdminHint))
			}
			next := s
			next.State = StateAdminMenu
			return Decision{Next: next, Replies: []Reply{adminMenu(textChooseAction)}}
		}
	}
	if rules.isPassword(text) {
		next := s
		next.State = StateAdminMenu
		next.IsAdmin = true
		return Decision{Next: next, Replies: []Reply{adminMenu(textAdminGranted)}}
	}
	return search(s, text)
}

func decideButton(s Session, callback string) Decision {
	switch s.State {
	case StateAdminMenu:
		switch callback {
		case CallbackAddProduct:
			next := s
			next.State = StateAwaitingAddName
			return Decision{Next: next, Replies: []Reply{withCancel(textPromptName)}}
		case CallbackRemoveProduct:
			next := s
			next.State = StateAwaitingRemoveName
			return Decision{Next: next, Replies: []Reply{withCancel(textPromptRemove)}}
		case CallbackCancel:
			return Decision{Next: s.idle(), Replies: []Reply{plain(textCancelled)}}
		case CallbackAdmin:
			return stay(s, adminMenu(textChooseAction))
		}
	case StateIdle:
		if callback == CallbackAdmin && s.IsAdmin {
			next := s
			next.State = StateAdminMenu
			return Decision{Next: next, Replies: []Reply{adminMenu(textChooseAction)}}
		}
	case StateAwaitingAddName, StateAwaitingAddCarbs, StateAwaitingAddBreadUnits, StateAwaitingRemoveName:
		if callback == CallbackCancel {
			return Decision{Next: s.idle(), Replies: []Reply{plain(textCancelled)}}
		}
	}
	return stay(s, plain(textChooseAction))
}

func search(s Session, query string) Decision {
	q := catalog.NormalizeName(query)
	if utf8.RuneCountInString(q) < MinQueryLen {
		return stay(s, plain(textTooShort))
	}
	return Decision{Next: s, Op: Op{Kind: OpSearch, Query: q}}
}

func stay(s Session, r Reply) Decision {
	return Decision{Next: s, Replies: []Reply{r}}
}
