package session

import (
	"strings"

	"github.com/fastygo/rozklad/domain"
	"github.com/fastygo/rozklad/pkg/validate"
)

// ActionKind enumerates the mutations a session accepts.
type ActionKind int

const (
	ActionSetAuth ActionKind = iota + 1
	ActionLogout
	ActionHydrated
)

func (k ActionKind) String() string {
	switch k {
	case ActionSetAuth:
		return "set_auth"
	case ActionLogout:
		return "logout"
	case ActionHydrated:
		return "hydrated"
	default:
		return "unknown"
	}
}

// Action is a single mutation. User and Token are read only by ActionSetAuth.
type Action struct {
	Kind  ActionKind
	User  *domain.User
	Token string
}

func SetAuth(user *domain.User, token string) Action {
	return Action{Kind: ActionSetAuth, User: user, Token: token}
}

func Logout() Action {
	return Action{Kind: ActionLogout}
}

func Hydrated() Action {
	return Action{Kind: ActionHydrated}
}

// Reduce computes the next state without side effects. On error the previous state is
// returned unchanged, so a session never holds a user without a token or vice versa.
func Reduce(state domain.Session, action Action) (domain.Session, error) {
	switch action.Kind {
	case ActionSetAuth:
		if action.User == nil || strings.TrimSpace(action.Token) == "" {
			return state, domain.ErrInvalidCredentials
		}
		if err := validate.Struct(action.User); err != nil {
			return state, err
		}
		u := *action.User
		if action.User.InstitutionID != nil {
			id := *action.User.InstitutionID
			u.InstitutionID = &id
		}
		return domain.Session{User: &u, Token: action.Token, Hydrated: state.Hydrated}, nil

	case ActionLogout:
		return domain.Session{Hydrated: state.Hydrated}, nil

	case ActionHydrated:
		state.Hydrated = true
		return state, nil

	default:
		return state, domain.ErrInvalidPayload
	}
}
