package routes

import (
	"fmt"

	"github.com/rechargex-dev/rechargex/internal/cli/auth"
)

// State is the part of the session the guard looks at
type State struct {
	Loading  bool
	HasToken bool
	Role     auth.Role
}

// Outcome of a guard decision
type Outcome int

const (
	// Wait means the session is still rehydrating; show a placeholder
	Wait Outcome = iota
	Render
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Wait:
		return "wait"
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Decision is the guard's verdict for one navigation attempt.
// From is set only when redirecting to login, so the caller can return to
// the requested location after authenticating.
type Decision struct {
	Outcome Outcome
	To      string
	From    string
}

// Decide gates navigation to requested. It is a pure function of the
// session state and the route's access requirement.
func Decide(s State, requested Route) Decision {
	if requested.Access == Public {
		return Decision{Outcome: Render, To: requested.Path}
	}
	if s.Loading {
		return Decision{Outcome: Wait}
	}
	if !s.HasToken {
		return Decision{Outcome: Redirect, To: Login, From: requested.Path}
	}

	var required auth.Role
	switch requested.Access {
	case UserOnly:
		required = auth.RoleUser
	case AdminOnly:
		required = auth.RoleAdmin
	}

	switch s.Role {
	case required:
		return Decision{Outcome: Render, To: requested.Path}
	case auth.RoleUser, auth.RoleAdmin:
		return Decision{Outcome: Redirect, To: s.Role.Home()}
	default:
		// A token without a known role cannot be trusted for any protected view
		return Decision{Outcome: Redirect, To: Login, From: requested.Path}
	}
}
