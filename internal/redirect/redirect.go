// Package redirect decides where a client belongs given its session and
// drives navigation as the session changes.
package redirect

import (
	"aula-lms/internal/domain"
	"aula-lms/internal/routes"
	"aula-lms/internal/session"
)

// Flags are the session facts routing depends on.
type Flags struct {
	IsLoading       bool
	IsAuthenticated bool
	IsAdmin         bool
	IsStudent       bool
}

// FlagsFrom projects a session state onto Flags
func FlagsFrom(st session.State) Flags {
	return Flags{
		IsLoading:       st.Loading,
		IsAuthenticated: st.IsAuthenticated(),
		IsAdmin:         st.IsAdmin(),
		IsStudent:       st.IsStudent(),
	}
}

type Phase int

const (
	PhaseLoading Phase = iota
	PhaseUnauthenticated
	PhaseAdmin
	PhaseStudent
	PhaseRoleUnrecognized
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseUnauthenticated:
		return "unauthenticated"
	case PhaseAdmin:
		return "admin"
	case PhaseStudent:
		return "student"
	case PhaseRoleUnrecognized:
		return "role_unrecognized"
	default:
		return "unknown"
	}
}

// Classify maps flags onto a phase. Admin takes precedence when a user holds
// both roles.
func Classify(f Flags) Phase {
	switch {
	case f.IsLoading:
		return PhaseLoading
	case !f.IsAuthenticated:
		return PhaseUnauthenticated
	case f.IsAdmin:
		return PhaseAdmin
	case f.IsStudent:
		return PhaseStudent
	default:
		return PhaseRoleUnrecognized
	}
}

// Decide returns the destination for f. ok is false while loading, meaning
// no navigation must happen yet.
func Decide(f Flags) (dest string, ok bool) {
	switch Classify(f) {
	case PhaseLoading:
		return "", false
	case PhaseAdmin:
		return routes.AdminDashboard, true
	case PhaseStudent:
		return routes.StudentDashboard, true
	default:
		return routes.Login, true
	}
}

// Verdict is the outcome of a route guard. Redirect is empty when Allow is
// set or while the session is still loading.
type Verdict struct {
	Allow    bool
	Redirect string
}

// Guard checks access to a page requiring role. RoleUnknown requires only
// authentication.
func Guard(required domain.Role, f Flags) Verdict {
	if f.IsLoading {
		return Verdict{}
	}
	if !f.IsAuthenticated {
		return Verdict{Redirect: routes.Login}
	}

	switch required {
	case domain.RoleUnknown:
		return Verdict{Allow: true}
	case domain.RoleAdmin:
		if f.IsAdmin {
			return Verdict{Allow: true}
		}
	case domain.RoleStudent:
		if f.IsStudent {
			return Verdict{Allow: true}
		}
	}
	return Verdict{Redirect: routes.Unauthorized}
}

// GuardPath applies Guard with the role the path's section requires. Paths
// outside the admin and student areas are public.
func GuardPath(path string, f Flags) Verdict {
	switch {
	case routes.IsAdmin(path):
		return Guard(domain.RoleAdmin, f)
	case routes.IsStudent(path):
		return Guard(domain.RoleStudent, f)
	default:
		return Verdict{Allow: true}
	}
}
