package redirect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"aula-lms/internal/domain"
	"aula-lms/internal/routes"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		flags    Flags
		wantDest string
		wantOK   bool
	}{
		{"loading", Flags{IsLoading: true}, "", false},
		{"loading_ignores_auth", Flags{IsLoading: true, IsAuthenticated: true, IsAdmin: true}, "", false},
		{"unauthenticated", Flags{}, routes.Login, true},
		{"admin", Flags{IsAuthenticated: true, IsAdmin: true}, routes.AdminDashboard, true},
		{"student", Flags{IsAuthenticated: true, IsStudent: true}, routes.StudentDashboard, true},
		{"admin_and_student", Flags{IsAuthenticated: true, IsAdmin: true, IsStudent: true}, routes.AdminDashboard, true},
		{"no_recognized_role", Flags{IsAuthenticated: true}, routes.Login, true},
		{"role_flags_without_auth", Flags{IsAdmin: true}, routes.Login, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest, ok := Decide(tt.flags)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantDest, dest)
		})
	}
}

func TestDecide_Deterministic(t *testing.T) {
	for _, loading := range []bool{false, true} {
		for _, auth := range []bool{false, true} {
			for _, admin := range []bool{false, true} {
				for _, student := range []bool{false, true} {
					f := Flags{IsLoading: loading, IsAuthenticated: auth, IsAdmin: admin, IsStudent: student}
					d1, ok1 := Decide(f)
					d2, ok2 := Decide(f)
					assert.Equal(t, d1, d2)
					assert.Equal(t, ok1, ok2)
				}
			}
		}
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, PhaseLoading, Classify(Flags{IsLoading: true}))
	assert.Equal(t, PhaseUnauthenticated, Classify(Flags{}))
	assert.Equal(t, PhaseAdmin, Classify(Flags{IsAuthenticated: true, IsAdmin: true}))
	assert.Equal(t, PhaseStudent, Classify(Flags{IsAuthenticated: true, IsStudent: true}))
	assert.Equal(t, PhaseRoleUnrecognized, Classify(Flags{IsAuthenticated: true}))
	assert.Equal(t, "role_unrecognized", PhaseRoleUnrecognized.String())
}

func TestGuard(t *testing.T) {
	admin := Flags{IsAuthenticated: true, IsAdmin: true}
	student := Flags{IsAuthenticated: true, IsStudent: true}

	tests := []struct {
		name     string
		required domain.Role
		flags    Flags
		want     Verdict
	}{
		{"loading_waits", domain.RoleAdmin, Flags{IsLoading: true}, Verdict{}},
		{"anonymous_to_login", domain.RoleStudent, Flags{}, Verdict{Redirect: routes.Login}},
		{"admin_allowed", domain.RoleAdmin, admin, Verdict{Allow: true}},
		{"student_on_admin_page", domain.RoleAdmin, student, Verdict{Redirect: routes.Unauthorized}},
		{"admin_on_student_page", domain.RoleStudent, admin, Verdict{Redirect: routes.Unauthorized}},
		{"student_allowed", domain.RoleStudent, student, Verdict{Allow: true}},
		{"any_authenticated", domain.RoleUnknown, Flags{IsAuthenticated: true}, Verdict{Allow: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Guard(tt.required, tt.flags))
		})
	}
}

func TestGuardPath(t *testing.T) {
	student := Flags{IsAuthenticated: true, IsStudent: true}

	assert.Equal(t, Verdict{Redirect: routes.Unauthorized}, GuardPath(routes.AdminUsers, student))
	assert.Equal(t, Verdict{Allow: true}, GuardPath(routes.StudentLesson("c", "l"), student))
	assert.Equal(t, Verdict{Allow: true}, GuardPath(routes.Login, Flags{}))
}
