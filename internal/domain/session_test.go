package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userWithRoles(roles ...Role) *User {
	u := &User{ID: "user-1", Email: "ana@example.com", FirstName: "Ana"}
	for _, r := range roles {
		u.Roles = append(u.Roles, UserRole{Name: r})
	}
	return u
}

func TestSession_IsAuthenticated(t *testing.T) {
	tests := []struct {
		name     string
		session  Session
		expected bool
	}{
		{"token and user", Session{Token: "tok", User: userWithRoles(RoleStudent)}, true},
		{"token and user without roles", Session{Token: "tok", User: userWithRoles()}, true},
		{"token only", Session{Token: "tok"}, false},
		{"user only", Session{User: userWithRoles(RoleAdmin)}, false},
		{"empty", Session{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.session.IsAuthenticated(); got != tt.expected {
				t.Errorf("IsAuthenticated() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSession_RoleProjections(t *testing.T) {
	tests := []struct {
		name      string
		user      *User
		isAdmin   bool
		isStudent bool
	}{
		{"admin", userWithRoles(RoleAdmin), true, false},
		{"student", userWithRoles(RoleStudent), false, true},
		{"both", userWithRoles(RoleStudent, RoleAdmin), true, true},
		{"unrecognized only", userWithRoles(RoleUnknown), false, false},
		{"no roles", userWithRoles(), false, false},
		{"nil user", nil, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Session{Token: "tok", User: tt.user}
			assert.Equal(t, tt.isAdmin, s.IsAdmin())
			assert.Equal(t, tt.isStudent, s.IsStudent())
		})
	}
}

func TestRole_JSON(t *testing.T) {
	var u User
	payload := `{"id":"u1","email":"a@b.co","roles":[{"id":"r1","name":"ADMIN"},{"id":"r2","name":"INSTRUCTOR"},{"name":"student"}]}`
	require.NoError(t, json.Unmarshal([]byte(payload), &u))

	require.Len(t, u.Roles, 3)
	assert.Equal(t, RoleAdmin, u.Roles[0].Name)
	assert.Equal(t, RoleUnknown, u.Roles[1].Name)
	assert.Equal(t, RoleStudent, u.Roles[2].Name)

	out, err := json.Marshal(UserRole{Name: RoleStudent})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"STUDENT"}`, string(out))
}

func TestUserRole_UnrecognizedNameSurvivesRoundTrip(t *testing.T) {
	payload := `{"id":"u1","email":"a@b.co","roles":[{"id":"r1","name":"INSTRUCTOR"},{"id":"r2","name":"ADMIN"}]}`

	var u User
	require.NoError(t, json.Unmarshal([]byte(payload), &u))
	assert.Equal(t, RoleUnknown, u.Roles[0].Name)
	assert.Equal(t, "INSTRUCTOR", u.Roles[0].RawName())
	assert.Equal(t, "ADMIN", u.Roles[1].RawName())

	out, err := json.Marshal(u.Roles)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"r1","name":"INSTRUCTOR"},{"id":"r2","name":"ADMIN"}]`, string(out))

	var again User
	require.NoError(t, json.Unmarshal([]byte(payload), &again))
	assert.Equal(t, u, again)
	assert.False(t, again.HasRole(RoleUnknown))
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, ParseRole("ADMIN"))
	assert.Equal(t, RoleAdmin, ParseRole(" admin "))
	assert.Equal(t, RoleStudent, ParseRole("STUDENT"))
	assert.Equal(t, RoleUnknown, ParseRole("INSTRUCTOR"))
	assert.Equal(t, RoleUnknown, ParseRole(""))
	assert.Equal(t, "UNKNOWN", RoleUnknown.String())
}

func TestUser_HasRoleUnknownNeverMatches(t *testing.T) {
	u := userWithRoles(RoleUnknown)
	assert.False(t, u.HasRole(RoleUnknown))
}

func TestUser_FullName(t *testing.T) {
	assert.Equal(t, "Ana", (&User{FirstName: "Ana"}).FullName())
	assert.Equal(t, "Ana Diaz", (&User{FirstName: "Ana", LastName: "Diaz"}).FullName())
}
