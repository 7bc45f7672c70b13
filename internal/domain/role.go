package domain

import (
	"encoding/json"
	"strings"
)

// Role is a named capability grouping. The set is closed: anything the
// backend sends that is not listed here decodes to RoleUnknown.
type Role int

const (
	RoleUnknown Role = iota
	RoleAdmin
	RoleStudent
)

var roleNames = map[Role]string{
	RoleAdmin:   "ADMIN",
	RoleStudent: "STUDENT",
}

// AllRoles lists every recognized role.
var AllRoles = []Role{RoleAdmin, RoleStudent}

// ParseRole maps a backend role name onto the closed set.
func ParseRole(name string) Role {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "ADMIN":
		return RoleAdmin
	case "STUDENT":
		return RoleStudent
	default:
		return RoleUnknown
	}
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "UNKNOWN"
}

// MarshalJSON writes the role as its backend name.
func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON never fails on unrecognized names.
func (r *Role) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	*r = ParseRole(name)
	return nil
}

// UserRole is the role assignment as the backend returns it. An
// unrecognized name decodes to RoleUnknown and is written back unchanged.
type UserRole struct {
	ID   string
	Name Role

	unknownName string
}

type userRoleJSON struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// RawName returns the role name as the backend sent it.
func (ur UserRole) RawName() string {
	if ur.Name == RoleUnknown && ur.unknownName != "" {
		return ur.unknownName
	}
	return ur.Name.String()
}

func (ur UserRole) MarshalJSON() ([]byte, error) {
	return json.Marshal(userRoleJSON{ID: ur.ID, Name: ur.RawName()})
}

func (ur *UserRole) UnmarshalJSON(data []byte) error {
	var v userRoleJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*ur = UserRole{ID: v.ID, Name: ParseRole(v.Name)}
	if ur.Name == RoleUnknown {
		ur.unknownName = v.Name
	}
	return nil
}
