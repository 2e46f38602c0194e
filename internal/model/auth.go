package model

type Registration struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"fullName"`
	Role     Role   `json:"-"`
}

type Session struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	User         *User  `json:"user"`
}

type ProfilePatch struct {
	Name       string `json:"name"`
	Avatar     string `json:"avatar"`
	Department string `json:"department"`
	Position   string `json:"position"`
}

type UserPatch struct {
	Role     *Role `json:"role" validate:"omitempty,oneof=admin manager tester viewer"`
	IsActive *bool `json:"isActive"`
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   string
	Role Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
