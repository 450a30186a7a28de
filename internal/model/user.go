package model

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

type User struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	Role         Role   `json:"role"`
	PasswordHash string `json:"-"`
}

// Requester - уже проверенная личность, от имени которой выполняется запрос.
type Requester struct {
	ID   int64
	Role Role
}

func (r Requester) IsAdmin() bool { return r.Role == RoleAdmin }
