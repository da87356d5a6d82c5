package domain

import "time"

// Role names carried in the access token's roles claim.
const (
	RoleAuthor   = "author"
	RoleReviewer = "reviewer"
	RoleEditor   = "editor"
	RoleAdmin    = "admin"
)

type User struct {
	UserID           string     `json:"id" dynamodbav:"user_id"`
	Email            string     `json:"email" dynamodbav:"email"`
	FirstName        string     `json:"first_name" dynamodbav:"first_name"`
	LastName         string     `json:"last_name" dynamodbav:"last_name"`
	Affiliation      string     `json:"affiliation,omitempty" dynamodbav:"affiliation"`
	Roles            []string   `json:"roles" dynamodbav:"roles"`
	ProfileCompleted bool       `json:"profile_completed" dynamodbav:"profile_completed"`
	Enable           bool       `json:"enable" dynamodbav:"enable"`
	DeletedAt        *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
	CreatedAt        time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt        time.Time  `json:"updated" dynamodbav:"updated_at"`
}

// HasRole reports whether the user carries the given role name.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
