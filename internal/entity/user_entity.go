package entity

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleClient   UserRole = "CLIENT"
	UserRoleAdvisor  UserRole = "ADVISOR"
	UserRoleDirector UserRole = "DIRECTOR"
)

// User is owned by the user directory; the chat core only reads it.
type User struct {
	Id        uuid.UUID
	Email     string
	FullName  string
	Role      UserRole
	AdvisorId *uuid.UUID // for clients: the advisor managing their accounts
	CreatedAt time.Time
	UpdatedAt *time.Time
}
