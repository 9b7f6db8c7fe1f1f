package models

type Role string

const (
	RoleAssistant Role = "assistant"
	RoleStaff     Role = "staff"
	RoleOrganizer Role = "organizer"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAssistant, RoleStaff, RoleOrganizer:
		return true
	}
	return false
}
