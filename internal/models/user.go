package models

// UserRole represents the roles issued by the platform.
type UserRole string

const (
	RoleAdmin    UserRole = "ADMIN"
	RoleTeacher  UserRole = "PROFESSOR"
	RoleGuardian UserRole = "RESPONSAVEL"
)
