package model

import (
	"strings"

	"github.com/google/uuid"
)

// Role determines what a user may do: mentors publish availability and are
// bound by quota caps, students consume availability, admins manage both.
type Role string

const (
	RoleStudent Role = "student"
	RoleMentor  Role = "mentor"
	RoleAdmin   Role = "admin"
)

type UserStatus string

const (
	UserPending  UserStatus = "pending"
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
)

type User struct {
	Base

	Email        string     `gorm:"size:150;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"size:255" json:"-"`
	FirstName    string     `gorm:"size:150" json:"first_name"`
	LastName     string     `gorm:"size:150" json:"last_name"`
	Pronouns     string     `gorm:"size:150" json:"pronouns,omitempty"`
	Role         Role       `gorm:"size:20;not null;index" json:"role"`
	Status       UserStatus `gorm:"size:20;not null;default:pending" json:"status"`

	About       string `gorm:"type:text" json:"about,omitempty"`
	LinkedinURL string `gorm:"size:255" json:"linkedin_url,omitempty"`
	MeetingURL  string `gorm:"size:255" json:"meeting_url,omitempty"`
	DiscordID   string `gorm:"size:255" json:"discord_id,omitempty"`
}

func (User) TableName() string { return "users" }

func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// MeetingQuota holds a mentor's optional booking caps. Nil means unlimited.
// Written only on the configuration path; the booking path reads it.
type MeetingQuota struct {
	Base

	MentorID   uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"mentor_id"`
	MaxDaily   *int      `json:"max_daily"`
	MaxWeekly  *int      `json:"max_weekly"`
	MaxMonthly *int      `json:"max_monthly"`
}

func (MeetingQuota) TableName() string { return "meeting_quotas" }
