package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mentorweb/mentorweb_backend/internal/model"
	"github.com/mentorweb/mentorweb_backend/pkg/authorize"
	"github.com/mentorweb/mentorweb_backend/pkg/password"
)

const minPasswordLen = 8

type CreateRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      model.Role
}

type UpdateProfileRequest struct {
	FirstName   *string
	LastName    *string
	Pronouns    *string
	About       *string
	LinkedinURL *string
	MeetingURL  *string
	DiscordID   *string
}

// QuotaSettings mirrors model.MeetingQuota for the configuration path.
// Nil means unlimited.
type QuotaSettings struct {
	MaxDaily   *int `json:"max_daily"`
	MaxWeekly  *int `json:"max_weekly"`
	MaxMonthly *int `json:"max_monthly"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*model.User, error)

	// GetQuota returns the mentor's caps; a mentor without a row has all
	// caps unlimited.
	GetQuota(ctx context.Context, mentorID uuid.UUID) (*QuotaSettings, error)
	// SetQuota upserts the mentor's caps. This is the only write path for
	// quota configuration; the booking path reads it.
	SetQuota(ctx context.Context, mentorID uuid.UUID, settings QuotaSettings) error
}

type userService struct {
	db    *gorm.DB
	authz authorize.IAuthorization
}

func New(db *gorm.DB, authz authorize.IAuthorization) Service {
	return &userService{db: db, authz: authz}
}

func (s *userService) Create(ctx context.Context, req CreateRequest) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	if len(req.Password) < minPasswordLen {
		return nil, ErrWeakPassword
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         req.Role,
		Status:       model.UserActive,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if n > 0 {
			return ErrEmailTaken
		}
		if err := tx.Create(u).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.authz != nil {
		if _, err := s.authz.AddRoleForUser(ctx, u.ID.String(), authorize.Role(u.Role)); err != nil {
			return nil, fmt.Errorf("grant role: %w", err)
		}
	}
	return u, nil
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*model.User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	set := func(column string, v *string) {
		if v != nil {
			updates[column] = strings.TrimSpace(*v)
		}
	}
	set("first_name", req.FirstName)
	set("last_name", req.LastName)
	set("pronouns", req.Pronouns)
	set("about", req.About)
	set("linkedin_url", req.LinkedinURL)
	set("meeting_url", req.MeetingURL)
	set("discord_id", req.DiscordID)

	if len(updates) == 0 {
		return u, nil
	}
	if err := s.db.WithContext(ctx).Model(u).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *userService) GetQuota(ctx context.Context, mentorID uuid.UUID) (*QuotaSettings, error) {
	if _, err := s.requireMentor(ctx, mentorID); err != nil {
		return nil, err
	}

	var q model.MeetingQuota
	err := s.db.WithContext(ctx).Where("mentor_id = ?", mentorID).First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &QuotaSettings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get quota: %w", err)
	}
	return &QuotaSettings{MaxDaily: q.MaxDaily, MaxWeekly: q.MaxWeekly, MaxMonthly: q.MaxMonthly}, nil
}

func (s *userService) SetQuota(ctx context.Context, mentorID uuid.UUID, settings QuotaSettings) error {
	if _, err := s.requireMentor(ctx, mentorID); err != nil {
		return err
	}
	for _, c := range []*int{settings.MaxDaily, settings.MaxWeekly, settings.MaxMonthly} {
		if c != nil && *c < 1 {
			return ErrInvalidCaps
		}
	}

	var q model.MeetingQuota
	err := s.db.WithContext(ctx).Where("mentor_id = ?", mentorID).First(&q).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		q = model.MeetingQuota{
			MentorID:   mentorID,
			MaxDaily:   settings.MaxDaily,
			MaxWeekly:  settings.MaxWeekly,
			MaxMonthly: settings.MaxMonthly,
		}
		if err := s.db.WithContext(ctx).Create(&q).Error; err != nil {
			return fmt.Errorf("create quota: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("load quota: %w", err)
	}

	err = s.db.WithContext(ctx).Model(&q).Updates(map[string]any{
		"max_daily":   settings.MaxDaily,
		"max_weekly":  settings.MaxWeekly,
		"max_monthly": settings.MaxMonthly,
	}).Error
	if err != nil {
		return fmt.Errorf("update quota: %w", err)
	}
	return nil
}

func (s *userService) requireMentor(ctx context.Context, mentorID uuid.UUID) (*model.User, error) {
	u, err := s.GetByID(ctx, mentorID)
	if err != nil {
		return nil, err
	}
	if u.Role != model.RoleMentor {
		return nil, ErrNotMentor
	}
	return u, nil
}
