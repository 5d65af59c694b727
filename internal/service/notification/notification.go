package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mentorweb/mentorweb_backend/internal/model"
)

var ErrNotFound = errors.New("notification not found")

type CreateRequest struct {
	UserID uuid.UUID
	Type   string
	Title  string
	Data   map[string]any
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*model.Notification, error)
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, perPage int) ([]*model.Notification, error)
	MarkRead(ctx context.Context, notifID, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

type notificationService struct {
	db *gorm.DB
}

func New(db *gorm.DB) Service {
	return &notificationService{db: db}
}

func (s *notificationService) Create(ctx context.Context, req CreateRequest) (*model.Notification, error) {
	n := &model.Notification{
		UserID: req.UserID,
		Type:   req.Type,
		Title:  req.Title,
	}
	if req.Data != nil {
		raw, err := json.Marshal(req.Data)
		if err != nil {
			return nil, fmt.Errorf("encode notification data: %w", err)
		}
		n.Data = string(raw)
	}

	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	return n, nil
}

func (s *notificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, perPage int) ([]*model.Notification, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	offset := (page - 1) * perPage

	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}

	var notifs []*model.Notification
	if err := q.Order("created_at desc").Offset(offset).Limit(perPage).Find(&notifs).Error; err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifs, nil
}

func (s *notificationService) MarkRead(ctx context.Context, notifID, userID uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", notifID, userID).
		Update("read_at", time.Now().UTC())
	if res.Error != nil {
		return fmt.Errorf("mark notification read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Either missing or already read; distinguish for the caller.
		var n int64
		if err := s.db.WithContext(ctx).Model(&model.Notification{}).
			Where("id = ? AND user_id = ?", notifID, userID).Count(&n).Error; err != nil {
			return fmt.Errorf("mark notification read: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	err := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", time.Now().UTC()).Error
	if err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}
