package messaging

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clubswap/clubswap-backend/pkg/db/models"
	pkgerrors "github.com/clubswap/clubswap-backend/pkg/errors"
)

const maxBodyLength = 2000

// SendMessageRequest is the payload for posting a message.
type SendMessageRequest struct {
	RecipientID uuid.UUID  `json:"recipient_id" validate:"required"`
	ProductID   *uuid.UUID `json:"product_id,omitempty"`
	Body        string     `json:"body" validate:"required"`
}

// MessageDTO is the message shape returned to clients.
type MessageDTO struct {
	ID          uuid.UUID  `json:"id"`
	ProductID   *uuid.UUID `json:"product_id,omitempty"`
	SenderID    uuid.UUID  `json:"sender_id"`
	RecipientID uuid.UUID  `json:"recipient_id"`
	Body        string     `json:"body"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func fromModel(m *models.Message) *MessageDTO {
	return &MessageDTO{
		ID:          m.ID,
		ProductID:   m.ProductID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Body:        m.Body,
		ReadAt:      m.ReadAt,
		CreatedAt:   m.CreatedAt,
	}
}

// Repository wires together message persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a message row.
func (r *Repository) Create(ctx context.Context, message *models.Message) error {
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(message).Error
}

// ListConversation returns the thread between two users, oldest first.
func (r *Repository) ListConversation(ctx context.Context, a, b uuid.UUID) ([]models.Message, error) {
	var rows []models.Message
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)", a, b, b, a).
		Order("created_at ASC").
		Find(&rows).
		Error
	return rows, err
}

// ListInbox returns messages addressed to the user, newest first.
func (r *Repository) ListInbox(ctx context.Context, userID uuid.UUID) ([]models.Message, error) {
	var rows []models.Message
	err := r.db.WithContext(ctx).
		Where("recipient_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).
		Error
	return rows, err
}

// MarkRead stamps the message as read, recipient only.
func (r *Repository) MarkRead(ctx context.Context, messageID, recipientID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("id = ? AND recipient_id = ? AND read_at IS NULL", messageID, recipientID).
		Update("read_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Service exposes buyer/seller conversation operations.
type Service interface {
	Send(ctx context.Context, senderID uuid.UUID, req SendMessageRequest) (*MessageDTO, error)
	Conversation(ctx context.Context, userID, otherID uuid.UUID) ([]MessageDTO, error)
	Inbox(ctx context.Context, userID uuid.UUID) ([]MessageDTO, error)
	MarkRead(ctx context.Context, userID, messageID uuid.UUID) error
}

type service struct {
	repo *Repository
}

// NewService constructs a messaging service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("messaging repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Send(ctx context.Context, senderID uuid.UUID, req SendMessageRequest) (*MessageDTO, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message body is required")
	}
	if len([]rune(body)) > maxBodyLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message body is too long")
	}
	if req.RecipientID == senderID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot message yourself")
	}

	message := &models.Message{
		ProductID:   req.ProductID,
		SenderID:    senderID,
		RecipientID: req.RecipientID,
		Body:        body,
	}
	if err := s.repo.Create(ctx, message); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "send message")
	}
	return fromModel(message), nil
}

func (s *service) Conversation(ctx context.Context, userID, otherID uuid.UUID) ([]MessageDTO, error) {
	rows, err := s.repo.ListConversation(ctx, userID, otherID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list conversation")
	}
	return mapMessages(rows), nil
}

func (s *service) Inbox(ctx context.Context, userID uuid.UUID) ([]MessageDTO, error) {
	rows, err := s.repo.ListInbox(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list inbox")
	}
	return mapMessages(rows), nil
}

func (s *service) MarkRead(ctx context.Context, userID, messageID uuid.UUID) error {
	ok, err := s.repo.MarkRead(ctx, messageID, userID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark message read")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "message not found")
	}
	return nil
}

func mapMessages(rows []models.Message) []MessageDTO {
	out := make([]MessageDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *fromModel(&rows[i]))
	}
	return out
}
