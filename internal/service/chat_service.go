package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fathima-sithara/messaging-service/internal/domain"
	"github.com/fathima-sithara/messaging-service/internal/utils"
)

type ChatStore interface {
	FindByID(ctx context.Context, id string) (*domain.Chat, error)
	FindByPair(ctx context.Context, a, b string) (*domain.Chat, error)
	Insert(ctx context.Context, c *domain.Chat) error
	FindUserChats(ctx context.Context, userID string) ([]*domain.Chat, error)
	Deactivate(ctx context.Context, id string) error
	ApplySend(ctx context.Context, chatID, messageID, receiverID string, at time.Time) error
	SetUnread(ctx context.Context, chatID, userID string, n int64) error
}

// ChatService owns the 1:1 chat directory: creation behind the relationship
// and moderation gates, listing, and soft deletion.
type ChatService struct {
	chats   ChatStore
	follows FollowStore
	blocks  BlockStore
	log     *zap.SugaredLogger
}

func NewChatService(chats ChatStore, follows FollowStore, blocks BlockStore, log *zap.SugaredLogger) *ChatService {
	return &ChatService{chats: chats, follows: follows, blocks: blocks, log: log}
}

// CreateOrGet returns the chat for the unordered pair (requester, other),
// creating it if absent. Creation requires the requester to follow the other
// user and no block edge in either direction. The call is idempotent: for an
// existing pair it returns the existing chat regardless of argument order.
func (s *ChatService) CreateOrGet(ctx context.Context, requesterID, otherID string) (*domain.Chat, error) {
	if requesterID == otherID {
		return nil, fmt.Errorf("%w: cannot chat with yourself", domain.ErrBadRequest)
	}
	if otherID == "" {
		return nil, fmt.Errorf("%w: participant required", domain.ErrBadRequest)
	}

	following, err := s.follows.Exists(ctx, requesterID, otherID)
	if err != nil {
		return nil, err
	}
	if !following {
		return nil, fmt.Errorf("%w: you can only chat with users you follow", domain.ErrForbidden)
	}

	blocked, err := blockedEither(ctx, s.blocks, requesterID, otherID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, fmt.Errorf("%w: cannot create chat with this user", domain.ErrForbidden)
	}

	if c, err := s.chats.FindByPair(ctx, requesterID, otherID); err == nil {
		return c, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	c := &domain.Chat{
		ID:           utils.NewID(),
		Participants: []string{requesterID, otherID},
		UnreadCount:  map[string]int64{},
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.chats.Insert(ctx, c); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// lost the creation race; the winner's chat is the chat
			return s.chats.FindByPair(ctx, requesterID, otherID)
		}
		return nil, err
	}
	s.log.Infow("chat created", "chat_id", c.ID, "participants", c.Participants)
	return c, nil
}

// ListUserChats returns the user's active chats, most recent message first.
func (s *ChatService) ListUserChats(ctx context.Context, userID string) ([]*domain.Chat, error) {
	return s.chats.FindUserChats(ctx, userID)
}

func (s *ChatService) GetByID(ctx context.Context, chatID, userID string) (*domain.Chat, error) {
	c, err := s.chats.FindByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !c.HasParticipant(userID) {
		return nil, fmt.Errorf("%w: not a participant", domain.ErrForbidden)
	}
	return c, nil
}

// Deactivate soft-deletes the chat. Messages are untouched.
func (s *ChatService) Deactivate(ctx context.Context, chatID, userID string) error {
	if _, err := s.GetByID(ctx, chatID, userID); err != nil {
		return err
	}
	return s.chats.Deactivate(ctx, chatID)
}

// PotentialChats lists users the caller follows but has no active chat with.
func (s *ChatService) PotentialChats(ctx context.Context, userID string, page, limit int64) ([]string, error) {
	following, err := s.follows.Following(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}
	chats, err := s.chats.FindUserChats(ctx, userID)
	if err != nil {
		return nil, err
	}

	inChat := map[string]bool{}
	for _, c := range chats {
		if other := c.OtherParticipant(userID); other != "" {
			inChat[other] = true
		}
	}

	out := []string{}
	for _, f := range following {
		if !inChat[f.FollowingID] {
			out = append(out, f.FollowingID)
		}
	}
	return out, nil
}
