package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fathima-sithara/messaging-service/internal/domain"
	"github.com/fathima-sithara/messaging-service/internal/utils"
)

type FollowStore interface {
	Insert(ctx context.Context, f *domain.Follow) error
	Delete(ctx context.Context, followerID, followingID string) error
	Exists(ctx context.Context, followerID, followingID string) (bool, error)
	Followers(ctx context.Context, userID string, page, limit int64) ([]*domain.Follow, error)
	Following(ctx context.Context, userID string, page, limit int64) ([]*domain.Follow, error)
	CountFollowers(ctx context.Context, userID string) (int64, error)
	CountFollowing(ctx context.Context, userID string) (int64, error)
}

type BlockStore interface {
	Upsert(ctx context.Context, blockerID, blockedID, reason string) error
	Delete(ctx context.Context, blockerID, blockedID string) error
	Exists(ctx context.Context, blockerID, blockedID string) (bool, error)
	List(ctx context.Context, blockerID string, page, limit int64) ([]*domain.BlockedUser, error)
}

// FollowService owns the follow and block edges consulted by the chat and
// message paths.
type FollowService struct {
	follows FollowStore
	blocks  BlockStore
	log     *zap.SugaredLogger
}

func NewFollowService(follows FollowStore, blocks BlockStore, log *zap.SugaredLogger) *FollowService {
	return &FollowService{follows: follows, blocks: blocks, log: log}
}

func (s *FollowService) Follow(ctx context.Context, followerID, followingID string) (*domain.Follow, error) {
	if followerID == followingID {
		return nil, fmt.Errorf("%w: cannot follow yourself", domain.ErrBadRequest)
	}

	blocked, err := s.blocks.Exists(ctx, followingID, followerID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, fmt.Errorf("%w: cannot follow this user", domain.ErrForbidden)
	}

	f := &domain.Follow{
		ID:          utils.NewID(),
		FollowerID:  followerID,
		FollowingID: followingID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.follows.Insert(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// Unfollow is idempotent: removing an edge that never existed succeeds.
func (s *FollowService) Unfollow(ctx context.Context, followerID, followingID string) error {
	return s.follows.Delete(ctx, followerID, followingID)
}

func (s *FollowService) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	return s.follows.Exists(ctx, followerID, followingID)
}

func (s *FollowService) Followers(ctx context.Context, userID string, page, limit int64) ([]*domain.Follow, error) {
	return s.follows.Followers(ctx, userID, page, limit)
}

func (s *FollowService) Following(ctx context.Context, userID string, page, limit int64) ([]*domain.Follow, error) {
	return s.follows.Following(ctx, userID, page, limit)
}

func (s *FollowService) Stats(ctx context.Context, userID string) (*domain.FollowStats, error) {
	followers, err := s.follows.CountFollowers(ctx, userID)
	if err != nil {
		return nil, err
	}
	following, err := s.follows.CountFollowing(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &domain.FollowStats{Followers: followers, Following: following}, nil
}

// Block records a block edge; blocking twice succeeds. Blocking does not
// require a prior follow relationship.
func (s *FollowService) Block(ctx context.Context, blockerID, blockedID, reason string) error {
	if blockerID == blockedID {
		return fmt.Errorf("%w: cannot block yourself", domain.ErrBadRequest)
	}
	if err := s.blocks.Upsert(ctx, blockerID, blockedID, reason); err != nil {
		return err
	}
	s.log.Infow("user blocked", "blocker_id", blockerID, "blocked_id", blockedID)
	return nil
}

// Unblock is idempotent.
func (s *FollowService) Unblock(ctx context.Context, blockerID, blockedID string) error {
	return s.blocks.Delete(ctx, blockerID, blockedID)
}

func (s *FollowService) IsBlocked(ctx context.Context, blockerID, blockedID string) (bool, error) {
	return s.blocks.Exists(ctx, blockerID, blockedID)
}

func (s *FollowService) BlockedUsers(ctx context.Context, userID string, page, limit int64) ([]*domain.BlockedUser, error) {
	return s.blocks.List(ctx, userID, page, limit)
}

// blockedEither reports whether a block edge exists in either direction
// between a and b. Chat creation and message sending both gate on this, so a
// block cuts the conversation off for both parties.
func blockedEither(ctx context.Context, blocks BlockStore, a, b string) (bool, error) {
	if blocked, err := blocks.Exists(ctx, a, b); err != nil || blocked {
		return blocked, err
	}
	return blocks.Exists(ctx, b, a)
}
