package service

// In-memory store fakes used by the service tests. They mirror the mongo
// repositories' contracts, including the conflict behavior of the unique
// indexes.

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fathima-sithara/messaging-service/internal/domain"
	"github.com/fathima-sithara/messaging-service/internal/utils"
)

type memFollows struct {
	mu    sync.Mutex
	edges map[string]*domain.Follow
}

func newMemFollows() *memFollows { return &memFollows{edges: map[string]*domain.Follow{}} }

func followKey(a, b string) string { return a + "|" + b }

func (m *memFollows) Insert(_ context.Context, f *domain.Follow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := followKey(f.FollowerID, f.FollowingID)
	if _, ok := m.edges[k]; ok {
		return fmt.Errorf("%w: already following", domain.ErrConflict)
	}
	m.edges[k] = f
	return nil
}

func (m *memFollows) Delete(_ context.Context, followerID, followingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.edges, followKey(followerID, followingID))
	return nil
}

func (m *memFollows) Exists(_ context.Context, followerID, followingID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.edges[followKey(followerID, followingID)]
	return ok, nil
}

func (m *memFollows) Followers(_ context.Context, userID string, _, _ int64) ([]*domain.Follow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Follow{}
	for _, f := range m.edges {
		if f.FollowingID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memFollows) Following(_ context.Context, userID string, _, _ int64) ([]*domain.Follow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Follow{}
	for _, f := range m.edges {
		if f.FollowerID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memFollows) CountFollowers(ctx context.Context, userID string) (int64, error) {
	fs, _ := m.Followers(ctx, userID, 1, 0)
	return int64(len(fs)), nil
}

func (m *memFollows) CountFollowing(ctx context.Context, userID string) (int64, error) {
	fs, _ := m.Following(ctx, userID, 1, 0)
	return int64(len(fs)), nil
}

type memBlocks struct {
	mu    sync.Mutex
	edges map[string]*domain.BlockedUser
}

func newMemBlocks() *memBlocks { return &memBlocks{edges: map[string]*domain.BlockedUser{}} }

func (m *memBlocks) Upsert(_ context.Context, blockerID, blockedID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := followKey(blockerID, blockedID)
	if b, ok := m.edges[k]; ok {
		b.Reason = reason
		return nil
	}
	m.edges[k] = &domain.BlockedUser{
		ID:        utils.NewID(),
		BlockerID: blockerID,
		BlockedID: blockedID,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

func (m *memBlocks) Delete(_ context.Context, blockerID, blockedID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.edges, followKey(blockerID, blockedID))
	return nil
}

func (m *memBlocks) Exists(_ context.Context, blockerID, blockedID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.edges[followKey(blockerID, blockedID)]
	return ok, nil
}

func (m *memBlocks) List(_ context.Context, blockerID string, _, _ int64) ([]*domain.BlockedUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.BlockedUser{}
	for _, b := range m.edges {
		if b.BlockerID == blockerID {
			out = append(out, b)
		}
	}
	return out, nil
}

type memChats struct {
	mu    sync.Mutex
	chats map[string]*domain.Chat
}

func newMemChats() *memChats { return &memChats{chats: map[string]*domain.Chat{}} }

func (m *memChats) FindByID(_ context.Context, id string) (*domain.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chats[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memChats) FindByPair(_ context.Context, a, b string) (*domain.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk := domain.PairKey(a, b)
	for _, c := range m.chats {
		if c.PairKey == pk && c.IsActive {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memChats) Insert(_ context.Context, c *domain.Chat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.PairKey = domain.PairKey(c.Participants[0], c.Participants[1])
	for _, existing := range m.chats {
		if existing.PairKey == c.PairKey && existing.IsActive {
			return fmt.Errorf("%w: chat already exists", domain.ErrConflict)
		}
	}
	cp := *c
	m.chats[c.ID] = &cp
	return nil
}

func (m *memChats) FindUserChats(_ context.Context, userID string) ([]*domain.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Chat{}
	for _, c := range m.chats {
		if c.IsActive && c.HasParticipant(userID) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := time.Time{}, time.Time{}
		if out[i].LastMessageTime != nil {
			ti = *out[i].LastMessageTime
		}
		if out[j].LastMessageTime != nil {
			tj = *out[j].LastMessageTime
		}
		return ti.After(tj)
	})
	return out, nil
}

func (m *memChats) Deactivate(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chats[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.IsActive = false
	return nil
}

func (m *memChats) ApplySend(_ context.Context, chatID, messageID, receiverID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chats[chatID]
	if !ok {
		return domain.ErrNotFound
	}
	c.LastMessageID = messageID
	t := at
	c.LastMessageTime = &t
	if c.UnreadCount == nil {
		c.UnreadCount = map[string]int64{}
	}
	c.UnreadCount[receiverID]++
	return nil
}

func (m *memChats) SetUnread(_ context.Context, chatID, userID string, n int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chats[chatID]
	if !ok {
		return domain.ErrNotFound
	}
	if c.UnreadCount == nil {
		c.UnreadCount = map[string]int64{}
	}
	c.UnreadCount[userID] = n
	return nil
}

type memMessages struct {
	mu   sync.Mutex
	msgs []*domain.Message
}

func newMemMessages() *memMessages { return &memMessages{} }

func (m *memMessages) Insert(_ context.Context, msg *domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *msg
	m.msgs = append(m.msgs, &cp)
	return nil
}

func (m *memMessages) FindByID(_ context.Context, id string) (*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.msgs {
		if msg.ID == id {
			cp := *msg
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memMessages) visible(msg *domain.Message, viewerID string) bool {
	return !msg.IsDeleted && !msg.DeletedForUser(viewerID)
}

func (m *memMessages) ListChat(_ context.Context, chatID, viewerID string, page, limit int64) ([]*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Message{}
	for _, msg := range m.msgs {
		if msg.ChatID == chatID && m.visible(msg, viewerID) {
			cp := *msg
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	start := int((page - 1) * limit)
	if start > len(out) {
		return []*domain.Message{}, nil
	}
	end := start + int(limit)
	if end > len(out) {
		end = len(out)
	}
	// page 1 is the newest page; keep chronological order within the page
	from := len(out) - end
	to := len(out) - start
	return out[from:to], nil
}

func (m *memMessages) MarkDelivered(_ context.Context, ids []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	var n int64
	for _, msg := range m.msgs {
		if containsID(ids, msg.ID) && msg.Status == domain.StatusSent {
			msg.Status = domain.StatusDelivered
			t := now
			msg.DeliveredAt = &t
			n++
		}
	}
	return n, nil
}

func (m *memMessages) MarkRead(_ context.Context, ids []string, callerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	var n int64
	for _, msg := range m.msgs {
		if !containsID(ids, msg.ID) || msg.ReceiverID != callerID {
			continue
		}
		if msg.Status == domain.StatusSent || msg.Status == domain.StatusDelivered {
			msg.Status = domain.StatusRead
			t := now
			msg.ReadAt = &t
			n++
		}
	}
	return n, nil
}

func (m *memMessages) FindUnreadIDs(_ context.Context, chatID, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for _, msg := range m.msgs {
		if msg.ChatID == chatID && msg.ReceiverID == userID && m.visible(msg, userID) &&
			(msg.Status == domain.StatusSent || msg.Status == domain.StatusDelivered) {
			ids = append(ids, msg.ID)
		}
	}
	return ids, nil
}

func (m *memMessages) SoftDelete(_ context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.msgs {
		if msg.ID == id {
			if !msg.DeletedForUser(userID) {
				msg.DeletedFor = append(msg.DeletedFor, userID)
			}
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memMessages) Search(_ context.Context, chatID, viewerID, query string, _, _ int64) ([]*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := strings.ToLower(query)
	out := []*domain.Message{}
	for _, msg := range m.msgs {
		if msg.ChatID != chatID || !m.visible(msg, viewerID) {
			continue
		}
		var text string
		if msg.Attachment != nil {
			text += " " + msg.Attachment.Filename
		}
		if msg.ContactData != nil {
			text += " " + msg.ContactData.Name
		}
		if msg.LocationData != nil {
			text += " " + msg.LocationData.Address
		}
		if strings.Contains(strings.ToLower(text), q) {
			cp := *msg
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memMessages) Media(_ context.Context, chatID, viewerID string, mediaType domain.MessageType, _, _ int64) ([]*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Message{}
	for _, msg := range m.msgs {
		if msg.ChatID == chatID && msg.MessageType == mediaType && m.visible(msg, viewerID) {
			cp := *msg
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memMessages) CountUnread(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, msg := range m.msgs {
		if msg.ReceiverID == userID && m.visible(msg, userID) &&
			(msg.Status == domain.StatusSent || msg.Status == domain.StatusDelivered) {
			n++
		}
	}
	return n, nil
}

func (m *memMessages) CountUnreadInChat(_ context.Context, chatID, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, msg := range m.msgs {
		if msg.ChatID == chatID && msg.ReceiverID == userID && m.visible(msg, userID) &&
			(msg.Status == domain.StatusSent || msg.Status == domain.StatusDelivered) {
			n++
		}
	}
	return n, nil
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

type memKeys struct {
	mu   sync.Mutex
	keys []*domain.UserKeyPair
}

func newMemKeys() *memKeys { return &memKeys{} }

func (m *memKeys) FindActive(_ context.Context, userID string) (*domain.UserKeyPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range m.keys {
		if k.UserID == userID && k.IsActive {
			cp := *k
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memKeys) FindVersion(_ context.Context, userID string, version int) (*domain.UserKeyPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range m.keys {
		if k.UserID == userID && k.KeyVersion == version {
			cp := *k
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memKeys) Replace(_ context.Context, userID, publicKey, encryptedPrivateKey string) (*domain.UserKeyPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	version := 1
	for _, k := range m.keys {
		if k.UserID == userID && k.IsActive {
			k.IsActive = false
			version = k.KeyVersion + 1
		}
	}
	now := time.Now().UTC()
	nk := &domain.UserKeyPair{
		ID:                  utils.NewID(),
		UserID:              userID,
		PublicKey:           publicKey,
		EncryptedPrivateKey: encryptedPrivateKey,
		KeyVersion:          version,
		IsActive:            true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	m.keys = append(m.keys, nk)
	cp := *nk
	return &cp, nil
}

func (m *memKeys) Deactivate(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range m.keys {
		if k.UserID == userID {
			k.IsActive = false
		}
	}
	return nil
}

// memBlobStore records uploads and hands back deterministic URLs.
type memBlobStore struct {
	mu      sync.Mutex
	uploads map[string][]byte
}

func newMemBlobStore() *memBlobStore { return &memBlobStore{uploads: map[string][]byte{}} }

func (m *memBlobStore) Upload(_ context.Context, key, _ string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads[key] = data
	return "https://cdn.test/" + key, nil
}
