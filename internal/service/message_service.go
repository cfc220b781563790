package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/fathima-sithara/messaging-service/internal/cache"
	"github.com/fathima-sithara/messaging-service/internal/crypto"
	"github.com/fathima-sithara/messaging-service/internal/domain"
	"github.com/fathima-sithara/messaging-service/internal/utils"
)

type MessageStore interface {
	Insert(ctx context.Context, m *domain.Message) error
	FindByID(ctx context.Context, id string) (*domain.Message, error)
	ListChat(ctx context.Context, chatID, viewerID string, page, limit int64) ([]*domain.Message, error)
	MarkDelivered(ctx context.Context, ids []string) (int64, error)
	MarkRead(ctx context.Context, ids []string, callerID string) (int64, error)
	FindUnreadIDs(ctx context.Context, chatID, userID string) ([]string, error)
	SoftDelete(ctx context.Context, id, userID string) error
	Search(ctx context.Context, chatID, viewerID, query string, page, limit int64) ([]*domain.Message, error)
	Media(ctx context.Context, chatID, viewerID string, mediaType domain.MessageType, page, limit int64) ([]*domain.Message, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	CountUnreadInChat(ctx context.Context, chatID, userID string) (int64, error)
}

// BlobStore is the object-storage capability consumed for media attachments.
type BlobStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// MessageService is the send/read pipeline: it gates on chat participancy and
// block state, encrypts for the receiver, routes attachment bytes to object
// storage, and drives the SENT -> DELIVERED -> READ state machine.
type MessageService struct {
	messages MessageStore
	chats    ChatStore
	blocks   BlockStore
	keys     KeyStore
	store    BlobStore
	unread   *cache.UnreadCache
	log      *zap.SugaredLogger
}

func NewMessageService(
	messages MessageStore,
	chats ChatStore,
	blocks BlockStore,
	keys KeyStore,
	store BlobStore,
	unread *cache.UnreadCache,
	log *zap.SugaredLogger,
) *MessageService {
	return &MessageService{
		messages: messages,
		chats:    chats,
		blocks:   blocks,
		keys:     keys,
		store:    store,
		unread:   unread,
		log:      log,
	}
}

// Send encrypts body for the other participant of chatID and persists the
// message in the SENT state. Authorization runs before any key lookup or
// cryptographic work.
func (s *MessageService) Send(ctx context.Context, chatID, senderID, body string, payload domain.Payload, replyTo string) (*domain.Message, error) {
	chat, err := s.chats.FindByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(senderID) {
		return nil, fmt.Errorf("%w: not a participant of this chat", domain.ErrForbidden)
	}
	receiverID := chat.OtherParticipant(senderID)

	blocked, err := blockedEither(ctx, s.blocks, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, fmt.Errorf("%w: cannot send message to this user", domain.ErrForbidden)
	}

	receiverKeys, err := s.keys.FindActive(ctx, receiverID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: receiver has no encryption keys", domain.ErrBadRequest)
	}
	if err != nil {
		return nil, err
	}
	pub, err := crypto.ParsePublicKey(receiverKeys.PublicKey)
	if err != nil {
		s.log.Errorw("stored public key unparseable", "user_id", receiverID, "err", err)
		return nil, domain.ErrEncryption
	}
	if len(body) > crypto.MaxPlaintext(pub) {
		return nil, fmt.Errorf("%w: message exceeds %d byte limit", domain.ErrBadRequest, crypto.MaxPlaintext(pub))
	}

	if replyTo != "" {
		parent, err := s.messages.FindByID(ctx, replyTo)
		if err != nil {
			return nil, fmt.Errorf("%w: reply target not found", domain.ErrBadRequest)
		}
		if parent.ChatID != chatID {
			return nil, fmt.Errorf("%w: reply target belongs to another chat", domain.ErrBadRequest)
		}
	}

	now := time.Now().UTC()
	m := &domain.Message{
		ID:          utils.NewID(),
		ChatID:      chatID,
		SenderID:    senderID,
		ReceiverID:  receiverID,
		MessageType: payload.Type(),
		KeyVersion:  receiverKeys.KeyVersion,
		Status:      domain.StatusSent,
		DeletedFor:  []string{},
		ReplyTo:     replyTo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.applyPayload(ctx, m, payload); err != nil {
		return nil, err
	}

	m.EncryptedContent, err = crypto.Encrypt([]byte(body), pub)
	if err != nil {
		return nil, err
	}

	if err := s.messages.Insert(ctx, m); err != nil {
		return nil, err
	}
	if err := s.chats.ApplySend(ctx, chatID, m.ID, receiverID, now); err != nil {
		s.log.Warnw("chat projection update failed", "chat_id", chatID, "err", err)
	}
	s.unread.Invalidate(ctx, receiverID)

	return m, nil
}

// applyPayload materialises the typed payload onto the message record. Media
// bytes go through the blob store; location and contact data are structured
// inline. The switch is exhaustive over the payload variants.
func (s *MessageService) applyPayload(ctx context.Context, m *domain.Message, payload domain.Payload) error {
	switch p := payload.(type) {
	case domain.TextPayload:
		return nil

	case domain.MediaPayload:
		if !p.Kind.IsMedia() {
			return fmt.Errorf("%w: %q is not a media type", domain.ErrBadRequest, p.Kind)
		}
		if len(p.Data) == 0 || p.Filename == "" {
			return fmt.Errorf("%w: attachment bytes and filename required", domain.ErrBadRequest)
		}
		if s.store == nil {
			return fmt.Errorf("%w: media storage not configured", domain.ErrBadRequest)
		}

		key := fmt.Sprintf("chat-attachments/%s/%s_%s", m.ChatID, m.ID, p.Filename)
		url, err := s.store.Upload(ctx, key, p.ContentType, p.Data)
		if err != nil {
			return err
		}
		att := &domain.Attachment{
			URL:      url,
			Filename: p.Filename,
			Size:     int64(len(p.Data)),
			MimeType: p.ContentType,
		}
		if p.Kind == domain.TypeImage {
			if thumb, err := thumbnailJPEG(p.Data); err == nil {
				if turl, err := s.store.Upload(ctx, key+"_thumb.jpg", "image/jpeg", thumb); err == nil {
					att.Thumbnail = turl
				}
			}
		}
		m.Attachment = att
		return nil

	case domain.LocationPayload:
		m.LocationData = &domain.LocationData{
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
			Address:   p.Address,
		}
		return nil

	case domain.ContactPayload:
		if p.Name == "" || p.PhoneNumber == "" {
			return fmt.Errorf("%w: contact name and phone number required", domain.ErrBadRequest)
		}
		m.ContactData = &domain.ContactData{
			Name:        p.Name,
			PhoneNumber: p.PhoneNumber,
			Email:       p.Email,
		}
		return nil

	default:
		return fmt.Errorf("%w: unsupported payload %T", domain.ErrBadRequest, payload)
	}
}

func thumbnailJPEG(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	thumb := imaging.Thumbnail(img, 320, 320, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ListChat returns one page of the chat's messages, oldest first, hiding
// messages the caller soft-deleted.
func (s *MessageService) ListChat(ctx context.Context, chatID, callerID string, page, limit int64) ([]*domain.Message, error) {
	if _, err := s.participantChat(ctx, chatID, callerID); err != nil {
		return nil, err
	}
	page, limit = normalizePage(page, limit, 50)
	return s.messages.ListChat(ctx, chatID, callerID, page, limit)
}

// MarkDelivered advances the given messages from SENT to DELIVERED.
// Already-delivered or read messages are unaffected; the call is idempotent.
func (s *MessageService) MarkDelivered(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return s.messages.MarkDelivered(ctx, ids)
}

// MarkRead advances messages addressed to callerID to READ. Messages in the
// batch addressed to other users are silently left unchanged.
func (s *MessageService) MarkRead(ctx context.Context, ids []string, callerID string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := s.messages.MarkRead(ctx, ids, callerID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.unread.Invalidate(ctx, callerID)
	}
	return n, nil
}

// MarkChatRead marks everything unread for the caller in a chat and refreshes
// the chat's cached unread counter from the derived count.
func (s *MessageService) MarkChatRead(ctx context.Context, chatID, callerID string) (int64, error) {
	if _, err := s.participantChat(ctx, chatID, callerID); err != nil {
		return 0, err
	}
	ids, err := s.messages.FindUnreadIDs(ctx, chatID, callerID)
	if err != nil {
		return 0, err
	}
	var n int64
	if len(ids) > 0 {
		if n, err = s.messages.MarkRead(ctx, ids, callerID); err != nil {
			return 0, err
		}
	}

	remaining, err := s.messages.CountUnreadInChat(ctx, chatID, callerID)
	if err == nil {
		if err := s.chats.SetUnread(ctx, chatID, callerID, remaining); err != nil {
			s.log.Warnw("unread projection update failed", "chat_id", chatID, "err", err)
		}
	}
	s.unread.Invalidate(ctx, callerID)
	return n, nil
}

// SoftDelete hides the message for callerID only.
func (s *MessageService) SoftDelete(ctx context.Context, messageID, callerID string) error {
	m, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return err
	}
	if m.SenderID != callerID && m.ReceiverID != callerID {
		return fmt.Errorf("%w: not your message", domain.ErrForbidden)
	}
	if err := s.messages.SoftDelete(ctx, messageID, callerID); err != nil {
		return err
	}
	s.unread.Invalidate(ctx, callerID)
	return nil
}

// Search runs full-text search within one chat. Only plaintext-bearing fields
// (attachment filenames, contact names, location addresses) can match;
// encrypted bodies are opaque to the server.
func (s *MessageService) Search(ctx context.Context, chatID, callerID, query string, page, limit int64) ([]*domain.Message, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: search query required", domain.ErrBadRequest)
	}
	if _, err := s.participantChat(ctx, chatID, callerID); err != nil {
		return nil, err
	}
	page, limit = normalizePage(page, limit, 20)
	return s.messages.Search(ctx, chatID, callerID, query, page, limit)
}

// Media lists a chat's messages of one media type.
func (s *MessageService) Media(ctx context.Context, chatID, callerID string, mediaType domain.MessageType, page, limit int64) ([]*domain.Message, error) {
	if !mediaType.IsMedia() {
		return nil, fmt.Errorf("%w: invalid media type %q", domain.ErrBadRequest, mediaType)
	}
	if _, err := s.participantChat(ctx, chatID, callerID); err != nil {
		return nil, err
	}
	page, limit = normalizePage(page, limit, 20)
	return s.messages.Media(ctx, chatID, callerID, mediaType, page, limit)
}

// UnreadCount is the user's total of messages addressed to them not yet READ
// and not hidden. Served from the cache when warm, derived otherwise.
func (s *MessageService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	if n, ok := s.unread.Get(ctx, userID); ok {
		return n, nil
	}
	n, err := s.messages.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.unread.Set(ctx, userID, n)
	return n, nil
}

// Decrypt returns the plaintext of a message for its receiver, unwrapping the
// key generation the message was encrypted under.
func (s *MessageService) Decrypt(ctx context.Context, messageID, callerID, userSecret string) (string, error) {
	m, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return "", err
	}
	if m.ReceiverID != callerID {
		return "", fmt.Errorf("%w: only the receiver can decrypt", domain.ErrForbidden)
	}
	if m.DeletedForUser(callerID) {
		return "", domain.ErrNotFound
	}

	k, err := s.keys.FindVersion(ctx, callerID, m.KeyVersion)
	if err != nil {
		return "", err
	}
	privPEM, err := crypto.UnwrapPrivateKey(k.EncryptedPrivateKey, userSecret)
	if err != nil {
		return "", err
	}
	priv, err := crypto.ParsePrivateKey(privPEM)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDecryption, err)
	}
	pt, err := crypto.Decrypt(m.EncryptedContent, priv)
	if err != nil {
		return "", err
	}
	return string(pt), nil
}

func (s *MessageService) participantChat(ctx context.Context, chatID, userID string) (*domain.Chat, error) {
	chat, err := s.chats.FindByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, fmt.Errorf("%w: not a participant of this chat", domain.ErrForbidden)
	}
	return chat, nil
}

func normalizePage(page, limit, defLimit int64) (int64, int64) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = defLimit
	}
	return page, limit
}
