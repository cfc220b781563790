package domain

import "time"

type MessageType string

const (
	TypeText     MessageType = "text"
	TypeImage    MessageType = "image"
	TypeVideo    MessageType = "video"
	TypeAudio    MessageType = "audio"
	TypeDocument MessageType = "document"
	TypeLocation MessageType = "location"
	TypeContact  MessageType = "contact"
)

// IsMedia reports whether messages of this type carry an uploaded attachment.
func (t MessageType) IsMedia() bool {
	switch t {
	case TypeImage, TypeVideo, TypeAudio, TypeDocument:
		return true
	}
	return false
}

func (t MessageType) Valid() bool {
	switch t {
	case TypeText, TypeImage, TypeVideo, TypeAudio, TypeDocument, TypeLocation, TypeContact:
		return true
	}
	return false
}

type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
	StatusFailed    MessageStatus = "failed"
)

type Attachment struct {
	URL       string `bson:"url" json:"url"`
	Filename  string `bson:"filename,omitempty" json:"filename,omitempty"`
	Size      int64  `bson:"size,omitempty" json:"size,omitempty"`
	MimeType  string `bson:"mime_type,omitempty" json:"mime_type,omitempty"`
	Thumbnail string `bson:"thumbnail,omitempty" json:"thumbnail,omitempty"`
}

type LocationData struct {
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
	Address   string  `bson:"address,omitempty" json:"address,omitempty"`
}

type ContactData struct {
	Name        string `bson:"name" json:"name"`
	PhoneNumber string `bson:"phone_number" json:"phone_number"`
	Email       string `bson:"email,omitempty" json:"email,omitempty"`
}

type Message struct {
	ID               string        `bson:"_id" json:"id"`
	ChatID           string        `bson:"chat_id" json:"chat_id"`
	SenderID         string        `bson:"sender_id" json:"sender_id"`
	ReceiverID       string        `bson:"receiver_id" json:"receiver_id"`
	EncryptedContent string        `bson:"encrypted_content" json:"encrypted_content"`
	MessageType      MessageType   `bson:"message_type" json:"message_type"`
	KeyVersion       int           `bson:"key_version" json:"key_version"`
	Attachment       *Attachment   `bson:"attachment,omitempty" json:"attachment,omitempty"`
	LocationData     *LocationData `bson:"location_data,omitempty" json:"location_data,omitempty"`
	ContactData      *ContactData  `bson:"contact_data,omitempty" json:"contact_data,omitempty"`
	Status           MessageStatus `bson:"status" json:"status"`
	ReadAt           *time.Time    `bson:"read_at,omitempty" json:"read_at,omitempty"`
	DeliveredAt      *time.Time    `bson:"delivered_at,omitempty" json:"delivered_at,omitempty"`
	IsDeleted        bool          `bson:"is_deleted" json:"is_deleted"`
	DeletedFor       []string      `bson:"deleted_for" json:"-"`
	ReplyTo          string        `bson:"reply_to,omitempty" json:"reply_to,omitempty"`
	CreatedAt        time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time     `bson:"updated_at" json:"updated_at"`
}

// DeletedForUser reports whether userID has hidden this message for themselves.
func (m *Message) DeletedForUser(userID string) bool {
	for _, id := range m.DeletedFor {
		if id == userID {
			return true
		}
	}
	return false
}

// Payload is the typed message body supplied by the sender. Exactly one
// concrete variant is accepted per message type; the pipeline switches on it
// exhaustively when building the persisted record.
type Payload interface {
	Type() MessageType
}

type TextPayload struct{}

func (TextPayload) Type() MessageType { return TypeText }

// MediaPayload carries raw attachment bytes bound for object storage.
type MediaPayload struct {
	Kind        MessageType
	Filename    string
	ContentType string
	Data        []byte
}

func (p MediaPayload) Type() MessageType { return p.Kind }

type LocationPayload struct {
	Latitude  float64
	Longitude float64
	Address   string
}

func (LocationPayload) Type() MessageType { return TypeLocation }

type ContactPayload struct {
	Name        string
	PhoneNumber string
	Email       string
}

func (ContactPayload) Type() MessageType { return TypeContact }
