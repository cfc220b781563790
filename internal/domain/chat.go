package domain

import "time"

// Chat is a 1:1 conversation. Identity is the unordered participant pair,
// canonicalised into PairKey so the storage layer can hold a unique index on it.
type Chat struct {
	ID              string           `bson:"_id" json:"id"`
	Participants    []string         `bson:"participants" json:"participants"`
	PairKey         string           `bson:"pair_key" json:"-"`
	LastMessageID   string           `bson:"last_message_id,omitempty" json:"last_message_id,omitempty"`
	LastMessageTime *time.Time       `bson:"last_message_time,omitempty" json:"last_message_time,omitempty"`
	UnreadCount     map[string]int64 `bson:"unread_count" json:"unread_count"`
	IsActive        bool             `bson:"is_active" json:"is_active"`
	CreatedAt       time.Time        `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `bson:"updated_at" json:"updated_at"`
}

// PairKey joins two user ids in lexical order, so (a,b) and (b,a) map to the
// same chat.
func PairKey(a, b string) string {
	if a < b {
		return a + ":" + b
	}
	return b + ":" + a
}

func (c *Chat) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the participant that is not userID, or "" when
// userID is not in the chat.
func (c *Chat) OtherParticipant(userID string) string {
	if !c.HasParticipant(userID) {
		return ""
	}
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}
