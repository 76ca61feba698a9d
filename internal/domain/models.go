// Package domain defines the persistence models for the direct-message
// subsystem: users, conversations, participants, messages, and media.
// These types are mapped with GORM and form the core data layer of the
// miniX backend.
package domain

import "time"

// User is a registered account. Users are created on first login or when the
// mock directory is seeded, and are immutable afterward (no update path).
type User struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Username  string    `json:"username"   gorm:"type:varchar(64);not null;uniqueIndex:ux_users_username"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Conversation is a persistent two-party direct-message thread.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - PairKey: canonicalized sorted pair of the two participant ids
//     ("a|b" with a <= b). The unique index on it is what enforces
//     at-most-one conversation per participant pair, so two concurrent
//     find-or-create calls cannot both insert.
//   - LastActivityAt / LastMessageID: pointer to the most recent message,
//     maintained on every insert.
type Conversation struct {
	ID             string     `json:"id"               gorm:"type:char(36);primaryKey"`
	PairKey        string     `json:"-"                gorm:"type:varchar(80);uniqueIndex:ux_conversations_pair"`
	CreatedAt      time.Time  `json:"created_at"`
	LastActivityAt *time.Time `json:"last_activity_at"`
	LastMessageID  *string    `json:"last_message_id"  gorm:"type:char(36)"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string { return "dm_conversations" }

// Participant binds a user to a conversation. The participant set is fixed at
// conversation creation; there are no add/remove operations.
type Participant struct {
	ConversationID string `json:"conversation_id" gorm:"type:char(36);primaryKey"`
	UserID         string `json:"user_id"         gorm:"type:char(36);primaryKey;index:idx_participant_user"`

	// Conversation is the owning thread. Participant rows are cascade-deleted
	// if the conversation is removed.
	Conversation Conversation `json:"-" gorm:"foreignKey:ConversationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Participant.
func (Participant) TableName() string { return "dm_participants" }

// Message is a single utterance within a conversation. Immutable once created.
type Message struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	ConversationID string    `json:"conversation_id" gorm:"type:char(36);not null;index:idx_conversation_msgs,priority:1"`
	SenderID       string    `json:"sender_id"       gorm:"type:char(36);not null"`
	Text           string    `json:"text"            gorm:"type:text;not null"`
	MediaID        *string   `json:"media_id"        gorm:"type:char(36)"`
	CreatedAt      time.Time `json:"created_at"      gorm:"index:idx_conversation_msgs,priority:2"`

	// Conversation is the owning thread.
	Conversation Conversation `json:"-" gorm:"foreignKey:ConversationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "dm_messages" }

// Media is an upload record created before a message references it. Only the
// record exists; no bytes are stored, the URL is synthesized at creation.
type Media struct {
	ID        string    `json:"media_id"   gorm:"type:char(36);primaryKey"`
	Filename  *string   `json:"filename"   gorm:"type:varchar(255)"`
	MediaURL  string    `json:"media_url"  gorm:"type:varchar(512);not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Media.
func (Media) TableName() string { return "dm_media" }
