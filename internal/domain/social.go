// Package domain – timeline models (posts and comments).
package domain

import "time"

// Post is a root timeline entry. Its id doubles as the conversation id for
// every comment in its reply tree.
type Post struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"    gorm:"type:char(36);not null;index:idx_user_posts"`
	Text      string    `json:"text"       gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`

	// User is the author; Comments are the full (unordered) reply tree.
	User     User      `json:"-" gorm:"foreignKey:UserID;references:ID"`
	Comments []Comment `json:"-" gorm:"foreignKey:PostID;references:ID"`
}

// TableName returns the database table name for Post.
func (Post) TableName() string { return "posts" }

// Comment is a reply to a post or to another comment. ConversationID always
// equals the root post's id, inherited through the RepliedTo chain, so every
// comment in a thread shares one conversation id regardless of nesting depth.
type Comment struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	PostID         string    `json:"post_id"         gorm:"type:char(36);not null;index:idx_post_comments"`
	UserID         string    `json:"user_id"         gorm:"type:char(36);not null"`
	Text           string    `json:"text"            gorm:"type:text;not null"`
	RepliedTo      *string   `json:"replied_to"      gorm:"type:char(36)"`
	ConversationID string    `json:"conversation_id" gorm:"type:char(36);not null;index:idx_comment_thread"`
	CreatedAt      time.Time `json:"created_at"`

	// User is the comment author.
	User User `json:"-" gorm:"foreignKey:UserID;references:ID"`
}

// TableName returns the database table name for Comment.
func (Comment) TableName() string { return "comments" }
