// Package services defines the business logic for the DM subsystem, the user
// directory, media upload records, and the post/comment timeline. This file
// centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the handler
// layer.
package services

import "errors"

var (
	// ErrUserNotFound indicates that the referenced user id or username has
	// no row and the caller supplied nothing to create one from.
	ErrUserNotFound = errors.New("user not found")

	// ErrParticipantNotFound indicates that the DM target user does not exist.
	ErrParticipantNotFound = errors.New("participant not found")

	// ErrConversationNotFound indicates that the referenced conversation id
	// has no row.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrSenderNotInConversation is returned when the sender lacks a
	// participant row for the target conversation.
	ErrSenderNotInConversation = errors.New("sender is not part of this conversation")

	// ErrPostNotFound indicates that the referenced post has no row.
	ErrPostNotFound = errors.New("post not found")

	// ErrReplyTargetNotFound is returned when a reply names a tweet id that
	// matches neither a post nor a comment.
	ErrReplyTargetNotFound = errors.New("reply target not found")

	// ErrMediaNotFound indicates that the referenced media record has no row.
	ErrMediaNotFound = errors.New("media not found")
)
