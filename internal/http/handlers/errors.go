// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP responses
// (via the `fail()` helper in this package). These codes provide clients with a stable,
// machine-readable error taxonomy that supplements human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless explicitly noted.
//   - Generic codes (e.g., bad_request, forbidden, not_found) mirror common HTTP
//     status semantics to aid interoperability.
//   - Domain-specific codes (e.g., user_not_found, sender_not_in_conversation)
//     identify the named failure conditions of the DM and timeline subsystems.
//   - All error responses must include both an HTTP status and one of these codes.
//
// Usage:
//   - Handlers select the most specific matching code and pass it to `fail()` along
//     with the corresponding HTTP status and message.
//   - Clients are expected to branch on these codes for programmatic error handling.
//
// Example response:
//   {
//     "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//     "code": "sender_not_in_conversation",
//     "message": "sender is not part of this conversation"
//   }

package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeUserNotFound            = "user_not_found"
	ErrCodeConversationNotFound    = "conversation_not_found"
	ErrCodeParticipantNotFound     = "participant_not_found"
	ErrCodeSenderNotInConversation = "sender_not_in_conversation"
	ErrCodePostNotFound            = "post_not_found"
	ErrCodeSendFailed              = "send_failed"
	ErrCodeCreateFailed            = "create_failed"
	ErrCodeListFailed              = "list_failed"
)
