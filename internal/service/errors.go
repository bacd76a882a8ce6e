package service

import "errors"

// 业务层错误。Handler 层根据这些错误决定 HTTP 状态码。
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrRoomNotFound         = errors.New("room not found")
	ErrMeetingNotFound      = errors.New("meeting not found")
	ErrActionItemNotFound   = errors.New("action item not found")
	ErrSummaryNotFound      = errors.New("meeting summary not available yet")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrRegistrationFailed   = errors.New("registration failed: username or email already exists")
	ErrInvalidInviteCode    = errors.New("invalid or expired invite code")
	ErrUnauthorized         = errors.New("caller is not authorized for this room")
	ErrMeetingConflict      = errors.New("room already has an open meeting")
	ErrInvalidTransition    = errors.New("meeting status does not permit this transition")
	ErrMeetingNotActive     = errors.New("meeting is not active")
	ErrMeetingBusy          = errors.New("another turn is already being processed for this meeting")
	ErrExtractionFailed     = errors.New("extraction call failed")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInternalServer       = errors.New("internal server error")
)
