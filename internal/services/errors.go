package services

import "errors"

var (
	// ErrReplyExhausted 每层最多 26 个答复 (A-Z)
	ErrReplyExhausted = errors.New("no more replies allowed: a depth holds at most 26 replies")
	// ErrReplyDepthExceeded is returned when a post reply would go deeper than maxReplyDepth.
	ErrReplyDepthExceeded = errors.New("no more replies allowed: replies nest at most 10 levels")
	// ErrCommentDepthExceeded is returned when a comment reply would go deeper than maxCommentDepth.
	ErrCommentDepthExceeded = errors.New("no more replies allowed: comment replies nest at most 5 levels")

	ErrWriteNotFound   = errors.New("write not found")
	ErrBoardNotFound   = errors.New("board not found")
	ErrInvalidBoard    = errors.New("invalid board table name")
	ErrInvalidGoodType = errors.New("good type must be good or nogood")
	ErrTrackerFull     = errors.New("keyword tracker queue is full")
)

// IsRejected reports whether err is a threading limit that should be shown
// to the client as a rejected request rather than a server failure.
func IsRejected(err error) bool {
	return errors.Is(err, ErrReplyExhausted) ||
		errors.Is(err, ErrReplyDepthExceeded) ||
		errors.Is(err, ErrCommentDepthExceeded)
}
