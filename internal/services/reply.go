package services

import (
	"context"
	"database/sql"
	"fmt"

	"boardapi/internal/models"
	"boardapi/internal/observability"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"
)

const (
	maxReplyDepth   = 10
	maxCommentDepth = 5
)

// ReplyCharacter computes the reply path of a new reply to write: the
// parent's path plus the next letter of its depth.
func (s *WriteService) ReplyCharacter(ctx context.Context, write *models.Write) (string, error) {
	if len(write.Reply) >= maxReplyDepth {
		return "", ErrReplyDepthExceeded
	}

	last, err := s.FetchLastReply(ctx, write)
	if err != nil {
		return "", err
	}

	// bo_reply_order: A→Z ascending, otherwise Z→A
	begin, end, step := byte('A'), byte('Z'), 1
	if !s.board.ReplyOrder {
		begin, end, step = 'Z', 'A', -1
	}

	var next byte
	switch {
	case last == "":
		next = begin
	case last[0] == end:
		observability.ReplyExhausted.WithLabelValues(s.board.Table).Inc()
		return "", ErrReplyExhausted
	default:
		next = byte(int(last[0]) + step)
	}
	return write.Reply + string(next), nil
}

// FetchLastReply returns the extreme reply letter already used directly
// below write, or "" when write has no replies yet.
func (s *WriteService) FetchLastReply(ctx context.Context, write *models.Write) (string, error) {
	replyLen := len(write.Reply) + 1
	aggregate := "MIN"
	if s.board.ReplyOrder {
		aggregate = "MAX"
	}

	q := sq.Select().
		Column(sq.Expr(aggregate+"(SUBSTR(wr_reply, ?, 1)) AS reply", replyLen)).
		From(s.table).
		Where(sq.Eq{"wr_num": write.Num}).
		Where("SUBSTR(wr_reply, ?, 1) <> ''", replyLen)
	if write.Reply != "" {
		q = q.Where(sq.Like{"wr_reply": write.Reply + "%"})
	}
	return scanLetter(s.db.WithContext(ctx), q)
}

// CommentReplyCharacter computes the comment reply path of a new reply to
// comment. Comment replies always ascend from A.
func (s *WriteService) CommentReplyCharacter(ctx context.Context, comment *models.Write) (string, error) {
	if len(comment.CommentReply) >= maxCommentDepth {
		return "", ErrCommentDepthExceeded
	}

	replyLen := len(comment.CommentReply) + 1
	q := sq.Select().
		Column(sq.Expr("MAX(SUBSTR(wr_comment_reply, ?, 1)) AS reply", replyLen)).
		From(s.table).
		Where(sq.Eq{"wr_parent": comment.Parent, "wr_comment": comment.Comment}).
		Where("SUBSTR(wr_comment_reply, ?, 1) <> ''", replyLen)
	if comment.CommentReply != "" {
		q = q.Where(sq.Like{"wr_comment_reply": comment.CommentReply + "%"})
	}

	last, err := scanLetter(s.db.WithContext(ctx), q)
	if err != nil {
		return "", err
	}

	switch {
	case last == "":
		return comment.CommentReply + "A", nil
	case last[0] == 'Z':
		observability.ReplyExhausted.WithLabelValues(s.board.Table).Inc()
		return "", ErrReplyExhausted
	default:
		return comment.CommentReply + string(last[0]+1), nil
	}
}

func scanLetter(db *gorm.DB, q sq.SelectBuilder) (string, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return "", err
	}
	var letter sql.NullString
	if err := db.Raw(query, args...).Row().Scan(&letter); err != nil {
		return "", fmt.Errorf("fetch last reply: %w", err)
	}
	return letter.String, nil
}
