package services

import (
	"context"
	"errors"
	"fmt"

	"boardapi/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrAlreadyVoted = errors.New("already voted on this write")
	ErrOwnWrite     = errors.New("cannot vote on your own write")
)

// Vote records a member's good/nogood once and bumps the write's counter.
func (s *WriteService) Vote(ctx context.Context, write *models.Write, member *models.Member, goodType string) error {
	if goodType != "good" && goodType != "nogood" {
		return ErrInvalidGoodType
	}
	if write.MemberID != "" && write.MemberID == member.ID {
		return ErrOwnWrite
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		vote := models.BoardGood{
			BoardName: s.board.Table,
			WriteID:   write.ID,
			MemberID:  member.ID,
			Flag:      goodType,
			CreatedAt: s.now(),
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&vote)
		if res.Error != nil {
			return fmt.Errorf("record vote: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyVoted
		}

		return s.inTx(tx).increment(ctx, write.ID, "wr_"+goodType)
	})
}
