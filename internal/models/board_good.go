package models

import "time"

// BoardGood records one member's good/nogood on a write, so each member votes once.
type BoardGood struct {
	ID        uint      `gorm:"column:bg_id;primaryKey" json:"bg_id"`
	BoardName string    `gorm:"column:bo_table;size:20;not null;uniqueIndex:idx_bg_write_member" json:"bo_table"`
	WriteID   int       `gorm:"column:wr_id;not null;uniqueIndex:idx_bg_write_member" json:"wr_id"`
	MemberID  string    `gorm:"column:mb_id;size:20;not null;uniqueIndex:idx_bg_write_member" json:"mb_id"`
	Flag      string    `gorm:"column:bg_flag;size:7;not null" json:"bg_flag"`
	CreatedAt time.Time `gorm:"column:bg_datetime;not null" json:"bg_datetime"`
}

func (BoardGood) TableName() string { return "g5_board_good" }
