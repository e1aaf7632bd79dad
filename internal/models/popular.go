package models

import (
	"time"
)

// PopularKeyword counts one search term per day and client ip.
type PopularKeyword struct {
	ID   uint      `gorm:"column:pp_id;primaryKey" json:"pp_id"`
	Word string    `gorm:"column:pp_word;size:50;not null;uniqueIndex:idx_pp_word_date_ip" json:"pp_word"`
	Date time.Time `gorm:"column:pp_date;type:date;not null;uniqueIndex:idx_pp_word_date_ip" json:"pp_date"`
	IP   string    `gorm:"column:pp_ip;size:50;not null;uniqueIndex:idx_pp_word_date_ip" json:"pp_ip"`
}

func (PopularKeyword) TableName() string { return "g5_popular" }
