package models

import (
	"time"
)

type Member struct {
	No        uint      `gorm:"column:mb_no;primaryKey" json:"mb_no"`
	ID        string    `gorm:"column:mb_id;uniqueIndex;size:20;not null" json:"mb_id"`
	Name      string    `gorm:"column:mb_name;size:255;not null" json:"mb_name"`
	Password  string    `gorm:"column:mb_password;size:255;not null" json:"-"`
	Nick      string    `gorm:"column:mb_nick;size:255;not null" json:"mb_nick"`
	Email     string    `gorm:"column:mb_email;size:255;not null" json:"mb_email"`
	Homepage  string    `gorm:"column:mb_homepage;size:255;not null" json:"mb_homepage"`
	Level     int       `gorm:"column:mb_level;not null;default:1" json:"mb_level"`
	CreatedAt time.Time `gorm:"column:mb_datetime" json:"mb_datetime"`
}

func (Member) TableName() string { return "g5_member" }
