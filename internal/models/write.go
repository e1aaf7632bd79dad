package models

import (
	"strings"
	"time"
)

// Write is a single row of a board table. Posts and comments share the
// table and are told apart by IsComment.
type Write struct {
	ID           int       `gorm:"column:wr_id;primaryKey" json:"wr_id"`
	Num          int       `gorm:"column:wr_num;not null;index:idx_wr_num_reply" json:"wr_num"`
	Reply        string    `gorm:"column:wr_reply;size:10;not null;index:idx_wr_num_reply" json:"wr_reply"`
	Parent       int       `gorm:"column:wr_parent;not null;index" json:"wr_parent"`
	IsComment    int       `gorm:"column:wr_is_comment;not null" json:"wr_is_comment"`
	Comment      int       `gorm:"column:wr_comment;not null" json:"wr_comment"`
	CommentReply string    `gorm:"column:wr_comment_reply;size:5;not null" json:"wr_comment_reply"`
	Category     string    `gorm:"column:ca_name;size:255;not null;index" json:"ca_name"`
	Option       string    `gorm:"column:wr_option;size:255;not null" json:"wr_option"`
	Subject      string    `gorm:"column:wr_subject;size:255;not null" json:"wr_subject"`
	Content      string    `gorm:"column:wr_content;type:text;not null" json:"wr_content"`
	SEOTitle     string    `gorm:"column:wr_seo_title;size:255;not null" json:"wr_seo_title"`
	Link1        string    `gorm:"column:wr_link1;type:text;not null" json:"wr_link1"`
	Link2        string    `gorm:"column:wr_link2;type:text;not null" json:"wr_link2"`
	Hit          int       `gorm:"column:wr_hit;not null" json:"wr_hit"`
	Good         int       `gorm:"column:wr_good;not null" json:"wr_good"`
	NoGood       int       `gorm:"column:wr_nogood;not null" json:"wr_nogood"`
	MemberID     string    `gorm:"column:mb_id;size:20;not null;index" json:"mb_id"`
	Password     string    `gorm:"column:wr_password;size:255;not null" json:"-"`
	Name         string    `gorm:"column:wr_name;size:255;not null" json:"wr_name"`
	Email        string    `gorm:"column:wr_email;size:255;not null" json:"wr_email"`
	Homepage     string    `gorm:"column:wr_homepage;size:255;not null" json:"wr_homepage"`
	CreatedAt    time.Time `gorm:"column:wr_datetime;not null" json:"wr_datetime"`
	LastAt       time.Time `gorm:"column:wr_last;not null" json:"wr_last"`
	IP           string    `gorm:"column:wr_ip;size:255;not null" json:"-"`
}

// IsSecret reports whether the write carries the "secret" option flag.
func (w *Write) IsSecret() bool {
	for _, opt := range strings.Split(w.Option, ",") {
		if strings.TrimSpace(opt) == "secret" {
			return true
		}
	}
	return false
}

// IsReply 是否为答复帖
func (w *Write) IsReply() bool {
	return w.IsComment == 0 && w.Reply != ""
}

// NeighborWrite is the prev/next row returned alongside a post detail.
type NeighborWrite struct {
	ID        int       `gorm:"column:wr_id" json:"wr_id"`
	Subject   string    `gorm:"column:wr_subject" json:"wr_subject"`
	CreatedAt time.Time `gorm:"column:wr_datetime" json:"wr_datetime"`
}
