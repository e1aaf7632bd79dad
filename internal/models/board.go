package models

import (
	"strconv"
	"strings"
)

// Board is the per-board descriptor. It is read-only for the write service.
type Board struct {
	Table        string `gorm:"column:bo_table;primaryKey;size:20" json:"bo_table"`
	Subject      string `gorm:"column:bo_subject;size:255;not null" json:"bo_subject"`
	SortField    string `gorm:"column:bo_sort_field;size:255;not null" json:"bo_sort_field"`
	ReplyOrder   bool   `gorm:"column:bo_reply_order;not null" json:"bo_reply_order"` // true: A→Z
	Notice       string `gorm:"column:bo_notice;type:text;not null" json:"bo_notice"`
	PageRows     int    `gorm:"column:bo_page_rows;not null" json:"bo_page_rows"`
	SearchPart   int    `gorm:"column:bo_search_part;not null" json:"bo_search_part"`
	UseCategory  bool   `gorm:"column:bo_use_category;not null" json:"bo_use_category"`
	CategoryList string `gorm:"column:bo_category_list;type:text;not null" json:"bo_category_list"`
}

func (Board) TableName() string { return "g5_board" }

// NoticeIDs parses bo_notice into write ids, skipping blanks and junk.
func (b *Board) NoticeIDs() []int {
	var ids []int
	for _, part := range strings.Split(b.Notice, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.Atoi(part); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// Categories returns the configured category names ("a|b|c").
func (b *Board) Categories() []string {
	var out []string
	for _, name := range strings.Split(b.CategoryList, "|") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}
