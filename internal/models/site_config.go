package models

// SiteConfig is the single row of g5_config injected into every request.
type SiteConfig struct {
	ID         uint   `gorm:"primaryKey" json:"-"`
	Title      string `gorm:"column:cf_title;size:255;not null" json:"cf_title"`
	Admin      string `gorm:"column:cf_admin;size:20;not null" json:"cf_admin"` // super admin mb_id
	DelaySec   int    `gorm:"column:cf_delay_sec;not null" json:"cf_delay_sec"`
	SearchPart int    `gorm:"column:cf_search_part;not null" json:"cf_search_part"`
	PageRows   int    `gorm:"column:cf_page_rows;not null" json:"cf_page_rows"`
}

func (SiteConfig) TableName() string { return "g5_config" }

// IsSuperAdmin reports whether mbID is the configured super admin.
func (c *SiteConfig) IsSuperAdmin(mbID string) bool {
	return c != nil && mbID != "" && c.Admin == mbID
}
