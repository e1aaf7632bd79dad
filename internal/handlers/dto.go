package handlers

import (
	"fmt"
	"strings"
	"time"

	"boardapi/internal/models"
	"boardapi/internal/services"
	"boardapi/internal/utils"
)

var allowedOptions = []string{"html1", "html2", "secret", "mail"}

// normalizeOption keeps the known wr_option flags in a fixed order.
func normalizeOption(option string) string {
	set := make(map[string]bool)
	for _, opt := range strings.Split(option, ",") {
		set[strings.TrimSpace(opt)] = true
	}
	var out []string
	for _, opt := range allowedOptions {
		if set[opt] {
			out = append(out, opt)
		}
	}
	return strings.Join(out, ",")
}

func withSecret(option string) string {
	return normalizeOption(option + ",secret")
}

// ListQuery is the query string of a listing. Field names follow gnuboard.
type ListQuery struct {
	Category  string `form:"sca"`
	Fields    string `form:"sfl"`
	Keyword   string `form:"stx"`
	Operator  string `form:"sop"`
	SortField string `form:"sst"`
	SortOrder string `form:"sod"`
	Spt       int    `form:"spt"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PerPage   int    `form:"per_page" binding:"omitempty,min=1,max=100"`
}

func (q ListQuery) searchParams() services.SearchParams {
	return services.SearchParams{
		Category:  strings.TrimSpace(q.Category),
		Keyword:   q.Keyword,
		Fields:    q.Fields,
		Operator:  q.Operator,
		SortField: q.SortField,
		SortOrder: q.SortOrder,
		IsSearch:  strings.TrimSpace(q.Category) != "" || strings.TrimSpace(q.Keyword) != "",
		Spt:       q.Spt,
	}
}

type CreateWriteRequest struct {
	Subject  string `json:"wr_subject" binding:"required,max=255"`
	Content  string `json:"wr_content" binding:"required,max=65536"`
	Category string `json:"ca_name" binding:"max=255"`
	Option   string `json:"wr_option" binding:"max=255"`
	Link1    string `json:"wr_link1" binding:"omitempty,url,max=1000"`
	Link2    string `json:"wr_link2" binding:"omitempty,url,max=1000"`
	Name     string `json:"wr_name" binding:"max=255"`
	Password string `json:"wr_password" binding:"max=255"`
	Email    string `json:"wr_email" binding:"omitempty,email,max=255"`
	Homepage string `json:"wr_homepage" binding:"omitempty,url,max=255"`
}

// UpdateWriteRequest merges only the fields that are present. Password
// authenticates a guest author and is not changed.
type UpdateWriteRequest struct {
	Subject  *string `json:"wr_subject" binding:"omitempty,min=1,max=255"`
	Content  *string `json:"wr_content" binding:"omitempty,min=1,max=65536"`
	Category *string `json:"ca_name" binding:"omitempty,max=255"`
	Option   *string `json:"wr_option" binding:"omitempty,max=255"`
	Link1    *string `json:"wr_link1" binding:"omitempty,max=1000"`
	Link2    *string `json:"wr_link2" binding:"omitempty,max=1000"`
	Password string  `json:"wr_password"`
}

type CreateCommentRequest struct {
	Content   string `json:"wr_content" binding:"required,max=10000"`
	CommentID int    `json:"comment_id" binding:"omitempty,min=1"`
	Option    string `json:"wr_option" binding:"max=255"`
	Name      string `json:"wr_name" binding:"max=255"`
	Password  string `json:"wr_password" binding:"max=255"`
}

type UpdateCommentRequest struct {
	Content  string  `json:"wr_content" binding:"required,max=10000"`
	Option   *string `json:"wr_option" binding:"omitempty,max=255"`
	Password string  `json:"wr_password"`
}

type WriteResponse struct {
	ID           int       `json:"wr_id"`
	Num          int       `json:"wr_num"`
	Reply        string    `json:"wr_reply"`
	Parent       int       `json:"wr_parent"`
	CommentCount int       `json:"wr_comment"`
	Category     string    `json:"ca_name"`
	Option       string    `json:"wr_option"`
	Subject      string    `json:"wr_subject"`
	Content      string    `json:"wr_content,omitempty"`
	ContentHTML  string    `json:"content_html,omitempty"`
	Summary      string    `json:"summary,omitempty"`
	Link1        string    `json:"wr_link1"`
	Link2        string    `json:"wr_link2"`
	Hit          int       `json:"wr_hit"`
	Good         int       `json:"wr_good"`
	NoGood       int       `json:"wr_nogood"`
	MemberID     string    `json:"mb_id"`
	Name         string    `json:"wr_name"`
	Homepage     string    `json:"wr_homepage"`
	CreatedAt    time.Time `json:"wr_datetime"`
	LastAt       time.Time `json:"wr_last"`
	IsSecret     bool      `json:"is_secret"`
	IsReply      bool      `json:"is_reply"`
	Depth        int       `json:"depth"`
	Href         string    `json:"href"`
}

func writeHref(siteURL, boTable string, id int) string {
	return fmt.Sprintf("%s/%s/writes/%d", strings.TrimRight(siteURL, "/"), boTable, id)
}

// newWriteResponse builds the public view of a post. Secret listings only
// expose the subject line.
func newWriteResponse(siteURL, boTable string, w *models.Write, detail bool) WriteResponse {
	resp := WriteResponse{
		ID:           w.ID,
		Num:          w.Num,
		Reply:        w.Reply,
		Parent:       w.Parent,
		CommentCount: w.Comment,
		Category:     w.Category,
		Option:       w.Option,
		Subject:      w.Subject,
		Link1:        w.Link1,
		Link2:        w.Link2,
		Hit:          w.Hit,
		Good:         w.Good,
		NoGood:       w.NoGood,
		MemberID:     w.MemberID,
		Name:         w.Name,
		Homepage:     w.Homepage,
		CreatedAt:    w.CreatedAt,
		LastAt:       w.LastAt,
		IsSecret:     w.IsSecret(),
		IsReply:      w.IsReply(),
		Depth:        len(w.Reply),
		Href:         writeHref(siteURL, boTable, w.ID),
	}
	if detail {
		resp.Content = w.Content
		resp.ContentHTML = utils.RenderContent(w.Content, w.Option)
	} else if !resp.IsSecret {
		resp.Summary = utils.PlainText(utils.RenderContent(w.Content, w.Option), 120)
	}
	return resp
}

type CommentResponse struct {
	ID           int       `json:"wr_id"`
	Parent       int       `json:"wr_parent"`
	Comment      int       `json:"wr_comment"`
	CommentReply string    `json:"wr_comment_reply"`
	Content      string    `json:"wr_content"`
	ContentHTML  string    `json:"content_html"`
	MemberID     string    `json:"mb_id"`
	Name         string    `json:"wr_name"`
	CreatedAt    time.Time `json:"wr_datetime"`
	IsSecret     bool      `json:"is_secret"`
	Depth        int       `json:"depth"`
}

// newCommentResponse hides the body of a secret comment unless visible is set.
func newCommentResponse(w *models.Write, visible bool) CommentResponse {
	resp := CommentResponse{
		ID:           w.ID,
		Parent:       w.Parent,
		Comment:      w.Comment,
		CommentReply: w.CommentReply,
		MemberID:     w.MemberID,
		Name:         w.Name,
		CreatedAt:    w.CreatedAt,
		IsSecret:     w.IsSecret(),
		Depth:        len(w.CommentReply),
	}
	if !resp.IsSecret || visible {
		resp.Content = w.Content
		resp.ContentHTML = utils.RenderContent(w.Content, w.Option)
	}
	return resp
}

type NeighborResponse struct {
	ID        int       `json:"wr_id"`
	Subject   string    `json:"wr_subject"`
	CreatedAt time.Time `json:"wr_datetime"`
	Href      string    `json:"href"`
}

func newNeighborResponse(siteURL, boTable string, n *models.NeighborWrite) *NeighborResponse {
	if n == nil {
		return nil
	}
	return &NeighborResponse{
		ID:        n.ID,
		Subject:   n.Subject,
		CreatedAt: n.CreatedAt,
		Href:      writeHref(siteURL, boTable, n.ID),
	}
}

type ListResponse struct {
	TotalCount int64           `json:"total_count"`
	TotalPage  int             `json:"total_page"`
	Page       int             `json:"page"`
	Notices    []WriteResponse `json:"notices"`
	Writes     []WriteResponse `json:"writes"`
	PrevSpt    int             `json:"prev_spt"`
	NextSpt    int             `json:"next_spt"`
}

type DetailResponse struct {
	Write WriteResponse     `json:"write"`
	Prev  *NeighborResponse `json:"prev"`
	Next  *NeighborResponse `json:"next"`
}
