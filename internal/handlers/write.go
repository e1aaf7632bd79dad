package handlers

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"boardapi/internal/config"
	"boardapi/internal/middleware"
	"boardapi/internal/models"
	"boardapi/internal/services"
	"boardapi/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"gorm.io/gorm"
)

const (
	defaultSearchPart = 10000
	defaultPageRows   = 15
)

// WriteHandler serves the posts of a board. Each request builds a
// WriteService bound to the board named in the path.
type WriteHandler struct {
	db      *gorm.DB
	cfg     *config.Config
	boards  *services.BoardService
	tracker services.KeywordTracker
}

func NewWriteHandler(db *gorm.DB, cfg *config.Config, boards *services.BoardService, tracker services.KeywordTracker) *WriteHandler {
	return &WriteHandler{db: db, cfg: cfg, boards: boards, tracker: tracker}
}

func (h *WriteHandler) service(c *gin.Context) (*services.WriteService, bool) {
	board, err := h.boards.Get(c.Request.Context(), c.Param("bo_table"))
	if err != nil {
		respondServiceError(c, err)
		return nil, false
	}
	return services.NewWriteService(h.db, *board, h.cfg.WriteTable(board.Table), h.tracker), true
}

// loadPost fetches the post named by the wr_id parameter. Comments are
// not addressable as posts.
func loadPost(c *gin.Context, svc *services.WriteService) (*models.Write, bool) {
	id, ok := pathID(c, "wr_id")
	if !ok {
		return nil, false
	}
	write, err := svc.FetchWrite(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return nil, false
	}
	if write.IsComment != 0 {
		RespondError(c, http.StatusNotFound, "Write not found")
		return nil, false
	}
	return write, true
}

// canReadSecret: admin, the author, a guest author with the password, or
// the author of the thread a reply belongs to.
func canReadSecret(c *gin.Context, svc *services.WriteService, w *models.Write) bool {
	if middleware.IsSuperAdmin(c) || isAuthor(c, w) {
		return true
	}
	if w.MemberID == "" && checkPassword(w.Password, c.GetHeader("X-Write-Password")) {
		return true
	}
	if w.IsReply() && middleware.CurrentMember(c) != nil {
		root, err := svc.FetchParentWriteByNumber(c.Request.Context(), w.Num)
		if err == nil && isAuthor(c, root) {
			return true
		}
	}
	return false
}

// List 帖子列表
func (h *WriteHandler) List(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	board := svc.Board()
	site := middleware.CurrentConfig(c)

	params := q.searchParams()
	partSize := board.SearchPart
	if partSize <= 0 && site != nil {
		partSize = site.SearchPart
	}
	if partSize <= 0 {
		partSize = defaultSearchPart
	}
	if err := svc.ResolveSearchPart(ctx, &params, partSize); err != nil {
		respondServiceError(c, err)
		return
	}

	perPage := q.PerPage
	if perPage <= 0 {
		perPage = board.PageRows
	}
	if perPage <= 0 && site != nil {
		perPage = site.PageRows
	}
	if perPage <= 0 {
		perPage = defaultPageRows
	}
	page := max(q.Page, 1)

	total, err := svc.FetchTotalCount(ctx, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	writes, err := svc.FetchWrites(ctx, params, services.Page{Offset: (page - 1) * perPage, Limit: perPage})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	resp := ListResponse{
		TotalCount: total,
		TotalPage:  int((total + int64(perPage) - 1) / int64(perPage)),
		Page:       page,
		Notices:    []WriteResponse{},
		Writes:     make([]WriteResponse, 0, len(writes)),
		PrevSpt:    services.PrevSearchPart(params),
		NextSpt:    services.NextSearchPart(params),
	}
	if page == 1 && !params.IsSearch {
		notices, err := svc.FetchNoticeWrites(ctx)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		for i := range notices {
			resp.Notices = append(resp.Notices, newWriteResponse(h.cfg.SiteURL, board.Table, &notices[i], false))
		}
	}
	for i := range writes {
		resp.Writes = append(resp.Writes, newWriteResponse(h.cfg.SiteURL, board.Table, &writes[i], false))
	}
	c.JSON(http.StatusOK, resp)
}

// Get returns one post with its neighbors under the same search.
func (h *WriteHandler) Get(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		RespondError(c, http.StatusBadRequest, err.Error())
		return
	}
	write, ok := loadPost(c, svc)
	if !ok {
		return
	}
	if write.IsSecret() && !canReadSecret(c, svc, write) {
		RespondError(c, http.StatusForbidden, "This is a secret post")
		return
	}

	params := q.searchParams()
	ctx := c.Request.Context()

	if !isAuthor(c, write) {
		if err := svc.IncreaseHit(ctx, write.ID); err != nil {
			slog.Warn("Failed to increase hit", "wr_id", write.ID, "error", err)
		} else {
			write.Hit++
		}
	}

	prev, err := svc.FetchPrevWrite(ctx, write, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	next, err := svc.FetchNextWrite(ctx, write, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	boTable := svc.Board().Table
	c.JSON(http.StatusOK, DetailResponse{
		Write: newWriteResponse(h.cfg.SiteURL, boTable, write, true),
		Prev:  newNeighborResponse(h.cfg.SiteURL, boTable, prev),
		Next:  newNeighborResponse(h.cfg.SiteURL, boTable, next),
	})
}

// newWriteFromRequest validates the body of a create. It writes the error
// response itself and reports false on failure.
func newWriteFromRequest(c *gin.Context, board *models.Board, req *CreateWriteRequest) (services.NewWrite, bool) {
	data := services.NewWrite{
		Subject:  strings.TrimSpace(utils.StripTags(req.Subject)),
		Content:  req.Content,
		Option:   normalizeOption(req.Option),
		Link1:    req.Link1,
		Link2:    req.Link2,
		Email:    req.Email,
		Homepage: req.Homepage,
	}
	if data.Subject == "" {
		RespondError(c, http.StatusBadRequest, "wr_subject is required")
		return data, false
	}
	if utils.HasHTMLOption(data.Option) {
		data.Content = utils.SanitizeHTML(req.Content)
	}
	if board.UseCategory && req.Category != "" {
		if !slices.Contains(board.Categories(), req.Category) {
			RespondError(c, http.StatusBadRequest, "Unknown category")
			return data, false
		}
		data.Category = req.Category
	}
	if !fillAuthor(c, &data, req.Name, req.Password) {
		return data, false
	}
	return data, true
}

// fillAuthor copies the member's profile, or requires a guest name and password.
func fillAuthor(c *gin.Context, data *services.NewWrite, name, password string) bool {
	if member := middleware.CurrentMember(c); member != nil {
		data.Name = member.Nick
		if data.Name == "" {
			data.Name = member.Name
		}
		data.Email = member.Email
		data.Homepage = member.Homepage
		return true
	}
	name = strings.TrimSpace(utils.StripTags(name))
	if name == "" || password == "" {
		RespondError(c, http.StatusBadRequest, "wr_name and wr_password are required for guests")
		return false
	}
	hash, err := hashPassword(password)
	if err != nil {
		respondServiceError(c, err)
		return false
	}
	data.Name = name
	data.Password = hash
	return true
}

// Create 发布新帖
func (h *WriteHandler) Create(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}
	var req CreateWriteRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		RespondError(c, http.StatusBadRequest, err.Error())
		return
	}
	data, ok := newWriteFromRequest(c, svc.Board(), &req)
	if !ok {
		return
	}

	id, err := svc.CreateWrite(c.Request.Context(), data, middleware.CurrentMember(c), nil, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"wr_id": id, "href": writeHref(h.cfg.SiteURL, svc.Board().Table, id)})
}

// Reply answers the post in the path. A reply inherits the category and,
// for secret posts, the secret flag.
func (h *WriteHandler) Reply(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}
	parent, ok := loadPost(c, svc)
	if !ok {
		return
	}
	if parent.IsSecret() && !canReadSecret(c, svc, parent) {
		RespondError(c, http.StatusForbidden, "This is a secret post")
		return
	}
	var req CreateWriteRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		RespondError(c, http.StatusBadRequest, err.Error())
		return
	}
	req.Category = ""
	data, ok := newWriteFromRequest(c, svc.Board(), &req)
	if !ok {
		return
	}
	data.Category = parent.Category
	if parent.IsSecret() {
		data.Option = withSecret(data.Option)
	}

	id, err := svc.CreateWrite(c.Request.Context(), data, middleware.CurrentMember(c), parent, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"wr_id": id, "href": writeHref(h.cfg.SiteURL, svc.Board().Table, id)})
}

// Update merges the present fields into the post. A category change is
// carried to the post's comments.
func (h *WriteHandler) Update(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}
	write, ok := loadPost(c, svc)
	if !ok {
		return
	}
	var req UpdateWriteRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		RespondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if !canModify(c, write, req.Password) {
		RespondError(c, http.StatusForbidden, "You cannot edit this post")
		return
	}

	fields := services.WriteFields{
		Content: req.Content,
		Link1:   req.Link1,
		Link2:   req.Link2,
	}
	if req.Subject != nil {
		subject := strings.TrimSpace(utils.StripTags(*req.Subject))
		if subject == "" {
			RespondError(c, http.StatusBadRequest, "wr_subject is required")
			return
		}
		fields.Subject = &subject
	}
	option := write.Option
	if req.Option != nil {
		option = normalizeOption(*req.Option)
		if write.IsReply() && write.IsSecret() {
			option = withSecret(option)
		}
		fields.Option = &option
	}
	if req.Content != nil && utils.HasHTMLOption(option) {
		content := utils.SanitizeHTML(*req.Content)
		fields.Content = &content
	}

	board := svc.Board()
	categoryChanged := false
	if req.Category != nil && board.UseCategory && !write.IsReply() && *req.Category != write.Category {
		if *req.Category != "" && !slices.Contains(board.Categories(), *req.Category) {
			RespondError(c, http.StatusBadRequest, "Unknown category")
			return
		}
		fields.Category = req.Category
		categoryChanged = true
	}

	ctx := c.Request.Context()
	if err := svc.UpdateWriteData(ctx, write, fields); err != nil {
		respondServiceError(c, err)
		return
	}
	if categoryChanged {
		if err := svc.UpdateCategoryByParentID(ctx, write.ID, *req.Category); err != nil {
			respondServiceError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"wr_id": write.ID})
}

// Delete removes the post with its comments. Posts that have replies can
// only be removed by the super admin.
func (h *WriteHandler) Delete(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}
	write, ok := loadPost(c, svc)
	if !ok {
		return
	}
	if !canModify(c, write, bodyPassword(c)) {
		RespondError(c, http.StatusForbidden, "You cannot delete this post")
		return
	}

	ctx := c.Request.Context()
	if !middleware.IsSuperAdmin(c) {
		replies, err := svc.FetchReplyByWrite(ctx, write)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		if len(replies) > 0 {
			RespondError(c, http.StatusForbidden, "A post with replies cannot be deleted")
			return
		}
	}
	if err := svc.DeleteWriteTree(ctx, write); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wr_id": write.ID})
}

// Vote 推荐 / 不推荐
func (h *WriteHandler) Vote(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}
	write, ok := loadPost(c, svc)
	if !ok {
		return
	}
	member := middleware.CurrentMember(c)
	if member == nil {
		RespondError(c, http.StatusUnauthorized, "Login required")
		return
	}

	goodType := c.Param("good_type")
	if err := svc.Vote(c.Request.Context(), write, member, goodType); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wr_id": write.ID, "good_type": goodType})
}
