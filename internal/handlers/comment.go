package handlers

import (
	"net/http"

	"boardapi/internal/middleware"
	"boardapi/internal/models"
	"boardapi/internal/services"
	"boardapi/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// loadComment fetches the comment_id parameter and checks it hangs off post.
func loadComment(c *gin.Context, svc *services.WriteService, post *models.Write) (*models.Write, bool) {
	id, ok := pathID(c, "comment_id")
	if !ok {
		return nil, false
	}
	comment, err := svc.FetchWrite(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return nil, false
	}
	if comment.IsComment == 0 || comment.Parent != post.ID {
		RespondError(c, http.StatusNotFound, "Comment not found")
		return nil, false
	}
	return comment, true
}

// commentVisible: a secret comment is shown to its author, the post author and the admin.
func commentVisible(c *gin.Context, post, comment *models.Write) bool {
	return middleware.IsSuperAdmin(c) || isAuthor(c, comment) || isAuthor(c, post)
}

// ListComments 评论列表
func (h *WriteHandler) ListComments(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}
	post, ok := loadPost(c, svc)
	if !ok {
		return
	}
	if post.IsSecret() && !canReadSecret(c, svc, post) {
		RespondError(c, http.StatusForbidden, "This is a secret post")
		return
	}

	comments, err := svc.FetchCommentsByWrite(c.Request.Context(), post)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	out := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		out = append(out, newCommentResponse(&comments[i], commentVisible(c, post, &comments[i])))
	}
	c.JSON(http.StatusOK, gin.H{"comments": out})
}

// CreateComment adds a comment to the post, or answers comment_id when given.
func (h *WriteHandler) CreateComment(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}
	post, ok := loadPost(c, svc)
	if !ok {
		return
	}
	if post.IsSecret() && !canReadSecret(c, svc, post) {
		RespondError(c, http.StatusForbidden, "This is a secret post")
		return
	}
	var req CreateCommentRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	var target *models.Write
	if req.CommentID > 0 {
		t, err := svc.FetchWrite(ctx, req.CommentID)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		if t.IsComment == 0 || t.Parent != post.ID {
			RespondError(c, http.StatusBadRequest, "comment_id does not belong to this post")
			return
		}
		target = t
	}

	data := services.NewWrite{
		Content: utils.StripTags(req.Content),
		Option:  normalizeOption(req.Option),
	}
	if data.Content == "" {
		RespondError(c, http.StatusBadRequest, "wr_content is required")
		return
	}
	if !fillAuthor(c, &data, req.Name, req.Password) {
		return
	}

	id, err := svc.CreateComment(ctx, data, middleware.CurrentMember(c), post, target, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"wr_id": id, "wr_parent": post.ID})
}

// UpdateComment edits the body of a comment. Comments that have replies
// are frozen for everyone but the admin.
func (h *WriteHandler) UpdateComment(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}
	post, ok := loadPost(c, svc)
	if !ok {
		return
	}
	comment, ok := loadComment(c, svc, post)
	if !ok {
		return
	}
	var req UpdateCommentRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		RespondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if !canModify(c, comment, req.Password) {
		RespondError(c, http.StatusForbidden, "You cannot edit this comment")
		return
	}
	if !h.commentIsLeaf(c, svc, comment) {
		return
	}

	content := utils.StripTags(req.Content)
	if content == "" {
		RespondError(c, http.StatusBadRequest, "wr_content is required")
		return
	}
	fields := services.WriteFields{Content: &content}
	if req.Option != nil {
		option := normalizeOption(*req.Option)
		fields.Option = &option
	}
	if err := svc.UpdateWriteData(c.Request.Context(), comment, fields); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wr_id": comment.ID})
}

// DeleteComment removes a comment that has no replies.
func (h *WriteHandler) DeleteComment(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}
	post, ok := loadPost(c, svc)
	if !ok {
		return
	}
	comment, ok := loadComment(c, svc, post)
	if !ok {
		return
	}
	if !canModify(c, comment, bodyPassword(c)) {
		RespondError(c, http.StatusForbidden, "You cannot delete this comment")
		return
	}
	if !h.commentIsLeaf(c, svc, comment) {
		return
	}

	if err := svc.DeleteComment(c.Request.Context(), post, comment); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wr_id": comment.ID})
}

func (h *WriteHandler) commentIsLeaf(c *gin.Context, svc *services.WriteService, comment *models.Write) bool {
	if middleware.IsSuperAdmin(c) {
		return true
	}
	replies, err := svc.FetchReplyByComment(c.Request.Context(), comment)
	if err != nil {
		respondServiceError(c, err)
		return false
	}
	if len(replies) > 0 {
		RespondError(c, http.StatusForbidden, "A comment with replies cannot be changed")
		return false
	}
	return true
}
