package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"boardapi/internal/models"
	"boardapi/internal/observability"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"
)

// KeywordTracker receives search terms for popularity statistics. Failures
// are logged by the caller and never fail a search.
type KeywordTracker interface {
	Record(ctx context.Context, term string) error
}

// Page is a limit/offset window of a listing.
type Page struct {
	Offset int
	Limit  int
}

// NewWrite is the client supplied part of a post, reply or comment.
type NewWrite struct {
	Subject  string
	Content  string
	Category string
	Option   string
	Link1    string
	Link2    string
	Name     string
	Password string // already hashed
	Email    string
	Homepage string
}

// WriteFields is a partial update of a write. Only non-nil fields are stored.
type WriteFields struct {
	Subject  *string
	Content  *string
	Category *string
	Option   *string
	Link1    *string
	Link2    *string
	Name     *string
	Password *string
	Email    *string
	Homepage *string
	SEOTitle *string
	LastAt   *time.Time
}

// Columns returns the column → value map of the set fields.
func (f WriteFields) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	set := func(col string, v *string) {
		if v != nil {
			cols[col] = *v
		}
	}
	set("wr_subject", f.Subject)
	set("wr_content", f.Content)
	set("ca_name", f.Category)
	set("wr_option", f.Option)
	set("wr_link1", f.Link1)
	set("wr_link2", f.Link2)
	set("wr_name", f.Name)
	set("wr_password", f.Password)
	set("wr_email", f.Email)
	set("wr_homepage", f.Homepage)
	set("wr_seo_title", f.SEOTitle)
	if f.LastAt != nil {
		cols["wr_last"] = *f.LastAt
	}
	return cols
}

// WriteService reads and mutates the rows of one board table.
type WriteService struct {
	db      *gorm.DB
	board   models.Board
	table   string
	tracker KeywordTracker
	now     func() time.Time
}

func NewWriteService(db *gorm.DB, board models.Board, table string, tracker KeywordTracker) *WriteService {
	return &WriteService{
		db:      db,
		board:   board,
		table:   table,
		tracker: tracker,
		now:     time.Now,
	}
}

func (s *WriteService) Board() *models.Board { return &s.board }

func (s *WriteService) Table() string { return s.table }

// inTx returns a copy of s whose queries run on tx.
func (s *WriteService) inTx(tx *gorm.DB) *WriteService {
	c := *s
	c.db = tx
	return &c
}

// searchWhere builds the search predicate and, when track is set, reports
// the keyword terms.
func (s *WriteService) searchWhere(ctx context.Context, p SearchParams, track bool) Predicate {
	pred, terms := BuildSearchPredicate(p)
	if track {
		s.trackKeywords(ctx, terms)
	}
	return pred
}

func (s *WriteService) trackKeywords(ctx context.Context, terms []string) {
	if s.tracker == nil {
		return
	}
	for _, term := range terms {
		observability.SearchKeywords.Inc()
		if err := s.tracker.Record(ctx, term); err != nil {
			observability.KeywordDrops.Inc()
			slog.WarnContext(ctx, "Failed to record search keyword", "term", term, "error", err)
		}
	}
}

func (s *WriteService) listQuery(ctx context.Context, p SearchParams, track bool) *gorm.DB {
	pred := s.searchWhere(ctx, p, track)
	q := s.db.WithContext(ctx).Table(s.table).Where(pred.SQL, pred.Args...)
	if part, ok := SearchPartPredicate(p); ok {
		q = q.Where(part.SQL, part.Args...)
	}
	return q
}

// FetchTotalCount counts the rows matching the search inside the current partition.
func (s *WriteService) FetchTotalCount(ctx context.Context, p SearchParams) (int64, error) {
	var total int64
	if err := s.listQuery(ctx, p, false).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count writes: %w", err)
	}
	return total, nil
}

// FetchWrites lists one page of the board. Keyword terms are reported here only.
func (s *WriteService) FetchWrites(ctx context.Context, p SearchParams, page Page) ([]models.Write, error) {
	order := ResolveSortOrder(&s.board, p.SortField, p.SortOrder)

	var writes []models.Write
	err := s.listQuery(ctx, p, true).
		Order(order).
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&writes).Error
	if err != nil {
		return nil, fmt.Errorf("fetch writes: %w", err)
	}
	return writes, nil
}

// FetchNoticeWrites returns the board notices in bo_notice order, secret posts excluded.
func (s *WriteService) FetchNoticeWrites(ctx context.Context) ([]models.Write, error) {
	ids := s.board.NoticeIDs()
	if len(ids) == 0 {
		return nil, nil
	}

	var writes []models.Write
	err := s.db.WithContext(ctx).Table(s.table).
		Where("wr_id IN ?", ids).
		Where("wr_option NOT LIKE ?", "%secret%").
		Find(&writes).Error
	if err != nil {
		return nil, fmt.Errorf("fetch notices: %w", err)
	}

	position := make(map[int]int, len(ids))
	for i, id := range ids {
		if _, ok := position[id]; !ok {
			position[id] = i
		}
	}
	sort.SliceStable(writes, func(i, j int) bool {
		return position[writes[i].ID] < position[writes[j].ID]
	})
	return writes, nil
}

func (s *WriteService) FetchWrite(ctx context.Context, id int) (*models.Write, error) {
	var w models.Write
	err := s.db.WithContext(ctx).Table(s.table).Where("wr_id = ?", id).Take(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWriteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch write %d: %w", id, err)
	}
	return &w, nil
}

// FetchWritesAndComments returns every row whose parent is id.
func (s *WriteService) FetchWritesAndComments(ctx context.Context, id int) ([]models.Write, error) {
	var writes []models.Write
	err := s.db.WithContext(ctx).Table(s.table).
		Where("wr_parent = ?", id).
		Order("wr_id").
		Find(&writes).Error
	if err != nil {
		return nil, fmt.Errorf("fetch writes of parent %d: %w", id, err)
	}
	return writes, nil
}

// FetchParentWriteByNumber returns the root post of thread num.
func (s *WriteService) FetchParentWriteByNumber(ctx context.Context, num int) (*models.Write, error) {
	var w models.Write
	err := s.db.WithContext(ctx).Table(s.table).
		Where("wr_num = ? AND wr_reply = '' AND wr_is_comment = 0", num).
		Take(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWriteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch thread %d: %w", num, err)
	}
	return &w, nil
}

// FetchReplyByWrite returns every reply below write in its thread.
func (s *WriteService) FetchReplyByWrite(ctx context.Context, write *models.Write) ([]models.Write, error) {
	var replies []models.Write
	err := s.db.WithContext(ctx).Table(s.table).
		Where("wr_reply LIKE ?", write.Reply+"%").
		Where("wr_id <> ?", write.ID).
		Where("wr_num = ?", write.Num).
		Where("wr_is_comment = ?", 0).
		Find(&replies).Error
	if err != nil {
		return nil, fmt.Errorf("fetch replies of %d: %w", write.ID, err)
	}
	return replies, nil
}

// FetchReplyByComment returns every reply below comment.
func (s *WriteService) FetchReplyByComment(ctx context.Context, comment *models.Write) ([]models.Write, error) {
	var replies []models.Write
	err := s.db.WithContext(ctx).Table(s.table).
		Where("wr_comment_reply LIKE ?", comment.CommentReply+"%").
		Where("wr_id <> ?", comment.ID).
		Where("wr_parent = ?", comment.Parent).
		Where("wr_comment = ?", comment.Comment).
		Where("wr_is_comment = ?", 1).
		Find(&replies).Error
	if err != nil {
		return nil, fmt.Errorf("fetch replies of comment %d: %w", comment.ID, err)
	}
	return replies, nil
}

// FetchCommentsByWrite returns the comments of a post in display order.
func (s *WriteService) FetchCommentsByWrite(ctx context.Context, write *models.Write) ([]models.Write, error) {
	var comments []models.Write
	err := s.db.WithContext(ctx).Table(s.table).
		Where("wr_parent = ? AND wr_is_comment = 1", write.ID).
		Order("wr_comment, wr_comment_reply").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("fetch comments of %d: %w", write.ID, err)
	}
	return comments, nil
}

// FetchPrevWrite finds the post shown before write, or nil when there is none.
func (s *WriteService) FetchPrevWrite(ctx context.Context, write *models.Write, p SearchParams) (*models.NeighborWrite, error) {
	search := s.searchWhere(ctx, p, false)
	order := []string{"wr_num DESC", "wr_reply DESC"}

	prev, err := s.fetchNeighbor(ctx, sq.And{search, sq.Eq{"wr_num": write.Num}, sq.Lt{"wr_reply": write.Reply}}, order...)
	if err != nil || prev != nil {
		return prev, err
	}
	return s.fetchNeighbor(ctx, sq.And{search, sq.Lt{"wr_num": write.Num}}, order...)
}

// FetchNextWrite finds the post shown after write, or nil when there is none.
func (s *WriteService) FetchNextWrite(ctx context.Context, write *models.Write, p SearchParams) (*models.NeighborWrite, error) {
	search := s.searchWhere(ctx, p, false)
	order := []string{"wr_num", "wr_reply"}

	next, err := s.fetchNeighbor(ctx, sq.And{search, sq.Eq{"wr_num": write.Num}, sq.Gt{"wr_reply": write.Reply}}, order...)
	if err != nil || next != nil {
		return next, err
	}
	return s.fetchNeighbor(ctx, sq.And{search, sq.Gt{"wr_num": write.Num}}, order...)
}

func (s *WriteService) fetchNeighbor(ctx context.Context, where sq.Sqlizer, orderBy ...string) (*models.NeighborWrite, error) {
	query, args, err := sq.Select("wr_id", "wr_subject", "wr_datetime").
		From(s.table).
		Where(sq.Eq{"wr_is_comment": 0}).
		Where(where).
		OrderBy(orderBy...).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []models.NeighborWrite
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("fetch neighbor: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// FetchWriteCommentLast returns the newest comment time of post, or the post's
// own creation time when it has no comments.
func (s *WriteService) FetchWriteCommentLast(ctx context.Context, post *models.Write) (time.Time, error) {
	var last sql.NullTime
	err := s.db.WithContext(ctx).Raw("SELECT MAX(wr_datetime) AS wr_last FROM "+s.table+" WHERE wr_parent = ? AND wr_is_comment = 1", post.ID).
		Row().Scan(&last)
	if err != nil {
		return time.Time{}, fmt.Errorf("fetch comment last of %d: %w", post.ID, err)
	}
	if !last.Valid {
		return post.CreatedAt, nil
	}
	return last.Time, nil
}

// FetchMinimumWriteNumber returns the smallest thread number, 0 for an empty board.
func (s *WriteService) FetchMinimumWriteNumber(ctx context.Context) (int, error) {
	var minNum sql.NullInt64
	if err := s.db.WithContext(ctx).Raw("SELECT MIN(wr_num) AS min_wr_num FROM " + s.table).Row().Scan(&minNum); err != nil {
		return 0, fmt.Errorf("fetch minimum wr_num: %w", err)
	}
	return int(minNum.Int64), nil
}

// ResolveSearchPart fills the partition window of a search request. The
// first window starts at the smallest thread number.
func (s *WriteService) ResolveSearchPart(ctx context.Context, p *SearchParams, partSize int) error {
	if !p.IsSearch {
		return nil
	}
	minNum, err := s.FetchMinimumWriteNumber(ctx)
	if err != nil {
		return err
	}
	p.SearchPart = partSize
	p.MinSpt = &minNum
	if p.Spt == 0 {
		p.Spt = minNum
	}
	return nil
}

// lockThread serializes reply allocation inside one thread for the rest of the transaction.
func (s *WriteService) lockThread(tx *gorm.DB, num int) error {
	if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?), ?)", s.table, num).Error; err != nil {
		return fmt.Errorf("lock thread %d: %w", num, err)
	}
	return nil
}

func (s *WriteService) newRow(data NewWrite, member *models.Member, ip string) *models.Write {
	now := s.now()
	w := &models.Write{
		Subject:  data.Subject,
		Content:  data.Content,
		Category: data.Category,
		Option:   data.Option,
		Link1:    data.Link1,
		Link2:    data.Link2,
		Name:     data.Name,
		Password: data.Password,
		Email:    data.Email,
		Homepage: data.Homepage,
		// SEO slugs are not generated by the api
		SEOTitle:  "",
		CreatedAt: now,
		LastAt:    now,
		IP:        ip,
	}
	if member != nil {
		w.MemberID = member.ID
	}
	return w
}

// CreateWrite inserts a root post, or a reply when parent is set, and returns its id.
func (s *WriteService) CreateWrite(ctx context.Context, data NewWrite, member *models.Member, parent *models.Write, ip string) (int, error) {
	w := s.newRow(data, member, ip)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ts := s.inTx(tx)
		if parent == nil {
			if err := ts.lockThread(tx, 0); err != nil {
				return err
			}
			minNum, err := ts.FetchMinimumWriteNumber(ctx)
			if err != nil {
				return err
			}
			w.Num = minNum - 1
			_, err = ts.InsertWrite(ctx, w)
			return err
		}

		if err := ts.lockThread(tx, parent.Num); err != nil {
			return err
		}
		reply, err := ts.ReplyCharacter(ctx, parent)
		if err != nil {
			return err
		}
		w.Num = parent.Num
		w.Parent = parent.ID
		w.Reply = reply
		_, err = ts.InsertWrite(ctx, w)
		return err
	})
	if err != nil {
		return 0, err
	}

	kind := "post"
	if parent != nil {
		kind = "reply"
	}
	observability.WritesCreated.WithLabelValues(s.board.Table, kind).Inc()
	return w.ID, nil
}

// CreateComment inserts a comment on post, or a reply to target when set,
// and bumps the post's comment count.
func (s *WriteService) CreateComment(ctx context.Context, data NewWrite, member *models.Member, post, target *models.Write, ip string) (int, error) {
	w := s.newRow(data, member, ip)
	w.IsComment = 1
	w.Num = post.Num
	w.Parent = post.ID
	w.Category = post.Category
	w.Subject = post.Subject

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ts := s.inTx(tx)
		if err := ts.lockThread(tx, post.Num); err != nil {
			return err
		}
		if target == nil {
			var maxComment sql.NullInt64
			err := tx.Raw("SELECT MAX(wr_comment) AS max_comment FROM "+s.table+" WHERE wr_parent = ? AND wr_is_comment = 1", post.ID).
				Row().Scan(&maxComment)
			if err != nil {
				return fmt.Errorf("fetch max comment: %w", err)
			}
			w.Comment = int(maxComment.Int64) + 1
		} else {
			reply, err := ts.CommentReplyCharacter(ctx, target)
			if err != nil {
				return err
			}
			w.Comment = target.Comment
			w.CommentReply = reply
		}

		if _, err := ts.InsertWrite(ctx, w); err != nil {
			return err
		}
		return ts.AdjustCommentCount(ctx, post.ID, 1, w.CreatedAt)
	})
	if err != nil {
		return 0, err
	}

	observability.WritesCreated.WithLabelValues(s.board.Table, "comment").Inc()
	return w.ID, nil
}

// InsertWrite stores a fully populated row and returns its id.
func (s *WriteService) InsertWrite(ctx context.Context, w *models.Write) (int, error) {
	if err := s.db.WithContext(ctx).Table(s.table).Create(w).Error; err != nil {
		return 0, fmt.Errorf("insert write: %w", err)
	}
	return w.ID, nil
}

// UpdateWriteData applies a client edit and stamps wr_last.
func (s *WriteService) UpdateWriteData(ctx context.Context, write *models.Write, fields WriteFields) error {
	empty := ""
	now := s.now()
	fields.SEOTitle = &empty
	fields.LastAt = &now
	return s.UpdateWrite(ctx, write.ID, fields)
}

func (s *WriteService) UpdateWrite(ctx context.Context, id int, fields WriteFields) error {
	cols := fields.Columns()
	if len(cols) == 0 {
		return nil
	}
	return s.updateColumns(s.db.WithContext(ctx), "wr_id", id, cols)
}

func (s *WriteService) UpdateWriteParentID(ctx context.Context, id, parentID int) error {
	return s.updateColumns(s.db.WithContext(ctx), "wr_id", id, map[string]interface{}{"wr_parent": parentID})
}

// UpdateCategoryByParentID moves every child row of a post to category.
func (s *WriteService) UpdateCategoryByParentID(ctx context.Context, id int, category string) error {
	return s.updateColumns(s.db.WithContext(ctx), "wr_parent", id, map[string]interface{}{"ca_name": category})
}

func (s *WriteService) updateColumns(db *gorm.DB, key string, id int, cols map[string]interface{}) error {
	if err := db.Table(s.table).Where(key+" = ?", id).Updates(cols).Error; err != nil {
		return fmt.Errorf("update write %s=%d: %w", key, id, err)
	}
	return nil
}

// UpdateWriteGood increments wr_good or wr_nogood.
func (s *WriteService) UpdateWriteGood(ctx context.Context, id int, goodType string) error {
	if goodType != "good" && goodType != "nogood" {
		return ErrInvalidGoodType
	}
	return s.increment(ctx, id, "wr_"+goodType)
}

func (s *WriteService) IncreaseHit(ctx context.Context, id int) error {
	return s.increment(ctx, id, "wr_hit")
}

func (s *WriteService) increment(ctx context.Context, id int, column string) error {
	err := s.db.WithContext(ctx).Table(s.table).
		Where("wr_id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + 1")).Error
	if err != nil {
		return fmt.Errorf("increment %s of %d: %w", column, id, err)
	}
	return nil
}

// AdjustCommentCount shifts a post's comment count by delta and sets wr_last.
func (s *WriteService) AdjustCommentCount(ctx context.Context, postID, delta int, last time.Time) error {
	return s.updateColumns(s.db.WithContext(ctx), "wr_id", postID, map[string]interface{}{
		"wr_comment": gorm.Expr("wr_comment + ?", delta),
		"wr_last":    last,
	})
}

func (s *WriteService) DeleteWrite(ctx context.Context, id int) error {
	return s.deleteBy(s.db.WithContext(ctx), "wr_id", id)
}

// DeleteWriteByParentID removes every row whose parent is id.
func (s *WriteService) DeleteWriteByParentID(ctx context.Context, id int) error {
	return s.deleteBy(s.db.WithContext(ctx), "wr_parent", id)
}

func (s *WriteService) deleteBy(db *gorm.DB, key string, id int) error {
	if err := db.Table(s.table).Where(key+" = ?", id).Delete(&models.Write{}).Error; err != nil {
		return fmt.Errorf("delete write %s=%d: %w", key, id, err)
	}
	return nil
}

// DeleteWriteTree removes a post together with its replies and all their comments.
func (s *WriteService) DeleteWriteTree(ctx context.Context, write *models.Write) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ts := s.inTx(tx)
		replies, err := ts.FetchReplyByWrite(ctx, write)
		if err != nil {
			return err
		}
		for _, reply := range replies {
			if err := ts.DeleteWriteByParentID(ctx, reply.ID); err != nil {
				return err
			}
			if err := ts.DeleteWrite(ctx, reply.ID); err != nil {
				return err
			}
		}
		if err := ts.DeleteWriteByParentID(ctx, write.ID); err != nil {
			return err
		}
		return ts.DeleteWrite(ctx, write.ID)
	})
}

// DeleteComment removes one comment and refreshes the post's count and wr_last.
func (s *WriteService) DeleteComment(ctx context.Context, post, comment *models.Write) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ts := s.inTx(tx)
		if err := ts.DeleteWrite(ctx, comment.ID); err != nil {
			return err
		}
		last, err := ts.FetchWriteCommentLast(ctx, post)
		if err != nil {
			return err
		}
		return ts.AdjustCommentCount(ctx, post.ID, -1, last)
	})
}
