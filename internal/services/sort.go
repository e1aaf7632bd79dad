package services

import (
	"regexp"
	"strings"

	"boardapi/internal/models"
)

const defaultSortOrder = "wr_num, wr_reply"

var (
	sortAliasStrip    = regexp.MustCompile(`[<>'"%=()/^*\s\\]`)
	directSortPattern = regexp.MustCompile(`(?i)^(wr_datetime|wr_hit|wr_good|wr_nogood)$`)
	boardSortPattern  = regexp.MustCompile(`^[\w\s,]+$`)
)

var boardSortExpressions = []string{
	"wr_num, wr_reply",
	"wr_datetime asc",
	"wr_datetime desc",
	"wr_hit asc, wr_num, wr_reply",
	"wr_hit desc, wr_num, wr_reply",
	"wr_last asc",
	"wr_last desc",
	"wr_comment asc, wr_num, wr_reply",
	"wr_comment desc, wr_num, wr_reply",
	"wr_good asc, wr_num, wr_reply",
	"wr_good desc, wr_num, wr_reply",
	"wr_nogood asc, wr_num, wr_reply",
	"wr_nogood desc, wr_num, wr_reply",
	"wr_subject asc, wr_num, wr_reply",
	"wr_subject desc, wr_num, wr_reply",
	"wr_name asc, wr_num, wr_reply",
	"wr_name desc, wr_num, wr_reply",
	"ca_name asc, wr_num, wr_reply",
	"ca_name desc, wr_num, wr_reply",
}

// BoardSortFields maps public sort aliases ("wr_hitdesc,wr_num,wr_reply")
// to their ORDER BY expressions.
var BoardSortFields = func() map[string]string {
	fields := make(map[string]string, len(boardSortExpressions))
	for _, expr := range boardSortExpressions {
		fields[SortAlias(expr)] = expr
	}
	return fields
}()

// SortAlias derives the public alias of an ORDER BY expression.
func SortAlias(expr string) string {
	return sortAliasStrip.ReplaceAllString(expr, "")
}

// ResolveSortOrder picks a safe ORDER BY clause. A requested alias is used
// when no direction is given, a direct field only with a valid direction.
// Otherwise the board default applies, then the natural thread order.
func ResolveSortOrder(board *models.Board, sst, sod string) string {
	sst = strings.TrimSpace(sst)
	requested := strings.TrimSpace(sod) != ""
	sod = normalizeDirection(sod)

	// any sod, even an invalid one, rules out the alias table
	if sst != "" {
		if !requested {
			if mapped, ok := BoardSortFields[sst]; ok {
				return mapped
			}
		} else if sod != "" && directSortPattern.MatchString(sst) {
			return strings.ToLower(sst) + " " + sod
		}
	}

	if board != nil && board.SortField != "" {
		if mapped, ok := BoardSortFields[board.SortField]; ok {
			return mapped
		}
		if boardSortPattern.MatchString(board.SortField) {
			return board.SortField
		}
	}
	return defaultSortOrder
}

func normalizeDirection(sod string) string {
	switch strings.ToLower(strings.TrimSpace(sod)) {
	case "asc":
		return "asc"
	case "desc":
		return "desc"
	default:
		return ""
	}
}
