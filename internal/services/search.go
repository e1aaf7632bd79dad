package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

const defaultSearchField = "wr_subject"

var (
	searchFieldPattern = regexp.MustCompile(`^[\w,|]+$`)
	asciiLetterPattern = regexp.MustCompile(`[a-zA-Z]`)
)

// SearchParams carries the list/search query of a board (sca, stx, sfl, sop,
// sst, sod) together with the search partition window (spt).
type SearchParams struct {
	Category  string
	Keyword   string
	Fields    string
	Operator  string
	SortField string
	SortOrder string

	IsSearch   bool
	Spt        int
	SearchPart int
	MinSpt     *int
}

// Predicate is a WHERE fragment with its bound values in placeholder order.
type Predicate struct {
	SQL  string
	Args []interface{}
}

// ToSql lets a Predicate be composed into squirrel builders.
func (p Predicate) ToSql() (string, []interface{}, error) {
	return p.SQL, p.Args, nil
}

func toPredicate(s sq.Sqlizer) Predicate {
	sql, args, err := s.ToSql()
	if err != nil {
		// every clause here is built from Eq/Expr/conj which never fail
		panic(fmt.Sprintf("services: building predicate: %v", err))
	}
	return Predicate{SQL: sql, Args: args}
}

// BuildSearchPredicate turns a search request into a WHERE predicate. It also
// returns the terms that should be reported to the keyword tracker; searches
// on mb_id are never reported.
func BuildSearchPredicate(p SearchParams) (Predicate, []string) {
	var parts sq.And

	if p.Category != "" {
		parts = append(parts, sq.Eq{"ca_name": p.Category})
	}

	terms := strings.Fields(p.Keyword)
	if len(terms) == 0 {
		parts = append(parts, sq.Eq{"wr_is_comment": 0})
		return toPredicate(parts), nil
	}

	rawFields, commentsOnly := parseFieldSpec(p.Fields)
	track := true
	for _, f := range rawFields {
		if f == "mb_id" {
			track = false
			break
		}
	}

	fields := make([]string, len(rawFields))
	for i, f := range rawFields {
		if searchFieldPattern.MatchString(f) {
			fields[i] = strings.ToLower(f)
		} else {
			fields[i] = defaultSearchField
		}
	}

	var tracked []string
	termClauses := make([]sq.Sqlizer, 0, len(terms))
	for _, term := range terms {
		if track {
			tracked = append(tracked, term)
		}
		fieldClauses := make(sq.Or, 0, len(fields))
		for _, field := range fields {
			fieldClauses = append(fieldClauses, fieldClause(field, term))
		}
		termClauses = append(termClauses, fieldClauses)
	}

	if strings.EqualFold(strings.TrimSpace(p.Operator), "or") {
		parts = append(parts, sq.Or(termClauses))
	} else {
		parts = append(parts, sq.And(termClauses))
	}

	// comment search only when the field list ends with ",0"
	if commentsOnly {
		parts = append(parts, sq.Eq{"wr_is_comment": 1})
	} else {
		parts = append(parts, sq.Eq{"wr_is_comment": 0})
	}

	return toPredicate(parts), tracked
}

// parseFieldSpec splits "wr_subject||wr_content,1" into its fields and the comment marker.
func parseFieldSpec(sfl string) ([]string, bool) {
	segments := strings.Split(sfl, ",")
	var fields []string
	for _, f := range strings.Split(segments[0], "||") {
		fields = append(fields, strings.TrimSpace(f))
	}
	commentsOnly := len(segments) > 1 && strings.TrimSpace(segments[1]) == "0"
	return fields, commentsOnly
}

func fieldClause(field, term string) sq.Sqlizer {
	switch field {
	case "mb_id", "wr_name":
		return sq.Eq{field: term}
	case "wr_hit", "wr_good", "wr_nogood":
		n, err := strconv.Atoi(term)
		if err != nil {
			return sq.Expr("1=0")
		}
		return sq.GtOrEq{field: n}
	case "wr_num":
		n, err := strconv.Atoi(term)
		if err != nil {
			return sq.Expr("1=0")
		}
		return sq.Eq{field: -n}
	case "wr_ip", "wr_password":
		// never searchable
		return sq.Expr("1=0")
	default:
		if asciiLetterPattern.MatchString(term) {
			return sq.Expr(fmt.Sprintf("STRPOS(LOWER(%s::text), LOWER(?)) > 0", field), term)
		}
		return sq.Expr(fmt.Sprintf("STRPOS(%s::text, ?) > 0", field), term)
	}
}

// SearchPartPredicate bounds a search to the thread-number window
// [spt, spt+search_part]. ok is false when the request is not a search.
func SearchPartPredicate(p SearchParams) (pred Predicate, ok bool) {
	if !p.IsSearch {
		return Predicate{}, false
	}
	return toPredicate(sq.Expr("wr_num BETWEEN ? AND ?", p.Spt, p.Spt+p.SearchPart)), true
}

// PrevSearchPart returns the spt of the previous window, or 0 when there is none.
func PrevSearchPart(p SearchParams) int {
	if !p.IsSearch {
		return 0
	}
	prev := p.Spt - p.SearchPart
	if p.MinSpt != nil && prev < *p.MinSpt {
		return 0
	}
	return prev
}

// NextSearchPart returns the spt of the next window, or 0 once it would pass zero.
func NextSearchPart(p SearchParams) int {
	if !p.IsSearch {
		return 0
	}
	next := p.Spt + p.SearchPart
	if next > 0 {
		return 0
	}
	return next
}
