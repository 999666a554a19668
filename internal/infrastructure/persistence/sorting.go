package persistence

import (
	"strings"

	"gorm.io/gorm/clause"

	"github.com/quoteflow/backend/internal/domain/shared"
)

// sortColumns whitelists the columns a list endpoint may order by
type sortColumns map[string]struct{}

func newSortColumns(columns ...string) sortColumns {
	s := make(sortColumns, len(columns))
	for _, c := range columns {
		s[c] = struct{}{}
	}
	return s
}

var (
	quoteSortColumns = newSortColumns(
		"created_at", "updated_at", "quote_number", "title",
		"customer_name", "total_amount", "status", "sent_at", "accepted_at",
	)
	workOrderSortColumns = newSortColumns(
		"created_at", "updated_at", "order_number", "title",
		"customer_name", "value", "status",
	)
)

// orderBy turns the filter's sort request into an ORDER BY column. Unknown
// columns fall back to fallback; any direction other than asc sorts descending.
func (s sortColumns) orderBy(filter shared.Filter, fallback string) clause.OrderByColumn {
	column := strings.TrimSpace(filter.OrderBy)
	if _, ok := s[column]; !ok {
		column = fallback
	}
	return clause.OrderByColumn{
		Column: clause.Column{Name: column},
		Desc:   !strings.EqualFold(strings.TrimSpace(filter.OrderDir), "asc"),
	}
}
