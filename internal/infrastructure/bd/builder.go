package bd

import (
	"fmt"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"fuel-pricing/pkg/types"
)

// ApplyListParams applies filter[...] equality, sort[...] and pagination.
// Keys missing from allowedMap are ignored.
func ApplyListParams(builder sq.SelectBuilder, filter types.Filter, allowedMap map[string]string) sq.SelectBuilder {
	for jsonField, val := range filter.Filter {
		dbCol, ok := allowedMap[jsonField]
		if !ok {
			continue
		}

		if s, ok := val.(string); ok && strings.Contains(s, ",") {
			builder = builder.Where(sq.Eq{dbCol: strings.Split(s, ",")})
		} else {
			builder = builder.Where(sq.Eq{dbCol: val})
		}
	}

	if len(filter.Sort) > 0 {
		// map order is random; keep ORDER BY stable between requests
		fields := make([]string, 0, len(filter.Sort))
		for jsonField := range filter.Sort {
			fields = append(fields, jsonField)
		}
		sort.Strings(fields)

		for _, jsonField := range fields {
			dbCol, ok := allowedMap[jsonField]
			if !ok {
				continue
			}
			sqlDir := "ASC"
			if strings.ToLower(filter.Sort[jsonField]) == "desc" {
				sqlDir = "DESC"
			}
			builder = builder.OrderBy(fmt.Sprintf("%s %s", dbCol, sqlDir))
		}
	}

	if filter.WithPagination {
		if filter.Limit > 0 {
			builder = builder.Limit(uint64(filter.Limit))
		}
		if filter.Offset >= 0 {
			builder = builder.Offset(uint64(filter.Offset))
		}
	}

	return builder
}

// ApplySearch adds an ILIKE over the given columns when search is not empty.
func ApplySearch(builder sq.SelectBuilder, search string, columns ...string) sq.SelectBuilder {
	search = strings.TrimSpace(search)
	if search == "" || len(columns) == 0 {
		return builder
	}
	pat := "%" + search + "%"
	or := make(sq.Or, 0, len(columns))
	for _, col := range columns {
		or = append(or, sq.ILike{col: pat})
	}
	return builder.Where(or)
}

// CountFilter is the filter used for the COUNT query: same WHERE, no sort, no paging.
func CountFilter(filter types.Filter) types.Filter {
	countFilter := filter
	countFilter.WithPagination = false
	countFilter.Sort = nil
	return countFilter
}