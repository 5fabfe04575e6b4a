package query

import "strconv"

const (
	DefaultPagingLimit = 1000
)

// PaginateQuery appends keyset paging on the id column to query.
//
// The input query must end in a bracketed WHERE clause:
//
//	"SELECT ... WHERE (...)"
//
// which becomes:
//
//	"SELECT ... WHERE (...) AND id > $N ORDER BY id ASC LIMIT $N+1"
//
// The cursor condition is omitted for an empty cursor, and the limit for a
// zero limit.
func PaginateQuery(query string, args []interface{}, cursor Cursor, limit uint64, direction Ordering) (string, []interface{}) {
	if len(cursor) > 0 {
		v := strconv.Itoa(len(args) + 1)

		if direction == Ascending {
			query += " AND id > $" + v
		} else {
			query += " AND id < $" + v
		}

		args = append(args, cursor.ToUint64())
	}

	if direction == Ascending {
		query += " ORDER BY id ASC"
	} else {
		query += " ORDER BY id DESC"
	}

	if limit > 0 {
		v := strconv.Itoa(len(args) + 1)
		query += " LIMIT $" + v
		args = append(args, limit)
	}

	return query, args
}

// DefaultPaginationHandler resolves opts for a pager that supports limits,
// ordering and cursors, with limits capped at maxLimit.
func DefaultPaginationHandler(maxLimit uint64, opts ...Option) (*QueryOptions, error) {
	req := QueryOptions{
		Limit:     maxLimit,
		SortBy:    Ascending,
		Supported: CanLimitResults | CanSortBy | CanQueryByCursor,
	}
	if err := req.Apply(opts...); err != nil {
		return nil, err
	}

	if req.Limit == 0 || req.Limit > maxLimit {
		return nil, ErrQueryNotSupported
	}

	return &req, nil
}
