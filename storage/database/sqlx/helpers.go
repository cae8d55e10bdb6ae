package sqlxrepos

import (
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/trezcool/mahudhurio/core"
)

// pq unique_violation
const uniqueViolation = "23505"

func itoa(n int) string { return strconv.Itoa(n) }

func orderBy(ordering []core.DBOrdering) string {
	if len(ordering) == 0 {
		return ""
	}
	parts := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		parts = append(parts, ord.String())
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

// violatesUnique reports whether err is a unique_violation on the given
// constraint; an empty constraint matches any.
func violatesUnique(err error, constraint string) bool {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return false
	}
	if pqErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
