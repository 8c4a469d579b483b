// File: internal/common/pagination.go
package common

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// LimitOffset holds the window parameters of a list request.
type LimitOffset struct {
	Limit  int
	Offset int
}

// GetLimitOffset extracts limit and offset from the query string. A limit
// outside 1..maxLimit or a negative offset is a validation error.
func GetLimitOffset(c *gin.Context, defaultLimit, maxLimit int) (LimitOffset, error) {
	lo := LimitOffset{Limit: defaultLimit}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxLimit {
			return lo, NewValidationAPIError(map[string]string{
				"limit": "The limit field must be between 1 and " + strconv.Itoa(maxLimit) + ".",
			})
		}
		lo.Limit = limit
	}

	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return lo, NewValidationAPIError(map[string]string{
				"offset": "The offset field must be a non-negative integer.",
			})
		}
		lo.Offset = offset
	}
	return lo, nil
}
