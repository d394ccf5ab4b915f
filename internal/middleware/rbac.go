package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
	"github.com/noah-isme/sma-gradebook/pkg/response"
)

// SelfOnly lets a teacher change only their own account: the route parameter
// must equal the teacher id in the token.
func SelfOnly(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		target, err := strconv.Atoi(c.Param(param))
		if err != nil || target != claims.TeacherID {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "teachers may only change their own account"))
			return
		}
		c.Next()
	}
}
