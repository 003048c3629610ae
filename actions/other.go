package actions

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"gitlab.com/cloverpay-platform/affiliate_api/httputils"
	"gitlab.com/cloverpay-platform/affiliate_api/logger"
)

// Ping the server
func Ping(c *gin.Context) {
	c.JSON(200, "pong")
}

func abortWithError(c *gin.Context, code int, message string) {
	l := getlog(c)
	l.Debug().Stack().Int("resp_code", code).Msg(message)
	c.AbortWithStatusJSON(code, httputils.RequestError{Error: message})
}

func getlog(c *gin.Context) zerolog.Logger {
	return logger.GetLogger(c)
}

func getUserID(c *gin.Context) (string, bool) {
	userID := c.GetHeader("X-User-Id")
	if userID == "" {
		return "", false
	}
	return userID, true
}

func getParamAsUint64(c *gin.Context, name string) (uint64, bool) {
	value, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func getQueryAsInt(c *gin.Context, name string, defaultValue int) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func getPagination(c *gin.Context) (int, int) {
	page := getQueryAsInt(c, "page", 1)
	limit := getQueryAsInt(c, "limit", 10)
	return page, limit
}
