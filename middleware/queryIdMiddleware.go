package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo"

	"github.com/xbrowse/xbrowse/contexts"
)

/*
Echo middleware to issue each request a query id, echoed back in the
X-Query-Id response header so log lines can be tied to a response
*/
func IssueQueryId(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		xc := c.(*contexts.XBrowseContext)

		xc.QueryId = uuid.New()
		xc.Response().Header().Set("X-Query-Id", xc.QueryId.String())

		return next(xc)
	}
}
