package search

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo"
	"github.com/pkg/errors"

	"github.com/xbrowse/xbrowse/contexts"
	"github.com/xbrowse/xbrowse/models/dtos"
	errorDtos "github.com/xbrowse/xbrowse/models/dtos/errors"
	searchService "github.com/xbrowse/xbrowse/services/search"
)

func GetStatus(c echo.Context) error {
	xc := c.(*contexts.XBrowseContext)

	return xc.JSON(http.StatusOK, dtos.StatusResponse{
		Status:      "up",
		GenomeBuild: string(xc.SearchService.Build()),
		DataTypes:   xc.SearchService.LoadedDataTypes(),
	})
}

func Search(c echo.Context) error {
	xc := c.(*contexts.XBrowseContext)

	response, err := xc.SearchService.Search(xc.Request().Context(), xc.SearchRequest)
	if err != nil {
		return respondWithError(xc, err)
	}
	return xc.JSON(http.StatusOK, response)
}

func Lookup(c echo.Context) error {
	xc := c.(*contexts.XBrowseContext)

	result, err := xc.SearchService.Lookup(xc.Request().Context(), xc.LookupRequest)
	if err != nil {
		return respondWithError(xc, err)
	}
	return xc.JSON(http.StatusOK, result)
}

func MultiLookup(c echo.Context) error {
	xc := c.(*contexts.XBrowseContext)

	response, err := xc.SearchService.MultiLookup(xc.Request().Context(), xc.MultiLookupRequest)
	if err != nil {
		return respondWithError(xc, err)
	}
	return xc.JSON(http.StatusOK, response)
}

// respondWithError maps the service sentinel errors onto response
// codes; anything unrecognized is a 500 tagged with the query id.
func respondWithError(xc *contexts.XBrowseContext, err error) error {
	switch {
	case errors.Is(err, searchService.ErrInvalidRequest),
		errors.Is(err, searchService.ErrLookupUnsupported):
		return xc.JSON(http.StatusBadRequest, errorDtos.CreateSimpleBadRequest(err.Error()))
	case errors.Is(err, searchService.ErrNotFound):
		return xc.JSON(http.StatusNotFound, errorDtos.CreateSimpleNotFound(err.Error()))
	default:
		fmt.Printf("[%s] - query %s failed : %v\n", time.Now().Format(time.RFC3339), xc.QueryId, err)
		return xc.JSON(http.StatusInternalServerError,
			errorDtos.CreateSimpleInternalServerError(fmt.Sprintf("query %s failed", xc.QueryId)))
	}
}
