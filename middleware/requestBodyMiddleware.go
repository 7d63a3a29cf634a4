package middleware

import (
	"net/http"

	"github.com/ahmetb/go-linq"
	"github.com/labstack/echo"

	"github.com/xbrowse/xbrowse/contexts"
	"github.com/xbrowse/xbrowse/models/dtos"
	"github.com/xbrowse/xbrowse/models/dtos/errors"
)

/*
Echo middleware to bind and pre-validate the search request body:
`sample_data` must name at least one family, and `num_results` is
calibrated onto a sane positive value
*/
func BindSearchRequest(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		xc := c.(*contexts.XBrowseContext)

		var request dtos.SearchRequest
		if err := xc.Bind(&request); err != nil {
			return xc.JSON(http.StatusBadRequest, errors.CreateSimpleBadRequest("malformed search request body"))
		}

		totalFamilies := 0
		for _, samples := range request.SampleData {
			totalFamilies += linq.From(samples).
				SelectT(func(sample dtos.SampleMetadata) string {
					return sample.FamilyGuid
				}).
				Distinct().
				Count()
		}
		if totalFamilies == 0 {
			return xc.JSON(http.StatusBadRequest, errors.CreateSimpleBadRequest("sample_data must name at least one family"))
		}

		if request.NumResults < 0 {
			request.NumResults = 0 // engine default
		}

		xc.SearchRequest = &request
		return next(xc)
	}
}

/*
Echo middleware to bind and pre-validate a single variant lookup body
*/
func BindLookupRequest(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		xc := c.(*contexts.XBrowseContext)

		var request dtos.LookupRequest
		if err := xc.Bind(&request); err != nil {
			return xc.JSON(http.StatusBadRequest, errors.CreateSimpleBadRequest("malformed lookup request body"))
		}
		if request.VariantId == "" {
			return xc.JSON(http.StatusBadRequest, errors.CreateSimpleBadRequest("variant_id is required"))
		}
		if request.DataType == "" {
			return xc.JSON(http.StatusBadRequest, errors.CreateSimpleBadRequest("data_type is required"))
		}

		xc.LookupRequest = &request
		return next(xc)
	}
}

/*
Echo middleware to bind and pre-validate a multi variant lookup body
*/
func BindMultiLookupRequest(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		xc := c.(*contexts.XBrowseContext)

		var request dtos.MultiLookupRequest
		if err := xc.Bind(&request); err != nil {
			return xc.JSON(http.StatusBadRequest, errors.CreateSimpleBadRequest("malformed lookup request body"))
		}
		if len(request.VariantIds) == 0 {
			return xc.JSON(http.StatusBadRequest, errors.CreateSimpleBadRequest("variant_ids is required"))
		}
		if request.DataType == "" {
			return xc.JSON(http.StatusBadRequest, errors.CreateSimpleBadRequest("data_type is required"))
		}

		xc.MultiLookupRequest = &request
		return next(xc)
	}
}
