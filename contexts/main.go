package contexts

import (
	"github.com/google/uuid"
	"github.com/labstack/echo"

	"github.com/xbrowse/xbrowse/models"
	"github.com/xbrowse/xbrowse/models/dtos"
	referenceService "github.com/xbrowse/xbrowse/services/reference"
	searchService "github.com/xbrowse/xbrowse/services/search"
)

type (
	// "Helper" Context to pass into routes that need
	//  the service singletons and the bound request bodies
	XBrowseContext struct {
		echo.Context
		Config           *models.Config
		QueryId          uuid.UUID
		SearchService    *searchService.Service
		ReferenceService *referenceService.Service

		// request bodies bound by middleware, one per route family
		SearchRequest      *dtos.SearchRequest
		LookupRequest      *dtos.LookupRequest
		MultiLookupRequest *dtos.MultiLookupRequest
	}
)
