package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xbrowse/xbrowse/contexts"
	xam "github.com/xbrowse/xbrowse/middleware"
	"github.com/xbrowse/xbrowse/models"
	searchMvc "github.com/xbrowse/xbrowse/mvc/search"
	"github.com/xbrowse/xbrowse/repositories/tabular"
	referenceService "github.com/xbrowse/xbrowse/services/reference"
	"github.com/xbrowse/xbrowse/services/refresh"
	searchService "github.com/xbrowse/xbrowse/services/search"
	"github.com/xbrowse/xbrowse/utils"
)

func main() {
	// Gather environment variables
	var cfg models.Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	fmt.Printf("Using : \n"+

		"\tDebug : %t \n\n"+

		"\tDatasets Root : %s \n"+
		"\tGenome Build : %s \n"+
		"\tMax Partitions : %d\n"+
		"\tReference Directory : %s\n"+
		"\tElasticsearch Url : %s \n"+
		"\tElasticsearch Username : %s\n"+
		"\tGene Index : %s\n\n"+

		"\tRequest Timeout (seconds) : %d\n"+
		"Running on Port : %d\n",

		cfg.Debug,
		cfg.Datasets.Root,
		cfg.Datasets.GenomeBuild,
		cfg.Datasets.MaxPartitions,
		cfg.Reference.Dir,
		cfg.Elasticsearch.Url, cfg.Elasticsearch.Username,
		cfg.Elasticsearch.GeneIndex,
		cfg.Api.RequestTimeout,
		cfg.Api.Port)
	// --

	// Instantiate Server
	e := echo.New()

	// Service Connections:
	// -- Elasticsearch (optional gene reference index)
	es := utils.CreateEsConnection(&cfg)

	// Service Singletons
	store := tabular.NewDirectoryStore(cfg.Datasets.Root, cfg.Datasets.MaxPartitions)
	reference := referenceService.NewReferenceService(&cfg, es)
	if err := reference.Load(); err != nil {
		fmt.Printf("[%s] - Error loading reference at startup : %v..\n", time.Now().Format(time.RFC3339), err)
	}
	search := searchService.NewSearchService(&cfg, store, reference)
	refresh.NewRefreshService(&cfg, reference)

	// Configure Server
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST},
	}))

	// -- Override handlers with "custom xBrowse" context
	//		to be able to provide variables and global singletons
	e.Use(func(h echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &contexts.XBrowseContext{
				Context:          c,
				Config:           &cfg,
				SearchService:    search,
				ReferenceService: reference,
			}
			return h(cc)
		}
	})

	// -- Bound the request context so stuck table scans time out
	requestTimeout := time.Duration(cfg.Api.RequestTimeout) * time.Second
	e.Use(func(h echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))
			return h(c)
		}
	})

	// Begin MVC Routes
	// -- Root
	e.GET("/", func(c echo.Context) error {
		fmt.Printf("[%s] - Root hit!\n", time.Now().Format(time.RFC3339))
		return c.JSON(http.StatusOK, "Welcome to the xBrowse variant search api!")
	})

	// -- Status
	e.GET("/status", searchMvc.GetStatus)

	// -- Search
	e.POST("/search", searchMvc.Search,
		// middleware
		xam.IssueQueryId,
		xam.BindSearchRequest)

	// -- Lookup
	e.POST("/lookup", searchMvc.Lookup,
		// middleware
		xam.IssueQueryId,
		xam.BindLookupRequest)
	e.POST("/multi_lookup", searchMvc.MultiLookup,
		// middleware
		xam.IssueQueryId,
		xam.BindMultiLookupRequest)

	// -- Metrics
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Run
	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", cfg.Api.Port)))
}
