package refresh

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/xbrowse/xbrowse/models"
	referenceService "github.com/xbrowse/xbrowse/services/reference"
)

type (
	// RefreshService keeps the in-memory gene reference in step with
	// its source by reloading it on a daily schedule
	RefreshService struct {
		Initialized bool
		Config      *models.Config
		Reference   *referenceService.Service
	}
)

func NewRefreshService(cfg *models.Config, reference *referenceService.Service) *RefreshService {
	rs := &RefreshService{
		Initialized: false,
		Config:      cfg,
		Reference:   reference,
	}

	rs.Init()

	return rs
}

func (rs *RefreshService) Init() {
	if !rs.Initialized {
		go func() {
			// setup cron job
			s := gocron.NewScheduler(time.UTC)

			// reload the gene reference once a day, off peak
			s.Every(1).Days().At("04:00:00").Do(func() {
				fmt.Printf("[%s] - Running reference refresh..\n", time.Now().Format(time.RFC3339))

				if err := rs.Reference.Load(); err != nil {
					fmt.Printf("[%s] - Error refreshing reference : %v..\n", time.Now().Format(time.RFC3339), err)
					return
				}
				fmt.Printf("[%s] - Reference refreshed (%d genes, loaded at %s)..\n",
					time.Now().Format(time.RFC3339), rs.Reference.Size(), rs.Reference.LoadedAt().Format(time.RFC3339))
			})

			// starts the scheduler in blocking mode, which blocks
			// the current execution path
			s.StartBlocking()
		}()

		rs.Initialized = true
		fmt.Println("Refresh Service Initialized ..")
	}
}
