package utils

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	elasticsearch "github.com/elastic/go-elasticsearch/v7"
	es7 "github.com/elastic/go-elasticsearch/v7"

	"github.com/xbrowse/xbrowse/models"
)

// CreateEsConnection builds the elasticsearch client for the gene
// reference index. Returns nil when no url is configured, in which
// case callers fall back to the on-disk reference.
func CreateEsConnection(cfg *models.Config) *es7.Client {
	if cfg.Elasticsearch.Url == "" {
		return nil
	}

	var (
		clusterURLs  = []string{cfg.Elasticsearch.Url}
		retryBackoff = backoff.NewExponentialBackOff()
	)

	esCfg := elasticsearch.Config{
		Addresses: clusterURLs,
		Username:  cfg.Elasticsearch.Username,
		Password:  cfg.Elasticsearch.Password,

		RetryOnStatus: []int{502, 503, 504, 429},

		// Configure the backoff function
		RetryBackoff: func(i int) time.Duration {
			if i == 1 {
				retryBackoff.Reset()
			}
			return retryBackoff.NextBackOff()
		},

		// Retry up to 5 attempts
		MaxRetries: 5,
	}

	es7Client, _ := es7.NewClient(esCfg)

	fmt.Printf("Using ES7 Client Version %s\n", elasticsearch.Version)

	return es7Client
}
