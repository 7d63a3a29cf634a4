package models

type Config struct {
	Debug bool `yaml:"debug" envconfig:"XBROWSE_DEBUG"`

	Api struct {
		Port           int `yaml:"port" envconfig:"XBROWSE_API_INTERNAL_PORT" default:"5000"`
		RequestTimeout int `yaml:"requestTimeout" envconfig:"XBROWSE_API_REQUEST_TIMEOUT" default:"300"`
	} `yaml:"api"`

	Datasets struct {
		Root          string `yaml:"root" envconfig:"XBROWSE_DATASETS_ROOT"`
		GenomeBuild   string `yaml:"genomeBuild" envconfig:"XBROWSE_GENOME_BUILD" default:"GRCh38"`
		MaxPartitions int    `yaml:"maxPartitions" envconfig:"XBROWSE_DATASETS_MAX_PARTITIONS" default:"12"`
	} `yaml:"datasets"`

	Reference struct {
		Dir string `yaml:"dir" envconfig:"XBROWSE_REFERENCE_DIR"`
	} `yaml:"reference"`

	Elasticsearch struct {
		Url       string `yaml:"url" envconfig:"XBROWSE_ES_URL"`
		Username  string `yaml:"username" envconfig:"XBROWSE_ES_USERNAME"`
		Password  string `yaml:"password" envconfig:"XBROWSE_ES_PASSWORD"`
		GeneIndex string `yaml:"geneIndex" envconfig:"XBROWSE_ES_GENE_INDEX" default:"genes"`
	} `yaml:"elasticsearch"`
}
