package model

import "time"

// Config holds the complete estlookup configuration
type Config struct {
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Sources      SourcesConfig      `yaml:"sources" mapstructure:"sources"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
}

// HTTPConfig configures outbound requests to upstream sources
type HTTPConfig struct {
	Timeout          time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent        string        `yaml:"user_agent" mapstructure:"user_agent"`
	BrowserUserAgent string        `yaml:"browser_user_agent" mapstructure:"browser_user_agent"`
	MaxBodyBytes     int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	BulkMaxBodyBytes int64         `yaml:"bulk_max_body_bytes" mapstructure:"bulk_max_body_bytes"`
	InsecureTLS      bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	HTTPProxy        string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy       string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy          string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// SourcesConfig holds upstream endpoints per strategy
type SourcesConfig struct {
	StructuredAPI StructuredAPIConfig `yaml:"structured_api" mapstructure:"structured_api"`
	BulkText      BulkTextConfig      `yaml:"bulk_text" mapstructure:"bulk_text"`
	MarkupScrape  MarkupScrapeConfig  `yaml:"markup_scrape" mapstructure:"markup_scrape"`
	LocalTable    LocalTableConfig    `yaml:"local_table" mapstructure:"local_table"`
	Recall        EndpointConfig      `yaml:"recall" mapstructure:"recall"`
	Registration  EndpointConfig      `yaml:"registration" mapstructure:"registration"`
	PackagerCode  EndpointConfig      `yaml:"packager_code" mapstructure:"packager_code"`
}

// StructuredAPIConfig lists URL templates tried in order.
// Placeholders: {id} (prefixed code), {prefix}, {est}.
type StructuredAPIConfig struct {
	URLs []string `yaml:"urls" mapstructure:"urls"`
}

// BulkTextConfig points at the delimited directory export
type BulkTextConfig struct {
	URL string `yaml:"url" mapstructure:"url"`
}

// MarkupScrapeConfig describes the HTML search page and its cell markers
type MarkupScrapeConfig struct {
	URL           string        `yaml:"url" mapstructure:"url"`
	QueryParam    string        `yaml:"query_param" mapstructure:"query_param"`
	Facets        []string      `yaml:"facets" mapstructure:"facets"`
	Markers       MarkupMarkers `yaml:"markers" mapstructure:"markers"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// MarkupMarkers are class fragments identifying result-table cells
type MarkupMarkers struct {
	Name       string `yaml:"name" mapstructure:"name"`
	Address    string `yaml:"address" mapstructure:"address"`
	City       string `yaml:"city" mapstructure:"city"`
	State      string `yaml:"state" mapstructure:"state"`
	Activities string `yaml:"activities" mapstructure:"activities"`
}

// LocalTableConfig selects the table file; empty means the embedded table
type LocalTableConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// EndpointConfig is a single URL template
type EndpointConfig struct {
	URL string `yaml:"url" mapstructure:"url"`
}

// ServerConfig configures the HTTP transport
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ConcurrencyConfig controls batch parallelism
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig paces outbound calls per upstream host
type RateLimitingConfig struct {
	RequestsPerSecond float64    `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int        `yaml:"burst_size" mapstructure:"burst_size"`
	Hosts             []HostRate `yaml:"hosts,omitempty" mapstructure:"hosts"`
}

// HostRate overrides the default pace for one upstream host
type HostRate struct {
	Host              string  `yaml:"host" mapstructure:"host"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// CacheConfig controls the process-wide local table cache
type CacheConfig struct {
	LocalTable bool `yaml:"local_table" mapstructure:"local_table"`
}

// DefaultConfig returns the production upstream endpoints and limits
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:          60 * time.Second,
			UserAgent:        "FoodEstablishmentFinder/1.0",
			BrowserUserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
			MaxBodyBytes:     4 << 20,
			BulkMaxBodyBytes: 64 << 20,
		},
		Sources: SourcesConfig{
			StructuredAPI: StructuredAPIConfig{
				URLs: []string{
					"https://www.fsis.usda.gov/fsis/api/establishment/v/1?establishment_number={id}&$top=1",
					"https://www.fsis.usda.gov/fsis/api/establishment/v/1?EstablishmentNumber={id}&$top=1",
					"https://www.fsis.usda.gov/fsis/api/mpi/v/1?establishment_number={id}&$top=1",
				},
			},
			BulkText: BulkTextConfig{
				URL: "https://www.fsis.usda.gov/sites/default/files/media_file/documents/MPI_Directory_by_Establishment_Number.csv",
			},
			MarkupScrape: MarkupScrapeConfig{
				URL:        "https://www.fsis.usda.gov/inspection/establishments/meat-poultry-and-egg-product-inspection-directory",
				QueryParam: "keywords",
				Facets:     []string{"state", "activities", "size", "district"},
				Markers: MarkupMarkers{
					Name:       "views-field-field-establishment-name",
					Address:    "views-field-field-address",
					City:       "views-field-field-city",
					State:      "views-field-field-state",
					Activities: "views-field-field-activities",
				},
			},
			Recall: EndpointConfig{
				URL: "https://www.fsis.usda.gov/fsis/api/recall/v/1?establishment_id={id}&$top=3&$orderby=recall_date%20desc",
			},
			Registration: EndpointConfig{
				URL: "https://api.fda.gov/food/facility.json?search=registration_number:{est}&limit=1",
			},
			PackagerCode: EndpointConfig{
				URL: "https://world.openfoodfacts.org/packager-code/{code}.json",
			},
		},
		Server: ServerConfig{
			Addr: ":8080",
			Path: "/api/lookup",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         2,
		},
		Cache: CacheConfig{
			LocalTable: true,
		},
	}
}
