package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so "30s" style values parse from YAML.
type Duration time.Duration

// Std returns the plain time.Duration value.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like 90ms or 30s: %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// DelayRange bounds one randomized wait category. Ranges must have a
// non-zero width so interaction timing never becomes deterministic.
type DelayRange struct {
	Min Duration `yaml:"min"`
	Max Duration `yaml:"max"`
}

// Width returns the size of the range.
func (r DelayRange) Width() time.Duration {
	return r.Max.Std() - r.Min.Std()
}

// LedgerColumns maps each ledger field to its worksheet header text.
type LedgerColumns struct {
	Keyword    string `yaml:"keyword"`
	Target     string `yaml:"target"`
	Rank       string `yaml:"rank"`
	RankingURL string `yaml:"ranking_url"`
	Deletion   string `yaml:"deletion"`
	TitleMeta  string `yaml:"title_meta"`
	Content    string `yaml:"content"`
	Status     string `yaml:"status"`
}

// Config represents the application configuration
type Config struct {
	Server struct {
		Enabled      bool     `yaml:"enabled"`
		Port         int      `yaml:"port"`
		Host         string   `yaml:"host"`
		ReadTimeout  Duration `yaml:"read_timeout"`
		WriteTimeout Duration `yaml:"write_timeout"`
	} `yaml:"server"`

	Search struct {
		EntryURL          string   `yaml:"entry_url" validate:"required,url"`
		MaxPages          int      `yaml:"max_pages" validate:"min=1"`
		ResultsPerPage    int      `yaml:"results_per_page" validate:"min=1"`
		DetourProbability float64  `yaml:"detour_probability" validate:"min=0,max=1"`
		RatePerMinute     int      `yaml:"rate_per_minute" validate:"min=1"`
		UserAgent         string   `yaml:"user_agent"`
		HeadlessMode      bool     `yaml:"headless_mode"`
		StealthMode       bool     `yaml:"stealth_mode"`
		ResultsWait       Duration `yaml:"results_wait"`
		SearchBoxWait     Duration `yaml:"search_box_wait"`
		Captcha           struct {
			PollInterval Duration `yaml:"poll_interval"`
			WaitTimeout  Duration `yaml:"wait_timeout"`
		} `yaml:"captcha"`
	} `yaml:"search"`

	// Serp holds the CSS selectors for the search engine results page.
	// Core logic is selector-agnostic; these are injected data.
	Serp struct {
		ResultContainer string            `yaml:"result_container" validate:"required"`
		Link            string            `yaml:"link" validate:"required"`
		Heading         string            `yaml:"heading" validate:"required"`
		AdMarker        string            `yaml:"ad_marker" validate:"required"`
		NextPage        string            `yaml:"next_page" validate:"required"`
		SearchInput     string            `yaml:"search_input" validate:"required"`
		CaptchaMarker   string            `yaml:"captcha_marker" validate:"required"`
		Detours         map[string]string `yaml:"detours"`
	} `yaml:"serp"`

	// Site holds the audited site's selectors and thresholds.
	Site struct {
		FallbackURL      string   `yaml:"fallback_url" validate:"required,url"`
		SearchInput      string   `yaml:"search_input" validate:"required"`
		NoResults        string   `yaml:"no_results" validate:"required"`
		ProductCount     string   `yaml:"product_count" validate:"required"`
		ContentBlock     string   `yaml:"content_block" validate:"required"`
		SearchWait       Duration `yaml:"search_wait"`
		BodyWait         Duration `yaml:"body_wait"`
		MinProductCount  int      `yaml:"min_product_count" validate:"min=1"`
		TitleMinLen      int      `yaml:"title_min_len" validate:"min=1"`
		TitleMaxLen      int      `yaml:"title_max_len" validate:"min=1"`
		DescMinLen       int      `yaml:"desc_min_len" validate:"min=1"`
		DescMaxLen       int      `yaml:"desc_max_len" validate:"min=1"`
		PlaceholderGlyph string   `yaml:"placeholder_glyph"`
		MinContentWords  int      `yaml:"min_content_words" validate:"min=1"`
	} `yaml:"site"`

	Delays struct {
		Typing         DelayRange `yaml:"typing"`
		PageLoad       DelayRange `yaml:"page_load"`
		SerpRead       DelayRange `yaml:"serp_read"`
		BeforeNextPage DelayRange `yaml:"before_next_page"`
		DetourView     DelayRange `yaml:"detour_view"`
		BackSettle     DelayRange `yaml:"back_settle"`
		BetweenTasks   DelayRange `yaml:"between_tasks"`
	} `yaml:"delays"`

	Ledger struct {
		Path    string        `yaml:"path" validate:"required"`
		Sheet   string        `yaml:"sheet" validate:"required"`
		Columns LedgerColumns `yaml:"columns"`
	} `yaml:"ledger"`

	Notifications struct {
		Enabled bool   `yaml:"enabled"`
		Channel string `yaml:"channel"` // smtp or webhook
		SMTP    struct {
			Host     string   `yaml:"host"`
			Port     int      `yaml:"port"`
			From     string   `yaml:"from"`
			Password string   `yaml:"password"`
			To       []string `yaml:"to"`
		} `yaml:"smtp"`
		Webhook struct {
			URL        string   `yaml:"url"`
			Timeout    Duration `yaml:"timeout"`
			MaxRetries int      `yaml:"max_retries"`
		} `yaml:"webhook"`
	} `yaml:"notifications"`

	Logging struct {
		Level    string `yaml:"level"`
		Adapters []struct {
			Name    string                 `yaml:"name"`
			Type    string                 `yaml:"type"`
			Enabled bool                   `yaml:"enabled"`
			Options map[string]interface{} `yaml:"options"`
		} `yaml:"adapters"`
	} `yaml:"logging"`
}

// expandEnvVars expands environment variables in a string using ${VAR} or $VAR syntax
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	re2 := regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
	s = re2.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	return s
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	_ = godotenv.Load()

	config := &Config{}
	config.setDefaults()

	// Load from YAML file if it exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			yamlContent := expandEnvVars(string(data))

			if err := yaml.Unmarshal([]byte(yamlContent), config); err != nil {
				return nil, err
			}
		}
	}

	// Override with environment variables
	config.loadFromEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) setDefaults() {
	c.Server.Enabled = true
	c.Server.Port = 8080
	c.Server.Host = "127.0.0.1"
	c.Server.ReadTimeout = Duration(30 * time.Second)
	c.Server.WriteTimeout = Duration(30 * time.Second)

	c.Search.EntryURL = "https://www.google.com"
	c.Search.MaxPages = 1
	c.Search.ResultsPerPage = 10
	c.Search.DetourProbability = 0.5
	c.Search.RatePerMinute = 6
	c.Search.HeadlessMode = false
	c.Search.StealthMode = true
	c.Search.ResultsWait = Duration(5 * time.Second)
	c.Search.SearchBoxWait = Duration(10 * time.Second)
	c.Search.Captcha.PollInterval = Duration(5 * time.Second)
	c.Search.Captcha.WaitTimeout = Duration(300 * time.Second)

	c.Site.SearchWait = Duration(15 * time.Second)
	c.Site.BodyWait = Duration(15 * time.Second)
	c.Site.MinProductCount = 13
	c.Site.TitleMinLen = 45
	c.Site.TitleMaxLen = 70
	c.Site.DescMinLen = 145
	c.Site.DescMaxLen = 165
	c.Site.PlaceholderGlyph = "✯"
	c.Site.MinContentWords = 250

	c.Delays.Typing = DelayRange{Min: Duration(90 * time.Millisecond), Max: Duration(220 * time.Millisecond)}
	c.Delays.PageLoad = DelayRange{Min: Duration(2500 * time.Millisecond), Max: Duration(5 * time.Second)}
	c.Delays.SerpRead = DelayRange{Min: Duration(5 * time.Second), Max: Duration(8500 * time.Millisecond)}
	c.Delays.BeforeNextPage = DelayRange{Min: Duration(2 * time.Second), Max: Duration(4 * time.Second)}
	c.Delays.DetourView = DelayRange{Min: Duration(5 * time.Second), Max: Duration(9 * time.Second)}
	c.Delays.BackSettle = DelayRange{Min: Duration(2 * time.Second), Max: Duration(4 * time.Second)}
	c.Delays.BetweenTasks = DelayRange{Min: Duration(12 * time.Second), Max: Duration(22 * time.Second)}

	c.Ledger.Sheet = "kwd optimization"
	c.Ledger.Columns.Keyword = "Keyword"
	c.Ledger.Columns.Target = "Target URL"
	c.Ledger.Columns.Rank = "Rank"
	c.Ledger.Columns.RankingURL = "Ranking URL"
	c.Ledger.Columns.Deletion = "Deletion"
	c.Ledger.Columns.TitleMeta = "T&M"
	c.Ledger.Columns.Content = "Content"
	c.Ledger.Columns.Status = "Processing Status"

	c.Notifications.Channel = "smtp"
	c.Notifications.SMTP.Port = 587
	c.Notifications.Webhook.Timeout = Duration(30 * time.Second)
	c.Notifications.Webhook.MaxRetries = 3

	c.Logging.Level = "info"
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}

	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	if path := os.Getenv("LEDGER_PATH"); path != "" {
		c.Ledger.Path = path
	}

	if headless := os.Getenv("HEADLESS"); headless != "" {
		c.Search.HeadlessMode = headless == "true" || headless == "1"
	}

	if password := os.Getenv("SMTP_PASSWORD"); password != "" {
		c.Notifications.SMTP.Password = password
	}

	if url := os.Getenv("WEBHOOK_URL"); url != "" {
		c.Notifications.Webhook.URL = url
	}
}

// Validate checks the configuration for the unrecoverable setup failure
// class. Any error returned here halts the run before the first task.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ranges := map[string]DelayRange{
		"typing":           c.Delays.Typing,
		"page_load":        c.Delays.PageLoad,
		"serp_read":        c.Delays.SerpRead,
		"before_next_page": c.Delays.BeforeNextPage,
		"detour_view":      c.Delays.DetourView,
		"back_settle":      c.Delays.BackSettle,
		"between_tasks":    c.Delays.BetweenTasks,
	}
	for name, r := range ranges {
		if r.Min <= 0 {
			return fmt.Errorf("delay range %q: min must be positive", name)
		}
		if r.Width() <= 0 {
			return fmt.Errorf("delay range %q: max must exceed min", name)
		}
	}

	if c.Site.TitleMaxLen <= c.Site.TitleMinLen {
		return fmt.Errorf("site: title_max_len must exceed title_min_len")
	}
	if c.Site.DescMaxLen <= c.Site.DescMinLen {
		return fmt.Errorf("site: desc_max_len must exceed desc_min_len")
	}

	switch c.Notifications.Channel {
	case "smtp", "webhook":
	default:
		return fmt.Errorf("notifications: unknown channel %q", c.Notifications.Channel)
	}
	if c.Notifications.Enabled && c.Notifications.Channel == "webhook" && c.Notifications.Webhook.URL == "" {
		return fmt.Errorf("notifications: webhook channel requires a url")
	}
	if c.Notifications.Enabled && c.Notifications.Channel == "smtp" {
		if c.Notifications.SMTP.Host == "" || len(c.Notifications.SMTP.To) == 0 {
			return fmt.Errorf("notifications: smtp channel requires host and recipients")
		}
	}

	return nil
}
