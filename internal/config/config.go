package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DatabaseURL string
	RedisURL    string
	HTTPPort    int
	APIKey      string

	// PublicBaseURL is where the dashboard is reachable from outside; alert
	// emails link back to it.
	PublicBaseURL string

	OpenAIAPIKey        string
	OpenAIBaseURL       string
	OpenAIModel         string
	AnalysisMaxTokens   int
	AnalysisTemperature float64

	NewsAPIKey         string
	FeedsFile          string
	MaxArticlesPerFeed int
	MaxTotalArticles   int
	NewsAPIMaxPages    int

	FetchMaxRetries int
	FetchRetryDelay time.Duration
	FetchTimeout    time.Duration
	FetchRatePerSec float64

	PipelineInterval time.Duration
	AlertInterval    time.Duration
	AlertMinGap      time.Duration

	SMTPServer    string
	SMTPPort      int
	SMTPUser      string
	SMTPPass      string
	SMTPFrom      string
	AlertLogoPath string

	TelegramBotToken string

	SSHPort                   int
	SSHHostKeyPath            string
	SSHAuthorizedFingerprints []string

	MCPTransport string
	MCPHTTPBind  string
	MCPHTTPPort  int

	TracingEnabled bool
	OTLPEndpoint   string
}

func Load() *Config {
	cfg := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		APIKey:           strings.TrimSpace(os.Getenv("API_KEY")),
		PublicBaseURL:    strings.TrimRight(strings.TrimSpace(os.Getenv("PUBLIC_BASE_URL")), "/"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:    strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		NewsAPIKey:       strings.TrimSpace(os.Getenv("NEWSAPI_KEY")),
		FeedsFile:        strings.TrimSpace(os.Getenv("FEEDS_FILE")),
		SMTPServer:       strings.TrimSpace(os.Getenv("SMTP_SERVER")),
		SMTPUser:         os.Getenv("SMTP_USER"),
		SMTPPass:         os.Getenv("SMTP_PASS"),
		SMTPFrom:         strings.TrimSpace(os.Getenv("SMTP_FROM")),
		AlertLogoPath:    strings.TrimSpace(os.Getenv("ALERT_LOGO_PATH")),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		SSHHostKeyPath:   strings.TrimSpace(os.Getenv("SSH_HOST_KEY_PATH")),
		OTLPEndpoint:     strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.APIKey == "" {
		log.Println("Warning: API_KEY not set, manual pipeline runs are open")
	}
	if cfg.OpenAIAPIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set, analysis will be disabled")
	}
	if cfg.NewsAPIKey == "" {
		log.Println("Warning: NEWSAPI_KEY not set, NewsAPI source will be skipped")
	}
	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set")
	}

	cfg.HTTPPort = positiveInt("HTTP_PORT", 8080)

	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}
	cfg.AnalysisMaxTokens = positiveInt("ANALYSIS_MAX_TOKENS", 4096)

	cfg.AnalysisTemperature = 0.5
	if v := strings.TrimSpace(os.Getenv("ANALYSIS_TEMPERATURE")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n >= 0 && n <= 2 {
			cfg.AnalysisTemperature = n
		}
	}

	cfg.MaxArticlesPerFeed = positiveInt("MAX_ARTICLES_PER_FEED", 20)
	cfg.MaxTotalArticles = positiveInt("MAX_TOTAL_ARTICLES", 250)
	cfg.NewsAPIMaxPages = positiveInt("NEWSAPI_MAX_PAGES", 3)

	cfg.FetchMaxRetries = positiveInt("FETCH_MAX_RETRIES", 3)
	cfg.FetchRetryDelay = time.Duration(positiveInt("FETCH_RETRY_DELAY_SECS", 2)) * time.Second
	cfg.FetchTimeout = time.Duration(positiveInt("FETCH_TIMEOUT_SECS", 15)) * time.Second

	cfg.FetchRatePerSec = 2
	if v := strings.TrimSpace(os.Getenv("FETCH_RATE_PER_SEC")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.FetchRatePerSec = n
		}
	}

	cfg.PipelineInterval = time.Duration(positiveInt("PIPELINE_INTERVAL_MINS", 25)) * time.Minute
	cfg.AlertInterval = time.Duration(positiveInt("ALERT_INTERVAL_MINS", 5)) * time.Minute
	cfg.AlertMinGap = time.Duration(positiveInt("ALERT_MIN_GAP_HOURS", 6)) * time.Hour

	cfg.SMTPPort = positiveInt("SMTP_PORT", 587)
	if cfg.SMTPFrom == "" {
		cfg.SMTPFrom = cfg.SMTPUser
	}
	if cfg.SMTPServer == "" {
		log.Println("Warning: SMTP_SERVER not set, VIX alerts will not be emailed")
	}

	cfg.SSHPort = positiveInt("SSH_PORT", 23234)
	if cfg.SSHHostKeyPath == "" {
		cfg.SSHHostKeyPath = ".ssh/id_ed25519"
	}
	for _, fp := range strings.Split(os.Getenv("SSH_AUTHORIZED_FINGERPRINTS"), ",") {
		if fp = strings.TrimSpace(fp); fp != "" {
			cfg.SSHAuthorizedFingerprints = append(cfg.SSHAuthorizedFingerprints, fp)
		}
	}

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		log.Printf("Warning: unsupported MCP_TRANSPORT=%q, defaulting to stdio", cfg.MCPTransport)
		cfg.MCPTransport = "stdio"
	}

	cfg.MCPHTTPBind = strings.TrimSpace(os.Getenv("MCP_HTTP_BIND"))
	if cfg.MCPHTTPBind == "" {
		cfg.MCPHTTPBind = "127.0.0.1"
	}
	cfg.MCPHTTPPort = positiveInt("MCP_HTTP_PORT", 8090)

	cfg.TracingEnabled = !strings.EqualFold(strings.TrimSpace(os.Getenv("TRACING_ENABLED")), "false")

	return cfg
}

func positiveInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}
