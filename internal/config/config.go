package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported network names.
const (
	NetworkDevnet   = "devnet"
	NetworkTestnet  = "testnet"
	NetworkMainnet  = "mainnet"
	NetworkLocalnet = "localnet"
)

// Document store backends.
const (
	DocumentStoreWalrus     = "walrus"
	DocumentStoreCloudinary = "cloudinary"
)

var defaultRPCURLs = map[string]string{
	NetworkDevnet:   "https://fullnode.devnet.sui.io:443",
	NetworkTestnet:  "https://fullnode.testnet.sui.io:443",
	NetworkMainnet:  "https://fullnode.mainnet.sui.io:443",
	NetworkLocalnet: "http://127.0.0.1:9000",
}

// NetworkConfig holds the per-network values the ledger core needs at call time.
type NetworkConfig struct {
	Name       string
	RPCURL     string
	PackageID  string
	RegistryID string
}

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName      string
	AppEnv       string
	AppPort      string
	DatabaseURL  string
	RedisURL     string
	NATSURL      string
	EventChannel string
	JWTSecret    string

	ActiveNetwork string
	Networks      map[string]NetworkConfig

	SessionCacheTTL time.Duration
	PollInterval    time.Duration
	ConfirmTimeout  time.Duration
	RPCTimeout      time.Duration
	PageLimit       int
	RegistryFanout  int

	DocumentStore          string
	WalrusPublisherURL     string
	WalrusAggregatorURL    string
	WalrusEpochs           int
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	UploadMaxMB            int

	SignerURL     string
	// SignerTimeout caps the wallet bridge call; zero waits for approval indefinitely.
	SignerTimeout time.Duration

	CORSAllowOrigins   []string
	RateLimitPerMinute int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Network returns the configuration of the active network.
func (c Config) Network() NetworkConfig {
	return c.Networks[c.ActiveNetwork]
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("EDUDEFI")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	v.SetDefault("app.name", "EduDeFi API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("network.active", NetworkTestnet)
	v.SetDefault("events.channel", "edudefi:ledger")
	v.SetDefault("session.cache_ttl", "2m")
	v.SetDefault("ledger.poll_interval", "1s")
	v.SetDefault("ledger.confirm_timeout", "60s")
	v.SetDefault("ledger.rpc_timeout", "30s")
	v.SetDefault("signer.timeout", "0s")
	v.SetDefault("ledger.page_limit", 50)
	v.SetDefault("registry.fanout", 1)
	v.SetDefault("documents.store", DocumentStoreWalrus)
	v.SetDefault("walrus.publisher_url", "https://publisher.walrus-testnet.walrus.space")
	v.SetDefault("walrus.aggregator_url", "https://aggregator.walrus-testnet.walrus.space")
	v.SetDefault("walrus.epochs", 5)
	v.SetDefault("cloudinary.folder", "edudefi/contracts")
	v.SetDefault("upload.max_mb", 10)
	v.SetDefault("cors.allow_origins", "*")
	v.SetDefault("ratelimit.per_minute", 30)

	durations := map[string]time.Duration{}
	for _, key := range []string{"session.cache_ttl", "ledger.poll_interval", "ledger.confirm_timeout", "ledger.rpc_timeout", "signer.timeout"} {
		parsed, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		durations[key] = parsed
	}

	networks := make(map[string]NetworkConfig, len(defaultRPCURLs))
	for name, rpcURL := range defaultRPCURLs {
		prefix := "networks." + name
		v.SetDefault(prefix+".rpc_url", rpcURL)
		networks[name] = NetworkConfig{
			Name:       name,
			RPCURL:     v.GetString(prefix + ".rpc_url"),
			PackageID:  v.GetString(prefix + ".package_id"),
			RegistryID: v.GetString(prefix + ".registry_id"),
		}
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		EventChannel:           v.GetString("events.channel"),
		JWTSecret:              v.GetString("jwt.secret"),
		ActiveNetwork:          strings.ToLower(strings.TrimSpace(v.GetString("network.active"))),
		Networks:               networks,
		SessionCacheTTL:        durations["session.cache_ttl"],
		PollInterval:           durations["ledger.poll_interval"],
		ConfirmTimeout:         durations["ledger.confirm_timeout"],
		RPCTimeout:             durations["ledger.rpc_timeout"],
		PageLimit:              v.GetInt("ledger.page_limit"),
		RegistryFanout:         v.GetInt("registry.fanout"),
		DocumentStore:          strings.ToLower(v.GetString("documents.store")),
		WalrusPublisherURL:     v.GetString("walrus.publisher_url"),
		WalrusAggregatorURL:    v.GetString("walrus.aggregator_url"),
		WalrusEpochs:           v.GetInt("walrus.epochs"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		UploadMaxMB:            v.GetInt("upload.max_mb"),
		SignerURL:              v.GetString("signer.url"),
		SignerTimeout:          durations["signer.timeout"],
		CORSAllowOrigins:       splitList(v.GetString("cors.allow_origins")),
		RateLimitPerMinute:     v.GetInt("ratelimit.per_minute"),
	}

	if _, ok := cfg.Networks[cfg.ActiveNetwork]; !ok {
		return Config{}, fmt.Errorf("unknown network %q", cfg.ActiveNetwork)
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	network := cfg.Network()
	if network.PackageID == "" || network.RegistryID == "" {
		return Config{}, fmt.Errorf("package and registry ids must be provided for network %s", network.Name)
	}

	if cfg.PageLimit <= 0 {
		cfg.PageLimit = 50
	}

	if cfg.RegistryFanout <= 0 {
		cfg.RegistryFanout = 1
	}

	if cfg.RateLimitPerMinute <= 0 {
		cfg.RateLimitPerMinute = 30
	}

	if cfg.DocumentStore != DocumentStoreWalrus && cfg.DocumentStore != DocumentStoreCloudinary {
		return Config{}, fmt.Errorf("unsupported document store %q", cfg.DocumentStore)
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
