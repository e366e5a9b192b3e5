package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/RoyceAzure/lab/freshmarket/internal/constants"
	"github.com/fsnotify/fsnotify"
	viper "github.com/spf13/viper"
)

/*
把init config跟read config分開
init : 需要設置viper watch 與 onConfigChange
read : 一般讀寫  需要使用讀寫鎖
*/
var config_singleton *ConfigSingleTon
var muonce sync.Once

// 指定設定檔路徑的環境變數，未設定時嘗試讀取工作目錄下的 .env
const ConfigPathEnv = "FRESHMARKET_CONFIG"

type ConfigSingleTon struct {
	Config *Config
	mu     sync.RWMutex
}

type Config struct {
	ModulerName string `mapstructure:"MODULER_NAME"`
	Env         string `mapstructure:"ENV"`

	ApiBaseUrl string        `mapstructure:"API_BASE_URL"`
	ApiTimeout time.Duration `mapstructure:"API_TIMEOUT"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// session scope: memory | file
	SessionStore string `mapstructure:"SESSION_STORE"`
	SessionDir   string `mapstructure:"SESSION_DIR"`
	// durable scope: file | redis
	DurableStore string `mapstructure:"DURABLE_STORE"`
	DataDir      string `mapstructure:"DATA_DIR"`

	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB         int           `mapstructure:"REDIS_DB"`
	CachePrefix     string        `mapstructure:"CACHE_PREFIX"`
	CatalogCacheTTL time.Duration `mapstructure:"CATALOG_CACHE_TTL"`

	KafkaBrokers       string `mapstructure:"KAFKA_BROKERS"`
	KafkaActivityTopic string `mapstructure:"KAFKA_ACTIVITY_TOPIC"`
	KafkaLogTopic      string `mapstructure:"KAFKA_LOG_TOPIC"`

	MockServerPort string `mapstructure:"MOCK_SERVER_PORT"`
	MockJwtSecret  string `mapstructure:"MOCK_JWT_SECRET"`
}

// Brokers 將逗號分隔的 KAFKA_BROKERS 拆成列表，未設定時回傳 nil
func (c *Config) Brokers() []string {
	if strings.TrimSpace(c.KafkaBrokers) == "" {
		return nil
	}
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func GetConfig() *Config {
	initConfig()
	config_singleton.mu.RLock()
	defer config_singleton.mu.RUnlock()
	return config_singleton.Config
}

func initConfig() {
	if config_singleton == nil {
		muonce.Do(func() {
			config_singleton = &ConfigSingleTon{}
			path := configFilePath()
			cf, err := loadConfig(viper.GetViper(), path)
			if err != nil {
				log.Fatalf("error read config: %v", err)
			}
			config_singleton.Config = cf
			if path == "" {
				return
			}
			viper.WatchConfig()
			viper.OnConfigChange(func(e fsnotify.Event) {
				cf, err := loadConfig(viper.GetViper(), path)
				if err != nil {
					log.Printf("failed to reload config file %s: %v", e.Name, err)
					return
				}
				config_singleton.mu.Lock()
				config_singleton.Config = cf
				config_singleton.mu.Unlock()
			})
		})
	}
}

// Load 以獨立的 viper instance 讀取設定，不影響全域 singleton，測試與工具使用
func Load(path string) (*Config, error) {
	return loadConfig(viper.New(), path)
}

/*
單純回傳錯誤  由外部決定要不要Fatal, 畢竟有可能有替代方案
path 為空時只使用環境變數與預設值
*/
func loadConfig(v *viper.Viper, path string) (cf *Config, err error) {
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if filepath.Ext(path) == "" || filepath.Base(path) == ".env" {
			v.SetConfigType("env")
		}
		if err = v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cf = &Config{}
	if err = v.Unmarshal(cf); err != nil {
		return nil, err
	}
	return cf, nil
}

func setDefaults(v *viper.Viper) {
	defaults := map[string]any{
		"MODULER_NAME":         "freshmarket",
		"ENV":                  string(constants.Dev),
		"API_BASE_URL":         "http://localhost:8080/api/v1",
		"API_TIMEOUT":          constants.DefaultAPITimeout,
		"LOG_LEVEL":            "info",
		"LOG_FORMAT":           "console",
		"SESSION_STORE":        "file",
		"SESSION_DIR":          filepath.Join(os.TempDir(), "freshmarket"),
		"DURABLE_STORE":        "file",
		"DATA_DIR":             defaultDataDir(),
		"REDIS_ADDR":           "",
		"REDIS_PASSWORD":       "",
		"REDIS_DB":             0,
		"CACHE_PREFIX":         "freshmarket",
		"CATALOG_CACHE_TTL":    constants.DefaultCatalogCacheTTL,
		"KAFKA_BROKERS":        "",
		"KAFKA_ACTIVITY_TOPIC": "freshmarket.activity",
		"KAFKA_LOG_TOPIC":      "",
		"MOCK_SERVER_PORT":     "8080",
		"MOCK_JWT_SECRET":      "freshmarket-dev-secret",
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

func configFilePath() string {
	if p := os.Getenv(ConfigPathEnv); p != "" {
		return p
	}
	if _, err := os.Stat(".env"); err == nil {
		return ".env"
	}
	return ""
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".freshmarket")
	}
	return filepath.Join(dir, "freshmarket")
}
