package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 TICTACTOE_DATABASE_DSN
const EnvPrefix = "TICTACTOE"

// Config 全局配置结构体
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Registry  RegistryConfig  `mapstructure:"registry"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Game      GameConfig      `mapstructure:"game"`
	Security  SecurityConfig  `mapstructure:"security"`
	Log       LogConfig       `mapstructure:"log"`
	System    SystemConfig    `mapstructure:"system"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr 监听地址
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// WebSocketConfig WebSocket配置
type WebSocketConfig struct {
	Path            string        `mapstructure:"path"`
	ReadBufferSize  int           `mapstructure:"read_buffer_size"`
	WriteBufferSize int           `mapstructure:"write_buffer_size"`
	MaxMessageSize  int64         `mapstructure:"max_message_size"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	PongTimeout     time.Duration `mapstructure:"pong_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	SendBuffer      int           `mapstructure:"send_buffer"`
}

// RegistryConfig 会话注册表配置
type RegistryConfig struct {
	Driver string      `mapstructure:"driver"` // memory, redis
	Redis  RedisConfig `mapstructure:"redis"`
}

// RedisConfig Redis连接配置
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	TTL          time.Duration `mapstructure:"ttl"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins     []string `mapstructure:"allow_origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

// GameConfig 对局配置
type GameConfig struct {
	DisconnectGrace time.Duration `mapstructure:"disconnect_grace"`
	ForfeitOnLeave  bool          `mapstructure:"forfeit_on_leave"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	JWT JWTConfig `mapstructure:"jwt"`
}

// JWTConfig 续连令牌配置
type JWTConfig struct {
	Secret         string        `mapstructure:"secret"`
	ResumeTokenTTL time.Duration `mapstructure:"resume_token_ttl"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string        `mapstructure:"level"`
	Format string        `mapstructure:"format"`
	Output string        `mapstructure:"output"`
	File   LogFileConfig `mapstructure:"file"`
}

// LogFileConfig 日志文件配置
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// SystemConfig 系统配置
type SystemConfig struct {
	Timezone string `mapstructure:"timezone"`
	MaxProcs int    `mapstructure:"max_procs"`
}

var (
	cfg *Config
	mu  sync.RWMutex
	v   *viper.Viper
)

// Init 初始化配置，可重复调用（测试与CLI子命令各自加载）
func Init(configPath string) error {
	nv := viper.New()

	if configPath != "" {
		nv.SetConfigFile(configPath)
	} else {
		nv.SetConfigName("config")
		nv.SetConfigType("yaml")
		nv.AddConfigPath("./config")
		nv.AddConfigPath(".")
	}

	nv.SetEnvPrefix(EnvPrefix)
	nv.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	nv.AutomaticEnv()

	setDefaults(nv)

	if err := nv.ReadInConfig(); err != nil {
		// 配置文件不存在时使用默认配置
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	loaded := &Config{}
	if err := nv.Unmarshal(loaded); err != nil {
		return fmt.Errorf("解析配置失败: %w", err)
	}
	if err := loaded.Validate(); err != nil {
		return err
	}

	mu.Lock()
	v = nv
	cfg = loaded
	mu.Unlock()

	return nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/tictactoe.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("websocket.path", "/ws")
	v.SetDefault("websocket.read_buffer_size", 1024)
	v.SetDefault("websocket.write_buffer_size", 1024)
	v.SetDefault("websocket.max_message_size", 8192)
	v.SetDefault("websocket.ping_interval", "54s")
	v.SetDefault("websocket.pong_timeout", "60s")
	v.SetDefault("websocket.write_timeout", "10s")
	v.SetDefault("websocket.send_buffer", 256)

	v.SetDefault("registry.driver", "memory")
	v.SetDefault("registry.redis.url", "redis://localhost:6379/0")
	v.SetDefault("registry.redis.key_prefix", "tictactoe")
	v.SetDefault("registry.redis.pool_size", 10)
	v.SetDefault("registry.redis.min_idle_conns", 2)
	v.SetDefault("registry.redis.ttl", "24h")

	v.SetDefault("cors.allow_origins", []string{
		"http://localhost:5173",
		"http://localhost:3000",
		"http://localhost:8080",
	})
	v.SetDefault("cors.allow_credentials", true)

	v.SetDefault("game.disconnect_grace", "30s")
	v.SetDefault("game.forfeit_on_leave", true)

	v.SetDefault("security.jwt.secret", "change-me-in-production")
	v.SetDefault("security.jwt.resume_token_ttl", "2h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file.path", "./logs")
	v.SetDefault("log.file.filename", "tictactoe.log")
	v.SetDefault("log.file.max_size", 100)
	v.SetDefault("log.file.max_age", 30)
	v.SetDefault("log.file.max_backups", 7)
	v.SetDefault("log.file.compress", true)
}

// Validate 校验配置
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "sqlite3", "mysql", "postgres", "postgresql":
	default:
		return fmt.Errorf("不支持的数据库驱动: %s", c.Database.Driver)
	}
	switch c.Registry.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("不支持的注册表驱动: %s", c.Registry.Driver)
	}
	if c.Game.DisconnectGrace < 0 {
		return fmt.Errorf("game.disconnect_grace 不能为负数")
	}
	if c.Security.JWT.Secret == "" {
		return fmt.Errorf("security.jwt.secret 不能为空")
	}
	return nil
}

// Get 获取配置实例
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// Watch 监听配置文件变化
func Watch(callback func(*Config)) {
	mu.RLock()
	wv := v
	mu.RUnlock()
	if wv == nil {
		return
	}

	wv.OnConfigChange(func(e fsnotify.Event) {
		newCfg := &Config{}
		if err := wv.Unmarshal(newCfg); err != nil {
			fmt.Printf("配置重载失败: %v\n", err)
			return
		}
		if err := newCfg.Validate(); err != nil {
			fmt.Printf("配置重载校验失败: %v\n", err)
			return
		}

		mu.Lock()
		cfg = newCfg
		mu.Unlock()

		if callback != nil {
			callback(newCfg)
		}
	})
	wv.WatchConfig()
}

// ConfigFile 当前使用的配置文件路径
func ConfigFile() string {
	mu.RLock()
	defer mu.RUnlock()
	if v == nil {
		return ""
	}
	return v.ConfigFileUsed()
}
