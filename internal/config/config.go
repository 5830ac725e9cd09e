package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Postgres DBConfig
	Redis    RedisConfig
	S3       S3Config
	Logger   Logger
	Worker   WorkerConfig
	Store    StoreConfig
	Pipeline PipelineConfig
	LLM      LLMConfig
}

type ServerConfig struct {
	AppVersion   string
	Port         string
	Mode         string
	ReadTimeout  int
	WriteTimeout int
}

type WorkerConfig struct {
	WorkerCount  int
	MaxCPUUsage  float64
	PollInterval int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	PgDriver string
	SSLMode  string
}

type RedisConfig struct {
	RedisAddr     string
	RedisPassword string
	DB            int
	MinIdleConns  int
	PoolSize      int
	PoolTimeout   int
	UseTLS        bool
	JobQueueKey   string
	TaskKeyPrefix string
}

type S3Config struct {
	Endpoint       string
	Region         string
	AccessKey      string
	SecretKey      string
	MaterialBucket string
	OutputBucket   string
}

type Logger struct {
	Development       bool
	DisableCaller     bool
	DisableStacktrace bool
	Encoding          string
	Level             string
}

// StoreConfig selects the task store backend: memory, redis or postgres.
type StoreConfig struct {
	Backend string
}

type PipelineConfig struct {
	TaskDir          string
	SongDir          string
	FontDir          string
	FFmpegPath       string
	FFprobePath      string
	WhisperPath      string
	WhisperModel     string
	EdgeTTSPath      string
	FPS              int
	SubtitleProvider string
	MinMaterialSize  int
}

type LLMConfig struct {
	GeminiAPIKey string
	Model        string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.mode", "Development")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "console")
	v.SetDefault("worker.workerCount", 2)
	v.SetDefault("worker.maxCPUUsage", 85.0)
	v.SetDefault("worker.pollInterval", 5)
	v.SetDefault("redis.jobQueueKey", "video_tasks")
	v.SetDefault("redis.taskKeyPrefix", "task:")
	v.SetDefault("store.backend", "redis")
	v.SetDefault("pipeline.taskDir", "storage/tasks")
	v.SetDefault("pipeline.songDir", "resource/songs")
	v.SetDefault("pipeline.fontDir", "resource/fonts")
	v.SetDefault("pipeline.ffmpegPath", "ffmpeg")
	v.SetDefault("pipeline.ffprobePath", "ffprobe")
	v.SetDefault("pipeline.whisperPath", "whisper")
	v.SetDefault("pipeline.whisperModel", "base")
	v.SetDefault("pipeline.edgeTTSPath", "edge-tts")
	v.SetDefault("pipeline.fps", 30)
	v.SetDefault("pipeline.subtitleProvider", "edge")
	v.SetDefault("pipeline.minMaterialSize", 480)
	v.SetDefault("llm.model", "gemini-2.5-flash")
}

func LoadConfig(filename string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(filename)
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFound) {
			return nil, errors.New("config file not found")
		}
		return nil, err
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	if c.Pipeline.FPS <= 0 {
		c.Pipeline.FPS = 30
	}
	return &c, nil
}

// Default builds a Config from defaults and environment alone, for tools that
// run without a config file.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	c, err := ParseConfig(v)
	if err != nil {
		return &Config{Pipeline: PipelineConfig{FPS: 30}}
	}
	return c
}
