package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	DB       DBConfig
	Redis    RedisConfig
	Registry RegistryConfig
	Media    MediaConfig
}

type ServerConfig struct {
	Address string
}

type DBConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     int
}

// RedisConfig 只有在 registry.backend 設為 redis 時才會用到
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// RegistryConfig 選擇房間廣播的後端
// memory: 單機內存 fan-out；redis: 跨節點 pub/sub
type RegistryConfig struct {
	Backend string
}

type MediaConfig struct {
	Dir string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("registry.backend", "memory")
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("media.dir", "./media")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
