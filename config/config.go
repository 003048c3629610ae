package config

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"gitlab.com/cloverpay-platform/affiliate_api/monitor"
	"gitlab.com/cloverpay-platform/affiliate_api/net/kafka"
)

// Config structure
type Config struct {
	Server          ServerConfig          `mapstructure:"server"`
	DatabaseCluster DatabaseClusterConfig `mapstructure:"database_cluster"`
	Kafka           kafka.Config          `mapstructure:"kafka"`
	Crons           Crons                 `mapstructure:"crons"`
	Engine          EngineConfig          `mapstructure:"engine"`
	Stripe          StripeConfig          `mapstructure:"stripe"`
}

// ServerConfig structure
type ServerConfig struct {
	API        APIConfig             `mapstructure:"api"`
	Monitoring monitor.MonitorConfig `mapstructure:"monitoring"`
}

// APIConfig structure
type APIConfig struct {
	Port      int    `mapstructure:"port"`
	KeepAlive bool   `mapstructure:"keep_alive"`
	Domain    string `mapstructure:"domain"`
}

// DatabaseClusterConfig structure
type DatabaseClusterConfig struct {
	Writer DatabaseConfig `mapstructure:"writer"`
	Reader DatabaseConfig `mapstructure:"reader"`
}

// DatabaseConfig structure
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// Crons - mapping of ids to execution frequency
type Crons map[string]string

// EngineConfig tunes the attribution engine
type EngineConfig struct {
	// ExpireBatchSize bounds one expiry sweep pass
	ExpireBatchSize int `mapstructure:"expire_batch_size"`
}

// StripeConfig holds the payment processor webhook settings
type StripeConfig struct {
	WebhookSecret string `mapstructure:"webhook_secret"`
}

// LoadConfig godoc
func LoadConfig(viperConf *viper.Viper) Config {
	var config Config

	err := viperConf.Unmarshal(&config)
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to decode config into struct")
	}
	if config.Engine.ExpireBatchSize == 0 {
		config.Engine.ExpireBatchSize = 1000
	}
	return config
}

// OpenConfig godoc
func OpenConfig(file string) {
	if file != "" {
		// Use config file from the flag.
		viper.SetConfigFile(file)
	}

	viper.SetConfigType("yaml")
	viper.SetConfigName(".config")
	viper.AddConfigPath(".")                    // First try to load the config from the current directory
	viper.AddConfigPath("$HOME")                // Then try to load it from the HOME directory
	viper.AddConfigPath("/etc/affiliate_api/")  // As a last resort try to load it from /etc/
	viper.SetEnvPrefix("CFG")
	viper.AutomaticEnv()

	err := viper.ReadInConfig() // Find and read the config file
	if err != nil {             // Handle errors reading the config file
		log.Fatal().Err(err).Msg("Unable to read configuration file")
	}
}
