package app

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/eanlabs/bioplast/internal/stats"
)

type Config struct {
	Server struct {
		Port string `toml:"port"`
	} `toml:"server"`

	Auth struct {
		RedisURL    string `toml:"redis_url"`
		TokenHeader string `toml:"token_header"`
	} `toml:"auth"`

	Database struct {
		DSN           string `toml:"dsn"`
		MigrationsDir string `toml:"migrations_dir"`
	} `toml:"database"`

	Reliability stats.Criteria `toml:"reliability"`

	Heating struct {
		TargetSeconds int     `toml:"target_seconds"`
		Tolerance     float64 `toml:"tolerance"`
	} `toml:"heating"`

	// Seed admin, created on first run when the email is not registered yet.
	Admin struct {
		Name     string `toml:"name"`
		Email    string `toml:"email"`
		Password string `toml:"password"`
	} `toml:"admin"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf(
			"error reading config file %s\n> Error: %w\n> Content:\n%s",
			path,
			err,
			string(data),
		)
	}

	if config.Server.Port == "" {
		return nil, fmt.Errorf("Server port is not specified in config, use a value like :9999")
	}

	if config.Auth.TokenHeader == "" {
		config.Auth.TokenHeader = "Authorization"
	}
	if config.Database.DSN == "" {
		config.Database.DSN = "bioplast.db"
	}
	if config.Database.MigrationsDir == "" {
		config.Database.MigrationsDir = "./migrations"
	}
	if config.Reliability.WarnFactor == 0 {
		config.Reliability = stats.DefaultCriteria()
	}
	if config.Heating.TargetSeconds == 0 {
		config.Heating.TargetSeconds = 600
	}
	if config.Heating.Tolerance == 0 {
		config.Heating.Tolerance = 0.1
	}

	logger.Debug.Printf("Loaded reliability criteria: %+v", config.Reliability)

	return &config, nil
}
