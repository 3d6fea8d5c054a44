package configmgr

import "github.com/marcodd23/go-simpledb/pkg/dbx"

// Config - config interface.
type Config interface {
	GetServiceName() string
	GetVersion() string
	GetEnvironment() string
	GetLoggingConfig() *LoggingConfig
	GetDatabaseConfig() *DatabaseConfig
	IsLocalEnvironment() bool
}

// BaseConfig - app config struct.
// This struct represents the base configuration for the application and is expected to be in the following YAML format:
/*
name: "articles"
environment: "local"
version: "1.0"
logging:
  level: "debug"
database:
  host: localhost
  port: 5432
  name: articles
  user: postgres
  password: postgres
  driver: pgx
  devMode: true
  vpcDirectConnection: false
*/
type BaseConfig struct {
	Name        string          `mapstructure:"name"`
	Environment string          `mapstructure:"environment"`
	Version     string          `mapstructure:"version"`
	Logging     *LoggingConfig  `mapstructure:"logging"`
	Database    *DatabaseConfig `mapstructure:"database"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// DatabaseConfig - database connection properties.
type DatabaseConfig struct {
	Host                string `mapstructure:"host"`
	Port                int32  `mapstructure:"port"`
	Name                string `mapstructure:"name"`
	User                string `mapstructure:"user"`
	Password            string `mapstructure:"password"`
	Driver              string `mapstructure:"driver"`
	DevMode             bool   `mapstructure:"devMode"`
	VpcDirectConnection bool   `mapstructure:"vpcDirectConnection"`
}

// ToConnConfig - the driver credentials described by the database section.
func (db DatabaseConfig) ToConnConfig(isLocal bool) dbx.ConnConfig {
	return dbx.ConnConfig{
		VpcDirectConnection: db.VpcDirectConnection,
		IsLocalEnv:          isLocal,
		Host:                db.Host,
		Port:                db.Port,
		DBName:              db.Name,
		User:                db.User,
		Password:            db.Password,
	}
}

func (cfg BaseConfig) GetServiceName() string {
	return cfg.Name
}

func (cfg BaseConfig) GetVersion() string {
	return cfg.Version
}

func (cfg BaseConfig) GetEnvironment() string {
	return cfg.Environment
}

func (cfg BaseConfig) IsLocalEnvironment() bool {
	return checkIfLocalEnv(cfg.Environment)
}

func (cfg BaseConfig) GetLoggingConfig() *LoggingConfig {
	if cfg.Logging == nil {
		return &LoggingConfig{}
	}

	return cfg.Logging
}

func (cfg BaseConfig) GetDatabaseConfig() *DatabaseConfig {
	return cfg.Database
}
