// Package config collects the environment-driven settings of the service.
package config

import "github.com/kelseyhightower/envconfig"

// Settings holds the database connection parameters and the HTTP port.
type Settings struct {
	DBUser     string `envconfig:"DBUSER" required:"true"`
	DBPassword string `envconfig:"DBPWD" required:"true"`
	DBHost     string `envconfig:"DBHOST" default:"localhost"`
	DBName     string `envconfig:"DBNAME" default:"test"`
	Port       int    `envconfig:"PORT" default:"8080"`
}

// Load reads the settings from the process environment.
func Load() (Settings, error) {
	var s Settings
	err := envconfig.Process("", &s)
	return s, err
}
