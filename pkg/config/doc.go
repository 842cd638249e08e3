// Package config loads environment variables into typed configuration
// structs using caarlos0/env, with optional .env file support via godotenv.
//
// Each component of the notifier declares its own Config struct with `env`
// tags and sensible envDefault values; Load parses and caches one instance
// per struct type for the lifetime of the process.
//
// Example:
//
//	type Config struct {
//	    Addr string `env:"HTTP_ADDR" envDefault:":8080"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//	    // handle error
//	}
package config
