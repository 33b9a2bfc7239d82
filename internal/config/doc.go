// Package config loads and validates application configuration.
//
// Configuration is read with viper from defaults, an optional config.yaml,
// an optional .env file and REIMBURSE_-prefixed environment variables, and
// validated with go-playground/validator struct tags.
package config
