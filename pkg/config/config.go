// Package config loads typed configuration structs from the environment,
// optionally seeding the environment from a .env file first.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

var (
	envFile   string
	flagSetup sync.Once
)

// MustNew panics on load failure; intended for wiring in main.
func MustNew[T any](prefix string) *T {
	conf, err := New[T](prefix)
	if err != nil {
		panic(err)
	}
	return conf
}

// New populates T from env vars carrying the given prefix. A -env flag can
// point at an explicit env file; otherwise .env is loaded when present.
func New[T any](prefix string) (*T, error) {
	path := envFlag()
	if path != "" {
		if err := loadEnvFile(path); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", path, err)
		}
	} else if err := loadEnvFileIfExists(".env"); err != nil {
		return nil, fmt.Errorf("load default env file: %w", err)
	}

	var conf T
	if err := envconfig.Process(prefix, &conf); err != nil {
		return nil, err
	}
	return &conf, nil
}

func envFlag() string {
	flagSetup.Do(func() {
		if flag.Lookup("env") == nil {
			flag.StringVar(&envFile, "env", "", "path to .env file")
		}
		if !flag.Parsed() {
			flag.Parse()
		}
	})
	return strings.TrimSpace(envFile)
}

func loadEnvFileIfExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return nil
	}
	return loadEnvFile(path)
}

func loadEnvFile(path string) error {
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return err
	}
	for k, v := range viper.AllSettings() {
		if err := os.Setenv(strings.ToUpper(k), fmt.Sprint(v)); err != nil {
			return err
		}
	}
	return nil
}
