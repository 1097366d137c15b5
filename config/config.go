package config

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	ListenAddr       string `json:"listenAddr" env:"LISTEN_ADDR"`
	DatabasePath     string `json:"databasePath" env:"DATABASE_PATH"`
	UploadDir        string `json:"uploadDir" env:"UPLOAD_DIR"`
	ImportFolderPath string `json:"importFolderPath" env:"IMPORT_FOLDER_PATH"`
	SeedPath         string `json:"seedPath" env:"SEED_PATH"`
	MaxUploadMB      int    `json:"maxUploadMB" env:"MAX_UPLOAD_MB"`
	Currency         string `json:"currency" env:"CURRENCY"`
	TimeZone         string `json:"timeZone" env:"TIME_ZONE"`
	JWTSecret        string `json:"jwtSecret,omitempty" env:"JWT_SECRET"`
	LogLevel         string `json:"logLevel" env:"LOG_LEVEL"`
	BrowserPath      string `json:"browserPath" env:"BROWSER_PATH"`
}

const envPrefix = "MEDASSIST_"

var (
	cfg  = Default()
	mu   sync.RWMutex
	path = "./medassist_config.json"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		ListenAddr:   ":8080",
		DatabasePath: "./medassist.db",
		UploadDir:    "./uploads",
		MaxUploadMB:  10,
		Currency:     "DH",
		TimeZone:     "Africa/Casablanca",
		LogLevel:     "info",
	}
}

// SetPath changes the file read by LoadConfig and written by SaveConfig.
func SetPath(p string) {
	mu.Lock()
	defer mu.Unlock()
	path = p
}

// LoadConfig reads the JSON file, applies MEDASSIST_* environment overrides
// and fills defaults. A missing file is not an error.
func LoadConfig() (Config, error) {
	mu.Lock()
	defer mu.Unlock()

	loaded, err := readFile()
	if err != nil {
		return cfg, err
	}
	live, err := withEnv(loaded)
	if err != nil {
		return cfg, err
	}
	cfg = live
	return cfg, nil
}

// SaveConfig writes newCfg to the file and makes it current. Fields set by
// a MEDASSIST_* variable keep their file value on disk and their environment
// value in memory.
func SaveConfig(newCfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	stored, err := readFile()
	if err != nil {
		return err
	}
	newCfg = withDefaults(fileOnly(newCfg, stored))

	file, err := json.MarshalIndent(newCfg, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, file, 0600); err != nil {
		return err
	}
	live, err := withEnv(newCfg)
	if err != nil {
		return err
	}
	cfg = live
	return nil
}

func readFile() (Config, error) {
	var c Config
	file, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(file, &c); err != nil {
		return c, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

func withEnv(c Config) (Config, error) {
	if err := env.ParseWithOptions(&c, env.Options{Prefix: envPrefix}); err != nil {
		return c, fmt.Errorf("parse env: %w", err)
	}
	return withDefaults(c), nil
}

// fileOnly resets every field overridden from the environment to its value
// in stored.
func fileOnly(c, stored Config) Config {
	dst := reflect.ValueOf(&c).Elem()
	src := reflect.ValueOf(stored)
	t := dst.Type()
	for i := 0; i < t.NumField(); i++ {
		key, ok := t.Field(i).Tag.Lookup("env")
		if !ok {
			continue
		}
		if _, set := os.LookupEnv(envPrefix + key); set {
			dst.Field(i).Set(src.Field(i))
		}
	}
	return c
}

func GetConfig() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// Set replaces the in-memory configuration without touching the file.
func Set(c Config) {
	mu.Lock()
	defer mu.Unlock()
	cfg = withDefaults(c)
}

// MaxUploadBytes is MaxUploadMB expressed in bytes.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// Location resolves TimeZone, falling back to the process local zone.
func (c Config) Location() *time.Location {
	if c.TimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

func withDefaults(c Config) Config {
	d := Default()
	if c.ListenAddr == "" {
		c.ListenAddr = d.ListenAddr
	}
	if c.DatabasePath == "" {
		c.DatabasePath = d.DatabasePath
	}
	if c.UploadDir == "" {
		c.UploadDir = d.UploadDir
	}
	if c.MaxUploadMB <= 0 {
		c.MaxUploadMB = d.MaxUploadMB
	}
	if c.Currency == "" {
		c.Currency = d.Currency
	}
	if c.TimeZone == "" {
		c.TimeZone = d.TimeZone
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	return c
}
