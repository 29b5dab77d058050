package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/shortener/internal/flagx"
	"github.com/dmitrijs2005/shortener/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Durations accept "30m" or integer
// nanoseconds. Keys missing from the file keep their previous value.
type JsonConfig struct {
	HTTPAddr            string         `json:"http_addr"`
	DatabaseDSN         string         `json:"database_dsn"`
	SecretKey           string         `json:"secret_key"`
	SessionLifetime     timex.Duration `json:"session_lifetime"`
	CookieName          string         `json:"cookie_name"`
	CookieSecure        bool           `json:"cookie_secure"`
	AllowInsecureSecret bool           `json:"allow_insecure_secret"`
	DomainName          string         `json:"domain_name"`
	ShortCodeLength     int            `json:"short_code_length"`
	StaticDir           string         `json:"static_dir"`
	StaticS3Bucket      string         `json:"static_s3_bucket"`
	StaticS3Region      string         `json:"static_s3_region"`
	StaticS3Endpoint    string         `json:"static_s3_endpoint"`
	StaticS3User        string         `json:"static_s3_user"`
	StaticS3Password    string         `json:"static_s3_password"`
	LogLevel            string         `json:"log_level"`
	LogFormat           string         `json:"log_format"`
}

// parseJSON overlays the file named by -c/-config, if any, onto config.
func parseJSON(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := JsonConfig{
		HTTPAddr:            config.HTTPAddr,
		DatabaseDSN:         config.DatabaseDSN,
		SecretKey:           config.SecretKey,
		SessionLifetime:     timex.Duration{Duration: config.SessionLifetime},
		CookieName:          config.CookieName,
		CookieSecure:        config.CookieSecure,
		AllowInsecureSecret: config.AllowInsecureSecret,
		DomainName:          config.DomainName,
		ShortCodeLength:     config.ShortCodeLength,
		StaticDir:           config.StaticDir,
		StaticS3Bucket:      config.StaticS3Bucket,
		StaticS3Region:      config.StaticS3Region,
		StaticS3Endpoint:    config.StaticS3Endpoint,
		StaticS3User:        config.StaticS3User,
		StaticS3Password:    config.StaticS3Password,
		LogLevel:            config.LogLevel,
		LogFormat:           config.LogFormat,
	}
	if err := json.Unmarshal(file, &c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	config.HTTPAddr = c.HTTPAddr
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.SessionLifetime = c.SessionLifetime.Duration
	config.CookieName = c.CookieName
	config.CookieSecure = c.CookieSecure
	config.AllowInsecureSecret = c.AllowInsecureSecret
	config.DomainName = c.DomainName
	config.ShortCodeLength = c.ShortCodeLength
	config.StaticDir = c.StaticDir
	config.StaticS3Bucket = c.StaticS3Bucket
	config.StaticS3Region = c.StaticS3Region
	config.StaticS3Endpoint = c.StaticS3Endpoint
	config.StaticS3User = c.StaticS3User
	config.StaticS3Password = c.StaticS3Password
	config.LogLevel = c.LogLevel
	config.LogFormat = c.LogFormat
	return nil
}
