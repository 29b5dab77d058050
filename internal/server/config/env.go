package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every variable name in Config's env tags.
const EnvPrefix = "SHORTENER_"

// readEnvironment merges the dotenv file at path (if it exists) with the
// process environment. Real environment variables win.
func readEnvironment(path string) (map[string]string, error) {
	out := map[string]string{}

	if path != "" {
		fromFile, err := godotenv.Read(path)
		switch {
		case err == nil:
			for k, v := range fromFile {
				out[k] = v
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			out[k] = v
		}
	}
	return out, nil
}

// parseEnv overlays SHORTENER_* variables from environ onto config. Unset
// variables leave fields untouched.
func parseEnv(config *Config, environ map[string]string) error {
	err := env.ParseWithOptions(config, env.Options{
		Prefix:      EnvPrefix,
		Environment: environ,
	})
	if err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}
