package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/shortener/internal/flagx"
)

var ownFlags = []string{
	"-a", "-d", "-s", "-t", "-n", "-b", "-l", "-w",
	"-secure", "-insecure-secret",
	"-s3-bucket", "-s3-region", "-s3-endpoint", "-s3-user", "-s3-password",
	"-log-level", "-log-format",
}

// parseFlags overlays command-line flags onto config.
//
//	-a string     HTTP listen address (":8080")
//	-d string     PostgreSQL DSN
//	-s string     session signing secret
//	-t duration   session lifetime ("1h")
//	-n string     session cookie name
//	-b string     public base URL used to render short links
//	-l int        short code length
//	-w string     directory with static assets
//
// plus -secure, -insecure-secret, -s3-* for the static bucket and
// -log-level/-log-format.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("shortener", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "session signing secret")
	fs.DurationVar(&config.SessionLifetime, "t", config.SessionLifetime, "session lifetime")
	fs.StringVar(&config.CookieName, "n", config.CookieName, "session cookie name")
	fs.StringVar(&config.DomainName, "b", config.DomainName, "public base URL")
	fs.IntVar(&config.ShortCodeLength, "l", config.ShortCodeLength, "short code length")
	fs.StringVar(&config.StaticDir, "w", config.StaticDir, "static assets directory")

	fs.BoolVar(&config.CookieSecure, "secure", config.CookieSecure, "mark the session cookie Secure")
	fs.BoolVar(&config.AllowInsecureSecret, "insecure-secret", config.AllowInsecureSecret, "accept short secrets and the built-in development secret")

	fs.StringVar(&config.StaticS3Bucket, "s3-bucket", config.StaticS3Bucket, "S3 bucket with static assets")
	fs.StringVar(&config.StaticS3Region, "s3-region", config.StaticS3Region, "S3 region")
	fs.StringVar(&config.StaticS3Endpoint, "s3-endpoint", config.StaticS3Endpoint, "S3 base endpoint")
	fs.StringVar(&config.StaticS3User, "s3-user", config.StaticS3User, "S3 access key")
	fs.StringVar(&config.StaticS3Password, "s3-password", config.StaticS3Password, "S3 secret key")

	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "debug, info, warn or error")
	fs.StringVar(&config.LogFormat, "log-format", config.LogFormat, "json or text")

	return fs.Parse(flagx.FilterArgs(args, ownFlags))
}
