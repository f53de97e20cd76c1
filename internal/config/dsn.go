package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// BuildDSN assembles a connection string for engine from KNIFESQL_HOST,
// KNIFESQL_PORT, KNIFESQL_DATABASE, KNIFESQL_USER and KNIFESQL_PASSWORD.
// PostgreSQL also honours KNIFESQL_SSLMODE; SQLite reads KNIFESQL_SQLITE_PATH.
// engine must be a canonical engine name.
func BuildDSN(engine string, lookup LookupFunc) (string, error) {
	get := func(key string) string {
		raw, _ := lookup(key)
		return strings.TrimSpace(raw)
	}

	if engine == "sqlite" {
		path := get("KNIFESQL_SQLITE_PATH")
		if path == "" {
			return "", fmt.Errorf("missing required environment variable: KNIFESQL_SQLITE_PATH")
		}
		return path, nil
	}

	host := get("KNIFESQL_HOST")
	port := get("KNIFESQL_PORT")
	db := get("KNIFESQL_DATABASE")
	user := get("KNIFESQL_USER")
	password := get("KNIFESQL_PASSWORD")

	var missing []string
	if host == "" {
		missing = append(missing, "KNIFESQL_HOST")
	}
	if port == "" {
		missing = append(missing, "KNIFESQL_PORT")
	}
	if db == "" {
		missing = append(missing, "KNIFESQL_DATABASE")
	}
	if user == "" {
		missing = append(missing, "KNIFESQL_USER")
	}
	if password == "" {
		missing = append(missing, "KNIFESQL_PASSWORD")
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("missing required environment variables: %v", missing)
	}

	switch engine {
	case "postgresql":
		sslmode := get("KNIFESQL_SSLMODE")
		if sslmode == "" {
			sslmode = "prefer"
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(user, password),
			Host:     net.JoinHostPort(host, port),
			Path:     "/" + db,
			RawQuery: url.Values{"sslmode": {sslmode}}.Encode(),
		}
		return u.String(), nil
	case "mysql":
		cfg := mysql.NewConfig()
		cfg.User = user
		cfg.Passwd = password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(host, port)
		cfg.DBName = db
		return cfg.FormatDSN(), nil
	case "sqlserver":
		u := url.URL{
			Scheme:   "sqlserver",
			User:     url.UserPassword(user, password),
			Host:     net.JoinHostPort(host, port),
			RawQuery: url.Values{"database": {db}}.Encode(),
		}
		return u.String(), nil
	default:
		return "", fmt.Errorf("cannot build a connection string for engine %q", engine)
	}
}
