package persistence

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"crosspost/infrastructure/configuration"

	_ "github.com/lib/pq"
)

// NewPostgreSQLDB opens the Postgres pool described by configuration.C.Database.Psql
func NewPostgreSQLDB() (*sql.DB, error) {
	db, err := sql.Open("postgres", postgresDSN(configuration.C.Database.Psql))
	if err != nil {
		return nil, err
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetMaxIdleConns(10)
	db.SetMaxOpenConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func postgresDSN(cfg configuration.Db) string {
	q := url.Values{}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	q.Set("sslmode", sslMode)

	u := &url.URL{Scheme: "postgres", Host: fmt.Sprintf("%s:%s", cfg.Host, cfg.Port), Path: "/" + cfg.Name}
	if cfg.User != "" {
		if cfg.Password != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		} else {
			u.User = url.User(cfg.User)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
