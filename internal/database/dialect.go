package database

import (
	"database/sql"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Dialect captures what differs between the supported SQL backends
type Dialect interface {
	// DriverName returns the driver name for sql.Open
	DriverName() string

	// DSN returns the data source name for the connection
	DSN(config DialectConfig) string

	// RewriteQuery converts ? placeholders when the backend needs another syntax
	RewriteQuery(query string) string

	// SupportsLastInsertId reports whether sql.Result.LastInsertId works
	SupportsLastInsertId() bool

	// ConfigureConnection applies pool limits and session settings
	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir names the per-dialect migrations folder
	MigrationsSubdir() string

	// CreateMigrationsTableQuery returns the DDL for the migrations bookkeeping table
	CreateMigrationsTableQuery() string

	// ClearStoriesStatements empties the story tables, children first, and
	// restarts their id sequences so a re-import numbers stories from 1
	ClearStoriesStatements() []string
}

// storyTables lists the story bank tables, children first
var storyTables = []string{"question_options", "questions", "stories"}

func deleteFromStoryTables() []string {
	stmts := make([]string, 0, len(storyTables))
	for _, table := range storyTables {
		stmts = append(stmts, "DELETE FROM "+table)
	}
	return stmts
}

// withDSNParams appends params missing from dsn. A key already present in dsn wins.
func withDSNParams(dsn string, params [][2]string) string {
	for _, kv := range params {
		if strings.Contains(dsn, kv[0]+"=") {
			continue
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + kv[0] + "=" + kv[1]
	}
	return dsn
}

// DialectConfig holds configuration for database connection
type DialectConfig struct {
	// For SQLite
	Path string

	// For PostgreSQL/MySQL
	URL string
}

// configurePool applies the pool limits shared by every dialect
func configurePool(db *sql.DB) {
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)
}

var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(match string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}
