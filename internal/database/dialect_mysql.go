package database

import (
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLDialect implements Dialect for MySQL
type MySQLDialect struct{}

// NewMySQLDialect creates a new MySQL dialect
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) DriverName() string {
	return "mysql"
}

// DSN forces utf8mb4 so dialogue and options in either language round-trip,
// emoji included
func (d *MySQLDialect) DSN(config DialectConfig) string {
	return withDSNParams(config.URL, [][2]string{
		{"charset", "utf8mb4"},
	})
}

func (d *MySQLDialect) RewriteQuery(query string) string {
	return query
}

func (d *MySQLDialect) SupportsLastInsertId() bool {
	return true
}

func (d *MySQLDialect) ConfigureConnection(db *sql.DB) error {
	configurePool(db)

	if _, err := db.Exec("SET FOREIGN_KEY_CHECKS = 1;"); err != nil {
		return err
	}
	return nil
}

func (d *MySQLDialect) MigrationsSubdir() string {
	return "mysql"
}

func (d *MySQLDialect) CreateMigrationsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS migrations (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			filename VARCHAR(255) UNIQUE NOT NULL,
			executed_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6)
		);
	`
}

// ClearStoriesStatements deletes row by row and resets AUTO_INCREMENT;
// TRUNCATE is refused on tables referenced by a foreign key
func (d *MySQLDialect) ClearStoriesStatements() []string {
	return append(deleteFromStoryTables(),
		"ALTER TABLE questions AUTO_INCREMENT = 1",
		"ALTER TABLE stories AUTO_INCREMENT = 1")
}
