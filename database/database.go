package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"cinelens/config"
)

// Database stores the recognition history. It is a best-effort collaborator:
// the pipeline keeps working when it is unavailable.
type Database struct {
	db *sql.DB
}

// Recognition is one saved recognition outcome.
type Recognition struct {
	Seq        int       `json:"seq"`
	Mode       string    `json:"mode"`
	ImageURL   string    `json:"image_url"`
	Source     string    `json:"source"`
	RawText    string    `json:"raw_text,omitempty"`
	ResultJSON string    `json:"result"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewDatabase creates a new database connection
func NewDatabase(cfg *config.Config) (*Database, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Database{db: db}, nil
}

// GetDB returns the underlying database connection
func (d *Database) GetDB() *sql.DB {
	return d.db
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// CreateRecognitionsTable creates the recognitions table if it doesn't exist
func (d *Database) CreateRecognitionsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS recognitions (
		seq INT AUTO_INCREMENT PRIMARY KEY,
		mode VARCHAR(16) NOT NULL,
		image_url VARCHAR(1024) NOT NULL,
		source VARCHAR(32) NOT NULL,
		raw_text TEXT,
		result_json TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_mode_created (mode, created_at)
	)`

	_, err := d.db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create recognitions table: %w", err)
	}
	return nil
}

// SaveRecognition persists one successful recognition.
func (d *Database) SaveRecognition(rec *Recognition) error {
	query := `
	INSERT INTO recognitions (mode, image_url, source, raw_text, result_json)
	VALUES (?, ?, ?, ?, ?)`

	_, err := d.db.Exec(query, rec.Mode, rec.ImageURL, rec.Source, rec.RawText, rec.ResultJSON)
	if err != nil {
		return fmt.Errorf("failed to save recognition: %w", err)
	}
	return nil
}

// GetRecentRecognitions returns the most recent saved recognitions for a
// mode, newest first.
func (d *Database) GetRecentRecognitions(mode string, limit int) ([]Recognition, error) {
	query := `
	SELECT seq, mode, image_url, source, result_json, created_at
	FROM recognitions
	WHERE mode = ?
	ORDER BY created_at DESC
	LIMIT ?`

	rows, err := d.db.Query(query, mode, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recognitions: %w", err)
	}
	defer rows.Close()

	var recognitions []Recognition
	for rows.Next() {
		var rec Recognition
		if err := rows.Scan(&rec.Seq, &rec.Mode, &rec.ImageURL, &rec.Source, &rec.ResultJSON, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recognition: %w", err)
		}
		recognitions = append(recognitions, rec)
	}
	return recognitions, rows.Err()
}
