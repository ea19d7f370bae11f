package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // Import the SQLite3 driver
)

// InitDB initializes the database connection. It takes the database path as input.
func InitDB(dbPath string) (*sql.DB, error) {
	// Ensure the directory for the database file exists. The in-memory
	// DSN used in tests has no directory.
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Open the SQLite database. It will be created if it doesn't exist.
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; one pooled connection also keeps
	// an in-memory database alive across queries.
	db.SetMaxOpenConns(1)

	// Ping the database to verify the connection.
	if err = db.Ping(); err != nil {
		db.Close() // Close the connection if ping fails
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close() // Close the connection if schema creation fails
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	log.Println("Successfully connected to the database at", dbPath)
	return db, nil
}

// createSchema creates the four core tables if they don't exist.
func createSchema(db *sql.DB) error {
	query := `
    CREATE TABLE IF NOT EXISTS channels (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        discord_channel_id TEXT NOT NULL,
        name TEXT,
        content_source TEXT NOT NULL,
        content_config TEXT NOT NULL DEFAULT '{}',
        autopost_interval INTEGER NOT NULL DEFAULT 900,
        like_threshold INTEGER NOT NULL DEFAULT 20,
        dislike_threshold INTEGER NOT NULL DEFAULT -10,
        good_board_id TEXT,
        good_section_id TEXT,
        bad_board_id TEXT,
        bad_section_id TEXT,
        enabled INTEGER NOT NULL DEFAULT 1,
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        UNIQUE(discord_channel_id, content_source)
    );

    CREATE TABLE IF NOT EXISTS content_items (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        source_type TEXT NOT NULL,
        source_id TEXT NOT NULL,
        payload TEXT NOT NULL,
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        UNIQUE(source_type, source_id)
    );

    CREATE TABLE IF NOT EXISTS posts (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        channel_id INTEGER NOT NULL,
        content_item_id INTEGER NOT NULL,
        status TEXT NOT NULL DEFAULT 'pending',
        discord_chat_id TEXT,
        message_id TEXT,
        audience_size INTEGER NOT NULL DEFAULT 0,
        posted_at TIMESTAMP,
        pinned_at TIMESTAMP,
        quarantined_at TIMESTAMP,
        FOREIGN KEY(channel_id) REFERENCES channels(id) ON DELETE CASCADE,
        FOREIGN KEY(content_item_id) REFERENCES content_items(id) ON DELETE CASCADE,
        UNIQUE(channel_id, content_item_id)
    );

    CREATE TABLE IF NOT EXISTS votes (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        post_id INTEGER NOT NULL,
        user_id TEXT NOT NULL,
        vote INTEGER NOT NULL,
        updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY(post_id) REFERENCES posts(id) ON DELETE CASCADE,
        UNIQUE(post_id, user_id)
    );`

	_, err := db.Exec(query)
	return err
}
