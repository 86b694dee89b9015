package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/mikey/scam-image-filter/internal/core"
	"go.uber.org/zap"
)

// MySQLCache is a MySQL implementation of the RecognitionCache interface
type MySQLCache struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewMySQLCache creates a new MySQL cache. The DSN should set parseTime=true.
func NewMySQLCache(dsn string, logger *zap.Logger, cleanupFreq time.Duration) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS recognition_cache (
			image_id VARCHAR(191) PRIMARY KEY,
			text MEDIUMTEXT NOT NULL,
			recognized_at DATETIME(6) NOT NULL,
			expires_at DATETIME(6) NOT NULL,
			INDEX idx_recognition_expires_at (expires_at)
		) DEFAULT CHARSET=utf8mb4
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	cache := &MySQLCache{
		db:          db,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	// Start background cleanup
	if cleanupFreq > 0 {
		go cache.startCleanupTask()
	}

	return cache, nil
}

// Get retrieves the cached text for an image
func (c *MySQLCache) Get(ctx context.Context, imageID string) (*core.RecognitionEntry, error) {
	var entry core.RecognitionEntry

	err := c.db.QueryRowContext(ctx, `
		SELECT image_id, text, recognized_at, expires_at
		FROM recognition_cache
		WHERE image_id = ? AND expires_at > ?
	`, imageID, time.Now().UTC()).Scan(&entry.ImageID, &entry.Text, &entry.RecognizedAt, &entry.ExpiresAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	return &entry, nil
}

// Set stores a cache entry
func (c *MySQLCache) Set(ctx context.Context, entry *core.RecognitionEntry) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO recognition_cache (image_id, text, recognized_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			text = VALUES(text),
			recognized_at = VALUES(recognized_at),
			expires_at = VALUES(expires_at)
	`, entry.ImageID, entry.Text, entry.RecognizedAt.UTC(), entry.ExpiresAt.UTC())

	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}

	return nil
}

// Delete removes a cache entry
func (c *MySQLCache) Delete(ctx context.Context, imageID string) error {
	_, err := c.db.ExecContext(ctx, `
		DELETE FROM recognition_cache
		WHERE image_id = ?
	`, imageID)

	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}

	return nil
}

// Cleanup removes expired entries
func (c *MySQLCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM recognition_cache
		WHERE expires_at <= ?
	`, time.Now().UTC())

	if err != nil {
		return fmt.Errorf("failed to clean up expired entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		c.logger.Debug("Cleaned up expired cache entries", zap.Int64("expired_count", rowsAffected))
	}

	return nil
}

// startCleanupTask starts a background task to clean up expired entries
func (c *MySQLCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				c.logger.Error("Failed to clean up cache", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task and closes the database connection
func (c *MySQLCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close MySQL database", zap.Error(err))
		}
	})
}
