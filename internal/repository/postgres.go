package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Vector-IT-Drew/Dash/internal/model"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// PostgresRepository handles database operations
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	// Disable prepared statement caching to avoid "unnamed prepared statement does not exist" errors
	if !strings.Contains(dsn, "?") {
		dsn += "?prefer_simple_protocol=true"
	} else {
		dsn += "&prefer_simple_protocol=true"
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

const listingColumns = `
	unit_id, address, unit, beds, baths, actual_rent, sqft, borough,
	neighborhood, exposure, building_name, doorman, elevator,
	wheelchair_access, smoke_free, laundry_in_unit, laundry_in_building,
	pet_friendly, live_in_super, concierge, building_amenities, embedding,
	created_at, updated_at`

// GetListings fetches the current candidate listing snapshot: vacant units
// plus units with expiring deals. The snapshot is read-only downstream.
func (r *PostgresRepository) GetListings(ctx context.Context, limit int) (*model.ListingsResult, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM listings
		WHERE rentable = true
		ORDER BY actual_rent DESC
		LIMIT $1`, listingColumns)

	listings := []model.ListingRecord{}
	if err := r.db.SelectContext(ctx, &listings, query, limit); err != nil {
		return nil, fmt.Errorf("failed to fetch listings: %w", err)
	}

	return &model.ListingsResult{
		Status: "success",
		Count:  len(listings),
		Data:   listings,
	}, nil
}

// GetListingByID retrieves a single listing by unit ID
func (r *PostgresRepository) GetListingByID(ctx context.Context, unitID int64) (*model.ListingRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM listings WHERE unit_id = $1`, listingColumns)

	var listing model.ListingRecord
	if err := r.db.GetContext(ctx, &listing, query, unitID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}

	return &listing, nil
}

// SimilarListings returns the listings closest to the given unit by
// embedding distance, excluding the unit itself.
func (r *PostgresRepository) SimilarListings(ctx context.Context, unitID int64, limit int) ([]model.ListingRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM listings
		WHERE unit_id != $1
		  AND rentable = true
		  AND embedding IS NOT NULL
		ORDER BY embedding <=> (SELECT embedding FROM listings WHERE unit_id = $1)
		LIMIT $2`, listingColumns)

	listings := []model.ListingRecord{}
	if err := r.db.SelectContext(ctx, &listings, query, unitID, limit); err != nil {
		return nil, fmt.Errorf("failed to fetch similar listings: %w", err)
	}

	return listings, nil
}

// LogTurn records one conversation turn for later analysis (non-blocking
// from the caller's perspective; errors are the caller's to ignore).
func (r *PostgresRepository) LogTurn(ctx context.Context, sessionID, utterance string, preferences []byte, listingCount, tookMs int) error {
	query := `
		INSERT INTO chat_turns (session_id, utterance, preferences, listing_count, took_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())`

	_, err := r.db.ExecContext(ctx, query, sessionID, utterance, preferences, listingCount, tookMs)
	if err != nil {
		return fmt.Errorf("failed to log turn: %w", err)
	}
	return nil
}
