// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reco/internal/models"
)

// Catalog errors
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// nextID returns one more than the largest id of table. Callers hold
// writeMu so two writers never pick the same id.
func nextID(ctx context.Context, tx *sql.Tx, table string) (int64, error) {
	var id int64
	//nolint:gosec // constant table names
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(id), 0) + 1 FROM "+table).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to allocate %s id: %w", table, err)
	}
	return id, nil
}

func exists(ctx context.Context, q interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}, query string, args ...any) (bool, error) {
	var n int64
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// ============================================================================
// Users
// ============================================================================

func scanUser(s rowScanner) (*models.User, error) {
	var (
		u        models.User
		username sql.NullString
	)
	if err := s.Scan(&u.ID, &username, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Username = username.String
	return &u, nil
}

// Users returns the first limit users ordered by id.
func (db *DB) Users(ctx context.Context, limit int) (users []models.User, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { observe("select", tableUsers, start, err) }()

	rows, err := db.conn.QueryContext(ctx, "SELECT id, username, created_at FROM users ORDER BY id LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer closeWithLog(rows, "rows")

	users = make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// User returns one user or ErrNotFound.
func (db *DB) User(ctx context.Context, id int64) (u *models.User, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { observe("select", tableUsers, start, err) }()

	u, err = scanUser(db.conn.QueryRowContext(ctx, "SELECT id, username, created_at FROM users WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return u, nil
}

// CreateUser adds a user with the next free id. A taken username fails
// with ErrConflict.
func (db *DB) CreateUser(ctx context.Context, username string) (u *models.User, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { observe("insert", tableUsers, start, err) }()

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			rollback(tx, err)
		}
	}()

	taken, err := exists(ctx, tx, "SELECT COUNT(*) FROM users WHERE username = ?", username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		err = fmt.Errorf("username %q: %w", username, ErrConflict)
		return nil, err
	}

	id, err := nextID(ctx, tx, tableUsers)
	if err != nil {
		return nil, err
	}
	u = &models.User{ID: id, Username: username, CreatedAt: time.Now().UTC()}
	if _, err = tx.ExecContext(ctx, "INSERT INTO users (id, username, created_at) VALUES (?, ?, ?)", u.ID, u.Username, u.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit user: %w", err)
	}
	return u, nil
}

// ============================================================================
// Items
// ============================================================================

func scanItem(s rowScanner) (*models.Item, error) {
	var (
		it     models.Item
		genres string
	)
	if err := s.Scan(&it.ID, &it.ExternalID, &it.Title, &genres); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(genres), &it.Genres); err != nil {
		return nil, fmt.Errorf("failed to decode genres of item %d: %w", it.ID, err)
	}
	return &it, nil
}

// ListItems returns the first limit items ordered by id.
func (db *DB) ListItems(ctx context.Context, limit int) (items []models.Item, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { observe("select", tableItems, start, err) }()

	rows, err := db.conn.QueryContext(ctx, "SELECT id, external_id, title, genres FROM items ORDER BY id LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer closeWithLog(rows, "rows")

	items = make([]models.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, *it)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}

// Item returns one item or ErrNotFound.
func (db *DB) Item(ctx context.Context, id int64) (it *models.Item, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { observe("select", tableItems, start, err) }()

	it, err = scanItem(db.conn.QueryRowContext(ctx, "SELECT id, external_id, title, genres FROM items WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item %d: %w", id, err)
	}
	return it, nil
}

// CreateItem adds item with the next free id. A zero ExternalID takes the
// new id.
func (db *DB) CreateItem(ctx context.Context, item models.Item) (it *models.Item, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { observe("insert", tableItems, start, err) }()

	if item.Genres == nil {
		item.Genres = []string{}
	}
	genres, err := json.Marshal(item.Genres)
	if err != nil {
		return nil, fmt.Errorf("failed to encode genres: %w", err)
	}

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			rollback(tx, err)
		}
	}()

	if item.ID, err = nextID(ctx, tx, tableItems); err != nil {
		return nil, err
	}
	if item.ExternalID == 0 {
		item.ExternalID = item.ID
	}
	if _, err = tx.ExecContext(ctx, "INSERT INTO items (id, external_id, title, genres) VALUES (?, ?, ?, ?)",
		item.ID, item.ExternalID, item.Title, string(genres)); err != nil {
		return nil, fmt.Errorf("failed to insert item: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit item: %w", err)
	}
	return &item, nil
}

// ============================================================================
// Ratings
// ============================================================================

const ratingColumns = "id, user_id, item_id, rating, created_at"

func scanRating(s rowScanner) (*models.RatingRecord, error) {
	var r models.RatingRecord
	if err := s.Scan(&r.ID, &r.UserID, &r.ItemID, &r.Rating, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func (db *DB) queryRatings(ctx context.Context, query string, args ...any) (ratings []models.RatingRecord, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { observe("select", tableRatings, start, err) }()

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer closeWithLog(rows, "rows")

	ratings = make([]models.RatingRecord, 0)
	for rows.Next() {
		r, err := scanRating(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, *r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ratings: %w", err)
	}
	return ratings, nil
}

// Ratings returns the first limit ratings ordered by id.
func (db *DB) Ratings(ctx context.Context, limit int) ([]models.RatingRecord, error) {
	return db.queryRatings(ctx, "SELECT "+ratingColumns+" FROM ratings ORDER BY id LIMIT ?", limit)
}

// RatingsByUser returns up to limit ratings of user ordered by id.
func (db *DB) RatingsByUser(ctx context.Context, user int64, limit int) ([]models.RatingRecord, error) {
	return db.queryRatings(ctx, "SELECT "+ratingColumns+" FROM ratings WHERE user_id = ? ORDER BY id LIMIT ?", user, limit)
}

// RatingsByItem returns up to limit ratings of item ordered by id.
func (db *DB) RatingsByItem(ctx context.Context, item int64, limit int) ([]models.RatingRecord, error) {
	return db.queryRatings(ctx, "SELECT "+ratingColumns+" FROM ratings WHERE item_id = ? ORDER BY id LIMIT ?", item, limit)
}

// Rating returns one rating or ErrNotFound.
func (db *DB) Rating(ctx context.Context, id int64) (r *models.RatingRecord, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { observe("select", tableRatings, start, err) }()

	r, err = scanRating(db.conn.QueryRowContext(ctx, "SELECT "+ratingColumns+" FROM ratings WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("rating %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rating %d: %w", id, err)
	}
	return r, nil
}

// CreateRating stores user's rating of item. An unknown user or item fails
// with ErrNotFound, a second rating of the same item with ErrConflict.
func (db *DB) CreateRating(ctx context.Context, user, item int64, value float64) (r *models.RatingRecord, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { observe("insert", tableRatings, start, err) }()

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			rollback(tx, err)
		}
	}()

	checks := []struct {
		query string
		arg   int64
		miss  error
	}{
		{"SELECT COUNT(*) FROM items WHERE id = ?", item, fmt.Errorf("item %d: %w", item, ErrNotFound)},
		{"SELECT COUNT(*) FROM users WHERE id = ?", user, fmt.Errorf("user %d: %w", user, ErrNotFound)},
	}
	for _, c := range checks {
		ok, qerr := exists(ctx, tx, c.query, c.arg)
		if qerr != nil {
			err = fmt.Errorf("failed to check rating references: %w", qerr)
			return nil, err
		}
		if !ok {
			err = c.miss
			return nil, err
		}
	}

	rated, err := exists(ctx, tx, "SELECT COUNT(*) FROM ratings WHERE user_id = ? AND item_id = ?", user, item)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing rating: %w", err)
	}
	if rated {
		err = fmt.Errorf("rating of item %d by user %d: %w", item, user, ErrConflict)
		return nil, err
	}

	id, err := nextID(ctx, tx, tableRatings)
	if err != nil {
		return nil, err
	}
	r = &models.RatingRecord{ID: id, UserID: user, ItemID: item, Rating: value, CreatedAt: time.Now().UTC()}
	if _, err = tx.ExecContext(ctx, "INSERT INTO ratings ("+ratingColumns+") VALUES (?, ?, ?, ?, ?)",
		r.ID, r.UserID, r.ItemID, r.Rating, r.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to insert rating: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit rating: %w", err)
	}
	return r, nil
}

// UpdateRating changes the value of rating id and returns the updated row.
func (db *DB) UpdateRating(ctx context.Context, id int64, value float64) (r *models.RatingRecord, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { observe("update", tableRatings, start, err) }()

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	res, err := db.conn.ExecContext(ctx, "UPDATE ratings SET rating = ? WHERE id = ?", value, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update rating %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to update rating %d: %w", id, err)
	}
	if n == 0 {
		err = fmt.Errorf("rating %d: %w", id, ErrNotFound)
		return nil, err
	}

	r, err = scanRating(db.conn.QueryRowContext(ctx, "SELECT "+ratingColumns+" FROM ratings WHERE id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("failed to reload rating %d: %w", id, err)
	}
	return r, nil
}
