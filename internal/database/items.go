package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"shareit/internal/models"
)

const itemSelect = `SELECT id, owner_id, name, description, available, request_id, created_at, updated_at FROM items`

func scanItem(row rowScanner) (*models.Item, error) {
	var (
		it        models.Item
		requestID sql.NullInt64
	)
	err := row.Scan(&it.ID, &it.OwnerID, &it.Name, &it.Description, &it.Available, &requestID, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if requestID.Valid {
		it.RequestID = &requestID.Int64
	}
	return &it, nil
}

func (db *DB) queryItems(ctx context.Context, op, query string, args ...interface{}) ([]*models.Item, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	items := make([]*models.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return items, nil
}

func (db *DB) CreateItem(ctx context.Context, item *models.Item) error {
	now := time.Now()
	result, err := db.ExecContext(ctx,
		`INSERT INTO items (owner_id, name, description, available, request_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.OwnerID, item.Name, item.Description, item.Available, item.RequestID, now, now,
	)
	if err != nil {
		return wrapErr("create item", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return wrapErr("last insert id", err)
	}
	item.ID = id
	item.CreatedAt = now
	item.UpdatedAt = now
	return nil
}

func (db *DB) GetItemByID(ctx context.Context, id int64) (*models.Item, error) {
	it, err := scanItem(db.QueryRowContext(ctx, itemSelect+` WHERE id = ?`, id))
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("get item %d", id), err)
	}
	return it, nil
}

func (db *DB) UpdateItem(ctx context.Context, item *models.Item) error {
	now := time.Now()
	result, err := db.ExecContext(ctx,
		`UPDATE items SET name = ?, description = ?, available = ?, updated_at = ? WHERE id = ?`,
		item.Name, item.Description, item.Available, now, item.ID,
	)
	if err != nil {
		return wrapErr("update item", err)
	}
	if err := expectOneRow(result, "update item", item.ID); err != nil {
		return err
	}
	item.UpdatedAt = now
	return nil
}

func (db *DB) GetItemsByOwner(ctx context.Context, ownerID int64, page *models.Page) ([]*models.Item, error) {
	query := itemSelect + ` WHERE owner_id = ? ORDER BY id`
	args := []interface{}{ownerID}
	if page != nil {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, page.Limit, page.Offset)
	}
	return db.queryItems(ctx, "get items by owner", query, args...)
}

func (db *DB) CountItemsByOwner(ctx context.Context, ownerID int64) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE owner_id = ?`, ownerID).Scan(&count)
	if err != nil {
		return 0, wrapErr("count items by owner", err)
	}
	return count, nil
}

// SearchAvailableItems matches text against name or description, case-insensitively
// for any script, not only ASCII.
func (db *DB) SearchAvailableItems(ctx context.Context, text string, page *models.Page) ([]*models.Item, error) {
	pattern := "%" + escapeLike(foldCase(text)) + "%"
	query := itemSelect + ` WHERE available = 1
		AND (fold(name) LIKE ? ESCAPE '\' OR fold(description) LIKE ? ESCAPE '\')
		ORDER BY id`
	args := []interface{}{pattern, pattern}
	if page != nil {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, page.Limit, page.Offset)
	}
	return db.queryItems(ctx, "search items", query, args...)
}

// GetItemsByRequests returns the items answering any of the given requests, ordered by id.
func (db *DB) GetItemsByRequests(ctx context.Context, requestIDs []int64) ([]*models.Item, error) {
	if len(requestIDs) == 0 {
		return []*models.Item{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(requestIDs)), ", ")
	args := make([]interface{}, 0, len(requestIDs))
	for _, id := range requestIDs {
		args = append(args, id)
	}
	query := itemSelect + ` WHERE request_id IN (` + placeholders + `) ORDER BY id`
	return db.queryItems(ctx, "get items by requests", query, args...)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
