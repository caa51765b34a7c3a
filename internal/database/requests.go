package database

import (
	"context"
	"fmt"
	"time"

	"shareit/internal/models"
)

const requestSelect = `SELECT id, requestor_id, description, created_at FROM requests`

func scanRequest(row rowScanner) (*models.ItemRequest, error) {
	var r models.ItemRequest
	if err := row.Scan(&r.ID, &r.RequestorID, &r.Description, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func (db *DB) queryRequests(ctx context.Context, op, query string, args ...interface{}) ([]*models.ItemRequest, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	requests := make([]*models.ItemRequest, 0)
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return requests, nil
}

func (db *DB) CreateRequest(ctx context.Context, req *models.ItemRequest) error {
	now := time.Now()
	result, err := db.ExecContext(ctx,
		`INSERT INTO requests (requestor_id, description, created_at) VALUES (?, ?, ?)`,
		req.RequestorID, req.Description, now,
	)
	if err != nil {
		return wrapErr("create request", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return wrapErr("last insert id", err)
	}
	req.ID = id
	req.CreatedAt = now
	return nil
}

func (db *DB) GetRequestByID(ctx context.Context, id int64) (*models.ItemRequest, error) {
	r, err := scanRequest(db.QueryRowContext(ctx, requestSelect+` WHERE id = ?`, id))
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("get request %d", id), err)
	}
	return r, nil
}

// GetRequestsByRequestor lists a user's own requests, newest first.
func (db *DB) GetRequestsByRequestor(ctx context.Context, requestorID int64) ([]*models.ItemRequest, error) {
	return db.queryRequests(ctx, "get requests by requestor",
		requestSelect+` WHERE requestor_id = ? ORDER BY created_at DESC, id DESC`, requestorID)
}

// GetOtherRequests lists requests made by everyone except userID, newest first.
func (db *DB) GetOtherRequests(ctx context.Context, userID int64, page *models.Page) ([]*models.ItemRequest, error) {
	query := requestSelect + ` WHERE requestor_id <> ? ORDER BY created_at DESC, id DESC`
	args := []interface{}{userID}
	if page != nil {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, page.Limit, page.Offset)
	}
	return db.queryRequests(ctx, "get other requests", query, args...)
}
