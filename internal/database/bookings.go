package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"
)

const bookingSelect = `SELECT b.id, b.start_at, b.end_at, b.item_id, i.name, i.owner_id,
	       b.booker_id, u.name, b.status, b.created_at, b.updated_at, b.version
	FROM bookings b
	JOIN items i ON i.id = b.item_id
	JOIN users u ON u.id = b.booker_id`

func scanBooking(row rowScanner) (*models.Booking, error) {
	var (
		b          models.Booking
		start, end int64
	)
	err := row.Scan(
		&b.ID, &start, &end, &b.ItemID, &b.ItemName, &b.ItemOwnerID,
		&b.BookerID, &b.BookerName, &b.Status, &b.CreatedAt, &b.UpdatedAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}
	b.Start = fromMicros(start)
	b.End = fromMicros(end)
	return &b, nil
}

func (db *DB) queryBookings(ctx context.Context, q queryer, op, query string, args ...interface{}) ([]*models.Booking, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	bookings := make([]*models.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return bookings, nil
}

// queryOneBooking returns nil without error when nothing matches.
func (db *DB) queryOneBooking(ctx context.Context, op, query string, args ...interface{}) (*models.Booking, error) {
	b, err := scanBooking(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return b, nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	b, err := scanBooking(db.QueryRowContext(ctx, bookingSelect+` WHERE b.id = ?`, id))
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("get booking %d", id), err)
	}
	return b, nil
}

// CreateBookingWithLock re-reads the item inside the write transaction so
// that availability and ownership are checked against committed state.
func (db *DB) CreateBookingWithLock(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("begin create booking", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var (
		ownerID   int64
		itemName  string
		available bool
	)
	err = tx.QueryRowContext(ctx, `SELECT owner_id, name, available FROM items WHERE id = ?`, booking.ItemID).
		Scan(&ownerID, &itemName, &available)
	if err != nil {
		return wrapErr(fmt.Sprintf("get item %d in tx", booking.ItemID), err)
	}
	if ownerID == booking.BookerID {
		return fmt.Errorf("%w: owner cannot book own item", domain.ErrForbidden)
	}
	if !available {
		return domain.ErrItemUnavailable
	}

	now := time.Now()
	result, err := tx.ExecContext(ctx, `INSERT INTO bookings (
				item_id, booker_id, start_at, end_at, status, created_at, updated_at, version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		booking.ItemID,
		booking.BookerID,
		toMicros(booking.Start),
		toMicros(booking.End),
		booking.Status,
		now,
		now,
		1,
	)
	if err != nil {
		return wrapErr("insert booking", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return wrapErr("last insert id", err)
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("commit create booking", err)
	}

	booking.ID = id
	booking.ItemName = itemName
	booking.ItemOwnerID = ownerID
	booking.Start = fromMicros(toMicros(booking.Start))
	booking.End = fromMicros(toMicros(booking.End))
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1
	return nil
}

// TransitionBookingStatus loads the booking inside a write transaction,
// lets fn decide the new status against that snapshot and stores it.
// Concurrent transitions of the same booking are serialized.
func (db *DB) TransitionBookingStatus(ctx context.Context, id int64, fn domain.TransitionFunc) (*models.Booking, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapErr("begin transition", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	booking, err := scanBooking(tx.QueryRowContext(ctx, bookingSelect+` WHERE b.id = ?`, id))
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("get booking %d in tx", id), err)
	}

	status, err := fn(booking)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := updateStatusWithVersion(ctx, tx, id, booking.Version, status, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, wrapErr("commit transition", err)
	}

	booking.Status = status
	booking.Version++
	booking.UpdatedAt = now
	return booking, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func updateStatusWithVersion(ctx context.Context, ex execer, id, fromVersion int64, status models.BookingStatus, now time.Time) error {
	query := `UPDATE bookings SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`
	result, err := ex.ExecContext(ctx, query, status, now, id, fromVersion)
	if err != nil {
		return wrapErr("update booking status", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return wrapErr("update booking status", err)
	}
	if rows == 0 {
		return domain.NewStoreError("update booking status", ErrConcurrentModification)
	}
	return nil
}

// ScanBookings returns bookings matching filter ordered by start descending.
// A nil page returns every match.
func (db *DB) ScanBookings(ctx context.Context, filter models.BookingFilter, page *models.Page) ([]*models.Booking, error) {
	query, args := buildBookingScan(filter, page)
	return db.queryBookings(ctx, db, "scan bookings", query, args...)
}

func buildBookingScan(filter models.BookingFilter, page *models.Page) (string, []interface{}) {
	conds := make([]string, 0, 6)
	args := make([]interface{}, 0, 8)

	if filter.Scope == models.ScopeOwner {
		conds = append(conds, "i.owner_id = ?")
	} else {
		conds = append(conds, "b.booker_id = ?")
	}
	args = append(args, filter.ScopeID)

	if filter.StartAtOrBefore != nil {
		conds = append(conds, "b.start_at <= ?")
		args = append(args, toMicros(*filter.StartAtOrBefore))
	}
	if filter.EndAtOrAfter != nil {
		conds = append(conds, "b.end_at >= ?")
		args = append(args, toMicros(*filter.EndAtOrAfter))
	}
	if filter.EndBefore != nil {
		conds = append(conds, "b.end_at < ?")
		args = append(args, toMicros(*filter.EndBefore))
	}
	if filter.StartAfter != nil {
		conds = append(conds, "b.start_at > ?")
		args = append(args, toMicros(*filter.StartAfter))
	}
	if filter.Status != nil {
		conds = append(conds, "b.status = ?")
		args = append(args, string(*filter.Status))
	}

	var sb strings.Builder
	sb.WriteString(bookingSelect)
	sb.WriteString(" WHERE ")
	sb.WriteString(strings.Join(conds, " AND "))
	sb.WriteString(" ORDER BY b.start_at DESC, b.id DESC")
	if page != nil {
		sb.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, page.Limit, page.Offset)
	}
	return sb.String(), args
}

// FindLatestEndedBooking returns the booker's booking of the item that
// ended most recently before now, regardless of status.
func (db *DB) FindLatestEndedBooking(ctx context.Context, itemID, bookerID int64, now time.Time) (*models.Booking, error) {
	query := bookingSelect + ` WHERE b.item_id = ? AND b.booker_id = ? AND b.end_at < ?
		ORDER BY b.end_at DESC, b.id DESC LIMIT 1`
	return db.queryOneBooking(ctx, "find ended booking", query, itemID, bookerID, toMicros(now))
}

// FindLastBooking returns the booking with the given status that started
// before now and ends latest.
func (db *DB) FindLastBooking(ctx context.Context, itemID int64, now time.Time, status models.BookingStatus) (*models.Booking, error) {
	query := bookingSelect + ` WHERE b.item_id = ? AND b.start_at < ? AND b.status = ?
		ORDER BY b.end_at DESC, b.id DESC LIMIT 1`
	return db.queryOneBooking(ctx, "find last booking", query, itemID, toMicros(now), string(status))
}

// FindNextBooking returns the earliest booking with the given status starting after now.
func (db *DB) FindNextBooking(ctx context.Context, itemID int64, now time.Time, status models.BookingStatus) (*models.Booking, error) {
	query := bookingSelect + ` WHERE b.item_id = ? AND b.start_at > ? AND b.status = ?
		ORDER BY b.start_at ASC, b.id ASC LIMIT 1`
	return db.queryOneBooking(ctx, "find next booking", query, itemID, toMicros(now), string(status))
}
