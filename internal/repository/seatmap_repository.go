package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/seat-inventory/internal/model"
	"github.com/iliyamo/seat-inventory/internal/seatmap"
)

// SeatMapRepo loads and saves seat map aggregates.  Loads assemble the full
// aggregate (map row, categories, seats); saves write exactly one seat row
// guarded by its version token, which is how two concurrent writers to the
// same seat are serialized without any lock service.
type SeatMapRepo struct {
	db *sql.DB
}

// NewSeatMapRepo returns a SeatMapRepo bound to the provided database.
func NewSeatMapRepo(db *sql.DB) *SeatMapRepo { return &SeatMapRepo{db: db} }

// DB exposes the underlying handle for callers that need to coordinate a
// transaction across repositories.
func (r *SeatMapRepo) DB() *sql.DB { return r.db }

// CreateMap inserts a seat map row for the given event and returns it.
// Each event owns at most one seat map; a second insert for the same event
// fails with ErrDuplicate.
func (r *SeatMapRepo) CreateMap(ctx context.Context, eventID uint64) (*model.SeatMap, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO seat_maps (event_id) VALUES (?)`, eventID)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &model.SeatMap{ID: uint64(id), EventID: eventID, CreatedAt: time.Now().UTC()}, nil
}

// GetMapByEvent loads the full aggregate for an event.  Returns
// ErrSeatMapNotFound when the event has no seating initialized.
func (r *SeatMapRepo) GetMapByEvent(ctx context.Context, eventID uint64) (*seatmap.Map, error) {
	var info model.SeatMap
	err := r.db.QueryRowContext(ctx,
		`SELECT id, event_id, created_at FROM seat_maps WHERE event_id = ?`, eventID).
		Scan(&info.ID, &info.EventID, &info.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSeatMapNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.loadMap(ctx, info)
}

// GetMapBySeat loads the full aggregate owning the given seat.  Returns
// ErrSeatNotFound when no such seat exists.
func (r *SeatMapRepo) GetMapBySeat(ctx context.Context, seatID uint64) (*seatmap.Map, error) {
	var info model.SeatMap
	err := r.db.QueryRowContext(ctx,
		`SELECT m.id, m.event_id, m.created_at
		 FROM seat_maps m JOIN seats s ON s.seat_map_id = m.id
		 WHERE s.id = ?`, seatID).
		Scan(&info.ID, &info.EventID, &info.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSeatNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.loadMap(ctx, info)
}

// loadMap reads categories and seats for the given map row and assembles
// the aggregate.
func (r *SeatMapRepo) loadMap(ctx context.Context, info model.SeatMap) (*seatmap.Map, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, seat_map_id, name, base_price, priority
		 FROM categories WHERE seat_map_id = ? ORDER BY id`, info.ID)
	if err != nil {
		return nil, err
	}
	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.SeatMapID, &c.Name, &c.BasePrice, &c.Priority); err != nil {
			rows.Close()
			return nil, err
		}
		categories = append(categories, c)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	rows, err = r.db.QueryContext(ctx,
		`SELECT id, seat_map_id, category_id, row_label, number, state, holder_id, reserved_at, version
		 FROM seats WHERE seat_map_id = ? ORDER BY row_label, number`, info.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []*model.Seat
	for rows.Next() {
		var s model.Seat
		var holder sql.NullInt64
		var reservedAt sql.NullTime
		if err := rows.Scan(&s.ID, &s.SeatMapID, &s.CategoryID, &s.Row, &s.Number,
			&s.State, &holder, &reservedAt, &s.Version); err != nil {
			return nil, err
		}
		if holder.Valid {
			h := uint64(holder.Int64)
			s.HolderID = &h
		}
		if reservedAt.Valid {
			t := reservedAt.Time.UTC()
			s.ReservedAt = &t
		}
		seats = append(seats, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seatmap.Load(info, categories, seats), nil
}

// InsertCategory persists a category staged by the aggregate and fills in
// its ID.  A name collision inside the map fails with ErrDuplicate.
func (r *SeatMapRepo) InsertCategory(ctx context.Context, c *model.Category) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (seat_map_id, name, base_price, priority) VALUES (?,?,?,?)`,
		c.SeatMapID, c.Name, c.BasePrice, c.Priority)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// InsertSeat persists a seat staged by the aggregate and fills in its ID.
// A (row, number) collision inside the map fails with ErrDuplicate.
func (r *SeatMapRepo) InsertSeat(ctx context.Context, s *model.Seat) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO seats (seat_map_id, category_id, row_label, number, state, version)
		 VALUES (?,?,?,?,?,0)`,
		s.SeatMapID, s.CategoryID, s.Row, s.Number, s.State)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// UpdateSeat writes one mutated seat back, guarded by the version token the
// seat carried when it was loaded.  A vanished row or a version mismatch
// both report ErrConcurrencyConflict; the caller reloads fresh state and
// re-validates its precondition before retrying.  On success the in-memory
// version is bumped to match the stored row.
func (r *SeatMapRepo) UpdateSeat(ctx context.Context, s *model.Seat) error {
	var holder any
	if s.HolderID != nil {
		holder = *s.HolderID
	}
	var reservedAt any
	if s.ReservedAt != nil {
		reservedAt = s.ReservedAt.UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE seats
		 SET state = ?, holder_id = ?, reserved_at = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		s.State, holder, reservedAt, s.ID, s.Version)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrConcurrencyConflict
	}
	s.Version++
	return nil
}

// ListOverdueReservations returns one record per seat that is still
// RESERVED with a reservation taken at or before the cutoff.  The expiry
// sweep uses this to catch reservations whose in-memory timer was lost to a
// restart.
func (r *SeatMapRepo) ListOverdueReservations(ctx context.Context, cutoff time.Time) ([]model.ReservationRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT s.id, s.seat_map_id, m.event_id, s.holder_id, s.reserved_at
		 FROM seats s JOIN seat_maps m ON m.id = s.seat_map_id
		 WHERE s.state = ? AND s.reserved_at <= ?`,
		model.SeatReserved, cutoff.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ReservationRecord
	for rows.Next() {
		var rec model.ReservationRecord
		var holder sql.NullInt64
		var reservedAt time.Time
		if err := rows.Scan(&rec.SeatID, &rec.SeatMapID, &rec.EventID, &holder, &reservedAt); err != nil {
			return nil, err
		}
		if holder.Valid {
			rec.HolderID = uint64(holder.Int64)
		}
		rec.ReservedAt = reservedAt.UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// isDuplicateKey reports whether err is a MySQL duplicate-entry error
// (error number 1062).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
