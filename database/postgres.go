package database

import (
	"context"
	_ "embed"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"ceramics-booking/errors"
	"ceramics-booking/model"
)

//go:embed schema.sql
var schemaSQL string

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type PostgresStore struct {
	pool *pgxpool.Pool
	db   querier
}

// NewPostgresStore connects to dsn. A non-empty key replaces the password in the DSN.
func NewPostgresStore(ctx context.Context, dsn, key string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	if key != "" {
		cfg.ConnConfig.Password = key
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Unavailable(err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Unavailable(err)
	}
	return &PostgresStore{pool: pool, db: pool}, nil
}

// Migrate creates the tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if s.pool == nil {
		return nil
	}
	if err := s.pool.Ping(ctx); err != nil {
		return errors.Unavailable(err)
	}
	return nil
}

func (s *PostgresStore) Close(ctx context.Context) error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *PostgresStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if s.pool == nil {
		// already inside a transaction
		return fn(ctx, s)
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, &PostgresStore{db: tx})
	})
}

const slotColumns = `id::text, to_char(date, 'YYYY-MM-DD'), to_char(date + start_time, 'HH24:MI'),
	coalesce(to_char(date + end_time, 'HH24:MI'), ''), is_available, capacity, current_occupancy,
	coalesce(experience_id::text, ''), created_at, updated_at`

func scanSlot(row pgx.Row) (model.Slot, error) {
	var slot model.Slot
	err := row.Scan(&slot.ID, &slot.Date, &slot.StartTime, &slot.EndTime, &slot.IsAvailable,
		&slot.Capacity, &slot.Occupancy, &slot.ExperienceID, &slot.CreatedAt, &slot.UpdatedAt)
	return slot, err
}

// where collects numbered conditions for dynamically filtered queries.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, len(w.args)))
}

func (w *where) addRaw(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func (s *PostgresStore) ListSlots(ctx context.Context, filter SlotFilter) ([]model.Slot, error) {
	var w where
	if filter.Date != "" {
		w.add("date = $%d::date", filter.Date)
	}
	if filter.From != "" {
		w.add("date >= $%d::date", filter.From)
	}
	if filter.To != "" {
		w.add("date <= $%d::date", filter.To)
	}
	if filter.OnlyAvailable {
		w.addRaw("is_available")
	}

	q := `SELECT ` + slotColumns + ` FROM available_slots` + w.String() + ` ORDER BY date, start_time`
	rows, err := s.db.Query(ctx, q, w.args...)
	if err != nil {
		return nil, mapError(err, "slots")
	}
	defer rows.Close()

	slots := []model.Slot{}
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, mapError(err, "slots")
		}
		slots = append(slots, slot)
	}
	return slots, mapError(rows.Err(), "slots")
}

func (s *PostgresStore) GetSlot(ctx context.Context, id string) (model.Slot, error) {
	if !validID(id) {
		return model.Slot{}, errors.NotFound("slot %s not found", id)
	}
	row := s.db.QueryRow(ctx, `SELECT `+slotColumns+` FROM available_slots WHERE id = $1`, id)
	slot, err := scanSlot(row)
	if err != nil {
		return model.Slot{}, mapError(err, "slot "+id)
	}
	return slot, nil
}

func (s *PostgresStore) SetAvailability(ctx context.Context, target SlotTarget, available bool) (int64, error) {
	var w where
	if target.ID != "" {
		if !validID(target.ID) {
			return 0, nil
		}
		w.add("id = $%d", target.ID)
	}
	if target.Date != "" {
		w.add("date = $%d::date", target.Date)
	}
	if len(w.conds) == 0 {
		return 0, errors.Validation("slot id or date is required")
	}
	w.args = append(w.args, available)
	q := fmt.Sprintf(`UPDATE available_slots SET is_available = $%d, updated_at = now()`, len(w.args)) + w.String()

	tag, err := s.db.Exec(ctx, q, w.args...)
	if err != nil {
		return 0, mapError(err, "slot")
	}
	return tag.RowsAffected(), nil
}

// CloseDay is a single conditional update. A concurrent booking that closed the day first
// leaves nothing to update here, so the caller sees zero rows.
func (s *PostgresStore) CloseDay(ctx context.Context, slotID string) (int64, error) {
	if !validID(slotID) {
		return 0, nil
	}
	const q = `
		UPDATE available_slots AS s
		   SET is_available = false, updated_at = now()
		  FROM available_slots AS t
		 WHERE t.id = $1
		   AND t.is_available
		   AND s.date = t.date
		   AND s.is_available`

	tag, err := s.db.Exec(ctx, q, slotID)
	if err != nil {
		var pgErr *pgconn.PgError
		if stderrors.As(err, &pgErr) && (pgErr.Code == "40001" || pgErr.Code == "40P01") {
			return 0, nil
		}
		return 0, mapError(err, "slot "+slotID)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) InsertSlots(ctx context.Context, drafts []model.SlotDraft) ([]model.Slot, error) {
	const q = `
		INSERT INTO available_slots (date, start_time, end_time, capacity, experience_id)
		VALUES ($1::date, $2::time, nullif($3, '')::time, $4, nullif($5, '')::uuid)
		RETURNING ` + slotColumns

	slots := make([]model.Slot, 0, len(drafts))
	batch := &pgx.Batch{}
	for _, draft := range drafts {
		batch.Queue(q, draft.Date, draft.StartTime, draft.EndTime, draft.Capacity, draft.ExperienceID).
			QueryRow(func(row pgx.Row) error {
				slot, err := scanSlot(row)
				if err != nil {
					return err
				}
				slots = append(slots, slot)
				return nil
			})
	}
	if err := s.db.SendBatch(ctx, batch).Close(); err != nil {
		return nil, mapError(err, "slot")
	}
	return slots, nil
}

func (s *PostgresStore) DeleteSlot(ctx context.Context, id string) error {
	if !validID(id) {
		return errors.NotFound("slot %s not found", id)
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM available_slots WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "slot "+id)
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("slot %s not found", id)
	}
	return nil
}

const bookingColumns = `id::text, slot_id::text, coalesce(experience_id::text, ''), customer_name,
	customer_email, customer_phone, number_of_people, total_price::text, status, created_at`

func scanBooking(row pgx.Row) (model.Booking, error) {
	var (
		booking model.Booking
		total   string
	)
	err := row.Scan(&booking.ID, &booking.SlotID, &booking.ExperienceID, &booking.CustomerName,
		&booking.CustomerEmail, &booking.CustomerPhone, &booking.NumberOfPeople, &total,
		&booking.Status, &booking.CreatedAt)
	if err != nil {
		return model.Booking{}, err
	}
	booking.TotalPrice, err = decimal.NewFromString(total)
	return booking, err
}

func (s *PostgresStore) InsertBooking(ctx context.Context, booking model.Booking) (model.Booking, error) {
	const q = `
		INSERT INTO bookings (slot_id, experience_id, customer_name, customer_email, customer_phone,
		                      number_of_people, total_price, status)
		VALUES ($1::uuid, nullif($2, '')::uuid, $3, $4, $5, $6, $7::numeric, $8)
		RETURNING ` + bookingColumns

	row := s.db.QueryRow(ctx, q, booking.SlotID, booking.ExperienceID, booking.CustomerName,
		booking.CustomerEmail, booking.CustomerPhone, booking.NumberOfPeople,
		booking.TotalPrice.String(), booking.Status)
	inserted, err := scanBooking(row)
	if err != nil {
		return model.Booking{}, mapError(err, "booking")
	}
	return inserted, nil
}

func (s *PostgresStore) GetBooking(ctx context.Context, id string) (model.Booking, error) {
	if !validID(id) {
		return model.Booking{}, errors.NotFound("booking %s not found", id)
	}
	row := s.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	booking, err := scanBooking(row)
	if err != nil {
		return model.Booking{}, mapError(err, "booking "+id)
	}
	return booking, nil
}

func (s *PostgresStore) DeleteBooking(ctx context.Context, id string) error {
	if !validID(id) {
		return errors.NotFound("booking %s not found", id)
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "booking "+id)
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("booking %s not found", id)
	}
	return nil
}

func (s *PostgresStore) ListBookings(ctx context.Context, filter BookingFilter) ([]model.Booking, error) {
	var w where
	if filter.SlotID != "" {
		if !validID(filter.SlotID) {
			return []model.Booking{}, nil
		}
		w.add("slot_id = $%d", filter.SlotID)
	}
	q := `SELECT ` + bookingColumns + ` FROM bookings` + w.String() + ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		w.args = append(w.args, filter.Limit)
		q += fmt.Sprintf(` LIMIT $%d`, len(w.args))
	}

	rows, err := s.db.Query(ctx, q, w.args...)
	if err != nil {
		return nil, mapError(err, "bookings")
	}
	defer rows.Close()

	bookings := []model.Booking{}
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, mapError(err, "bookings")
		}
		bookings = append(bookings, booking)
	}
	return bookings, mapError(rows.Err(), "bookings")
}

const experienceColumns = `id::text, name, description, duration_minutes, price::text, is_active`

func scanExperience(row pgx.Row) (model.Experience, error) {
	var (
		experience model.Experience
		price      string
	)
	err := row.Scan(&experience.ID, &experience.Name, &experience.Description,
		&experience.DurationMinutes, &price, &experience.IsActive)
	if err != nil {
		return model.Experience{}, err
	}
	experience.Price, err = decimal.NewFromString(price)
	return experience, err
}

func (s *PostgresStore) ListExperiences(ctx context.Context) ([]model.Experience, error) {
	rows, err := s.db.Query(ctx, `SELECT `+experienceColumns+` FROM experiences WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, mapError(err, "experiences")
	}
	defer rows.Close()

	experiences := []model.Experience{}
	for rows.Next() {
		experience, err := scanExperience(rows)
		if err != nil {
			return nil, mapError(err, "experiences")
		}
		experiences = append(experiences, experience)
	}
	return experiences, mapError(rows.Err(), "experiences")
}

func (s *PostgresStore) GetExperience(ctx context.Context, id string) (model.Experience, error) {
	if !validID(id) {
		return model.Experience{}, errors.NotFound("experience %s not found", id)
	}
	row := s.db.QueryRow(ctx, `SELECT `+experienceColumns+` FROM experiences WHERE id = $1`, id)
	experience, err := scanExperience(row)
	if err != nil {
		return model.Experience{}, mapError(err, "experience "+id)
	}
	return experience, nil
}

const participantColumns = `id::text, group_id::text, event_name, event_date, event_time, name, email, phone, created_at`

func scanParticipant(row pgx.Row) (model.EventParticipant, error) {
	var p model.EventParticipant
	err := row.Scan(&p.ID, &p.GroupID, &p.EventName, &p.EventDate, &p.EventTime, &p.Name, &p.Email, &p.Phone, &p.CreatedAt)
	return p, err
}

func (s *PostgresStore) InsertParticipants(ctx context.Context, participants []model.EventParticipant) ([]model.EventParticipant, error) {
	const q = `
		INSERT INTO event_participants (group_id, event_name, event_date, event_time, name, email, phone)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7)
		RETURNING ` + participantColumns

	inserted := make([]model.EventParticipant, 0, len(participants))
	batch := &pgx.Batch{}
	for _, p := range participants {
		batch.Queue(q, p.GroupID, p.EventName, p.EventDate, p.EventTime, p.Name, p.Email, p.Phone).
			QueryRow(func(row pgx.Row) error {
				participant, err := scanParticipant(row)
				if err != nil {
					return err
				}
				inserted = append(inserted, participant)
				return nil
			})
	}
	if err := s.db.SendBatch(ctx, batch).Close(); err != nil {
		return nil, mapError(err, "event participant")
	}
	return inserted, nil
}

func (s *PostgresStore) ListParticipants(ctx context.Context, filter ParticipantFilter) ([]model.EventParticipant, error) {
	var w where
	if filter.EventName != "" {
		w.add("event_name = $%d", filter.EventName)
	}
	if filter.GroupID != "" {
		if !validID(filter.GroupID) {
			return []model.EventParticipant{}, nil
		}
		w.add("group_id = $%d", filter.GroupID)
	}
	q := `SELECT ` + participantColumns + ` FROM event_participants` + w.String() + ` ORDER BY created_at, name`

	rows, err := s.db.Query(ctx, q, w.args...)
	if err != nil {
		return nil, mapError(err, "event participants")
	}
	defer rows.Close()

	participants := []model.EventParticipant{}
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, mapError(err, "event participants")
		}
		participants = append(participants, p)
	}
	return participants, mapError(rows.Err(), "event participants")
}

func (s *PostgresStore) InsertWaitlistEntry(ctx context.Context, entry model.WaitlistEntry) (model.WaitlistEntry, error) {
	const q = `
		INSERT INTO event_waitlist (email, event_name) VALUES ($1, $2)
		RETURNING id::text, email, event_name, created_at`

	var inserted model.WaitlistEntry
	err := s.db.QueryRow(ctx, q, entry.Email, entry.EventName).
		Scan(&inserted.ID, &inserted.Email, &inserted.EventName, &inserted.CreatedAt)
	if err != nil {
		return model.WaitlistEntry{}, mapError(err, "waitlist entry")
	}
	return inserted, nil
}

func (s *PostgresStore) ListWaitlist(ctx context.Context, eventName string) ([]model.WaitlistEntry, error) {
	var w where
	if eventName != "" {
		w.add("event_name = $%d", eventName)
	}
	q := `SELECT id::text, email, event_name, created_at FROM event_waitlist` + w.String() + ` ORDER BY created_at`

	rows, err := s.db.Query(ctx, q, w.args...)
	if err != nil {
		return nil, mapError(err, "waitlist")
	}
	defer rows.Close()

	entries := []model.WaitlistEntry{}
	for rows.Next() {
		var entry model.WaitlistEntry
		if err := rows.Scan(&entry.ID, &entry.Email, &entry.EventName, &entry.CreatedAt); err != nil {
			return nil, mapError(err, "waitlist")
		}
		entries = append(entries, entry)
	}
	return entries, mapError(rows.Err(), "waitlist")
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// mapError translates driver errors into application error kinds.
func mapError(err error, subject string) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, pgx.ErrNoRows) {
		return errors.NotFound("%s not found", subject)
	}

	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return errors.New(errors.KindConflict, "%s already exists", subject).Wrap(err)
		case "23503":
			return errors.New(errors.KindConflict, "%s conflicts with related records", subject).Wrap(err)
		case "23502", "23514", "22007", "22008", "22P02":
			return errors.Validation("invalid %s", subject).Wrap(err)
		}
	}

	var connErr *pgconn.ConnectError
	if stderrors.As(err, &connErr) || pgconn.Timeout(err) || pgconn.SafeToRetry(err) ||
		stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Unavailable(err)
	}
	return errors.New(errors.KindInternal, "database error on %s", subject).Wrap(err)
}
