package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

var ErrNotFound = errors.New("not found")

// Pool is the subset of pgxpool.Pool the repository uses
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

var _ Pool = (*pgxpool.Pool)(nil)

// Repository handles all database operations
type Repository struct {
	pool Pool
}

// NewRepository creates a new repository
func NewRepository(pool Pool) *Repository {
	return &Repository{pool: pool}
}

// --- Users ---

// GetUserByEmail returns a user by email address
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := r.pool.QueryRow(ctx, `
		SELECT userid, name, email, bookings, created_at
		FROM users
		WHERE email = $1
	`, normalizeEmail(email)).Scan(&u.ID, &u.Name, &u.Email, &u.Bookings, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// UpsertUser creates the user if needed and returns its id
func (r *Repository) UpsertUser(ctx context.Context, email, name string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, name)
		VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET name = COALESCE(NULLIF(EXCLUDED.name, ''), users.name)
		RETURNING userid
	`, normalizeEmail(email), name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert user: %w", err)
	}
	return id, nil
}

// --- Emails ---

// ListUserEmails returns the stored mailbox of a user, newest first. An
// unknown user has an empty mailbox.
func (r *Repository) ListUserEmails(ctx context.Context, userEmail string) ([]models.Email, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT e.emailid, e.userid, e.sender, COALESCE(e.header, ''), COALESCE(e.body, ''), e.received_at
		FROM emails e
		JOIN users u ON u.userid = e.userid
		WHERE u.email = $1
		ORDER BY e.received_at DESC
	`, normalizeEmail(userEmail))
	if err != nil {
		return nil, fmt.Errorf("failed to query emails: %w", err)
	}
	defer rows.Close()

	var emails []models.Email
	for rows.Next() {
		var e models.Email
		if err := rows.Scan(&e.ID, &e.UserID, &e.Sender, &e.Subject, &e.Body, &e.ReceivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan email: %w", err)
		}
		emails = append(emails, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read emails: %w", err)
	}
	return emails, nil
}

// --- Sessions ---

// SaveSessionPreferences stores the resolved preferences of a session
// under the "travel" key of user_preferences
func (r *Repository) SaveSessionPreferences(ctx context.Context, sessionID, userEmail string, prefs models.TravelPreferences) error {
	return r.mergeSessionPreferences(ctx, sessionID, userEmail, "travel", prefs)
}

// SaveInvitations stores invitations found for a session under the
// "invitations" key of user_preferences
func (r *Repository) SaveInvitations(ctx context.Context, sessionID string, invitations []models.Invitation) error {
	return r.mergeSessionPreferences(ctx, sessionID, "", "invitations", invitations)
}

func (r *Repository) mergeSessionPreferences(ctx context.Context, sessionID, userEmail, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO sessions (sessionid, userid, user_preferences)
		VALUES ($1, (SELECT userid FROM users WHERE email = $2), jsonb_build_object($3::text, $4::jsonb))
		ON CONFLICT (sessionid) DO UPDATE SET
			userid = COALESCE(sessions.userid, EXCLUDED.userid),
			user_preferences = sessions.user_preferences || EXCLUDED.user_preferences,
			updated_at = NOW()
	`, sessionID, normalizeEmail(userEmail), key, string(data))
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", key, err)
	}
	return nil
}

// --- Bookings ---

// CreateBooking stores a confirmed flight and bumps the user's booking
// count
func (r *Repository) CreateBooking(ctx context.Context, sessionID, userEmail string, flight models.RankedFlight) (*models.Booking, error) {
	details, err := json.Marshal(flight)
	if err != nil {
		return nil, fmt.Errorf("failed to encode flight: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		id        int64
		createdAt time.Time
	)
	err = tx.QueryRow(ctx, `
		INSERT INTO flights (userid, sessionid, departure, arrival, currency, price, airline, details)
		VALUES ((SELECT userid FROM users WHERE email = $1), NULLIF($2, ''), $3, $4, $5, $6, $7, $8)
		RETURNING flightid, created_at
	`, normalizeEmail(userEmail), sessionID, flight.DepartureCode, flight.ArrivalCode,
		flight.Currency, flight.Price, flight.Airline, details).Scan(&id, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	if userEmail != "" {
		if _, err := tx.Exec(ctx, `
			UPDATE users SET bookings = bookings + 1 WHERE email = $1
		`, normalizeEmail(userEmail)); err != nil {
			return nil, fmt.Errorf("failed to update user bookings: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit booking: %w", err)
	}

	return &models.Booking{
		ID:                 BookingID(id),
		ConfirmationNumber: ConfirmationNumber(id),
		SessionID:          sessionID,
		UserEmail:          userEmail,
		Flight:             flight,
		Status:             models.BookingStatusConfirmed,
		CreatedAt:          createdAt.UTC(),
	}, nil
}

// GetBooking returns a booking by its "b_<n>" id
func (r *Repository) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	id, err := ParseBookingID(bookingID)
	if err != nil {
		return nil, ErrNotFound
	}

	var rec FlightRecord
	err = r.pool.QueryRow(ctx, `
		SELECT f.flightid, f.sessionid, u.email,
		       COALESCE(f.departure, ''), COALESCE(f.arrival, ''), COALESCE(f.currency, ''),
		       f.price::float8, COALESCE(f.airline, ''), f.details, f.created_at
		FROM flights f
		LEFT JOIN users u ON u.userid = f.userid
		WHERE f.flightid = $1
	`, id).Scan(&rec.ID, &rec.SessionID, &rec.UserEmail, &rec.Departure, &rec.Arrival, &rec.Currency,
		&rec.Price, &rec.Airline, &rec.Details, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return bookingFromRecord(rec)
}

func bookingFromRecord(rec FlightRecord) (*models.Booking, error) {
	var flight models.RankedFlight
	if len(rec.Details) > 0 {
		if err := json.Unmarshal(rec.Details, &flight); err != nil {
			return nil, fmt.Errorf("failed to decode booked flight: %w", err)
		}
	}
	if flight.Airline == "" {
		flight.Airline = rec.Airline
	}
	if flight.DepartureCode == "" {
		flight.DepartureCode = rec.Departure
	}
	if flight.ArrivalCode == "" {
		flight.ArrivalCode = rec.Arrival
	}
	if flight.Currency == "" {
		flight.Currency = rec.Currency
	}
	if flight.Price == nil {
		flight.Price = rec.Price
	}

	b := &models.Booking{
		ID:                 BookingID(rec.ID),
		ConfirmationNumber: ConfirmationNumber(rec.ID),
		Flight:             flight,
		Status:             models.BookingStatusConfirmed,
		CreatedAt:          rec.CreatedAt.UTC(),
	}
	if rec.SessionID != nil {
		b.SessionID = *rec.SessionID
	}
	if rec.UserEmail != nil {
		b.UserEmail = *rec.UserEmail
	}
	return b, nil
}

// BookingID formats a flights row id as a booking id
func BookingID(id int64) string {
	return "b_" + strconv.FormatInt(id, 10)
}

// ConfirmationNumber derives the confirmation code of a booking
func ConfirmationNumber(id int64) string {
	return fmt.Sprintf("CONF%06d", id)
}

// ParseBookingID is the inverse of BookingID
func ParseBookingID(s string) (int64, error) {
	raw, ok := strings.CutPrefix(s, "b_")
	if !ok {
		return 0, fmt.Errorf("booking id %q lacks the b_ prefix", s)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid booking id %q", s)
	}
	return id, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
