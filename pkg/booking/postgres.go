package booking

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate brings the schema up to date using the embedded migrations.
func Migrate(ctx context.Context, dsn string) error {
	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	now    func() time.Time
}

// NewPostgres connects a pool to the given DSN.
func NewPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Postgres{
		pool:   pool,
		logger: logger.With("component", "booking.postgres"),
		now:    time.Now,
	}, nil
}

const insertSQL = `
INSERT INTO appointments
  (id, patient_name, patient_phone, service_type, appointment_date,
   appointment_time, status, notes, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// Insert persists the appointment, substituting defaults for empty fields.
func (p *Postgres) Insert(ctx context.Context, a *Appointment) error {
	a.FillDefaults(p.now())

	_, err := p.pool.Exec(ctx, insertSQL,
		a.ID, a.PatientName, a.PatientPhone, a.ServiceType,
		a.Date, a.Time, a.Status, a.Notes, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}

	p.logger.Info("appointment saved",
		"id", a.ID,
		"patient", a.PatientName,
		"service", a.ServiceType,
		"time", a.Time,
	)
	return nil
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// Verify Postgres implements Store at compile time.
var _ Store = (*Postgres)(nil)
