package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/sweeney/enviro-monitor/internal/telemetry"
)

const (
	defaultMaxOpenConns = 10
	defaultMaxIdleConns = 2
	defaultConnLifetime = time.Hour
	defaultConnIdleTime = 30 * time.Minute
	defaultPingTimeout  = 5 * time.Second
)

// OpenPostgres creates a pgx/stdlib backed *sql.DB pool and validates the connection.
func OpenPostgres(dsn string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("db: empty DSN")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnLifetime)
	db.SetConnMaxIdleTime(defaultConnIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), defaultPingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// PostgresStore keeps rows in the sensor_data table.
type PostgresStore struct {
	db       *sql.DB
	alarmCol string
	now      func() time.Time
}

// NewPostgresStore returns a store whose alarm LED column is alarmField.
func NewPostgresStore(db *sql.DB, alarmField string) *PostgresStore {
	return &PostgresStore{
		db:       db,
		alarmCol: pgx.Identifier{alarmField}.Sanitize(),
		now:      time.Now,
	}
}

func (s *PostgresStore) schemaSQL() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS sensor_data (
	id UUID PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL,
	temperature DOUBLE PRECISION NOT NULL,
	humidity DOUBLE PRECISION NOT NULL,
	light_intensity INTEGER NOT NULL,
	fan BOOLEAN NOT NULL,
	fan_led BOOLEAN NOT NULL,
	light BOOLEAN NOT NULL,
	light_led BOOLEAN NOT NULL,
	%s BOOLEAN NOT NULL,
	buzzer BOOLEAN NOT NULL
)`, s.alarmCol)
}

func (s *PostgresStore) insertSQL() string {
	return fmt.Sprintf(`INSERT INTO sensor_data
	(id, created_at, temperature, humidity, light_intensity, fan, fan_led, light, light_led, %s, buzzer)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`, s.alarmCol)
}

func (s *PostgresStore) listSQL() string {
	return fmt.Sprintf(`SELECT id, created_at, temperature, humidity, light_intensity, fan, fan_led, light, light_led, %s, buzzer
	FROM sensor_data ORDER BY created_at`, s.alarmCol)
}

// EnsureSchema creates the table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.schemaSQL()); err != nil {
		return fmt.Errorf("create sensor_data: %w", err)
	}
	return nil
}

// Insert stores rec with a new id and creation time.
func (s *PostgresStore) Insert(ctx context.Context, rec telemetry.Record) (Row, error) {
	row := Row{
		ID:        uuid.NewString(),
		CreatedAt: s.now().UTC(),
		Record:    rec,
	}
	_, err := s.db.ExecContext(ctx, s.insertSQL(),
		row.ID, row.CreatedAt, rec.Temperature, rec.Humidity, rec.LightIntensity,
		rec.Fan, rec.FanLED, rec.Light, rec.LightLED, rec.AlarmLED, rec.Buzzer)
	if err != nil {
		return Row{}, fmt.Errorf("insert sensor_data: %w", err)
	}
	return row, nil
}

// List returns every row ordered by creation time.
func (s *PostgresStore) List(ctx context.Context) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, s.listSQL())
	if err != nil {
		return nil, fmt.Errorf("query sensor_data: %w", err)
	}
	defer rows.Close()

	out := []Row{}
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.Temperature, &r.Humidity, &r.LightIntensity,
			&r.Fan, &r.FanLED, &r.Light, &r.LightLED, &r.AlarmLED, &r.Buzzer); err != nil {
			return nil, fmt.Errorf("scan sensor_data: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sensor_data: %w", err)
	}
	return out, nil
}
