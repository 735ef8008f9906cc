package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/store"

	_ "modernc.org/sqlite"
)

const (
	accountTable = "account"
	// the table holds a single row
	accountRowID = 1
)

type accountRow struct {
	StudentName  string `db:"student_name"`
	BalanceCents int64  `db:"balance_cents"`
}

type SQLiteRepository struct {
	db     *sqlx.DB
	now    func() time.Time
	logger *applog.Logger
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logger := applog.FromSlog(slog.Default(), applog.ComponentStorage)
	logger.Debug("SQLite account store ready", applog.FieldPath, dbPath)

	return &SQLiteRepository{db: db, now: time.Now, logger: logger}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load implements store.AccountLoader
func (r *SQLiteRepository) Load(ctx context.Context) (core.Account, error) {
	query, args, err := sq.Select("student_name", "balance_cents").
		From(accountTable).
		Where(sq.Eq{"id": accountRowID}).
		ToSql()
	if err != nil {
		return core.Account{}, fmt.Errorf("build select: %w", err)
	}

	var row accountRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Account{}, store.ErrAccountNotFound
		}
		return core.Account{}, fmt.Errorf("select account: %w", err)
	}

	return core.Account{
		Name:    row.StudentName,
		Balance: core.Money{Cents: row.BalanceCents},
	}.Normalize(), nil
}

// Save implements store.AccountSaver
func (r *SQLiteRepository) Save(ctx context.Context, a core.Account) error {
	query, args, err := sq.Insert(accountTable).
		Columns("id", "student_name", "balance_cents", "updated_at").
		Values(accountRowID, a.Name, a.Balance.Cents, r.now().UTC().Format(time.RFC3339Nano)).
		Suffix("ON CONFLICT(id) DO UPDATE SET " +
			"student_name = excluded.student_name, " +
			"balance_cents = excluded.balance_cents, " +
			"updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert account: %w", err)
	}

	r.logger.DebugContext(ctx, "Account saved to SQLite",
		applog.FieldStudentName, a.Name,
		applog.FieldBalanceCents, a.Balance.Cents)

	return nil
}
