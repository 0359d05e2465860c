package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"frizo/binary_futures/internal/common"
	"frizo/binary_futures/pkg/utils"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// SQLiteLedger persists balances and the transfer journal in a SQLite file.
// Amounts are stored as decimal strings.
type SQLiteLedger struct {
	db   *sql.DB
	once sync.Once
}

// OpenSQLite opens (or creates) the ledger database at path. ":memory:" is accepted.
func OpenSQLite(path string) (*SQLiteLedger, error) {
	if path == "" {
		return nil, fmt.Errorf("empty ledger db path")
	}
	if path != ":memory:" {
		if err := utils.EnsureParentDir(path); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one writer keeps balance read-modify-write serial
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteLedger{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=FULL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS balances (
			address TEXT PRIMARY KEY,
			amount TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS transfers (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			transfer_id TEXT NOT NULL,
			from_address TEXT NOT NULL,
			to_address TEXT NOT NULL,
			amount TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_transfers_from ON transfers(from_address);`,
		`CREATE INDEX IF NOT EXISTS idx_transfers_to ON transfers(to_address);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (l *SQLiteLedger) Close() error {
	var err error
	l.once.Do(func() {
		err = l.db.Close()
	})
	return err
}

// Deposit credits addr with amount and journals it from the zero address.
func (l *SQLiteLedger) Deposit(ctx context.Context, addr ethcommon.Address, amount decimal.Decimal) error {
	if err := validateAmount(amount); err != nil {
		return err
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if err := credit(ctx, tx, addr, amount, now); err != nil {
		return err
	}
	if err := journal(ctx, tx, common.GenerateTransferID(), ethcommon.Address{}, addr, amount, now); err != nil {
		return err
	}
	return tx.Commit()
}

// Transfer moves every payout out of from inside one database transaction.
func (l *SQLiteLedger) Transfer(ctx context.Context, from ethcommon.Address, payouts ...Payout) (string, error) {
	total, err := validatePayouts(payouts)
	if err != nil {
		return "", err
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	available, err := balance(ctx, tx, from)
	if err != nil {
		return "", err
	}
	if available.LessThan(total) {
		return "", fmt.Errorf("%w: %s holds %s, needs %s", ErrInsufficientFunds, from.Hex(), available, total)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if err := setBalance(ctx, tx, from, available.Sub(total), now); err != nil {
		return "", err
	}

	transferID := common.GenerateTransferID()
	for _, p := range payouts {
		if err := credit(ctx, tx, p.To, p.Amount, now); err != nil {
			return "", err
		}
		if err := journal(ctx, tx, transferID, from, p.To, p.Amount, now); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return transferID, nil
}

func (l *SQLiteLedger) Balance(ctx context.Context, addr ethcommon.Address) (decimal.Decimal, error) {
	return balance(ctx, l.db, addr)
}

// Entries returns every journal entry touching addr, oldest first.
func (l *SQLiteLedger) Entries(ctx context.Context, addr ethcommon.Address) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT transfer_id, from_address, to_address, amount, created_at
		   FROM transfers
		  WHERE from_address = ? OR to_address = ?
		  ORDER BY seq`, addr.Hex(), addr.Hex())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var from, to, amt, at string
		if err := rows.Scan(&e.TransferID, &from, &to, &amt, &at); err != nil {
			return nil, err
		}
		if e.Amount, err = decimal.NewFromString(amt); err != nil {
			return nil, fmt.Errorf("corrupt amount %q: %w", amt, err)
		}
		if e.At, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("corrupt timestamp %q: %w", at, err)
		}
		e.From = ethcommon.HexToAddress(from)
		e.To = ethcommon.HexToAddress(to)
		out = append(out, e)
	}
	return out, rows.Err()
}

// =====================================================
// statement helpers
// =====================================================

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func balance(ctx context.Context, q queryer, addr ethcommon.Address) (decimal.Decimal, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT amount FROM balances WHERE address = ?`, addr.Hex()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("corrupt balance for %s: %w", addr.Hex(), err)
	}
	return amount, nil
}

func setBalance(ctx context.Context, tx *sql.Tx, addr ethcommon.Address, amount decimal.Decimal, now string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO balances(address, amount, updated_at) VALUES(?, ?, ?)
		 ON CONFLICT(address) DO UPDATE SET amount = excluded.amount, updated_at = excluded.updated_at`,
		addr.Hex(), amount.String(), now)
	return err
}

func credit(ctx context.Context, tx *sql.Tx, addr ethcommon.Address, amount decimal.Decimal, now string) error {
	current, err := balance(ctx, tx, addr)
	if err != nil {
		return err
	}
	return setBalance(ctx, tx, addr, current.Add(amount), now)
}

func journal(ctx context.Context, tx *sql.Tx, transferID string, from, to ethcommon.Address, amount decimal.Decimal, now string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO transfers(transfer_id, from_address, to_address, amount, created_at) VALUES(?, ?, ?, ?, ?)`,
		transferID, from.Hex(), to.Hex(), amount.String(), now)
	return err
}
