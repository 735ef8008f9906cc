// Package file persists the account as a small human-readable JSON document.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
	"ledger/internal/store"
)

// maxBalanceExponent bounds the decimal exponent of a stored balance.
// Rounding rescales by 10^|exp|, so larger ones are rejected up front.
const maxBalanceExponent = 40

// record mirrors the on-disk document. Both fields stay raw so that a
// quoted or missing number can be told apart from a real one, and a
// non-string name does not invalidate the balance.
type record struct {
	StudentName json.RawMessage `json:"studentName"`
	Balance     json.RawMessage `json:"balance"`
}

type outRecord struct {
	StudentName string      `json:"studentName"`
	Balance     json.Number `json:"balance"`
}

type Store struct {
	path string
}

// NewStore returns a store backed by the JSON file at path. The file is
// not touched until the first Load or Save.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load implements store.AccountLoader.
func (s *Store) Load(_ context.Context) (core.Account, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return core.Account{}, fmt.Errorf("read %s: %w", s.path, store.ErrAccountNotFound)
		}
		return core.Account{}, fmt.Errorf("read %s: %w", s.path, err)
	}
	return decode(raw)
}

func decode(raw []byte) (core.Account, error) {
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return core.Account{}, fmt.Errorf("%w: %w", store.ErrCorruptAccount, err)
	}

	b := bytes.TrimSpace(rec.Balance)
	if len(b) == 0 || !(b[0] == '-' || (b[0] >= '0' && b[0] <= '9')) {
		return core.Account{}, fmt.Errorf("%w: balance is not a number", store.ErrCorruptAccount)
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return core.Account{}, fmt.Errorf("%w: balance %s: %w", store.ErrCorruptAccount, b, err)
	}
	if exp := d.Exponent(); exp > maxBalanceExponent || exp < -maxBalanceExponent {
		return core.Account{}, fmt.Errorf("%w: balance exponent %d out of range", store.ErrCorruptAccount, exp)
	}
	bal, ok := core.Round2(d)
	if !ok {
		return core.Account{}, fmt.Errorf("%w: balance %s out of range", store.ErrCorruptAccount, b)
	}

	return core.Account{Name: decodeName(rec.StudentName), Balance: bal}.Normalize(), nil
}

// decodeName returns the stored name, or "" when it is missing or not a
// JSON string.
func decodeName(raw json.RawMessage) string {
	var name string
	if len(raw) == 0 || json.Unmarshal(raw, &name) != nil {
		return ""
	}
	return name
}

// Save implements store.AccountSaver. The document is written to a temp
// file in the same directory and renamed over the old one, so readers see
// either the previous or the new content.
func (s *Store) Save(_ context.Context, a core.Account) error {
	body, err := json.MarshalIndent(outRecord{
		StudentName: a.Name,
		Balance:     json.Number(a.Balance.Decimal().StringFixed(2)),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}
	body = append(body, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
