package ledger

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/store"
	"ledger/internal/store/file"
	"ledger/internal/store/memory"
)

type recordingNotifier struct {
	changes []core.BalanceChange
	err     error
}

func (n *recordingNotifier) NotifyBalanceChange(_ context.Context, c core.BalanceChange) error {
	n.changes = append(n.changes, c)
	return n.err
}

type brokenStore struct {
	loadErr error
}

func (b brokenStore) Load(context.Context) (core.Account, error) { return core.Account{}, b.loadErr }
func (b brokenStore) Save(context.Context, core.Account) error  { return errors.New("disk full") }

func newTestLedger(t *testing.T, opts ...Option) (*Ledger, *memory.Store) {
	t.Helper()
	s := memory.New()
	opts = append([]Option{WithLogger(applog.Discard())}, opts...)
	l := New(s, opts...)
	l.Reset(context.Background())
	return l, s
}

func TestScenarios(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		run  func(l *Ledger) core.Money
		want string
	}{
		{"view", func(l *Ledger) core.Money { return l.Balance() }, "001000.00"},
		{"credit 3000", func(l *Ledger) core.Money { return l.Credit(ctx, "3000").Balance }, "004000.00"},
		{"debit 500", func(l *Ledger) core.Money { return l.Debit(ctx, "500").Balance }, "000500.00"},
		{"debit 5000 refused", func(l *Ledger) core.Money { return l.Debit(ctx, "5000").Balance }, "001000.00"},
		{"debit whole balance", func(l *Ledger) core.Money { return l.Debit(ctx, "1000").Balance }, "000000.00"},
		{"credit then debit", func(l *Ledger) core.Money {
			l.Credit(ctx, "500")
			return l.Debit(ctx, "200").Balance
		}, "001300.00"},
		{"credit widens field", func(l *Ledger) core.Money { return l.Credit(ctx, "999999.99").Balance }, "1000999.99"},
		{"credit garbage", func(l *Ledger) core.Money { return l.Credit(ctx, "abc").Balance }, "001000.00"},
		{"credit prefix", func(l *Ledger) core.Money { return l.Credit(ctx, "12abc").Balance }, "001012.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _ := newTestLedger(t)
			got := tt.run(l)
			assert.Equal(t, tt.want, core.FormatBalance(got))
			assert.Equal(t, got, l.Balance())
		})
	}
}

func TestDebitSufficiency(t *testing.T) {
	ctx := context.Background()
	l, s := newTestLedger(t)
	saves := s.Saves()

	res := l.Debit(ctx, "1000.01")
	assert.False(t, res.Success)
	assert.False(t, res.Saved)
	assert.Equal(t, int64(100001), res.Amount.Cents)
	assert.Equal(t, core.DefaultBalance, res.Balance)
	assert.Equal(t, saves, s.Saves(), "refused debit must not write")

	res = l.Debit(ctx, "1000.00")
	assert.True(t, res.Success)
	assert.True(t, res.Saved)
	assert.Equal(t, int64(0), res.Balance.Cents)

	persisted, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), persisted.Balance.Cents)

	res = l.Debit(ctx, "0.01")
	assert.False(t, res.Success)
	assert.Equal(t, int64(0), l.Balance().Cents)
}

func TestCreditZeroIsPersistedNoOp(t *testing.T) {
	ctx := context.Background()
	l, s := newTestLedger(t)
	saves := s.Saves()

	res := l.Credit(ctx, "not a number")
	assert.True(t, res.Saved)
	assert.Equal(t, core.Money{}, res.Amount)
	assert.Equal(t, core.DefaultBalance, res.Balance)
	assert.Equal(t, saves+1, s.Saves())
}

func TestNegativeAmounts(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)

	res := l.Debit(ctx, "-50")
	assert.True(t, res.Success)
	assert.Equal(t, "001050.00", res.Balance.String())

	cr := l.Credit(ctx, "-2000")
	assert.Equal(t, "-000950.00", cr.Balance.String())
}

func TestNoFloatDrift(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)
	for i := 0; i < 500; i++ {
		l.Credit(ctx, "0.10")
		l.Credit(ctx, "0.20")
		l.Debit(ctx, "0.30")
	}
	assert.Equal(t, core.DefaultBalance, l.Balance())
	assert.Equal(t, "001000.00", core.FormatBalance(l.Balance()))
}

func TestOverflowTreatedAsZero(t *testing.T) {
	ctx := context.Background()
	s := memory.NewWithAccount(core.Account{Name: "Ada", Balance: core.Money{Cents: math.MaxInt64 - 10}})
	l := New(s, WithLogger(applog.Discard()))
	require.Equal(t, core.Loaded, l.Load(ctx).Status)

	res := l.Credit(ctx, "1")
	assert.Equal(t, core.Money{}, res.Amount)
	assert.Equal(t, int64(math.MaxInt64-10), res.Balance.Cents)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	l, s := newTestLedger(t)
	l.Credit(ctx, "123.45")
	l.Debit(ctx, "23.45")

	assert.Equal(t, core.DefaultBalance, l.Reset(ctx))
	assert.Equal(t, core.DefaultAccount(), l.Account())

	persisted, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.DefaultAccount(), persisted)
}

func TestLoadStatuses(t *testing.T) {
	ctx := context.Background()

	t.Run("loaded", func(t *testing.T) {
		seed := core.Account{Name: "Ada", Balance: core.Money{Cents: 4242}}
		l := New(memory.NewWithAccount(seed), WithLogger(applog.Discard()))
		res := l.Load(ctx)
		assert.Equal(t, core.Loaded, res.Status)
		assert.NoError(t, res.Err)
		assert.Equal(t, seed, res.Account)
		assert.Equal(t, seed, l.Account())
	})

	t.Run("missing", func(t *testing.T) {
		l := New(memory.New(), WithLogger(applog.Discard()))
		res := l.Load(ctx)
		assert.Equal(t, core.DefaultedMissing, res.Status)
		assert.ErrorIs(t, res.Err, store.ErrAccountNotFound)
		assert.Equal(t, core.DefaultAccount(), l.Account())
	})

	t.Run("corrupt", func(t *testing.T) {
		l := New(brokenStore{loadErr: store.ErrCorruptAccount}, WithLogger(applog.Discard()))
		l.account.Balance = core.Money{Cents: 1}
		res := l.Load(ctx)
		assert.Equal(t, core.DefaultedCorrupt, res.Status)
		assert.Error(t, res.Err)
		assert.Equal(t, core.DefaultAccount(), l.Account())
	})

	t.Run("unexpected error counts as corrupt", func(t *testing.T) {
		l := New(brokenStore{loadErr: errors.New("permission denied")}, WithLogger(applog.Discard()))
		assert.Equal(t, core.DefaultedCorrupt, l.Load(ctx).Status)
	})
}

func TestSaveFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	l, s := newTestLedger(t)
	s.FailSaves(true)

	cr := l.Credit(ctx, "10")
	assert.False(t, cr.Saved)
	assert.Equal(t, "001010.00", cr.Balance.String())

	dr := l.Debit(ctx, "5")
	assert.True(t, dr.Success)
	assert.False(t, dr.Saved)
	assert.Equal(t, "001005.00", l.Balance().String())
	assert.False(t, l.Save(ctx))

	persisted, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.DefaultBalance, persisted.Balance, "previous persisted state is kept")

	s.FailSaves(false)
	assert.True(t, l.Save(ctx))
}

func TestSaveNeverPanicsOnBrokenStore(t *testing.T) {
	l := New(brokenStore{loadErr: store.ErrAccountNotFound}, WithLogger(applog.Discard()))
	assert.Equal(t, core.DefaultBalance, l.Reset(context.Background()))
	assert.False(t, l.Save(context.Background()))
}

func TestNotifier(t *testing.T) {
	ctx := context.Background()
	when := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	n := &recordingNotifier{}
	l, _ := newTestLedger(t, WithNotifier(n), WithClock(func() time.Time { return when }))
	n.changes = nil // drop the reset done by newTestLedger

	l.Credit(ctx, "3000")
	l.Debit(ctx, "5000") // refused, not published
	l.Debit(ctx, "500")

	require.Len(t, n.changes, 2)
	assert.Equal(t, applog.OpCredit, n.changes[0].Operation)
	assert.Equal(t, int64(300000), n.changes[0].Amount.Cents)
	assert.Equal(t, int64(400000), n.changes[0].Account.Balance.Cents)
	assert.Equal(t, when, n.changes[0].OccurredAt)
	assert.Equal(t, applog.OpDebit, n.changes[1].Operation)
	assert.Equal(t, int64(350000), n.changes[1].Account.Balance.Cents)
}

func TestNotifierFailureDoesNotAffectResult(t *testing.T) {
	n := &recordingNotifier{err: errors.New("broker down")}
	l, _ := newTestLedger(t, WithNotifier(n))

	res := l.Credit(context.Background(), "1")
	assert.True(t, res.Saved)
	assert.Equal(t, "001001.00", res.Balance.String())
}

func TestPersistsAcrossLedgersWithFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "account.json")

	first := New(file.NewStore(path), WithLogger(applog.Discard()))
	assert.Equal(t, core.DefaultedMissing, first.Load(ctx).Status)
	first.Credit(ctx, "500")
	first.Debit(ctx, "200")

	second := New(file.NewStore(path), WithLogger(applog.Discard()))
	res := second.Load(ctx)
	assert.Equal(t, core.Loaded, res.Status)
	assert.Equal(t, "001300.00", core.FormatBalance(second.Balance()))

	require.NoError(t, os.WriteFile(path, []byte(`{"studentName":"Ada","balance":"lots"}`), 0o644))
	third := New(file.NewStore(path), WithLogger(applog.Discard()))
	res = third.Load(ctx)
	assert.Equal(t, core.DefaultedCorrupt, res.Status)
	assert.ErrorIs(t, res.Err, store.ErrCorruptAccount)
	assert.Equal(t, core.DefaultAccount(), third.Account())
}
