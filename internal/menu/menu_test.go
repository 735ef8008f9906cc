package menu

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/ledger"
	applog "ledger/internal/log"
	"ledger/internal/store/memory"
)

const menuBlock = separator + "\n" +
	"Account Management System\n" +
	"1. View Balance\n" +
	"2. Credit Account\n" +
	"3. Debit Account\n" +
	"4. Exit\n" +
	separator + "\n" +
	"Enter your choice (1-4): "

func newTestSession(t *testing.T, input string, opts ...Option) (*Session, *bytes.Buffer, *memory.Store) {
	t.Helper()
	s := memory.New()
	l := ledger.New(s, ledger.WithLogger(applog.Discard()))
	l.Reset(context.Background())
	out := &bytes.Buffer{}
	opts = append([]Option{WithLogger(applog.Discard())}, opts...)
	return NewSession(l, strings.NewReader(input), out, opts...), out, s
}

func TestSessionTranscript(t *testing.T) {
	session, out, _ := newTestSession(t, "1\n2\n3000\n3\n500\n3\n5000\n9\n4\n")
	require.NoError(t, session.Run(context.Background()))

	want := menuBlock + "Current balance: 001000.00\n" +
		menuBlock + "Enter credit amount: Amount credited. New balance: 004000.00\n" +
		menuBlock + "Enter debit amount: Amount debited. New balance: 003500.00\n" +
		menuBlock + "Enter debit amount: Insufficient funds for this debit.\n" +
		menuBlock + "Invalid choice, please select 1-4.\n" +
		menuBlock + "Exiting the program. Goodbye!\n"
	assert.Equal(t, want, out.String())
}

func TestSessionExitStopsReading(t *testing.T) {
	session, out, _ := newTestSession(t, "4\n1\n")
	require.NoError(t, session.Run(context.Background()))
	assert.Equal(t, 1, strings.Count(out.String(), "Account Management System"))
	assert.NotContains(t, out.String(), "Current balance")
}

func TestSessionEndOfInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"after view", "1\n"},
		{"at credit prompt", "2\n"},
		{"at debit prompt", "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, out, _ := newTestSession(t, tt.input)
			require.NoError(t, session.Run(context.Background()))
			assert.True(t, strings.HasSuffix(out.String(), "\nExiting the program. Goodbye!\n"))
		})
	}
}

func TestSessionChoiceParsing(t *testing.T) {
	tests := []struct {
		input   string
		invalid bool
	}{
		{"1", false},
		{" 1 ", false},
		{"1abc", false},
		{"1.9", false},
		{"+1", false},
		{"", true},
		{"abc", true},
		{"0", true},
		{"5", true},
		{"-1", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			session, out, _ := newTestSession(t, tt.input+"\n4\n")
			require.NoError(t, session.Run(context.Background()))
			if tt.invalid {
				assert.Contains(t, out.String(), "Invalid choice, please select 1-4.")
				assert.NotContains(t, out.String(), "Current balance")
			} else {
				assert.Contains(t, out.String(), "Current balance: 001000.00")
			}
		})
	}
}

func TestSessionReportsSaveFailures(t *testing.T) {
	const warning = "Warning: balance could not be saved."

	t.Run("off by default", func(t *testing.T) {
		session, out, s := newTestSession(t, "2\n10\n4\n")
		s.FailSaves(true)
		require.NoError(t, session.Run(context.Background()))
		assert.Contains(t, out.String(), "Amount credited. New balance: 001010.00")
		assert.NotContains(t, out.String(), warning)
	})

	t.Run("enabled", func(t *testing.T) {
		session, out, s := newTestSession(t, "2\n10\n3\n5\n3\n99999\n4\n", WithReportSaveFailures(true))
		s.FailSaves(true)
		require.NoError(t, session.Run(context.Background()))
		assert.Equal(t, 2, strings.Count(out.String(), warning), "refused debit does not warn")
		assert.Contains(t, out.String(), "Amount debited. New balance: 001005.00\n"+warning)
	})
}

func TestSessionPersistsEachMutation(t *testing.T) {
	session, _, s := newTestSession(t, "2\n500\n3\n200\n4\n")
	before := s.Saves()
	require.NoError(t, session.Run(context.Background()))
	assert.Equal(t, before+2, s.Saves())

	acct, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "001300.00", acct.Balance.String())
}

func TestSessionCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	l := ledger.New(memory.New(), ledger.WithLogger(applog.Discard()))
	out := &bytes.Buffer{}
	session := NewSession(l, pr, out, WithLogger(applog.Discard()))

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- session.Run(ctx) }()

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop after cancel")
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("tty gone") }

func TestSessionReadError(t *testing.T) {
	l := ledger.New(memory.New(), ledger.WithLogger(applog.Discard()))
	session := NewSession(l, failingReader{}, io.Discard, WithLogger(applog.Discard()))
	err := session.Run(context.Background())
	assert.ErrorContains(t, err, "tty gone")
}
