// Package menu runs the interactive text menu over a ledger.
package menu

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"ledger/internal/core"
	"ledger/internal/ledger"
	applog "ledger/internal/log"
)

const (
	separator = "--------------------------------"

	choiceView   = 1
	choiceCredit = 2
	choiceDebit  = 3
	choiceExit   = 4
)

type Session struct {
	ledger             *ledger.Ledger
	in                 io.Reader
	out                io.Writer
	logger             *applog.Logger
	reportSaveFailures bool
}

// Option configures a Session
type Option func(*Session)

// WithReportSaveFailures prints a warning whenever a mutation could not be saved
func WithReportSaveFailures(report bool) Option {
	return func(s *Session) {
		s.reportSaveFailures = report
	}
}

// WithLogger sets the logger
func WithLogger(logger *applog.Logger) Option {
	return func(s *Session) {
		s.logger = logger.WithComponent(applog.ComponentMenu)
	}
}

func NewSession(l *ledger.Ledger, in io.Reader, out io.Writer, opts ...Option) *Session {
	s := &Session{ledger: l, in: in, out: out}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = applog.FromSlog(slog.Default(), applog.ComponentMenu)
	}
	return s
}

// Run shows the menu until the user exits, input ends or ctx is cancelled.
// Only a read error on the input is returned.
func (s *Session) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	lines, readErr := readLines(s.in, done)

	for {
		s.showMenu()
		raw, ok := s.prompt(ctx, lines, "Enter your choice (1-4): ")
		if !ok {
			return s.stop(readErr)
		}

		choice, valid := parseChoice(raw)
		if !valid {
			choice = 0
		}

		switch choice {
		case choiceView:
			s.println("Current balance: " + core.FormatBalance(s.ledger.Balance()))

		case choiceCredit:
			amt, ok := s.prompt(ctx, lines, "Enter credit amount: ")
			if !ok {
				return s.stop(readErr)
			}
			res := s.ledger.Credit(ctx, amt)
			s.println("Amount credited. New balance: " + core.FormatBalance(res.Balance))
			s.reportSave(res.Saved)

		case choiceDebit:
			amt, ok := s.prompt(ctx, lines, "Enter debit amount: ")
			if !ok {
				return s.stop(readErr)
			}
			res := s.ledger.Debit(ctx, amt)
			if res.Success {
				s.println("Amount debited. New balance: " + core.FormatBalance(res.Balance))
				s.reportSave(res.Saved)
			} else {
				s.println("Insufficient funds for this debit.")
			}

		case choiceExit:
			s.println("Exiting the program. Goodbye!")
			return nil

		default:
			s.logger.Debug("Invalid menu choice", "input", raw)
			s.println("Invalid choice, please select 1-4.")
		}
	}
}

func (s *Session) showMenu() {
	s.println(separator)
	s.println("Account Management System")
	s.println("1. View Balance")
	s.println("2. Credit Account")
	s.println("3. Debit Account")
	s.println("4. Exit")
	s.println(separator)
}

// prompt writes question and waits for the next line. ok is false when
// input has ended or ctx is done.
func (s *Session) prompt(ctx context.Context, lines <-chan string, question string) (string, bool) {
	fmt.Fprint(s.out, question)
	select {
	case <-ctx.Done():
		return "", false
	case line, ok := <-lines:
		return line, ok
	}
}

// stop ends the session after input ran out or a shutdown was requested.
func (s *Session) stop(readErr <-chan error) error {
	s.println("")
	s.println("Exiting the program. Goodbye!")
	select {
	case err := <-readErr:
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
	default:
	}
	return nil
}

func (s *Session) reportSave(saved bool) {
	if !saved && s.reportSaveFailures {
		s.println("Warning: balance could not be saved.")
	}
}

func (s *Session) println(line string) {
	fmt.Fprintln(s.out, line)
}

// readLines feeds lines from r into the returned channel on its own
// goroutine so that Run can also watch for cancellation. The channel is
// closed at end of input; a scanner error, if any, is sent first.
func readLines(r io.Reader, done <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
		errc <- sc.Err()
	}()
	return lines, errc
}

// parseChoice reads a leading integer the way the menu always has:
// " 2 " is 2, "3abc" is 3, "1.9" is 1.
func parseChoice(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
