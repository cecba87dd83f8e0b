package memory

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sync"

	ports "ledgerbot/internal/sheets"
)

// Store is an in-memory worksheet. It serves local runs and tests.
type Store struct {
	mu    sync.Mutex
	title string
	rows  [][]string
	opens int
	err   error
}

var (
	_ ports.Opener    = (*Store)(nil)
	_ ports.Worksheet = (*Store)(nil)
)

func New(title string, rows [][]string) *Store {
	return &Store{title: title, rows: cloneRows(rows)}
}

// NewFromCSV seeds a worksheet from a CSV file whose first record is the
// header row. A missing file yields an empty ledger with the default header.
func NewFromCSV(path string) (*Store, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return New("memory", [][]string{{"date", "category", "amount"}}), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comment = '#'
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read ledger file %s: %w", path, err)
	}
	return New(path, rows), nil
}

// Fail makes subsequent Open calls return err. Passing nil clears it.
func (s *Store) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Append adds a data row.
func (s *Store) Append(row ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, append([]string(nil), row...))
}

// Opens reports how many times the worksheet was opened.
func (s *Store) Opens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens
}

func (s *Store) Open(_ context.Context) (ports.Worksheet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opens++
	if s.err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrConfiguration, s.err)
	}
	return s, nil
}

func (s *Store) Title() string { return s.title }

func (s *Store) RowValues(_ context.Context, row int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row < 1 {
		return nil, fmt.Errorf("invalid row: %d", row)
	}
	if row > len(s.rows) {
		return []string{}, nil
	}
	return append([]string(nil), s.rows[row-1]...), nil
}

func (s *Store) AllValues(_ context.Context) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRows(s.rows), nil
}

func cloneRows(in [][]string) [][]string {
	out := make([][]string, len(in))
	for i, r := range in {
		out[i] = append([]string(nil), r...)
	}
	return out
}
