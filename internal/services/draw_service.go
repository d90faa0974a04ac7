package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"luckydex/internal/models"
	"luckydex/internal/tablesource"

	"github.com/google/logger"
)

// The winners log has a fixed five-column schema in this order. Readers fall
// back to these positions when header lookup fails.
var winnersHeader = []string{"timestamp", "id", "number", "name", "description"}

const (
	// duplicateGuardWindow bounds how many trailing log rows the duplicate
	// guard scans before an append. Retried requests land within moments of
	// the original, so a short suffix is enough even for large logs.
	duplicateGuardWindow = 50

	timestampLayout = "2006-01-02 15:04:05"
)

var (
	// ErrEmptySource means the candidate pool has no rows at all.
	ErrEmptySource = errors.New("candidate pool is empty")
	// ErrNoEligibleEntries means the pool is non-empty but every entry has
	// already been drawn or excluded. A normal end state for a finite pool.
	ErrNoEligibleEntries = errors.New("no eligible entries remaining")
)

// DrawService draws unique winners from an entries table and records them in
// an append-only winners log. One instance owns one logical log; the mutex
// serializes the whole read-filter-select-append sequence so two concurrent
// draws cannot select the same entry.
type DrawService struct {
	mu           sync.Mutex
	source       tablesource.TableSource
	entriesTable string
	winnersTable string
	loc          *time.Location
	mock         bool
	now          func() time.Time
}

// NewDrawService creates a DrawService reading candidates from entriesTable
// and persisting winners to winnersTable. Timestamps are written in loc.
// mock marks draw results as demo data.
func NewDrawService(source tablesource.TableSource, entriesTable, winnersTable string, loc *time.Location, mock bool) *DrawService {
	return &DrawService{
		source:       source,
		entriesTable: entriesTable,
		winnersTable: winnersTable,
		loc:          loc,
		mock:         mock,
		now:          time.Now,
	}
}

// FilterEligible returns the pool entries whose id and number are both
// unused, preserving pool order. Matching either set disqualifies an entry;
// empty values never match. An empty pool is reported as ErrEmptySource.
func FilterEligible(pool []models.Entry, excludedIDs, excludedNumbers map[string]bool) ([]models.Entry, error) {
	if len(pool) == 0 {
		return nil, ErrEmptySource
	}

	var eligible []models.Entry
	for _, entry := range pool {
		id := strings.TrimSpace(entry.ID)
		number := strings.TrimSpace(entry.Number)
		if id != "" && excludedIDs[id] {
			continue
		}
		if number != "" && excludedNumbers[number] {
			continue
		}
		eligible = append(eligible, entry)
	}
	return eligible, nil
}

// DrawUnique selects one entry uniformly at random from the pool entries not
// yet present in the winners log and not excluded by the caller's session,
// then records it best-effort. Persistence failure never fails the draw; it
// is logged and reflected in WinnerSaved only.
func (s *DrawService) DrawUnique(ctx context.Context, sessionIDs, sessionNumbers []string) (*models.DrawResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool, err := s.loadEntries(ctx)
	if err != nil {
		return nil, err
	}

	winners, err := s.readWinners(ctx)
	if err != nil {
		return nil, err
	}

	excludedIDs := make(map[string]bool)
	excludedNumbers := make(map[string]bool)
	for _, w := range winners {
		addExclusion(excludedIDs, w.ID)
		addExclusion(excludedNumbers, w.Number)
	}
	for _, id := range sessionIDs {
		addExclusion(excludedIDs, id)
	}
	for _, number := range sessionNumbers {
		addExclusion(excludedNumbers, number)
	}

	eligible, err := FilterEligible(pool, excludedIDs, excludedNumbers)
	if err != nil {
		return nil, err
	}
	if len(eligible) == 0 {
		return nil, ErrNoEligibleEntries
	}

	winner := eligible[rand.Intn(len(eligible))]

	result := &models.DrawResult{
		Entry:           winner,
		TotalEntries:    len(pool),
		EligibleEntries: len(eligible),
		MockData:        s.mock,
	}

	saved, err := s.record(ctx, winner)
	if err != nil {
		logger.Errorf("Failed to record winner id=%s number=%s: %v", winner.ID, winner.Number, err)
	}
	result.WinnerSaved = saved

	return result, nil
}

// Record persists one winner row, creating the log with its header on first
// use. It reports true when the row is durably present, including when the
// duplicate guard found it already recorded.
func (s *DrawService) Record(ctx context.Context, entry models.Entry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record(ctx, entry)
}

func (s *DrawService) record(ctx context.Context, entry models.Entry) (bool, error) {
	rows, err := s.source.ListRows(ctx, s.winnersTable)
	if errors.Is(err, tablesource.ErrTableNotFound) {
		if err := s.source.Create(ctx, s.winnersTable, winnersHeader); err != nil {
			return false, fmt.Errorf("create winners log: %w", err)
		}
		rows = nil
	} else if err != nil {
		return false, fmt.Errorf("read winners log: %w", err)
	}

	// Duplicate guard: a retried request whose first attempt already
	// committed must not append a second row.
	id := strings.TrimSpace(entry.ID)
	number := strings.TrimSpace(entry.Number)
	start := len(rows) - duplicateGuardWindow
	if start < 0 {
		start = 0
	}
	for _, row := range rows[start:] {
		rowID := tablesource.FieldValue(row, "id", "ID", tablesource.PositionKey(1))
		rowNumber := tablesource.FieldValue(row, "number", "Number", tablesource.PositionKey(2))
		if (id != "" && rowID == id) || (number != "" && rowNumber == number) {
			return true, nil
		}
	}

	timestamp := s.now().In(s.loc).Format(timestampLayout)
	row := []string{timestamp, entry.ID, entry.Number, entry.Name, entry.Description}
	if err := s.source.Append(ctx, s.winnersTable, row); err != nil {
		return false, fmt.Errorf("append winner row: %w", err)
	}
	return true, nil
}

// ListWinners returns the recorded winners, newest first. Rows without a
// timestamp sort last. A log that does not exist yet yields an empty list.
func (s *DrawService) ListWinners(ctx context.Context) ([]models.WinnerRecord, error) {
	winners, err := s.readWinners(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(winners, func(i, j int) bool {
		a, b := winners[i].Timestamp, winners[j].Timestamp
		if a == "" || b == "" {
			return a != "" && b == ""
		}
		return a > b
	})
	return winners, nil
}

func (s *DrawService) loadEntries(ctx context.Context) ([]models.Entry, error) {
	rows, err := s.source.ListRows(ctx, s.entriesTable)
	if err != nil {
		return nil, fmt.Errorf("read entries table: %w", err)
	}

	pool := make([]models.Entry, 0, len(rows))
	for _, row := range rows {
		pool = append(pool, models.Entry{
			ID:          tablesource.FieldValue(row, "id", "ID"),
			Number:      tablesource.FieldValue(row, "number", "Number"),
			Name:        tablesource.FieldValue(row, "name", "Name"),
			Description: tablesource.FieldValue(row, "description", "Description"),
		})
	}
	return pool, nil
}

func (s *DrawService) readWinners(ctx context.Context) ([]models.WinnerRecord, error) {
	rows, err := s.source.ListRows(ctx, s.winnersTable)
	if errors.Is(err, tablesource.ErrTableNotFound) {
		return []models.WinnerRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read winners log: %w", err)
	}

	winners := make([]models.WinnerRecord, 0, len(rows))
	for _, row := range rows {
		winners = append(winners, models.WinnerRecord{
			Timestamp:   tablesource.FieldValue(row, "timestamp", "Timestamp", tablesource.PositionKey(0)),
			ID:          tablesource.FieldValue(row, "id", "ID", tablesource.PositionKey(1)),
			Number:      tablesource.FieldValue(row, "number", "Number", tablesource.PositionKey(2)),
			Name:        tablesource.FieldValue(row, "name", "Name", tablesource.PositionKey(3)),
			Description: tablesource.FieldValue(row, "description", "Description", tablesource.PositionKey(4)),
		})
	}
	return winners, nil
}

func addExclusion(set map[string]bool, value string) {
	value = strings.TrimSpace(value)
	if value != "" {
		set[value] = true
	}
}
