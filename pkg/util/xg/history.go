package xg

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/richard-senior/tactimerge/internal/logger"
)

// HistoryStore is the durable match-history database the estimator runs
// against offline. It is never consulted by the serving-side predictor,
// which only sees the persisted strength table.
type HistoryStore struct {
	db *Database
}

// OpenHistoryStore opens the history database at path, creating the file,
// its directory and the match_history table as needed
func OpenHistoryStore(path string) (*HistoryStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := OpenDatabase(path)
	if err != nil {
		return nil, err
	}

	if err := db.CreateTable(&MatchRecord{}); err != nil {
		db.Close()
		return nil, err
	}

	return &HistoryStore{db: db}, nil
}

// Close releases the database handle
func (s *HistoryStore) Close() error {
	return s.db.Close()
}

// Ingest saves records in one transaction, replacing rows that share a
// primary key. Returns the number of records written.
func (s *HistoryStore) Ingest(records []*MatchRecord) (int, error) {
	objects := make([]Persistable, len(records))
	for i, record := range records {
		objects[i] = record
	}

	if err := s.db.BulkSave(objects); err != nil {
		return 0, err
	}

	logger.Info("Ingested", len(records), "match records into history store")
	return len(records), nil
}

// All returns every stored match record
func (s *HistoryStore) All() ([]*MatchRecord, error) {
	results, err := s.db.FindAll(&MatchRecord{})
	if err != nil {
		return nil, err
	}
	return asRecords(results)
}

// ForTeam returns every match the named team played in either role
func (s *HistoryStore) ForTeam(team string) ([]*MatchRecord, error) {
	results, err := s.db.FindWhere(&MatchRecord{}, "home_team = ? OR away_team = ?", team, team)
	if err != nil {
		return nil, err
	}
	return asRecords(results)
}

func asRecords(results []interface{}) ([]*MatchRecord, error) {
	records := make([]*MatchRecord, 0, len(results))
	for _, result := range results {
		record, ok := result.(*MatchRecord)
		if !ok {
			return nil, fmt.Errorf("unexpected type %T in history results", result)
		}
		records = append(records, record)
	}
	return records, nil
}
