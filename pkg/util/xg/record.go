package xg

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/richard-senior/tactimerge/internal/logger"
)

// MatchRecord is one historical match with the expected-goals value each side
// produced. Read-only input to the strength estimator.
type MatchRecord struct {
	Date     string  `json:"date" column:"match_date" dbtype:"TEXT NOT NULL DEFAULT ''" primary:"true"`
	HomeTeam string  `json:"homeTeam" column:"home_team" dbtype:"TEXT NOT NULL" primary:"true" index:"true"`
	AwayTeam string  `json:"awayTeam" column:"away_team" dbtype:"TEXT NOT NULL" primary:"true" index:"true"`
	HomeXg   float64 `json:"homeXg" column:"home_xg" dbtype:"REAL NOT NULL DEFAULT 0.0"`
	AwayXg   float64 `json:"awayXg" column:"away_xg" dbtype:"REAL NOT NULL DEFAULT 0.0"`
}

// GetTableName returns the history table name
func (m *MatchRecord) GetTableName() string {
	return "match_history"
}

// GetPrimaryKey returns the compound primary key as a map
func (m *MatchRecord) GetPrimaryKey() map[string]interface{} {
	return map[string]interface{}{
		"match_date": m.Date,
		"home_team":  m.HomeTeam,
		"away_team":  m.AwayTeam,
	}
}

// BeforeSave validates the record before it hits the database
func (m *MatchRecord) BeforeSave() error {
	if m.HomeTeam == "" || m.AwayTeam == "" {
		return fmt.Errorf("match record must name both teams")
	}
	if m.HomeXg < 0 || m.AwayXg < 0 {
		return fmt.Errorf("xG values must be non-negative, got %f / %f", m.HomeXg, m.AwayXg)
	}
	return nil
}

// date layouts seen in raw report exports
var dateLayouts = []string{"2006-01-02", "02/01/2006", "2006-01-02 15:04:05", time.RFC3339}

// LoadHistoryCSV reads match records from a CSV with a header naming at least
// home_team, away_team, home_xg and away_xg. A date column is optional.
// Missing or unparsable xG cells load as NaN so that CleanRecords can fill
// them; callers feeding the estimator directly should clean first.
func LoadHistoryCSV(path string) ([]*MatchRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read history csv %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	idx := map[string]int{}
	for i, name := range rows[0] {
		idx[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{"home_team", "away_team", "home_xg", "away_xg"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("history csv %s missing column %q", path, required)
		}
	}

	records := make([]*MatchRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := &MatchRecord{
			HomeTeam: strings.TrimSpace(row[idx["home_team"]]),
			AwayTeam: strings.TrimSpace(row[idx["away_team"]]),
			HomeXg:   parseXg(row[idx["home_xg"]]),
			AwayXg:   parseXg(row[idx["away_xg"]]),
		}
		if col, ok := idx["date"]; ok && col < len(row) {
			record.Date = normalizeDate(row[col])
		}
		records = append(records, record)
	}

	return records, nil
}

func parseXg(cell string) float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return math.NaN()
	}
	return value
}

// normalizeDate coerces assorted date formats to ISO yyyy-mm-dd, returning
// the empty string when nothing parses
func normalizeDate(cell string) string {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

// CleanRecords drops exact duplicate rows and fills missing xG cells with the
// column median across the remaining rows. Mirrors the raw-report cleaning
// pass that runs before any strengths are computed.
func CleanRecords(records []*MatchRecord) []*MatchRecord {
	seen := map[string]bool{}
	cleaned := make([]*MatchRecord, 0, len(records))

	var homeXgs, awayXgs []float64
	for _, record := range records {
		key := fmt.Sprintf("%s|%s|%s|%v|%v", record.Date, record.HomeTeam, record.AwayTeam, record.HomeXg, record.AwayXg)
		if seen[key] {
			continue
		}
		seen[key] = true
		cleaned = append(cleaned, record)

		if !math.IsNaN(record.HomeXg) {
			homeXgs = append(homeXgs, record.HomeXg)
		}
		if !math.IsNaN(record.AwayXg) {
			awayXgs = append(awayXgs, record.AwayXg)
		}
	}

	homeMedian := median(homeXgs)
	awayMedian := median(awayXgs)

	filled := 0
	for _, record := range cleaned {
		if math.IsNaN(record.HomeXg) {
			record.HomeXg = homeMedian
			filled++
		}
		if math.IsNaN(record.AwayXg) {
			record.AwayXg = awayMedian
			filled++
		}
	}

	if dropped := len(records) - len(cleaned); dropped > 0 || filled > 0 {
		logger.Info("Cleaned match history:", dropped, "duplicates dropped,", filled, "cells median-filled")
	}

	return cleaned
}

// WriteHistoryCSV persists records in the canonical history column order
func WriteHistoryCSV(path string, records []*MatchRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create history csv: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write([]string{"date", "home_team", "away_team", "home_xg", "away_xg"}); err != nil {
		return err
	}
	for _, record := range records {
		row := []string{
			record.Date,
			record.HomeTeam,
			record.AwayTeam,
			strconv.FormatFloat(record.HomeXg, 'f', -1, 64),
			strconv.FormatFloat(record.AwayXg, 'f', -1, 64),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// CleanFile loads a raw history CSV, cleans it and writes the result,
// one raw file in, one clean file out
func CleanFile(inPath, outPath string) error {
	records, err := LoadHistoryCSV(inPath)
	if err != nil {
		return err
	}
	cleaned := CleanRecords(records)
	if err := WriteHistoryCSV(outPath, cleaned); err != nil {
		return err
	}
	logger.Info("Saved cleaned history to", outPath)
	return nil
}

// CleanDir cleans every CSV in a raw directory into the clean directory,
// suffixing filenames with _clean before the extension
func CleanDir(rawDir, cleanDir string) error {
	entries, err := os.ReadDir(rawDir)
	if err != nil {
		return fmt.Errorf("failed to read raw directory %s: %w", rawDir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".csv") {
			continue
		}
		outName := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())) + "_clean.csv"
		if err := CleanFile(filepath.Join(rawDir, entry.Name()), filepath.Join(cleanDir, outName)); err != nil {
			return err
		}
	}
	return nil
}
