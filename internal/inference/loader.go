package inference

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"belief-driver/internal/grid"
	"belief-driver/internal/monitoring"
)

// transitionRecord is the on-disk JSON form of a Transition.
type transitionRecord struct {
	From [2]int  `json:"from"`
	To   [2]int  `json:"to"`
	Prob float64 `json:"prob"`
}

// LoadTransitions reads a transition table from a .json or .csv file.
func LoadTransitions(path string) ([]Transition, error) {
	monitoring.Logf("📂 Loading transition table from %s...", path)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transition table: %w", err)
	}
	defer f.Close()

	var transitions []Transition
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		transitions, err = DecodeTransitionsJSON(f)
	case ".csv":
		transitions, err = DecodeTransitionsCSV(f)
	default:
		return nil, fmt.Errorf("unsupported transition table format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	monitoring.Logf("   ✅ Loaded %d transitions", len(transitions))
	return transitions, nil
}

// DecodeTransitionsJSON reads an array of {"from":[r,c],"to":[r,c],"prob":p}.
func DecodeTransitionsJSON(r io.Reader) ([]Transition, error) {
	var records []transitionRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, err
	}
	out := make([]Transition, len(records))
	for i, rec := range records {
		out[i] = Transition{
			From: grid.Tile{Row: rec.From[0], Col: rec.From[1]},
			To:   grid.Tile{Row: rec.To[0], Col: rec.To[1]},
			Prob: rec.Prob,
		}
	}
	return out, nil
}

// DecodeTransitionsCSV reads rows of from_row,from_col,to_row,to_col,prob.
// A leading header row is skipped.
func DecodeTransitionsCSV(r io.Reader) ([]Transition, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 5
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	out := make([]Transition, 0, len(rows))
	for i, row := range rows {
		if i == 0 && isHeader(row) {
			continue
		}
		tr, err := parseCSVRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		out = append(out, tr)
	}
	return out, nil
}

func isHeader(row []string) bool {
	_, err := strconv.Atoi(row[0])
	return err != nil
}

func parseCSVRow(row []string) (Transition, error) {
	var ints [4]int
	for i := 0; i < 4; i++ {
		v, err := strconv.Atoi(row[i])
		if err != nil {
			return Transition{}, fmt.Errorf("column %d: %w", i+1, err)
		}
		ints[i] = v
	}
	p, err := strconv.ParseFloat(row[4], 64)
	if err != nil {
		return Transition{}, fmt.Errorf("column 5: %w", err)
	}
	return Transition{
		From: grid.Tile{Row: ints[0], Col: ints[1]},
		To:   grid.Tile{Row: ints[2], Col: ints[3]},
		Prob: p,
	}, nil
}

// SaveTransitions writes a transition table as JSON.
func SaveTransitions(transitions []Transition, path string) error {
	records := make([]transitionRecord, len(transitions))
	for i, tr := range transitions {
		records[i] = transitionRecord{
			From: [2]int{tr.From.Row, tr.From.Col},
			To:   [2]int{tr.To.Row, tr.To.Col},
			Prob: tr.Prob,
		}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal transitions: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
