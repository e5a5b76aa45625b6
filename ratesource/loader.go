package ratesource

import (
	"fmt"
	"io"
	"os"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/warp/charge-rate-engine/generic"
)

// LoadTables parses additional table rows. The document has the same shape
// as Tables:
//
//	{
//	  "financial_year": [
//	    {"award_code": "MA000025", "financial_year": 2025, "year_level": 1, "hourly_rate": "17.02"}
//	  ],
//	  "calendar_year": [...], "adult": [...], "year12": [...], "sector": [...]
//	}
func LoadTables(r io.Reader) (Tables, error) {
	var t Tables
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&t); err != nil {
		return Tables{}, fmt.Errorf("failed to decode rate tables: %w", err)
	}
	if err := t.validate(); err != nil {
		return Tables{}, err
	}
	return t, nil
}

// LoadTablesFile is LoadTables on a file path.
func LoadTablesFile(path string) (Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return Tables{}, fmt.Errorf("failed to open rate tables: %w", err)
	}
	defer f.Close()
	return LoadTables(f)
}

func (t *Tables) validate() error {
	check := func(table string, i int, code string, level int, rate string, positive bool) error {
		field := fmt.Sprintf("%s[%d]", table, i)
		if _, err := NormalizeAwardCode(code); err != nil {
			return &generic.ValidationError{Field: field + ".award_code", Reason: "malformed award code " + code}
		}
		if level < 1 || level > MaxYearLevel {
			return &generic.ValidationError{Field: field + ".year_level", Reason: "must be between 1 and 4"}
		}
		if !positive {
			return &generic.ValidationError{Field: field + ".hourly_rate", Reason: "must be positive, got " + rate}
		}
		return nil
	}

	groups := []struct {
		name string
		rows []Row
	}{
		{"adult", t.Adult},
		{"year12", t.Year12},
		{"sector", t.Sector},
		{"financial_year", t.FinancialYear},
	}
	for _, g := range groups {
		name, rows := g.name, g.rows
		for i := range rows {
			rows[i].AwardCode = strings.ToUpper(strings.TrimSpace(rows[i].AwardCode))
			r := rows[i]
			if err := check(name, i, r.AwardCode, r.YearLevel, r.HourlyRate.String(), r.HourlyRate.IsPositive()); err != nil {
				return err
			}
			if name == "sector" && strings.TrimSpace(r.Sector) == "" {
				return &generic.ValidationError{Field: fmt.Sprintf("sector[%d].sector", i), Reason: "required"}
			}
		}
	}
	for i := range t.CalendarYear {
		t.CalendarYear[i].AwardCode = strings.ToUpper(strings.TrimSpace(t.CalendarYear[i].AwardCode))
		r := t.CalendarYear[i]
		if err := check("calendar_year", i, r.AwardCode, r.YearLevel, r.HourlyRate.String(), r.HourlyRate.IsPositive()); err != nil {
			return err
		}
	}
	return nil
}
