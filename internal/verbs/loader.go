package verbs

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/example/verbbot/pkg/models"
	"github.com/xuri/excelize/v2"
)

// Column names of the tabular verb source
const (
	InfinitiveColumn  = "infinitivo"
	TranslationColumn = "translation_ru"
)

var (
	// ErrDataFormat means the source is readable but does not have the expected shape
	ErrDataFormat = errors.New("verb data format error")
	// ErrDataUnavailable means the source could not be opened or read
	ErrDataUnavailable = errors.New("verb data unavailable")
)

// LoadConfig defines where the verb table comes from
type LoadConfig struct {
	FilePath  string // Path to the CSV or Excel file
	SheetName string // Excel sheet, the first one when empty
}

// Load reads verbs from a CSV or Excel file
func Load(config LoadConfig) (*Catalog, error) {
	ext := strings.ToLower(filepath.Ext(config.FilePath))

	if ext == ".xlsx" || ext == ".xlsm" {
		return loadFromExcel(config)
	}

	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	defer file.Close()

	return LoadCSV(file)
}

// LoadCSV reads verbs from CSV data with a header row
func LoadCSV(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow short rows, missing forms are rendered as placeholders
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: reading CSV: %v", ErrDataUnavailable, err)
	}
	return Parse(rows)
}

func loadFromExcel(config LoadConfig) (*Catalog, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open Excel file: %v", ErrDataUnavailable, err)
	}
	defer f.Close()

	sheet := config.SheetName
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get rows of sheet %q: %v", ErrDataUnavailable, sheet, err)
	}
	return Parse(rows)
}

// Parse builds a catalog from a header row followed by verb rows
func Parse(rows [][]string) (*Catalog, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: missing header row", ErrDataFormat)
	}

	header := make([]string, len(rows[0]))
	for i, name := range rows[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
	}

	infIdx, trIdx := -1, -1
	forms := make(map[int]string) // column index -> form key
	tenseSet := make(map[string]struct{})

	for i, name := range header {
		switch {
		case name == InfinitiveColumn:
			infIdx = i
		case name == TranslationColumn:
			trIdx = i
		case strings.Contains(name, "__"):
			parts := strings.SplitN(name, "__", 2)
			tense, person := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
			if tense == "" || !isPerson(person) {
				return nil, fmt.Errorf("%w: bad tense column %q", ErrDataFormat, name)
			}
			forms[i] = models.FormKey(tense, person)
			tenseSet[tense] = struct{}{}
		}
	}

	if infIdx < 0 {
		return nil, fmt.Errorf("%w: missing %q column", ErrDataFormat, InfinitiveColumn)
	}
	if trIdx < 0 {
		return nil, fmt.Errorf("%w: missing %q column", ErrDataFormat, TranslationColumn)
	}
	if len(tenseSet) == 0 {
		return nil, fmt.Errorf("%w: no tense columns found", ErrDataFormat)
	}

	tenses := make([]string, 0, len(tenseSet))
	for tense := range tenseSet {
		tenses = append(tenses, tense)
	}
	sort.Strings(tenses)

	var list []models.Verb
	seen := make(map[string]bool)
	for _, row := range rows[1:] {
		infinitive := cell(row, infIdx)
		// Blank lines and repeated infinitives are skipped, the first row wins
		if infinitive == "" || seen[infinitive] {
			continue
		}
		seen[infinitive] = true

		verb := models.Verb{
			Infinitive:  infinitive,
			Translation: cell(row, trIdx),
			Forms:       make(map[string]string, len(forms)),
		}
		for idx, key := range forms {
			if v := cell(row, idx); v != "" {
				verb.Forms[key] = v
			}
		}
		list = append(list, verb)
	}

	return New(list, tenses), nil
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func isPerson(p string) bool {
	for _, person := range models.Persons {
		if p == person {
			return true
		}
	}
	return false
}
