package discovery

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"

	"github.com/nao1215/contactscan/internal/model"
	"github.com/xuri/excelize/v2"
)

// column identifies a Business field in a tabular lead file.
type column int

const (
	colUnknown column = iota
	colName
	colAddress
	colPhone
	colWebsite
	colRating
	colReviewCount
	colHours
	colPriceRange
	colCategory
	colLat
	colLng
)

// headerAliases maps normalized header cells to fields. Directory exports
// disagree on naming, so the common spellings are accepted.
var headerAliases = map[string]column{
	"name":           colName,
	"business":       colName,
	"business_name":  colName,
	"title":          colName,
	"address":        colAddress,
	"phone":          colPhone,
	"telephone":      colPhone,
	"website":        colWebsite,
	"url":            colWebsite,
	"site":           colWebsite,
	"rating":         colRating,
	"review_count":   colReviewCount,
	"reviews":        colReviewCount,
	"business_hours": colHours,
	"hours":          colHours,
	"price_range":    colPriceRange,
	"price":          colPriceRange,
	"category":       colCategory,
	"lat":            colLat,
	"latitude":       colLat,
	"lng":            colLng,
	"lon":            colLng,
	"longitude":      colLng,
}

// normalizeHeader lowercases a header cell and joins words with "_".
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	h = strings.NewReplacer(" ", "_", "-", "_").Replace(h)
	return h
}

// readCSV reads a CSV file whose first row names the columns.
func (s *FileSource) readCSV() ([]model.Business, error) {
	f, err := os.Open(s.path) //nolint:gosec // User-provided lead file path is intentional
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	return s.fromRows(rows)
}

// readXLSX reads the first sheet of an Excel workbook whose first row
// names the columns.
func (s *FileSource) readXLSX() ([]model.Business, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	return s.fromRows(rows)
}

// fromRows converts a header row plus data rows into records.
func (s *FileSource) fromRows(rows [][]string) ([]model.Business, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	columns := make([]column, len(rows[0]))
	hasName := false
	for i, h := range rows[0] {
		columns[i] = headerAliases[normalizeHeader(h)]
		if columns[i] == colName {
			hasName = true
		}
	}
	if !hasName {
		return nil, ErrMissingNameColumn
	}

	records := make([]model.Business, 0, len(rows)-1)
	for n, row := range rows[1:] {
		var (
			b        model.Business
			lat, lng string
		)
		for i, cell := range row {
			if i >= len(columns) {
				break
			}
			cell = strings.TrimSpace(cell)
			switch columns[i] {
			case colName:
				b.Name = cell
			case colAddress:
				b.Address = cell
			case colPhone:
				b.Phone = cell
			case colWebsite:
				b.Website = cell
			case colRating:
				b.Rating = s.parseFloat(cell, "rating", n+2)
			case colReviewCount:
				b.ReviewCount = s.parseInt(cell, "review_count", n+2)
			case colHours:
				b.BusinessHours = cell
			case colPriceRange:
				b.PriceRange = cell
			case colCategory:
				b.Category = cell
			case colLat:
				lat = cell
			case colLng:
				lng = cell
			case colUnknown:
			}
		}
		if lat != "" && lng != "" {
			c := model.Coordinates{
				Lat: s.parseFloat(lat, "lat", n+2),
				Lng: s.parseFloat(lng, "lng", n+2),
			}
			if !c.IsZero() {
				b.Coordinates = &c
			}
		}
		records = append(records, b)
	}
	return records, nil
}

// parseFloat parses a numeric cell, logging and returning zero on failure.
func (s *FileSource) parseFloat(cell, field string, line int) float64 {
	if cell == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(cell, ",", "."), 64)
	if err != nil {
		s.logger.Debug("ignoring malformed number", "field", field, "line", line, "value", cell)
		return 0
	}
	return v
}

// parseInt parses a count cell such as "1,234" or "(87)".
func (s *FileSource) parseInt(cell, field string, line int) int {
	cleaned := strings.Trim(strings.NewReplacer(",", "", " ", "").Replace(cell), "()")
	if cleaned == "" {
		return 0
	}
	v, err := strconv.Atoi(cleaned)
	if err != nil {
		s.logger.Debug("ignoring malformed count", "field", field, "line", line, "value", cell)
		return 0
	}
	return v
}
