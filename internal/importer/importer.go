package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"equipment-booking-backend/internal/inventory"
	"equipment-booking-backend/internal/model"
	"equipment-booking-backend/internal/parse"
)

// Canonical fields a column can map to.
const (
	fieldName         = "name"
	fieldType         = "type"
	fieldSerial       = "serialNumber"
	fieldCondition    = "condition"
	fieldPurchaseDate = "purchaseDate"
	fieldNotes        = "notes"
	fieldParent       = "parentId"
)

// headerFields maps a normalized header to its canonical field.
var headerFields = map[string]string{
	"name":               fieldName,
	"itemname":           fieldName,
	"equipmentstructure": fieldName,
	"type":               fieldType,
	"serialnumber":       fieldSerial,
	"serial":             fieldSerial,
	"condition":          fieldCondition,
	"purchasedate":       fieldPurchaseDate,
	"date":               fieldPurchaseDate,
	"notes":              fieldNotes,
	"parentid":           fieldParent,
	"parent":             fieldParent,
	"parentitem":         fieldParent,
	"parentequipment":    fieldParent,
}

var requiredFields = []string{fieldName, fieldType, fieldSerial}

// headerScanRows is how many leading rows are searched for the header, so
// spreadsheets with a title row still import.
const headerScanRows = 10

var dateLayouts = []string{
	model.DateLayout,
	"2006/01/02",
	"1/2/2006",
	"01/02/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// SchemaError aborts an import whose header lacks a required column family.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

// FormatError reports an upload that could not be read as the expected file
// type. Nothing is written.
type FormatError struct {
	Format string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed %s file: %v", e.Format, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Result summarises an import. Errors are rows that were skipped; warnings
// are rows that were imported with an adjustment.
type Result struct {
	ImportedCount int      `json:"importedCount"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
}

func (r *Result) errorf(row int, format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf("row %d: ", row)+fmt.Sprintf(format, args...))
}

func (r *Result) warnf(row int, format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf("row %d: ", row)+fmt.Sprintf(format, args...))
}

// Importer turns tabular files into equipment records.
type Importer struct {
	inv    *inventory.Inventory
	logger *zap.Logger
}

// New creates an importer writing into inv.
func New(inv *inventory.Inventory, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{inv: inv, logger: logger}
}

// ImportCSV reads delimited text with a header row.
func (im *Importer) ImportCSV(ctx context.Context, r io.Reader) (Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	records, err := cr.ReadAll()
	if err != nil {
		return Result{}, &FormatError{Format: "csv", Err: err}
	}
	return im.ImportRows(ctx, records)
}

// ImportXLSX reads the first sheet of a workbook.
func (im *Importer) ImportXLSX(ctx context.Context, r io.Reader) (Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Result{}, &FormatError{Format: "xlsx", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Result{}, &SchemaError{Missing: requiredFields}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Result{}, &FormatError{Format: "xlsx", Err: fmt.Errorf("sheet %q: %w", sheets[0], err)}
	}
	return im.ImportRows(ctx, rows)
}

type pendingLink struct {
	row       int
	id        string
	parentRef string
}

// ImportRows imports a header row followed by data rows. All records are
// written in one transaction: first every valid row is created as a top-level
// item, then parent references are resolved against the new serial numbers.
func (im *Importer) ImportRows(ctx context.Context, rows [][]string) (Result, error) {
	headerAt, columns, err := findHeader(rows)
	if err != nil {
		return Result{}, err
	}

	res := Result{Errors: []string{}, Warnings: []string{}}
	err = im.inv.Transaction(ctx, func(tx *inventory.Tx) error {
		bySerial := make(map[string]string)
		bySerialRow := make(map[string]int)
		byName := make(map[string]string)
		var links []pendingLink

		for i, record := range rows[headerAt+1:] {
			rowNum := i + 1
			if blank(record) {
				continue
			}
			get := func(field string) string {
				idx, ok := columns[field]
				if !ok || idx >= len(record) {
					return ""
				}
				return strings.TrimSpace(record[idx])
			}

			in := model.EquipmentInput{
				Name:         parse.CleanName(get(fieldName)),
				Type:         get(fieldType),
				SerialNumber: get(fieldSerial),
				Notes:        get(fieldNotes),
			}
			var missing []string
			if in.Name == "" {
				missing = append(missing, "name")
			}
			if in.Type == "" {
				missing = append(missing, "type")
			}
			if in.SerialNumber == "" {
				missing = append(missing, "serial number")
			}
			if len(missing) > 0 {
				res.errorf(rowNum, "missing required field(s): %s", strings.Join(missing, ", "))
				continue
			}

			if raw := get(fieldCondition); raw != "" {
				if c, ok := model.ParseCondition(raw); ok {
					in.Condition = string(c)
				} else {
					res.warnf(rowNum, "unknown condition %q, using %s", raw, model.ConditionGood)
				}
			}
			if raw := get(fieldPurchaseDate); raw != "" {
				if d, ok := normalizeDate(raw); ok {
					in.PurchaseDate = d
				} else {
					res.warnf(rowNum, "unrecognised purchase date %q, using today", raw)
				}
			}

			id, err := tx.AddEquipment(in)
			if err != nil {
				var verr *inventory.ValidationError
				if errors.As(err, &verr) {
					res.errorf(rowNum, "%v", verr)
					continue
				}
				return err
			}
			res.ImportedCount++

			if first, dup := bySerialRow[in.SerialNumber]; dup {
				res.warnf(rowNum, "duplicate serial number %q, parent references use row %d", in.SerialNumber, first)
			} else {
				bySerial[in.SerialNumber] = id
				bySerialRow[in.SerialNumber] = rowNum
			}
			if key := strings.ToLower(in.Name); byName[key] == "" {
				byName[key] = id
			}
			links = append(links, pendingLink{row: rowNum, id: id, parentRef: get(fieldParent)})
		}

		for _, l := range links {
			if parse.IsRootReference(l.parentRef) {
				continue
			}
			parentID, ok := resolveParent(tx, l.parentRef, bySerial, byName)
			if !ok {
				res.warnf(l.row, "parent %q not found, imported as top level", l.parentRef)
				continue
			}
			if err := tx.SetParent(l.id, parentID); err != nil {
				var cerr *inventory.CycleError
				if errors.As(err, &cerr) {
					res.warnf(l.row, "parent %q would create a cycle, imported as top level", l.parentRef)
					continue
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		var perr *inventory.PersistenceError
		if !errors.As(err, &perr) {
			return Result{}, err
		}
		// The records are in memory; report the counts alongside the failure.
		return res, err
	}

	im.logger.Info("import finished",
		zap.Int("imported", res.ImportedCount),
		zap.Int("errors", len(res.Errors)),
		zap.Int("warnings", len(res.Warnings)))
	return res, nil
}

// resolveParent finds the parent named by ref: first by serial among the new
// records, then by serial among existing equipment, then by name among the
// new records. The last two lookups go beyond matching serials within the
// file, so a reference to an item imported earlier still links.
func resolveParent(tx *inventory.Tx, ref string, bySerial, byName map[string]string) (string, bool) {
	serial := parse.ParentSerial(ref)
	if id, ok := bySerial[serial]; ok {
		return id, true
	}
	if e, ok := tx.FindBySerial(serial); ok {
		return e.ID, true
	}
	if id, ok := byName[strings.ToLower(parse.CleanName(ref))]; ok {
		return id, true
	}
	return "", false
}

// findHeader locates the header row and maps canonical fields to column
// indexes. The first matching column wins.
func findHeader(rows [][]string) (int, map[string]int, error) {
	first := -1
	var firstColumns map[string]int
	for i, row := range rows {
		if i >= headerScanRows {
			break
		}
		if blank(row) {
			continue
		}
		columns := mapColumns(row)
		if len(missingFields(columns)) == 0 {
			return i, columns, nil
		}
		if first < 0 {
			first, firstColumns = i, columns
		}
	}
	if first < 0 {
		return 0, nil, &SchemaError{Missing: requiredFields}
	}
	return 0, nil, &SchemaError{Missing: missingFields(firstColumns)}
}

func mapColumns(header []string) map[string]int {
	columns := make(map[string]int)
	for i, h := range header {
		field, ok := headerFields[parse.NormalizeHeader(h)]
		if !ok {
			continue
		}
		if _, seen := columns[field]; !seen {
			columns[field] = i
		}
	}
	return columns
}

func missingFields(columns map[string]int) []string {
	var missing []string
	for _, f := range requiredFields {
		if _, ok := columns[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func normalizeDate(raw string) (string, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(model.DateLayout), true
		}
	}
	return "", false
}
