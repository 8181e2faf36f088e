// Package importer reads and writes curriculum files. JSON files hold a
// models.Curriculum directly; spreadsheets (.xlsx and .csv) hold one gesture
// per row, grouped into lessons and modules by title.
package importer

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"signlearn/internal/models"
)

// Columns are the spreadsheet header names, in the order they are written
var Columns = []string{
	"module", "module_description", "module_order",
	"lesson", "lesson_type", "lesson_order",
	"word", "video", "description",
}

// SheetName is the sheet written by Save and preferred by Load
const SheetName = "Curriculum"

var ErrUnsupportedFormat = errors.New("unsupported curriculum format")

// Load reads a curriculum from a .json, .xlsx or .csv file. A missing file
// yields an error matching os.ErrNotExist.
func Load(path string) (*models.Curriculum, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open curriculum file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return loadJSON(path)
	case ".xlsx":
		return loadXLSX(path)
	case ".csv":
		return loadCSV(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func loadJSON(path string) (*models.Curriculum, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open curriculum file: %w", err)
	}
	defer file.Close()

	var c models.Curriculum
	if err := json.NewDecoder(file).Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to decode curriculum: %w", err)
	}
	return &c, nil
}

func loadXLSX(path string) (*models.Curriculum, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := SheetName
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return FromRows(rows)
}

func loadCSV(path string) (*models.Curriculum, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return FromRows(rows)
}

// FromRows builds a curriculum from a header row followed by one row per
// gesture. A row with an empty word adds the lesson without a gesture.
// Modules and lessons keep the order in which they first appear.
func FromRows(rows [][]string) (*models.Curriculum, error) {
	if len(rows) == 0 {
		return nil, errors.New("curriculum sheet is empty")
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"module", "lesson", "lesson_type", "word", "video"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	cell := func(row []string, column string) string {
		i, ok := index[column]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	c := &models.Curriculum{}
	moduleIdx := map[string]int{}
	lessonIdx := map[[2]string]int{}

	for i, row := range rows[1:] {
		rowNum := i + 2
		moduleTitle := cell(row, "module")
		if moduleTitle == "" && cell(row, "lesson") == "" && cell(row, "word") == "" {
			continue
		}
		if moduleTitle == "" {
			return nil, fmt.Errorf("row %d: module is required", rowNum)
		}

		mi, ok := moduleIdx[moduleTitle]
		if !ok {
			order, err := parseOrder(cell(row, "module_order"))
			if err != nil {
				return nil, fmt.Errorf("row %d: module_order: %w", rowNum, err)
			}
			c.Modules = append(c.Modules, models.CurriculumModule{
				Title:       moduleTitle,
				Description: cell(row, "module_description"),
				Order:       order,
			})
			mi = len(c.Modules) - 1
			moduleIdx[moduleTitle] = mi
		}
		module := &c.Modules[mi]

		lessonTitle := cell(row, "lesson")
		if lessonTitle == "" {
			return nil, fmt.Errorf("row %d: lesson is required", rowNum)
		}
		key := [2]string{moduleTitle, lessonTitle}
		li, ok := lessonIdx[key]
		if !ok {
			order, err := parseOrder(cell(row, "lesson_order"))
			if err != nil {
				return nil, fmt.Errorf("row %d: lesson_order: %w", rowNum, err)
			}
			module.Lessons = append(module.Lessons, models.CurriculumLesson{
				Title: lessonTitle,
				Type:  models.LessonType(strings.ToLower(cell(row, "lesson_type"))),
				Order: order,
			})
			li = len(module.Lessons) - 1
			lessonIdx[key] = li
		}
		lesson := &module.Lessons[li]

		word := cell(row, "word")
		if word == "" {
			continue
		}
		lesson.Gestures = append(lesson.Gestures, models.CurriculumGesture{
			Word:        word,
			Video:       cell(row, "video"),
			Description: cell(row, "description"),
		})
	}
	return c, nil
}

func parseOrder(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid order %q", s)
	}
	return n, nil
}

// ToRows flattens a curriculum into a header row plus one row per gesture.
// Gestures are written in their lesson order.
func ToRows(c *models.Curriculum) [][]string {
	rows := [][]string{Columns}
	for _, m := range c.Modules {
		for _, l := range m.Lessons {
			base := []string{m.Title, m.Description, strconv.Itoa(m.Order), l.Title, string(l.Type), strconv.Itoa(l.Order)}
			if len(l.Gestures) == 0 {
				rows = append(rows, append(base, "", "", ""))
				continue
			}
			for _, g := range orderedGestures(l.Gestures) {
				row := append(append([]string{}, base...), g.Word, g.Video, g.Description)
				rows = append(rows, row)
			}
		}
	}
	return rows
}

func orderedGestures(gestures []models.CurriculumGesture) []models.CurriculumGesture {
	ordered := make([]models.CurriculumGesture, len(gestures))
	copy(ordered, gestures)
	for i, g := range gestures {
		if g.Order >= 1 && g.Order <= len(gestures) {
			ordered[g.Order-1] = g
		} else {
			ordered[i] = g
		}
	}
	return ordered
}

// Save writes a curriculum to a .json, .xlsx or .csv file
func Save(path string, c *models.Curriculum) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return saveJSON(path, c)
	case ".xlsx":
		return saveXLSX(path, c)
	case ".csv":
		return saveCSV(path, c)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func saveJSON(path string, c *models.Curriculum) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode curriculum: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write curriculum file: %w", err)
	}
	return nil
}

func saveXLSX(path string, c *models.Curriculum) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	for i, row := range ToRows(c) {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(SheetName, cellRef, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}

func saveCSV(path string, c *models.Curriculum) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.WriteAll(ToRows(c)); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}
