package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/reviewcal/pkg/models"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath     string // Path to the Excel or CSV file
	LabelColumn  string // Column with the question text
	LessonColumn string // Column with the lesson number or name
	SheetName    string // Name of the sheet to import
	StartRow     int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		LabelColumn:  "A",
		LessonColumn: "B",
		SheetName:    "Sheet1",
		StartRow:     2, // Skip the header row
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	LessonsCreated int
	Created        int
	Skipped        int
	Errors         []string
	Lessons        []models.Lesson // Ordered by lesson id
}

// lessonIndex assigns lesson ids in order of first appearance for named
// lessons and keeps numeric ones as they are.
type lessonIndex struct {
	byName  map[string]int
	named   map[int]string // ids handed out to named lessons
	lessons map[int]*models.Lesson
	nextID  int
}

func newLessonIndex() *lessonIndex {
	return &lessonIndex{
		byName:  make(map[string]int),
		named:   make(map[int]string),
		lessons: make(map[int]*models.Lesson),
	}
}

// resolve returns the lesson id for name. A numbered lesson whose id was
// already given to a named lesson is rejected.
func (x *lessonIndex) resolve(name string, result *ImportResult) (int, error) {
	name = strings.TrimSpace(name)
	if id, err := strconv.Atoi(name); err == nil && id >= 0 {
		if owner, ok := x.named[id]; ok {
			return 0, fmt.Errorf("lesson %d is already used by lesson %q", id, owner)
		}
		x.ensure(id, name, result)
		return id, nil
	}
	key := strings.ToLower(name)
	if id, ok := x.byName[key]; ok {
		return id, nil
	}
	for x.lessons[x.nextID] != nil {
		x.nextID++
	}
	id := x.nextID
	x.byName[key] = id
	x.named[id] = name
	x.ensure(id, name, result)
	return id, nil
}

func (x *lessonIndex) ensure(id int, name string, result *ImportResult) {
	if _, ok := x.lessons[id]; ok {
		return
	}
	x.lessons[id] = &models.Lesson{ID: id, Name: name}
	result.LessonsCreated++
}

func (x *lessonIndex) add(id int, label string) {
	x.lessons[id].Labels = append(x.lessons[id].Labels, label)
}

func (x *lessonIndex) sorted() []models.Lesson {
	out := make([]models.Lesson, 0, len(x.lessons))
	for _, l := range x.lessons {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ImportItems imports a curriculum from an Excel or CSV file
func ImportItems(config ImportConfig) (*ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(config.FilePath))
	if ext == ".csv" {
		return importFromCSV(config)
	}
	return importFromExcel(config)
}

// importFromExcel reads label/lesson pairs from the configured columns
func importFromExcel(config ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	result := &ImportResult{Errors: make([]string, 0)}
	index := newLessonIndex()
	labelIdx := columnToIndex(config.LabelColumn)
	lessonIdx := columnToIndex(config.LessonColumn)

	for i, row := range rows {
		if i < config.StartRow-1 {
			continue
		}
		result.TotalProcessed++

		var label, lesson string
		if labelIdx < len(row) {
			label = row[labelIdx]
		}
		if lessonIdx < len(row) {
			lesson = row[lessonIdx]
		}
		if err := processItem(label, lesson, index, result); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
		}
	}

	result.Lessons = index.sorted()
	return result, nil
}

// importFromCSV reads a CSV with one question per row. A row whose first
// cell starts with '#' names the lesson for the rows that follow, e.g. "# Verbs".
func importFromCSV(config ImportConfig) (*ImportResult, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	result := &ImportResult{Errors: make([]string, 0)}
	index := newLessonIndex()
	currentLesson := "0"

	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rowNum++
		if rowNum < config.StartRow {
			continue
		}

		if name, ok := lessonHeader(row); ok {
			currentLesson = name
			continue
		}

		result.TotalProcessed++
		label := ""
		if len(row) > 0 {
			label = row[0]
		}
		lesson := currentLesson
		if len(row) > 1 && strings.TrimSpace(row[1]) != "" {
			lesson = row[1]
		}
		if err := processItem(label, lesson, index, result); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		}
	}

	result.Lessons = index.sorted()
	return result, nil
}

func lessonHeader(row []string) (string, bool) {
	if len(row) == 0 {
		return "", false
	}
	first := strings.TrimSpace(row[0])
	if !strings.HasPrefix(first, "#") {
		return "", false
	}
	name := strings.TrimSpace(strings.TrimPrefix(first, "#"))
	return name, name != ""
}

// processItem handles the common logic for one imported question
func processItem(label, lesson string, index *lessonIndex, result *ImportResult) error {
	label = cleanLabel(label)
	if label == "" {
		return fmt.Errorf("label cannot be empty")
	}
	if strings.TrimSpace(lesson) == "" {
		return fmt.Errorf("lesson cannot be empty")
	}
	id, err := index.resolve(lesson, result)
	if err != nil {
		return err
	}
	index.add(id, label)
	result.Created++
	return nil
}

// cleanLabel trims whitespace and surrounding quotes
func cleanLabel(label string) string {
	return strings.Trim(strings.TrimSpace(label), "\"")
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
