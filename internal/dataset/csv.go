package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/errors"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/models"
)

const (
	ColumnID         = "id"
	ColumnTitle      = "title"
	ColumnCity       = "city"
	ColumnSalaryAvg  = "salary_avg"
	ColumnExperience = "experience_level"
	ColumnEmployment = "employment_type"
	ColumnURL        = "url"
	ColumnLatitude   = "latitude"
	ColumnLongitude  = "longitude"

	SkillPrefix = "skill_"
)

var bomUTF8 = []byte{0xEF, 0xBB, 0xBF}

// Dataset is the flat table exchanged between the analyze, geocode and report
// stages.
type Dataset struct {
	Rows           []models.DerivedPosting
	SkillLabels    []string
	HasCoordinates bool
}

func (d Dataset) Header() []string {
	header := []string{ColumnID, ColumnTitle, ColumnCity, ColumnSalaryAvg, ColumnExperience, ColumnEmployment, ColumnURL}
	for _, label := range d.SkillLabels {
		header = append(header, SkillPrefix+label)
	}
	if d.HasCoordinates {
		header = append(header, ColumnLatitude, ColumnLongitude)
	}
	return header
}

// WriteCSV writes UTF-8 with a byte-order mark so spreadsheets detect the
// encoding. Null numbers are empty cells.
func WriteCSV(path string, d Dataset) error {
	return writeAtomic(path, func(w io.Writer) error {
		bw := bufio.NewWriter(w)
		if _, err := bw.Write(bomUTF8); err != nil {
			return err
		}
		cw := csv.NewWriter(bw)
		if err := cw.Write(d.Header()); err != nil {
			return err
		}
		for _, row := range d.Rows {
			if err := cw.Write(d.record(row)); err != nil {
				return err
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return err
		}
		return bw.Flush()
	})
}

func (d Dataset) record(row models.DerivedPosting) []string {
	rec := []string{
		row.ID,
		row.Title,
		row.City,
		formatFloat(row.SalaryAvg),
		row.Experience,
		row.Employment,
		row.URL,
	}
	for _, label := range d.SkillLabels {
		rec = append(rec, formatBool(row.HasSkill(label)))
	}
	if d.HasCoordinates {
		rec = append(rec, formatFloat(row.Latitude), formatFloat(row.Longitude))
	}
	return rec
}

func ReadCSV(path string) (Dataset, error) {
	f, err := openSource(path)
	if err != nil {
		return Dataset{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return Dataset{}, errors.Internal("reading "+path, err)
	}
	return ParseCSV(data)
}

func ParseCSV(data []byte) (Dataset, error) {
	data = bytes.TrimPrefix(data, bomUTF8)
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return Dataset{}, errors.InvalidInput("empty dataset: no header row found", nil)
		}
		return Dataset{}, errors.InvalidInput("reading header row", err)
	}

	index := make(map[string]int, len(header))
	var d Dataset
	for i, h := range header {
		h = strings.TrimSpace(h)
		index[h] = i
		if label, ok := strings.CutPrefix(h, SkillPrefix); ok {
			d.SkillLabels = append(d.SkillLabels, label)
		}
	}
	if _, ok := index[ColumnID]; !ok {
		return Dataset{}, errors.InvalidInput("dataset has no id column", nil)
	}
	_, hasLat := index[ColumnLatitude]
	_, hasLon := index[ColumnLongitude]
	d.HasCoordinates = hasLat && hasLon

	line := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return Dataset{}, errors.InvalidInput(fmt.Sprintf("reading row %d", line), err)
		}
		cell := func(name string) string {
			if i, ok := index[name]; ok && i < len(rec) {
				return rec[i]
			}
			return ""
		}

		row := models.DerivedPosting{
			ID:         cell(ColumnID),
			Title:      cell(ColumnTitle),
			City:       cell(ColumnCity),
			Experience: cell(ColumnExperience),
			Employment: cell(ColumnEmployment),
			URL:        cell(ColumnURL),
		}
		if row.SalaryAvg, err = parseFloat(cell(ColumnSalaryAvg)); err != nil {
			return Dataset{}, errors.InvalidInput(fmt.Sprintf("row %d: salary_avg", line), err)
		}
		for _, label := range d.SkillLabels {
			row.Skills = append(row.Skills, models.SkillFlag{Label: label, Present: parseBool(cell(SkillPrefix + label))})
		}
		if d.HasCoordinates {
			if row.Latitude, err = parseFloat(cell(ColumnLatitude)); err != nil {
				return Dataset{}, errors.InvalidInput(fmt.Sprintf("row %d: latitude", line), err)
			}
			if row.Longitude, err = parseFloat(cell(ColumnLongitude)); err != nil {
				return Dataset{}, errors.InvalidInput(fmt.Sprintf("row %d: longitude", line), err)
			}
		}
		d.Rows = append(d.Rows, row)
	}
	return d, nil
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

func parseFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(s))
	return b
}
