package projector

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/models"
)

const (
	FieldID             = "id"
	FieldTitle          = "title"
	FieldCity           = "city"
	FieldSalaryFrom     = "salary_from"
	FieldSalaryTo       = "salary_to"
	FieldSalaryCurrency = "salary_currency"
	FieldSalaryGross    = "salary_gross"
	FieldExperience     = "experience"
	FieldEmployment     = "employment"
	FieldDescription    = "description"
	FieldKeySkills      = "key_skills"
	FieldURL            = "url"
)

// Column maps a dotted source path to its output name.
type Column struct {
	Path string
	Name string
}

// Columns is the ordered projection applied to every detail record.
var Columns = []Column{
	{Path: "id", Name: FieldID},
	{Path: "name", Name: FieldTitle},
	{Path: "area.name", Name: FieldCity},
	{Path: "salary.from", Name: FieldSalaryFrom},
	{Path: "salary.to", Name: FieldSalaryTo},
	{Path: "salary.currency", Name: FieldSalaryCurrency},
	{Path: "salary.gross", Name: FieldSalaryGross},
	{Path: "experience.name", Name: FieldExperience},
	{Path: "employment.name", Name: FieldEmployment},
	{Path: "description", Name: FieldDescription},
	{Path: "key_skills", Name: FieldKeySkills},
	{Path: "alternate_url", Name: FieldURL},
}

type Field struct {
	Name  string
	Value any
}

// Projection is a best-effort selection: fields the record lacks are listed in
// Missing, by output name, instead of being defaulted.
type Projection struct {
	Fields  []Field
	Missing []string
}

func (p Projection) Get(name string) (any, bool) {
	for _, f := range p.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Flatten turns nested objects into dotted keys. Arrays and scalars are leaves,
// and a null object stays a single null key.
func Flatten(record map[string]any) map[string]any {
	out := make(map[string]any, len(record))
	flattenInto(out, "", record)
	return out
}

func flattenInto(out map[string]any, prefix string, obj map[string]any) {
	for k, v := range obj {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flattenInto(out, key, nested)
			continue
		}
		out[key] = v
	}
}

func Project(record map[string]any) Projection {
	flat := Flatten(record)
	proj := Projection{Fields: make([]Field, 0, len(Columns))}
	for _, col := range Columns {
		v, ok := flat[col.Path]
		if !ok {
			proj.Missing = append(proj.Missing, col.Name)
			continue
		}
		proj.Fields = append(proj.Fields, Field{Name: col.Name, Value: v})
	}
	return proj
}

func (p Projection) Posting() models.Posting {
	var posting models.Posting
	for _, f := range p.Fields {
		switch f.Name {
		case FieldID:
			posting.ID = asID(f.Value)
		case FieldTitle:
			posting.Title = asString(f.Value)
		case FieldCity:
			posting.CityRaw = asString(f.Value)
		case FieldSalaryFrom:
			posting.SalaryFrom = asFloat(f.Value)
		case FieldSalaryTo:
			posting.SalaryTo = asFloat(f.Value)
		case FieldSalaryCurrency:
			posting.SalaryCurrency = asString(f.Value)
		case FieldSalaryGross:
			posting.SalaryGross = asBool(f.Value)
		case FieldExperience:
			posting.Experience = asString(f.Value)
		case FieldEmployment:
			posting.Employment = asString(f.Value)
		case FieldDescription:
			posting.DescriptionHTML = asString(f.Value)
		case FieldKeySkills:
			posting.KeySkills = f.Value
		case FieldURL:
			posting.URL = asString(f.Value)
		}
	}
	return posting
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asID(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case json.Number:
		return id.String()
	}
	return ""
}

func asFloat(v any) *float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	return &f
}

func asBool(v any) *bool {
	var b bool
	switch x := v.(type) {
	case bool:
		b = x
	case string:
		parsed, err := strconv.ParseBool(x)
		if err != nil {
			return nil
		}
		b = parsed
	default:
		return nil
	}
	return &b
}
