package models

type Posting struct {
	ID              string
	Title           string
	CityRaw         string
	SalaryFrom      *float64
	SalaryTo        *float64
	SalaryCurrency  string
	SalaryGross     *bool
	Experience      string
	Employment      string
	DescriptionHTML string
	KeySkills       any
	URL             string
}

type SkillFlag struct {
	Label   string
	Present bool
}

type DerivedPosting struct {
	ID         string
	Title      string
	City       string
	SalaryAvg  *float64
	Experience string
	Employment string
	URL        string
	Skills     []SkillFlag
	Latitude   *float64
	Longitude  *float64
}

func (p DerivedPosting) HasSkill(label string) bool {
	for _, s := range p.Skills {
		if s.Label == label {
			return s.Present
		}
	}
	return false
}
