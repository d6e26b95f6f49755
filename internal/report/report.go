package report

import (
	"sort"

	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/dataset"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/models"
)

const DefaultTopCities = 10

type SkillShare struct {
	Label   string
	Count   int
	Percent float64
}

type ExperienceSalary struct {
	Experience string
	Mean       float64
	Postings   int
}

// SkillPremium compares mean salaries of postings with and without a skill. A nil
// mean means no posting on that side carried a salary.
type SkillPremium struct {
	Label   string
	With    *float64
	Without *float64
}

func (p SkillPremium) Delta() *float64 {
	if p.With == nil || p.Without == nil {
		return nil
	}
	d := *p.With - *p.Without
	return &d
}

type CitySummary struct {
	City     string
	Postings int
	Mean     *float64
}

type Summary struct {
	Rows       int
	WithSalary int
	Skills     []SkillShare
	Experience []ExperienceSalary
	Premiums   []SkillPremium
	Cities     []CitySummary
}

func Build(ds dataset.Dataset, topCities int) Summary {
	withSalary := 0
	for _, row := range ds.Rows {
		if row.SalaryAvg != nil {
			withSalary++
		}
	}
	return Summary{
		Rows:       len(ds.Rows),
		WithSalary: withSalary,
		Skills:     Skills(ds.Rows, ds.SkillLabels),
		Experience: SalaryByExperience(ds.Rows),
		Premiums:   SkillPremiums(ds.Rows, ds.SkillLabels),
		Cities:     TopCities(ds.Rows, topCities),
	}
}

// Skills returns the share of postings requiring each skill, highest first. Ties
// keep table order.
func Skills(rows []models.DerivedPosting, labels []string) []SkillShare {
	shares := make([]SkillShare, len(labels))
	for i, label := range labels {
		shares[i].Label = label
		for _, row := range rows {
			if row.HasSkill(label) {
				shares[i].Count++
			}
		}
		if len(rows) > 0 {
			shares[i].Percent = float64(shares[i].Count) / float64(len(rows)) * 100
		}
	}
	sort.SliceStable(shares, func(i, j int) bool { return shares[i].Count > shares[j].Count })
	return shares
}

// SalaryByExperience averages salary per experience level over postings that have
// one, highest mean first.
func SalaryByExperience(rows []models.DerivedPosting) []ExperienceSalary {
	var order []string
	acc := map[string]*mean{}
	for _, row := range rows {
		if row.SalaryAvg == nil {
			continue
		}
		m, ok := acc[row.Experience]
		if !ok {
			m = &mean{}
			acc[row.Experience] = m
			order = append(order, row.Experience)
		}
		m.add(*row.SalaryAvg)
	}

	out := make([]ExperienceSalary, 0, len(order))
	for _, exp := range order {
		m := acc[exp]
		out = append(out, ExperienceSalary{Experience: exp, Mean: *m.value(), Postings: m.n})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Mean > out[j].Mean })
	return out
}

func SkillPremiums(rows []models.DerivedPosting, labels []string) []SkillPremium {
	out := make([]SkillPremium, 0, len(labels))
	for _, label := range labels {
		var with, without mean
		for _, row := range rows {
			if row.SalaryAvg == nil {
				continue
			}
			if row.HasSkill(label) {
				with.add(*row.SalaryAvg)
			} else {
				without.add(*row.SalaryAvg)
			}
		}
		out = append(out, SkillPremium{Label: label, With: with.value(), Without: without.value()})
	}
	return out
}

// TopCities returns the n cities with the most postings. Equal counts sort by name.
func TopCities(rows []models.DerivedPosting, n int) []CitySummary {
	counts := map[string]int{}
	means := map[string]*mean{}
	for _, row := range rows {
		if row.City == "" {
			continue
		}
		counts[row.City]++
		if means[row.City] == nil {
			means[row.City] = &mean{}
		}
		if row.SalaryAvg != nil {
			means[row.City].add(*row.SalaryAvg)
		}
	}

	out := make([]CitySummary, 0, len(counts))
	for city, count := range counts {
		out = append(out, CitySummary{City: city, Postings: count, Mean: means[city].value()})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Postings != out[j].Postings {
			return out[i].Postings > out[j].Postings
		}
		return out[i].City < out[j].City
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v float64) {
	m.sum += v
	m.n++
}

func (m *mean) value() *float64 {
	if m.n == 0 {
		return nil
	}
	v := m.sum / float64(m.n)
	return &v
}
