package salary

import (
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/models"
)

const (
	DefaultGrossUpFactor = 1.15
	DefaultCurrency      = "RUR"
)

type Stats struct {
	Input           int
	Retained        int
	DroppedCurrency int
	MissingSalary   int
}

// Normalizer brings salary bounds to gross figures and keeps only postings paid in
// Currency. GrossUpFactor approximates the employee-side tax and is not a tax
// computation.
type Normalizer struct {
	GrossUpFactor float64
	Currency      string
}

func NewNormalizer(grossUpFactor float64, currency string) *Normalizer {
	if grossUpFactor <= 0 {
		grossUpFactor = DefaultGrossUpFactor
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Normalizer{GrossUpFactor: grossUpFactor, Currency: currency}
}

// Adjust scales present bounds when the posting states net pay. Unknown gross
// status leaves the bounds untouched.
func (n *Normalizer) Adjust(p models.Posting) models.Posting {
	if p.SalaryGross == nil || *p.SalaryGross {
		return p
	}
	p.SalaryFrom = scale(p.SalaryFrom, n.GrossUpFactor)
	p.SalaryTo = scale(p.SalaryTo, n.GrossUpFactor)
	return p
}

// Supported reports whether p is paid in the retained currency. Postings with no
// salary block carry no currency and are not supported.
func (n *Normalizer) Supported(p models.Posting) bool {
	return p.SalaryCurrency == n.Currency
}

func scale(v *float64, factor float64) *float64 {
	if v == nil {
		return nil
	}
	scaled := *v * factor
	return &scaled
}

func Average(from, to *float64) *float64 {
	switch {
	case from != nil && to != nil:
		avg := (*from + *to) / 2
		return &avg
	case from != nil:
		avg := *from
		return &avg
	case to != nil:
		avg := *to
		return &avg
	default:
		return nil
	}
}

// Normalize adjusts and averages every posting, then drops those not paid in the
// supported currency. Returned rows carry no bound, currency or gross fields.
func (n *Normalizer) Normalize(postings []models.Posting) ([]models.DerivedPosting, Stats) {
	stats := Stats{Input: len(postings)}
	out := make([]models.DerivedPosting, 0, len(postings))

	for _, p := range postings {
		adjusted := n.Adjust(p)
		avg := Average(adjusted.SalaryFrom, adjusted.SalaryTo)
		if avg == nil {
			stats.MissingSalary++
		}
		if !n.Supported(p) {
			stats.DroppedCurrency++
			continue
		}
		out = append(out, models.DerivedPosting{
			ID:         p.ID,
			Title:      p.Title,
			City:       p.CityRaw,
			SalaryAvg:  avg,
			Experience: p.Experience,
			Employment: p.Employment,
			URL:        p.URL,
		})
	}

	stats.Retained = len(out)
	return out, stats
}
