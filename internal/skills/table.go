package skills

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/errors"
)

// Rule maps a skill label to a pattern matched case-insensitively against the
// searchable text of a posting.
type Rule struct {
	Label   string `yaml:"label"`
	Pattern string `yaml:"pattern"`
}

// Table is evaluated in order; each rule produces the column skill_<Label>.
type Table []Rule

type tableFile struct {
	Skills Table `yaml:"skills"`
}

// Go's \b only knows ASCII word characters, so Cyrillic alternatives are written
// without it.
func DefaultTable() Table {
	return Table{
		{Label: "SQL", Pattern: `sql`},
		{Label: "Python", Pattern: `python|питон`},
		{Label: "Pandas", Pattern: `pandas`},
		{Label: "Excel", Pattern: `excel|эксель`},
		{Label: "Power BI", Pattern: `power\s?bi`},
		{Label: "Tableau", Pattern: `tableau`},
		{Label: "A/B Tests", Pattern: `a/b|а/б|\bab\b`},
		{Label: "Machine Learning", Pattern: `ml|machine learning|машинн.*обучен`},
		{Label: "Git", Pattern: `\bgit\b`},
		{Label: "English", Pattern: `english|английск`},
	}
}

// LoadTable reads a YAML skill table. An empty path selects DefaultTable.
func LoadTable(path string) (Table, error) {
	if path == "" {
		return DefaultTable(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.MissingSourceFile(path, err)
		}
		return nil, errors.Internal("reading skill table", err)
	}

	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.InvalidInput("parsing skill table", err)
	}
	if err := file.Skills.Validate(); err != nil {
		return nil, err
	}
	return file.Skills, nil
}

func (t Table) Validate() error {
	if len(t) == 0 {
		return errors.InvalidInput("skill table is empty", nil)
	}
	seen := make(map[string]bool, len(t))
	for i, r := range t {
		if r.Label == "" || r.Pattern == "" {
			return errors.InvalidInput(fmt.Sprintf("skill rule %d needs both label and pattern", i), nil)
		}
		if seen[r.Label] {
			return errors.InvalidInput(fmt.Sprintf("duplicate skill label %q", r.Label), nil)
		}
		seen[r.Label] = true
	}
	return nil
}

func (t Table) Labels() []string {
	labels := make([]string, len(t))
	for i, r := range t {
		labels[i] = r.Label
	}
	return labels
}
