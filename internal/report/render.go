package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pterm/pterm"
)

func Render(w io.Writer, s Summary) error {
	fmt.Fprintf(w, "%s %d postings, %d with salary\n\n", pterm.LightCyan("Dataset:"), s.Rows, s.WithSalary)

	skills := pterm.TableData{{"Skill", "Postings", "Share, %"}}
	for _, sk := range s.Skills {
		skills = append(skills, []string{sk.Label, strconv.Itoa(sk.Count), fmt.Sprintf("%.1f", sk.Percent)})
	}
	if err := renderTable(w, "Skill demand", skills); err != nil {
		return err
	}

	experience := pterm.TableData{{"Experience", "Postings", "Mean salary, RUR"}}
	for _, e := range s.Experience {
		experience = append(experience, []string{e.Experience, strconv.Itoa(e.Postings), money(&e.Mean)})
	}
	if err := renderTable(w, "Salary by experience", experience); err != nil {
		return err
	}

	premiums := pterm.TableData{{"Skill", "With skill", "Without skill", "Difference"}}
	for _, p := range s.Premiums {
		if p.With == nil {
			continue
		}
		premiums = append(premiums, []string{p.Label, money(p.With), money(p.Without), money(p.Delta())})
	}
	if err := renderTable(w, "Skill salary premium", premiums); err != nil {
		return err
	}

	cities := pterm.TableData{{"City", "Postings", "Mean salary, RUR"}}
	for _, c := range s.Cities {
		cities = append(cities, []string{c.City, strconv.Itoa(c.Postings), money(c.Mean)})
	}
	return renderTable(w, "Top cities", cities)
}

func renderTable(w io.Writer, title string, data pterm.TableData) error {
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("render %s: %w", title, err)
	}
	_, err = fmt.Fprintf(w, "%s\n%s\n\n", pterm.LightCyan(title), out)
	return err
}

func money(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 0, 64)
}
