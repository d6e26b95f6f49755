package normalizer

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"

	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/models"
)

// Text is the normalized text of one posting.
type Text struct {
	Skills      string
	Description string
	Searchable  string
	Malformed   bool
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true,
	"img": true, "input": true, "link": true, "meta": true, "param": true,
	"source": true, "track": true, "wbr": true,
}

var skippedElements = map[string]bool{
	"script": true, "style": true,
}

func Normalize(p models.Posting) Text {
	description, malformed := CleanHTML(p.DescriptionHTML)
	skills := FlattenSkills(p.KeySkills)
	return Text{
		Skills:      skills,
		Description: description,
		Searchable:  SearchableText(p.Title, skills, description),
		Malformed:   malformed,
	}
}

// CleanHTML extracts lowercase plain text from markup. Text nodes are trimmed and
// joined by single spaces. A stray end tag or a tokenizer failure marks the markup
// as malformed; whatever text was read up to that point is still returned.
func CleanHTML(markup string) (string, bool) {
	if markup == "" {
		return "", false
	}

	z := html.NewTokenizer(strings.NewReader(markup))
	var (
		parts     []string
		open      []string
		malformed bool
		skipDepth int
	)

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				malformed = true
			}
			return finish(parts), malformed
		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			if text := strings.Join(strings.Fields(string(z.Text())), " "); text != "" {
				parts = append(parts, text)
			}
		case html.StartTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if voidElements[tag] {
				continue
			}
			open = append(open, tag)
			if skippedElements[tag] {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if voidElements[tag] {
				continue
			}
			idx := lastIndex(open, tag)
			if idx < 0 {
				malformed = true
				continue
			}
			for _, closed := range open[idx:] {
				if skippedElements[closed] {
					skipDepth--
				}
			}
			open = open[:idx]
		}
	}
}

func finish(parts []string) string {
	return strings.ToLower(norm.NFC.String(strings.Join(parts, " ")))
}

func lastIndex(stack []string, tag string) int {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == tag {
			return i
		}
	}
	return -1
}

// FlattenSkills joins the names of key-skill records with ", " in lowercase.
// Anything that is not a sequence yields "".
func FlattenSkills(v any) string {
	var names []string
	switch list := v.(type) {
	case []any:
		for _, item := range list {
			if rec, ok := item.(map[string]any); ok {
				if name, ok := rec["name"].(string); ok {
					names = append(names, name)
				}
			}
		}
	case []map[string]any:
		for _, rec := range list {
			if name, ok := rec["name"].(string); ok {
				names = append(names, name)
			}
		}
	case []string:
		names = list
	default:
		return ""
	}
	return strings.ToLower(norm.NFC.String(strings.Join(names, ", ")))
}

func SearchableText(title, skills, description string) string {
	return strings.ToLower(norm.NFC.String(title)) + " " + skills + " " + description
}
