package skills

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/errors"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/models"
)

type compiledRule struct {
	label string
	re    *regexp.Regexp
}

// Engine holds compiled rules only; Infer keeps no state between calls.
type Engine struct {
	rules []compiledRule
}

func NewEngine(table Table) (*Engine, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	rules := make([]compiledRule, 0, len(table))
	for _, r := range table {
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("compiling pattern for skill %q", r.Label), err)
		}
		rules = append(rules, compiledRule{label: r.Label, re: re})
	}
	return &Engine{rules: rules}, nil
}

func (e *Engine) Labels() []string {
	labels := make([]string, len(e.rules))
	for i, r := range e.rules {
		labels[i] = r.label
	}
	return labels
}

func (e *Engine) Infer(text string) []models.SkillFlag {
	flags := make([]models.SkillFlag, len(e.rules))
	for i, r := range e.rules {
		flags[i] = models.SkillFlag{Label: r.label, Present: r.re.MatchString(text)}
	}
	return flags
}

// InferAll evaluates texts on up to workers goroutines. Result i always belongs
// to texts[i].
func (e *Engine) InferAll(ctx context.Context, texts []string, workers int) ([][]models.SkillFlag, error) {
	out := make([][]models.SkillFlag, len(texts))
	if workers <= 1 || len(texts) < 2 {
		for i, text := range texts {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			out[i] = e.Infer(text)
		}
		return out, nil
	}

	indexChan := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexChan {
				out[i] = e.Infer(texts[i])
			}
		}()
	}

	var err error
feed:
	for i := range texts {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case indexChan <- i:
		}
	}
	close(indexChan)
	wg.Wait()

	if err != nil {
		return nil, err
	}
	return out, nil
}
