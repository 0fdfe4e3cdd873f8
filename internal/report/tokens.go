package report

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/agusx1211/docmerge/internal/sequence"
)

// DefaultTokenModel names the tokenizer used by --tcount.
const DefaultTokenModel = "gpt-4"

const maxFileLines = 20

// TokenReport counts the tokens of the combined output at target and, when
// detailed, of each source file, largest first.
func TokenReport(model, target string, sources []sequence.CandidateFile, detailed bool) (string, error) {
	tkm, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return "", fmt.Errorf("failed to get tokenizer for model %q: %w", model, err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", target, err)
	}
	total := len(tkm.Encode(string(data), nil, nil))

	var b strings.Builder
	fmt.Fprintf(&b, "%d\n", total)
	if !detailed {
		return b.String(), nil
	}

	type item struct {
		Label  string
		Tokens int
	}
	items := make([]item, 0, len(sources))
	sum := 0
	for _, f := range sources {
		content, err := os.ReadFile(f.Path)
		if err != nil {
			continue
		}
		n := len(tkm.Encode(string(content), nil, nil))
		sum += n
		items = append(items, item{Label: f.Name, Tokens: n})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Tokens == items[j].Tokens {
			return items[i].Label < items[j].Label
		}
		return items[i].Tokens > items[j].Tokens
	})

	fmt.Fprintf(&b, "\nmodel: %s\n", model)
	fmt.Fprintf(&b, "file tokens: %d\n", sum)
	fmt.Fprintf(&b, "non-file tokens: %d\n", total-sum)
	fmt.Fprintf(&b, "\ntop files:\n")
	limit := maxFileLines
	if len(items) < limit {
		limit = len(items)
	}
	for i := 0; i < limit; i++ {
		fmt.Fprintf(&b, "%d\t%s\t(%s)\n", items[i].Tokens, items[i].Label, formatPercent(items[i].Tokens, sum))
	}
	if len(items) > limit {
		fmt.Fprintf(&b, "...\n")
	}
	return b.String(), nil
}

func formatPercent(part, whole int) string {
	if whole <= 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)*100/float64(whole))
}
