// Package fusion merges ranked context across corpora and renders the
// context block handed to generation.
package fusion

import (
	"fmt"
	"sort"
	"strings"

	"github.com/codertg2/legalai/models"
)

// Fuse merges all corpora's items, sorts descending by metric and truncates
// to topN. Every item must already carry a metric; items that slipped
// through with a zero metric fall back to their distance so cross-corpus
// comparison stays meaningful.
func Fuse(lists [][]models.ContextItem, topN int) []models.ContextItem {
	var merged []models.ContextItem
	for _, list := range lists {
		merged = append(merged, list...)
	}
	for i := range merged {
		if merged[i].Metric == 0 {
			merged[i].Metric = merged[i].Distance
		}
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Metric > merged[j].Metric })
	if len(merged) > topN {
		merged = merged[:topN]
	}
	return merged
}

// Render formats items into the citation block passed to generation. Field
// selection follows the chunk's corpus tag; unrecognized shapes render as an
// opaque fallback string.
func Render(items []models.ContextItem) string {
	blocks := make([]string, 0, len(items))
	for _, it := range items {
		blocks = append(blocks, renderItem(it))
	}
	return strings.Join(blocks, "\n\n")
}

func renderItem(it models.ContextItem) string {
	c := it.Chunk
	switch {
	case c.Domain == models.DomainBills && c.Bill != nil:
		return fmt.Sprintf("[Congressional Bill] %s (Congress %s, %s)\nLatest action: %s\n%s",
			c.Bill.Title, c.Bill.Congress, c.Bill.Number, c.Bill.LatestAction, c.Text)
	case c.Domain == models.DomainOrders && c.Order != nil:
		return fmt.Sprintf("[Executive Order] %s (%s)\n%s", c.Order.Title, c.Order.Date, c.Text)
	case c.Domain == models.DomainOpinions && c.Opinion != nil:
		return fmt.Sprintf("[Supreme Court Decision] %s\n%s\n%s", c.Opinion.Date, c.Opinion.URL, c.Text)
	case c.Domain == models.DomainNews && c.News != nil:
		return fmt.Sprintf("[News Article] %s (%s)\n%s", c.News.Title, c.News.Date, c.Text)
	default:
		return fmt.Sprintf("[Source] %s", c.Text)
	}
}
