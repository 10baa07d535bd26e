package search

import (
	"sort"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/process"
	"github.com/sells-group/outreach-cli/internal/querygen"
)

// Conversion-rate bands driving the expansion strategy.
const (
	strongConversion = 0.10
	weakConversion   = 0.05
)

// expansionPlan shapes the expand phase: how many categories to widen, how
// many extra queries each gets, and the per-query result cap.
type expansionPlan struct {
	Categories         int
	QueriesPerCategory int
	ResultCap          int
}

// planExpansion derives the expansion shape from probe conversion. A strong
// probe widens its best categories moderately; a weak one concentrates on
// fewer categories; a failing one spreads thin across more categories
// hunting for a performer.
func planExpansion(opportunities, results int, cfg Config) expansionPlan {
	conversion := 0.0
	if results > 0 {
		conversion = float64(opportunities) / float64(results)
	}

	switch {
	case conversion > strongConversion:
		return expansionPlan{Categories: 3, QueriesPerCategory: 3, ResultCap: cfg.ExpandResultCap}
	case conversion >= weakConversion:
		return expansionPlan{Categories: 2, QueriesPerCategory: 4, ResultCap: cfg.ExpandResultCap}
	default:
		return expansionPlan{Categories: 6, QueriesPerCategory: 1, ResultCap: cfg.ProbeResultCap}
	}
}

// categoryPerformance counts probe opportunities per category so expansion
// can favor what actually converted.
func categoryPerformance(tasks []task, results []model.SearchResult) map[querygen.Category]int {
	queryCat := make(map[string]querygen.Category, len(tasks))
	for _, t := range tasks {
		queryCat[t.query.Text] = t.query.Category
	}

	perf := map[querygen.Category]int{}
	for _, r := range results {
		cat, ok := queryCat[r.OriginalQuery]
		if !ok {
			continue
		}
		if process.HasGuestPostIndicator(r) {
			perf[cat]++
		}
	}
	return perf
}

// expansionTasks selects additional not-yet-issued queries per the plan,
// ordering candidate categories by probe performance, then by learned
// effectiveness for categories the probe never touched.
func (o *Orchestrator) expansionTasks(set querygen.CategorySet, issued map[string]struct{}, perf map[querygen.Category]int, plan expansionPlan) []task {
	ranked := o.gov.RankCategories(set)
	sort.SliceStable(ranked, func(i, j int) bool {
		return perf[ranked[i]] > perf[ranked[j]]
	})

	var tasks []task
	taken := 0
	for _, cat := range ranked {
		if taken >= plan.Categories {
			break
		}
		catTasks := o.takeFromCategory(set, cat, plan.QueriesPerCategory, issued)
		if len(catTasks) == 0 {
			continue
		}
		tasks = append(tasks, catTasks...)
		taken++
	}
	return tasks
}
