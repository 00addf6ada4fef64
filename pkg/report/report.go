// Package report renders analysis results as text tables.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"github.com/Misael10x/Random-Forest-Codigo/pkg/data"
	"github.com/Misael10x/Random-Forest-Codigo/pkg/dataprep"
	"github.com/Misael10x/Random-Forest-Codigo/pkg/model"
	"github.com/Misael10x/Random-Forest-Codigo/pkg/stats"
)

func number(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func render(w io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(header)
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}

// Correlations prints the ranking of features by their correlation with the label
// and marks those above threshold.
func Correlations(w io.Writer, ranking []stats.Ranked, threshold float64) error {
	rows := lo.Map(ranking, func(r stats.Ranked, _ int) []string {
		return []string{r.Feature, number(r.Corr), lo.Ternary(r.Corr > threshold, "*", "")}
	})
	return render(w, []string{"feature", "correlation", fmt.Sprintf("> %v", threshold)}, rows)
}

// Pairs prints strongly correlated feature pairs.
func Pairs(w io.Writer, pairs []stats.Pair) error {
	rows := lo.Map(pairs, func(p stats.Pair, _ int) []string {
		return []string{p.A, p.B, number(p.Corr)}
	})
	return render(w, []string{"feature", "feature", "correlation"}, rows)
}

// Subset is a named part of a split.
type Subset struct {
	Name    string
	Dataset *data.Dataset
}

// Splits prints the size, share and per-class proportion of every subset.
func Splits(w io.Writer, label string, subsets ...Subset) error {
	if len(subsets) == 0 {
		return nil
	}
	levels, err := subsets[0].Dataset.Levels(label)
	if err != nil {
		return errors.Trace(err)
	}
	total := lo.SumBy(subsets, func(s Subset) int { return s.Dataset.Len() })
	header := append([]string{"subset", "rows", "share"}, levels...)
	rows := make([][]string, 0, len(subsets))
	for _, s := range subsets {
		codes, err := s.Dataset.Codes(label)
		if err != nil {
			return errors.Trace(err)
		}
		row := []string{s.Name, strconv.Itoa(s.Dataset.Len()), number(float64(s.Dataset.Len()) / float64(total))}
		for c := range levels {
			n := lo.Count(codes, c)
			row = append(row, number(float64(n)/float64(max(len(codes), 1))))
		}
		rows = append(rows, row)
	}
	return render(w, header, rows)
}

// Describe prints descriptive statistics per feature.
func Describe(w io.Writer, summaries []stats.Summary) error {
	rows := lo.Map(summaries, func(s stats.Summary, _ int) []string {
		return []string{s.Feature, strconv.Itoa(s.Count), number(s.Mean), number(s.Std),
			number(s.Min), number(s.Q1), number(s.Median), number(s.Q3), number(s.Max)}
	})
	return render(w, []string{"feature", "count", "mean", "std", "min", "25%", "50%", "75%", "max"}, rows)
}

// Imputation prints the non-finite values replaced per field.
func Imputation(w io.Writer, imp *dataprep.Imputation) error {
	fields := lo.Keys(imp.Replaced)
	sort.Strings(fields)
	rows := make([][]string, 0, len(fields))
	for _, f := range fields {
		fill, ok := imp.Fill[f]
		rows = append(rows, []string{f, strconv.Itoa(imp.Replaced[f]), lo.Ternary(ok, number(fill), "dropped")})
	}
	return render(w, []string{"field", "non-finite", string(imp.Strategy)}, rows)
}

// Comparison prints the scores of the pipelines without and with preparation.
func Comparison(w io.Writer, cmp model.Comparison) error {
	rows := [][]string{
		{cmp.Metric + " WITHOUT preparation", cmp.Without.Pipeline, number(cmp.Without.Value)},
		{cmp.Metric + " WITH preparation", cmp.With.Pipeline, number(cmp.With.Value)},
		{"delta", "", number(cmp.Delta())},
	}
	return render(w, []string{"score", "pipeline", "value"}, rows)
}

// Score is one row of a score table.
type Score struct {
	Name   string
	Values []float64
}

// Scores prints named score rows under the given metric names.
func Scores(w io.Writer, metrics []string, scores ...Score) error {
	rows := lo.Map(scores, func(s Score, _ int) []string {
		return append([]string{s.Name}, lo.Map(s.Values, func(v float64, _ int) string { return number(v) })...)
	})
	return render(w, append([]string{"model"}, metrics...), rows)
}

// ConfusionMatrix prints counts with actual classes as rows. labels are the class
// codes returned by model.ConfusionMatrix, levels names them.
func ConfusionMatrix(w io.Writer, levels []string, labels []int, matrix [][]int) error {
	name := func(code int) string {
		if code >= 0 && code < len(levels) {
			return levels[code]
		}
		return strconv.Itoa(code)
	}
	header := append([]string{"actual \\ predicted"}, lo.Map(labels, func(c int, _ int) string { return name(c) })...)
	rows := make([][]string, len(matrix))
	for a, counts := range matrix {
		rows[a] = append([]string{name(labels[a])}, lo.Map(counts, func(n int, _ int) string { return strconv.Itoa(n) })...)
	}
	return render(w, header, rows)
}

// Importances prints the top features by importance. top <= 0 prints all.
func Importances(w io.Writer, features []string, importances []float64, top int) error {
	if len(features) != len(importances) {
		return errors.Errorf("report: %d features, %d importances", len(features), len(importances))
	}
	order := lo.Range(len(features))
	sort.SliceStable(order, func(a, b int) bool { return importances[order[a]] > importances[order[b]] })
	if top > 0 && top < len(order) {
		order = order[:top]
	}
	rows := lo.Map(order, func(j int, _ int) []string {
		return []string{features[j], number(importances[j])}
	})
	return render(w, []string{"feature", "importance"}, rows)
}
