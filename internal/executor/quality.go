package executor

import (
	"fmt"
	"sort"

	"studio/domain/insight"
	"studio/domain/profile"
	"studio/internal/profiling"
)

// MaxReportedNullColumns bounds the null percentage list
const MaxReportedNullColumns = 10

const qualityQuestion = "How trustworthy is this data?"

// executeDataQuality reports duplicates, per-column missingness and parse
// issues over the compute window. It always has something to say, so it
// never returns NOT_APPLICABLE.
func executeDataQuality(ctx *execContext, spec insight.BlockSpec) insight.Block {
	title := titleFor(spec.Type)

	if len(ctx.window) == 0 {
		return insufficientData(spec, title, qualityQuestion, "no rows to check", 0)
	}

	dupPct := profiling.DuplicateRowPct(ctx.window, ctx.ds.SortedColumnNames())

	var nullPcts []insight.ColumnNullPct
	for _, col := range ctx.ds.Schema {
		nulls := 0
		for _, row := range ctx.window {
			v, ok := row[col.Name]
			if !ok || v.IsNull() {
				nulls++
			}
		}
		pct := float64(nulls) / float64(len(ctx.window))
		if pct > 0 {
			nullPcts = append(nullPcts, insight.ColumnNullPct{Column: col.Name, NullPct: pct})
		}
	}
	sort.Slice(nullPcts, func(i, j int) bool {
		if nullPcts[i].NullPct != nullPcts[j].NullPct {
			return nullPcts[i].NullPct > nullPcts[j].NullPct
		}
		return nullPcts[i].Column < nullPcts[j].Column
	})
	if len(nullPcts) > MaxReportedNullColumns {
		nullPcts = nullPcts[:MaxReportedNullColumns]
	}

	var issues []profile.ParseIssue
	for _, col := range ctx.ds.Schema {
		issues = append(issues, profiling.ParseIssuesFor(ctx.window, col.Name, col.InferredType)...)
	}
	issues = profiling.SortIssues(issues)

	payload := insight.QualityPayload{
		DuplicatesPct: dupPct,
		NullPcts:      nullPcts,
		ParseIssues:   issues,
		RowsChecked:   len(ctx.window),
	}

	narrative := fmt.Sprintf("Checked %d rows: %.1f%% duplicates, %d columns with missing values, %d parse issues.",
		len(ctx.window), dupPct*100, len(nullPcts), len(issues))

	return insight.Block{
		ID:               spec.ID,
		Type:             spec.Type,
		Title:            title,
		QuestionAnswered: qualityQuestion,
		Status:           insight.StatusOK,
		Confidence:       1.0,
		SampleSize:       len(ctx.window),
		BlockNarrative:   narrative,
		Payload:          payload,
	}
}
