package executor

import (
	"fmt"
	"strings"

	"studio/domain/insight"
)

// MaxDetailRows caps how many raw rows a details table carries
const MaxDetailRows = 200

const detailsQuestion = "What do the underlying records look like?"

// executeDetailsTable renders raw rows as strings. Template-preferred
// columns come first, remaining columns follow in name order.
func executeDetailsTable(ctx *execContext, spec insight.BlockSpec) insight.Block {
	title := titleFor(spec.Type)

	if len(ctx.window) == 0 {
		return insufficientData(spec, title, detailsQuestion, "no rows available", 0)
	}

	columns := detailColumns(ctx)
	limit := len(ctx.window)
	if limit > MaxDetailRows {
		limit = MaxDetailRows
	}

	rows := make([][]string, 0, limit)
	for _, row := range ctx.window[:limit] {
		cells := make([]string, len(columns))
		for i, col := range columns {
			if v, ok := row[col]; ok && !v.IsNull() {
				cells[i] = v.AsString()
			}
		}
		rows = append(rows, cells)
	}

	payload := insight.DetailsPayload{
		Columns:   columns,
		Rows:      rows,
		TotalRows: ctx.ds.RowCount(),
	}

	return insight.Block{
		ID:               spec.ID,
		Type:             spec.Type,
		Title:            title,
		QuestionAnswered: detailsQuestion,
		Status:           insight.StatusOK,
		Confidence:       1.0,
		SampleSize:       limit,
		BlockNarrative:   fmt.Sprintf("Showing %d of %d rows.", limit, ctx.ds.RowCount()),
		Payload:          payload,
	}
}

// detailColumns orders template-hinted columns first, then the rest
// alphabetically.
func detailColumns(ctx *execContext) []string {
	all := ctx.ds.SortedColumnNames()

	var preferred []string
	seen := map[string]bool{}
	for _, hint := range ctx.opts.Template.DetailsColumns {
		for _, name := range all {
			if seen[name] {
				continue
			}
			if strings.Contains(strings.ToLower(name), strings.ToLower(hint)) {
				preferred = append(preferred, name)
				seen[name] = true
			}
		}
	}
	for _, name := range all {
		if !seen[name] {
			preferred = append(preferred, name)
		}
	}
	return preferred
}
