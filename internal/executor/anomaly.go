package executor

import "studio/domain/insight"

const anomalyQuestion = "Are there unusual observations?"

// executeAnomalyStub is a placeholder for a dedicated anomaly block.
// Trend anomalies are reported inline by the trend executor; this block
// only exists when a caller explicitly enables it.
func executeAnomalyStub(ctx *execContext, spec insight.BlockSpec) insight.Block {
	title := titleFor(spec.Type)

	if spec.TimeColumn == "" {
		return notApplicable(spec, title, anomalyQuestion, "anomaly detection needs a time column")
	}
	return insufficientData(spec, title, anomalyQuestion, "standalone anomaly detection not yet implemented", len(ctx.window))
}
