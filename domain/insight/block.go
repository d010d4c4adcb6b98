package insight

// BlockStatus is the 3-state contract every block type follows
type BlockStatus string

const (
	// StatusOK means the block computed and its payload is meaningful.
	StatusOK BlockStatus = "OK"
	// StatusNotApplicable means required columns are absent from the dataset.
	StatusNotApplicable BlockStatus = "NOT_APPLICABLE"
	// StatusInsufficientData means columns exist but usable rows do not.
	StatusInsufficientData BlockStatus = "INSUFFICIENT_DATA"
)

// Badge is a small trust or coverage indicator attached to a block
type Badge struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Block is one self-contained, typed analytical result. Immutable once
// produced; one instance per entry in AnalysisPlan.Blocks.
type Block struct {
	ID               string      `json:"id"`
	Type             BlockType   `json:"type"`
	Title            string      `json:"title"`
	QuestionAnswered string      `json:"question_answered,omitempty"`
	Status           BlockStatus `json:"status"`
	Confidence       float64     `json:"confidence"`
	Assumptions      []string    `json:"assumptions,omitempty"`
	SampleSize       int         `json:"sample_size"`
	Badges           []Badge     `json:"badges,omitempty"`
	BlockNarrative   string      `json:"block_narrative,omitempty"`
	Payload          any         `json:"payload,omitempty"`
}

// IsOK reports whether the block computed successfully
func (b *Block) IsOK() bool {
	return b.Status == StatusOK
}
