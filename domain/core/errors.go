package core

import "errors"

// Input sentinels. Data-quality problems inside an accepted dataset never
// surface as errors; these cover sources the pipeline cannot accept at all.
var (
	ErrEmptyDataset      = errors.New("dataset has no rows")
	ErrNoUsableColumns   = errors.New("dataset has no usable columns")
	ErrUnsupportedSource = errors.New("unsupported source format")
	ErrUnknownTemplate   = errors.New("unknown template id")
)

// IsInputError reports whether the error is a rejected-input sentinel, as
// opposed to an infrastructure failure.
func IsInputError(err error) bool {
	return errors.Is(err, ErrEmptyDataset) ||
		errors.Is(err, ErrNoUsableColumns) ||
		errors.Is(err, ErrUnsupportedSource) ||
		errors.Is(err, ErrUnknownTemplate)
}
