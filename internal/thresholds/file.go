package thresholds

import "github.com/sabateri/water-quality/internal/domain"

// File is a pipeline.ThresholdSource backed by a CSV file on disk. The file
// is re-read on every call, so limit edits take effect without a restart.
type File struct {
	Path string
}

// Thresholds loads the table from the file.
func (f File) Thresholds() (domain.ThresholdTable, error) {
	return Load(f.Path)
}
