package domain

// IngestReport summarises one ingestion run.
type IngestReport struct {
	// FilesSeen is the number of candidate files found.
	FilesSeen int `json:"files_seen"`

	// FilesSkipped counts files that could not be read, normalised, or were empty.
	FilesSkipped int `json:"files_skipped"`

	// ChunksAdded is the number of chunks embedded and indexed in this run.
	ChunksAdded int `json:"chunks_added"`

	// IndexSize is the total number of indexed chunks after the run.
	IndexSize int `json:"index_size"`

	// Skipped maps skipped file paths to the reason.
	Skipped map[string]string `json:"skipped,omitempty"`
}
