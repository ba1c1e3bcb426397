package domain

// ImportStage identifies a step of the import pipeline
type ImportStage string

const (
	ImportStageUploading ImportStage = "uploading"
	ImportStageVerifying ImportStage = "verifying"
	ImportStageSaved     ImportStage = "saved"
)

// ImportProgress reports progress while a document is imported
type ImportProgress struct {
	Stage      ImportStage
	FileName   string
	TotalPages int
}

// ProgressFunc reports import progress to the TUI or CLI.
type ProgressFunc func(ImportProgress)
