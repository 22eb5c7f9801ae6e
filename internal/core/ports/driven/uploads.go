package driven

import "context"

// Upload maps a stored upload file to the name the user uploaded it under.
type Upload struct {
	TaskID       string
	SavedAs      string
	OriginalName string
}

// UploadStore is the persistent registry of uploaded files.
type UploadStore interface {
	// OriginalNames returns stored name -> original name for a task.
	// A task with no uploads yields an empty map.
	OriginalNames(ctx context.Context, taskID string) (map[string]string, error)

	// Save records an upload, replacing any entry with the same task and stored name.
	Save(ctx context.Context, upload Upload) error
}

// OriginalNameResolver looks up the original name of a stored upload.
type OriginalNameResolver interface {
	// OriginalName returns the original name for a stored file of a task.
	// The second result is false when the registry has no entry.
	OriginalName(taskID, savedAs string) (string, bool, error)
}
