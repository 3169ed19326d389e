package audiotag

// SaveOption configures behavior when saving files.
//
// Example:
//
//	err := file.Save(
//	    audiotag.WithBackup(".bak"),
//	    audiotag.WithValidation(),
//	)
type SaveOption func(*saveOptions)

// saveOptions holds configuration for saving files.
type saveOptions struct {
	backupSuffix    string // Suffix for backup file (e.g., ".bak")
	padding         int    // Zero bytes after ID3v2 frames
	validate        bool   // Re-read after write to verify
	preserveModTime bool   // Keep original modification time
	unsynchronize   bool   // ID3v2 unsynchronisation
}

func defaultSaveOptions() *saveOptions {
	return &saveOptions{}
}

// WithBackup keeps the original file with suffix appended to its name.
//
// If the backup file already exists, it will be overwritten.
//
// Example:
//
//	err := file.Save(audiotag.WithBackup(".bak"))
//	// Original file preserved as song.mp3.bak
func WithBackup(suffix string) SaveOption {
	return func(o *saveOptions) {
		o.backupSuffix = suffix
	}
}

// WithValidation re-reads the written file and checks that every edited
// tag reads back with the same fields.
func WithValidation() SaveOption {
	return func(o *saveOptions) {
		o.validate = true
	}
}

// WithPreserveModTime keeps the original file modification time.
func WithPreserveModTime() SaveOption {
	return func(o *saveOptions) {
		o.preserveModTime = true
	}
}

// WithUnsynchronization applies the ID3v2 unsynchronisation scheme to
// edited ID3v2 tags.
func WithUnsynchronization() SaveOption {
	return func(o *saveOptions) {
		o.unsynchronize = true
	}
}

// WithPadding appends n zero bytes after the frames of edited ID3v2 tags,
// leaving room for later in-place edits by other tools.
func WithPadding(n int) SaveOption {
	return func(o *saveOptions) {
		if n > 0 {
			o.padding = n
		}
	}
}
