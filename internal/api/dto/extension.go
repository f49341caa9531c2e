package dto

// ExtensionCreateRequest is the payload for adding a custom extension.
type ExtensionCreateRequest struct {
	Extension string `json:"extension"`
	Note      string `json:"note,omitempty"`
}

// ExtensionToggleRequest flips the block state of a fixed extension.
type ExtensionToggleRequest struct {
	Enabled bool `json:"enabled"`
}

// FilenameRequest is the payload for the filename-only pre-check.
type FilenameRequest struct {
	Filename string `json:"filename"`
}
