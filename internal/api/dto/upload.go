package dto

import "filegate/internal/validation"

// UploadResult reports the gate's verdict for one file.
type UploadResult struct {
	Filename    string                  `json:"filename"`
	Size        int64                   `json:"size"`
	ContentType string                  `json:"contentType,omitempty"`
	Allowed     bool                    `json:"allowed"`
	Reason      validation.RejectReason `json:"reason,omitempty"`
	Extension   string                  `json:"extension,omitempty"`
	Message     string                  `json:"message"`
}

// UploadBatchResult aggregates verdicts for a multi-file upload.
type UploadBatchResult struct {
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Results   []UploadResult `json:"results"`
}
