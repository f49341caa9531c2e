package validation

import (
	"context"
	"errors"
	"testing"
)

type stubBlockedSet struct {
	set map[string]struct{}
	err error
}

func (s stubBlockedSet) CurrentBlockedSet(context.Context) (map[string]struct{}, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.set, nil
}

func blockedSet(exts ...string) stubBlockedSet {
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		set[ext] = struct{}{}
	}
	return stubBlockedSet{set: set}
}

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		size        int64
		contentType string
		blocked     stubBlockedSet
		wantAllowed bool
		wantReason  RejectReason
		wantExt     string
	}{
		{
			name:        "plain document allowed",
			filename:    "report.pdf",
			size:        1024,
			contentType: "application/pdf",
			blocked:     blockedSet(),
			wantAllowed: true,
		},
		{
			name:        "blocked extension rejected",
			filename:    "invoice.exe",
			size:        10,
			contentType: "",
			blocked:     blockedSet("exe"),
			wantAllowed: false,
			wantReason:  ReasonExtensionBlocked,
			wantExt:     "exe",
		},
		{
			name:        "blocked lookup is case insensitive",
			filename:    "INVOICE.EXE",
			size:        10,
			contentType: "",
			blocked:     blockedSet("exe"),
			wantAllowed: false,
			wantReason:  ReasonExtensionBlocked,
			wantExt:     "exe",
		},
		{
			name:        "empty filename",
			filename:    "   ",
			size:        10,
			blocked:     blockedSet(),
			wantAllowed: false,
			wantReason:  ReasonEmptyOrInvalidInput,
		},
		{
			name:        "zero size",
			filename:    "photo.jpg",
			size:        0,
			blocked:     blockedSet(),
			wantAllowed: false,
			wantReason:  ReasonEmptyOrInvalidInput,
		},
		{
			name:        "name reduced to nothing by sanitization",
			filename:    "<>&\"'",
			size:        10,
			blocked:     blockedSet(),
			wantAllowed: false,
			wantReason:  ReasonEmptyOrInvalidInput,
		},
		{
			name:        "literal nul byte",
			filename:    "malware.txt\x00.exe",
			size:        10,
			blocked:     blockedSet(),
			wantAllowed: false,
			wantReason:  ReasonNullByteInjection,
		},
		{
			name:        "encoded nul sequence",
			filename:    "malware.txt%00.jpg",
			size:        10,
			blocked:     blockedSet(),
			wantAllowed: false,
			wantReason:  ReasonNullByteInjection,
		},
		{
			name:        "just over the size cap",
			filename:    "big.txt",
			size:        105_906_176,
			contentType: "text/plain",
			blocked:     blockedSet(),
			wantAllowed: false,
			wantReason:  ReasonSizeExceeded,
		},
		{
			name:        "exactly at the size cap",
			filename:    "big.txt",
			size:        100 * 1024 * 1024,
			contentType: "text/plain",
			blocked:     blockedSet(),
			wantAllowed: true,
		},
		{
			name:        "high risk middle segment",
			filename:    "invoice.exe.pdf",
			size:        10,
			contentType: "application/pdf",
			blocked:     blockedSet(),
			wantAllowed: false,
			wantReason:  ReasonDoubleExtension,
		},
		{
			name:        "consecutive dots",
			filename:    "a..txt",
			size:        10,
			contentType: "text/plain",
			blocked:     blockedSet(),
			wantAllowed: false,
			wantReason:  ReasonDoubleExtension,
		},
		{
			// The heuristic scans only segments between the first and the
			// last; "jpg" is not high risk, so this name passes the
			// double-extension check and is caught by the blocklist instead.
			name:        "benign middle segment falls through to blocklist",
			filename:    "document.jpg.exe",
			size:        10,
			contentType: "",
			blocked:     blockedSet("exe"),
			wantAllowed: false,
			wantReason:  ReasonExtensionBlocked,
			wantExt:     "exe",
		},
		{
			name:        "two segments never trip the heuristic",
			filename:    "file.exe",
			size:        10,
			contentType: "application/x-msdownload",
			blocked:     blockedSet(),
			wantAllowed: true,
		},
		{
			name:        "content type forbids extension",
			filename:    "photo.exe",
			size:        10,
			contentType: "image/jpeg",
			blocked:     blockedSet(),
			wantAllowed: false,
			wantReason:  ReasonMimeMismatch,
		},
		{
			name:        "content type lookup is case insensitive",
			filename:    "photo.jpg",
			size:        10,
			contentType: "IMAGE/JPEG",
			blocked:     blockedSet(),
			wantAllowed: true,
		},
		{
			name:        "unknown content type with harmless extension",
			filename:    "notes.txt",
			size:        10,
			contentType: "application/x-custom",
			blocked:     blockedSet(),
			wantAllowed: true,
		},
		{
			name:        "unknown content type with high risk extension",
			filename:    "payload.jar",
			size:        10,
			contentType: "application/x-custom",
			blocked:     blockedSet(),
			wantAllowed: false,
			wantReason:  ReasonMimeMismatch,
		},
		{
			name:        "missing content type with high risk extension",
			filename:    "payload.vbs",
			size:        10,
			contentType: "",
			blocked:     blockedSet(),
			wantAllowed: false,
			wantReason:  ReasonMimeMismatch,
		},
		{
			name:        "missing content type with harmless extension",
			filename:    "notes.txt",
			size:        10,
			contentType: "",
			blocked:     blockedSet(),
			wantAllowed: true,
		},
		{
			name:        "no extension at all",
			filename:    "README",
			size:        10,
			contentType: "text/plain",
			blocked:     blockedSet("exe"),
			wantAllowed: true,
		},
		{
			name:        "trailing dot means empty extension",
			filename:    "archive.",
			size:        10,
			contentType: "",
			blocked:     blockedSet("exe"),
			wantAllowed: true,
		},
		{
			name:        "sanitized name is reevaluated",
			filename:    "inv<oi>ce.e'xe",
			size:        10,
			contentType: "",
			blocked:     blockedSet("exe"),
			wantAllowed: false,
			wantReason:  ReasonExtensionBlocked,
			wantExt:     "exe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pipeline := NewPipeline(tt.blocked)

			result, err := pipeline.ValidateUpload(context.Background(), tt.filename, tt.size, tt.contentType)
			if err != nil {
				t.Fatalf("ValidateUpload returned error: %v", err)
			}

			if result.Allowed != tt.wantAllowed {
				t.Fatalf("ValidateUpload allowed = %v, want %v (reason %q)", result.Allowed, tt.wantAllowed, result.Reason)
			}
			if !tt.wantAllowed && result.Reason != tt.wantReason {
				t.Fatalf("ValidateUpload reason = %q, want %q", result.Reason, tt.wantReason)
			}
			if tt.wantExt != "" && result.Extension != tt.wantExt {
				t.Fatalf("ValidateUpload extension = %q, want %q", result.Extension, tt.wantExt)
			}
		})
	}
}

func TestValidateUploadStoreFault(t *testing.T) {
	storeErr := errors.New("connection refused")
	pipeline := NewPipeline(stubBlockedSet{err: storeErr})

	_, err := pipeline.ValidateUpload(context.Background(), "report.pdf", 10, "application/pdf")
	if !errors.Is(err, storeErr) {
		t.Fatalf("ValidateUpload error = %v, want wrapped %v", err, storeErr)
	}
}

func TestValidateFilename(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		blocked     stubBlockedSet
		wantAllowed bool
		wantReason  RejectReason
	}{
		{
			name:        "allowed filename",
			filename:    "report.pdf",
			blocked:     blockedSet(),
			wantAllowed: true,
		},
		{
			name:        "blocked filename",
			filename:    "invoice.exe",
			blocked:     blockedSet("exe"),
			wantAllowed: false,
			wantReason:  ReasonExtensionBlocked,
		},
		{
			name:        "empty filename",
			filename:    "",
			blocked:     blockedSet(),
			wantAllowed: false,
			wantReason:  ReasonEmptyOrInvalidInput,
		},
		{
			name:        "null byte",
			filename:    "x%00.txt",
			blocked:     blockedSet(),
			wantAllowed: false,
			wantReason:  ReasonNullByteInjection,
		},
		{
			name:        "double extension",
			filename:    "run.bat.txt",
			blocked:     blockedSet(),
			wantAllowed: false,
			wantReason:  ReasonDoubleExtension,
		},
		{
			// No size or content-type steps on this path: a huge name with a
			// benign extension sails through.
			name:        "high risk extension is advisory only",
			filename:    "tool.ps1",
			blocked:     blockedSet(),
			wantAllowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pipeline := NewPipeline(tt.blocked)

			result, err := pipeline.ValidateFilename(context.Background(), tt.filename)
			if err != nil {
				t.Fatalf("ValidateFilename returned error: %v", err)
			}

			if result.Allowed != tt.wantAllowed {
				t.Fatalf("ValidateFilename allowed = %v, want %v (reason %q)", result.Allowed, tt.wantAllowed, result.Reason)
			}
			if !tt.wantAllowed && result.Reason != tt.wantReason {
				t.Fatalf("ValidateFilename reason = %q, want %q", result.Reason, tt.wantReason)
			}
		})
	}
}

func TestHasDoubleExtension(t *testing.T) {
	cases := map[string]bool{
		"document.jpg.exe": false, // final segment is the blocklist's job
		"invoice.exe.pdf":  true,
		"a..txt":           true,
		"file.exe":         false,
		"archive.tar.gz":   false,
		"x.js.y.txt":       true,
		"plain":            false,
	}

	for name, want := range cases {
		if got := hasDoubleExtension(name); got != want {
			t.Errorf("hasDoubleExtension(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestExtractExtension(t *testing.T) {
	cases := map[string]string{
		"report.pdf": "pdf",
		"REPORT.PDF": "pdf",
		"archive.":   "",
		"no_dot":     "",
		"a.b.c":      "c",
		".hidden":    "hidden",
		"trailing. ": "",
	}

	for name, want := range cases {
		if got := extractExtension(name); got != want {
			t.Errorf("extractExtension(%q) = %q, want %q", name, got, want)
		}
	}
}
