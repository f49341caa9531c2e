package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"filegate/internal/config"
)

// RejectReason classifies why a file or filename was turned away. Every
// reason is an expected, client-caused outcome; infrastructure faults
// propagate as errors instead.
type RejectReason string

const (
	ReasonEmptyOrInvalidInput RejectReason = "EMPTY_OR_INVALID_INPUT"
	ReasonNullByteInjection   RejectReason = "NULL_BYTE_INJECTION"
	ReasonSizeExceeded        RejectReason = "SIZE_EXCEEDED"
	ReasonDoubleExtension     RejectReason = "DOUBLE_EXTENSION"
	ReasonExtensionBlocked    RejectReason = "EXTENSION_BLOCKED"
	ReasonMimeMismatch        RejectReason = "MIME_TYPE_MISMATCH"
)

// Result is the outcome of one validation call. When Allowed is false the
// Reason is set, and Extension carries the offending extension where one
// applies.
type Result struct {
	Allowed   bool         `json:"allowed"`
	Reason    RejectReason `json:"reason,omitempty"`
	Extension string       `json:"extension,omitempty"`
	Message   string       `json:"message,omitempty"`
}

func allow() Result {
	return Result{Allowed: true}
}

func reject(reason RejectReason, extension, message string) Result {
	return Result{Reason: reason, Extension: extension, Message: message}
}

// BlockedSetSource yields the current effective blocked-extension set.
type BlockedSetSource interface {
	CurrentBlockedSet(ctx context.Context) (map[string]struct{}, error)
}

// Pipeline runs the ordered upload checks. It is stateless per call and safe
// for concurrent use.
type Pipeline struct {
	blocked BlockedSetSource
}

func NewPipeline(blocked BlockedSetSource) *Pipeline {
	return &Pipeline{blocked: blocked}
}

// ValidateUpload runs the full check sequence for a real payload. A non-nil
// error means the blocklist could not be read (store fault), not that the
// file was rejected.
func (p *Pipeline) ValidateUpload(ctx context.Context, filename string, sizeBytes int64, contentType string) (Result, error) {
	if strings.TrimSpace(filename) == "" || sizeBytes <= 0 {
		return reject(ReasonEmptyOrInvalidInput, "", "file is empty or has no name"), nil
	}

	name := sanitizeFilename(filename)
	if name == "" {
		return reject(ReasonEmptyOrInvalidInput, "", "filename is not valid"), nil
	}

	if containsNullByte(name) {
		p.logRejection(name, "", ReasonNullByteInjection)
		return reject(ReasonNullByteInjection, "", "filename is not valid"), nil
	}

	if limit := config.GetConfig().Upload.MaxSizeBytes; sizeBytes > limit {
		ext := extractExtension(name)
		p.logRejection(name, ext, ReasonSizeExceeded)
		return reject(ReasonSizeExceeded, ext, fmt.Sprintf("file size may not exceed %dMB", limit>>20)), nil
	}

	if hasDoubleExtension(name) {
		ext := extractExtension(name)
		p.logRejection(name, ext, ReasonDoubleExtension)
		return reject(ReasonDoubleExtension, ext, "double extensions are not allowed"), nil
	}

	ext := extractExtension(name)

	blocked, err := p.blocked.CurrentBlockedSet(ctx)
	if err != nil {
		return Result{}, err
	}

	if _, found := blocked[ext]; found {
		p.logRejection(name, ext, ReasonExtensionBlocked)
		return reject(ReasonExtensionBlocked, ext, fmt.Sprintf("blocked extension: .%s", ext)), nil
	}

	if IsHighRisk(ext) {
		// Detection, not rejection: the extension is dangerous but not on
		// the configured blocklist.
		log.Warn("High risk extension passed blocklist", "filename", name, "extension", ext)
	}

	if !contentTypeMatches(contentType, ext) {
		p.logRejection(name, ext, ReasonMimeMismatch)
		return reject(ReasonMimeMismatch, ext, "file type does not match its extension"), nil
	}

	log.Info("File validation passed", "filename", name)
	return allow(), nil
}

// ValidateFilename is the lightweight pre-check: the same sequence minus the
// size and content-type steps, usable without a payload.
func (p *Pipeline) ValidateFilename(ctx context.Context, filename string) (Result, error) {
	if strings.TrimSpace(filename) == "" {
		return reject(ReasonEmptyOrInvalidInput, "", "filename is not valid"), nil
	}

	name := sanitizeFilename(filename)
	if name == "" {
		return reject(ReasonEmptyOrInvalidInput, "", "filename is not valid"), nil
	}

	if containsNullByte(name) {
		p.logRejection(name, "", ReasonNullByteInjection)
		return reject(ReasonNullByteInjection, "", "filename is not valid"), nil
	}

	if hasDoubleExtension(name) {
		ext := extractExtension(name)
		p.logRejection(name, ext, ReasonDoubleExtension)
		return reject(ReasonDoubleExtension, ext, "double extensions are not allowed"), nil
	}

	ext := extractExtension(name)

	blocked, err := p.blocked.CurrentBlockedSet(ctx)
	if err != nil {
		return Result{}, err
	}

	if _, found := blocked[ext]; found {
		p.logRejection(name, ext, ReasonExtensionBlocked)
		return reject(ReasonExtensionBlocked, ext, fmt.Sprintf("blocked extension: .%s", ext)), nil
	}

	if IsHighRisk(ext) {
		log.Warn("High risk extension passed blocklist", "filename", name, "extension", ext)
	}

	return allow(), nil
}

func (p *Pipeline) logRejection(filename, extension string, reason RejectReason) {
	log.Warn("File rejected", "filename", filename, "extension", extension, "reason", string(reason))
}

// sanitizeFilename strips markup-significant characters and line breaks so a
// crafted name cannot smuggle header or HTML injection into downstream
// rendering of the rejection message.
func sanitizeFilename(filename string) string {
	var b strings.Builder
	b.Grow(len(filename))
	for _, r := range filename {
		switch r {
		case '<', '>', '"', '\'', '&', '\r', '\n':
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

func containsNullByte(name string) bool {
	return strings.ContainsRune(name, 0) || strings.Contains(name, "%00")
}

// hasDoubleExtension flags names with consecutive dots, and names of three or
// more dot-separated segments where any segment between the first and the
// last is a high-risk extension. A name with a single dot is never flagged;
// a dangerous final segment is the blocklist check's job, not this one's.
func hasDoubleExtension(name string) bool {
	if strings.Contains(name, "..") {
		return true
	}

	parts := strings.Split(name, ".")
	if len(parts) < 3 {
		return false
	}

	for i := 1; i < len(parts)-1; i++ {
		if IsHighRisk(strings.ToLower(parts[i])) {
			log.Warn("Double extension detected", "segment", parts[i], "filename", name)
			return true
		}
	}

	return false
}

// extractExtension returns the lowercased text after the final dot, or the
// empty string when there is no dot or the dot is the final character.
func extractExtension(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx == -1 || idx == len(name)-1 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(name[idx+1:]))
}

// contentTypeMatches cross-checks the declared content type against the
// extension. A missing or unknown content type is tolerated unless the
// extension is high risk.
func contentTypeMatches(contentType, ext string) bool {
	if contentType == "" {
		return !IsHighRisk(ext)
	}

	allowed, found := contentTypeExtensions[strings.ToLower(contentType)]
	if found {
		_, ok := allowed[ext]
		return ok
	}

	return !IsHighRisk(ext)
}
