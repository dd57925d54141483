package application

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/ericfisherdev/autoreview/internal/domain/model"
)

// Part is one uploaded multipart section of a review request.
type Part struct {
	Data        []byte
	ContentType string // Declared media type; may be empty or carry parameters.
	Filename    string
}

// ReviewRequest holds the three uploaded parts of a review run. It is
// created per incoming call and owned by the request-handling scope.
type ReviewRequest struct {
	Desc      Part
	Checklist Part
	Archive   Part
}

// Multipart field names, matching the documented API contract.
const (
	PartDesc      = "desc"
	PartChecklist = "checklist"
	PartArchive   = "project_zip"
)

var documentTypes = map[string]bool{
	"text/html":             true,
	"application/xhtml+xml": true,
	"text/plain":            true,
	"text/markdown":         true,
}

var archiveTypes = map[string]bool{
	"application/zip":              true,
	"application/x-zip-compressed": true,
	"application/x-tar":            true,
	"application/gzip":             true,
	"application/x-gzip":           true,
}

var archiveExtensions = map[string]bool{
	".zip": true,
	".tar": true,
	".tgz": true,
	".gz":  true,
}

// ValidateRequest checks the three uploaded parts for presence, non-empty
// content, size, and acceptable declared media types. It fails with
// *model.ValidationError before any staging or generation happens.
func ValidateRequest(req ReviewRequest, maxPartBytes int64) error {
	if err := validateDocument(PartDesc, req.Desc, maxPartBytes); err != nil {
		return err
	}
	if err := validateDocument(PartChecklist, req.Checklist, maxPartBytes); err != nil {
		return err
	}
	return validateArchive(req.Archive, maxPartBytes)
}

func validateDocument(part string, p Part, maxPartBytes int64) error {
	if err := validateCommon(part, p, maxPartBytes); err != nil {
		return err
	}
	mt := mediaType(p.ContentType)
	if mt == "" || documentTypes[mt] {
		return nil
	}
	return &model.ValidationError{
		Part:   part,
		Reason: fmt.Sprintf("unsupported media type %q, want an HTML or text document", mt),
	}
}

func validateArchive(p Part, maxPartBytes int64) error {
	if err := validateCommon(PartArchive, p, maxPartBytes); err != nil {
		return err
	}
	mt := mediaType(p.ContentType)
	if archiveTypes[mt] {
		return nil
	}
	// Browsers and curl often send archives as octet-stream; fall back to
	// the filename extension.
	if mt == "" || mt == "application/octet-stream" {
		if archiveExtensions[strings.ToLower(filepath.Ext(p.Filename))] {
			return nil
		}
	}
	return &model.ValidationError{
		Part:   PartArchive,
		Reason: fmt.Sprintf("unsupported media type %q, want a zip or tar archive", mt),
	}
}

func validateCommon(part string, p Part, maxPartBytes int64) error {
	if len(p.Data) == 0 {
		return &model.ValidationError{Part: part, Reason: "missing or empty"}
	}
	if int64(len(p.Data)) > maxPartBytes {
		return &model.ValidationError{
			Part:   part,
			Reason: fmt.Sprintf("exceeds upload limit of %d bytes", maxPartBytes),
		}
	}
	return nil
}

// mediaType parses the base media type out of a Content-Type value,
// ignoring parameters such as charset. Unparsable values normalize to "".
func mediaType(ct string) string {
	if ct == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ""
	}
	return strings.ToLower(mt)
}
