package application_test

import (
	"bytes"
	"testing"

	"github.com/ericfisherdev/autoreview/internal/application"
	"github.com/ericfisherdev/autoreview/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMaxPartBytes = 1 << 20

func TestValidateRequest_Valid(t *testing.T) {
	assert.NoError(t, application.ValidateRequest(validRequest(), testMaxPartBytes))
}

func TestValidateRequest_AcceptedVariants(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*application.ReviewRequest)
	}{
		{
			name: "charset parameter on document",
			mutate: func(r *application.ReviewRequest) {
				r.Desc.ContentType = "text/html; charset=utf-8"
			},
		},
		{
			name: "plain text checklist",
			mutate: func(r *application.ReviewRequest) {
				r.Checklist.ContentType = "text/plain"
			},
		},
		{
			name: "empty content type",
			mutate: func(r *application.ReviewRequest) {
				r.Desc.ContentType = ""
			},
		},
		{
			name: "octet-stream archive with zip extension",
			mutate: func(r *application.ReviewRequest) {
				r.Archive.ContentType = "application/octet-stream"
			},
		},
		{
			name: "tarball archive",
			mutate: func(r *application.ReviewRequest) {
				r.Archive.ContentType = "application/gzip"
				r.Archive.Filename = "project.tgz"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			assert.NoError(t, application.ValidateRequest(req, testMaxPartBytes))
		})
	}
}

func TestValidateRequest_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*application.ReviewRequest)
		wantPart string
	}{
		{
			name:     "missing description",
			mutate:   func(r *application.ReviewRequest) { r.Desc.Data = nil },
			wantPart: application.PartDesc,
		},
		{
			name:     "empty checklist",
			mutate:   func(r *application.ReviewRequest) { r.Checklist.Data = []byte{} },
			wantPart: application.PartChecklist,
		},
		{
			name:     "missing archive",
			mutate:   func(r *application.ReviewRequest) { r.Archive.Data = nil },
			wantPart: application.PartArchive,
		},
		{
			name: "oversized archive",
			mutate: func(r *application.ReviewRequest) {
				r.Archive.Data = bytes.Repeat([]byte{0}, testMaxPartBytes+1)
			},
			wantPart: application.PartArchive,
		},
		{
			name: "image posing as description",
			mutate: func(r *application.ReviewRequest) {
				r.Desc.ContentType = "image/png"
			},
			wantPart: application.PartDesc,
		},
		{
			name: "archive with document media type",
			mutate: func(r *application.ReviewRequest) {
				r.Archive.ContentType = "text/html"
			},
			wantPart: application.PartArchive,
		},
		{
			name: "octet-stream archive with unknown extension",
			mutate: func(r *application.ReviewRequest) {
				r.Archive.ContentType = "application/octet-stream"
				r.Archive.Filename = "project.rar"
			},
			wantPart: application.PartArchive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := application.ValidateRequest(req, testMaxPartBytes)

			var validationErr *model.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.wantPart, validationErr.Part)
		})
	}
}

func TestSelectMode(t *testing.T) {
	assert.Equal(t, model.ModeOnline, application.SelectMode(true))
	assert.Equal(t, model.ModeOffline, application.SelectMode(false))
}
