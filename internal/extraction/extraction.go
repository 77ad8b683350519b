// Package extraction turns resume and form documents into text.
// Plain-text and markdown sources are read as-is; PDFs are rendered page by
// page and transcribed by a vision-capable model guided by Instructions.
package extraction

import (
	"context"
	"errors"
)

// Errors returned by Extract. Every failure wraps ErrExtractionFailed.
var (
	ErrExtractionFailed  = errors.New("extraction failed")
	ErrDocumentTooLarge  = errors.New("document exceeds maximum size")
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

// Document is the extracted text of one source page. Text sources yield a
// single Document with Page 1.
type Document struct {
	Source string
	Page   int
	Text   string
}

// Instructions steer how a document is transcribed.
type Instructions struct {
	ContentGuideline string
	Formatting       string
}

// ResumeInstructions groups resume facts under headers.
func ResumeInstructions() Instructions {
	return Instructions{
		ContentGuideline: "This is a resume, gather related facts together and format it as bullet points with headers",
	}
}

// FormInstructions lists the fields an application form asks for.
func FormInstructions() Instructions {
	return Instructions{
		ContentGuideline: "This is a job application form. Create a list of all the fields that need to be filled in.",
		Formatting:       "Return bulleted list of the fields ONLY.",
	}
}

// Extractor extracts text documents from the source named by ref.
type Extractor interface {
	Extract(ctx context.Context, ref string, in Instructions) ([]Document, error)
}
