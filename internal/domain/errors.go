package domain

import "errors"

var (
	ErrNotFound             = errors.New("resource not found")
	ErrProjectNotFound      = errors.New("project not found")
	ErrDocumentNotFound     = errors.New("document not found")
	ErrNoReferenceData      = errors.New("no registry configured for project")
	ErrNoLineItems          = errors.New("no line items found")
	ErrInvalidExtractedData = errors.New("extracted data does not match expected format")
	ErrDuplicateColumn      = errors.New("duplicate column header")
)
