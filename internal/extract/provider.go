// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract drives source documents through the generation API and
// turns each one into a structured extraction record. The extraction
// client never returns an error: every failure path becomes the failure
// variant of the record, so one bad source can never abort a batch.
package extract

import "context"

// Upload is an opaque handle to a document held by the generation
// provider. Name is the provider-side resource name used for deletion;
// URI and MIMEType are referenced from generation calls.
type Upload struct {
	Name     string
	URI      string
	MIMEType string
}

// Provider abstracts the generation API so tests can supply a mock.
// A provider-client value is constructed once per run and passed into
// each extraction call; there is no ambient shared client.
type Provider interface {
	// Upload transfers a local document to the provider and returns a
	// handle for it.
	Upload(ctx context.Context, path string) (Upload, error)

	// Generate invokes the model with the uploaded document and prompt,
	// returning the raw response text.
	Generate(ctx context.Context, doc Upload, prompt string) (string, error)

	// Delete releases an uploaded document. Callers treat deletion as
	// best-effort and ignore errors.
	Delete(ctx context.Context, doc Upload) error
}
