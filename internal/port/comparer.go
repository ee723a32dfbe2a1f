package port

import "context"

// CompareInput carries the two signature images for visual comparison.
type CompareInput struct {
	CapturedImage  []byte
	CapturedType   string
	ReferenceImage []byte
	ReferenceType  string
	Task           string
}

// CompareOutput is the parsed result of the external comparison service.
type CompareOutput struct {
	SimilarityScore float64
	Recommendation  string
	Analysis        string
}

// SignatureComparer abstracts the external signature-comparison service.
type SignatureComparer interface {
	Compare(ctx context.Context, input CompareInput) (*CompareOutput, error)
}

// ImageFetcher resolves a stored signature image reference to raw bytes and
// a content type. References may be s3:// URIs or http(s) URLs.
type ImageFetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, string, error)
}
