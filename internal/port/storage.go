package port

import "context"

// ObjectStorage abstracts the read side of object storage. The validation
// engine only ever reads: registry files and signature images are downloaded,
// and reference signatures are handed to reviewers as short-lived links.
type ObjectStorage interface {
	Download(ctx context.Context, bucket, key string) ([]byte, error)
	PresignGet(ctx context.Context, bucket, key string) (string, error)
}
