package storage

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// Sentinel errors for object retrieval.
var (
	ErrNotFound     = errors.New("storage: object not found")
	ErrAccessDenied = errors.New("storage: access denied")
	ErrTransport    = errors.New("storage: transport error")
)

// wrapS3Error maps S3 failures onto the sentinel errors above.
// The original error is formatted with %v so callers match on the sentinels
// with errors.Is rather than on AWS types.
func wrapS3Error(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%w: %v", ErrAccessDenied, err)
		}
	}

	var notFound *types.NoSuchKey
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	return fmt.Errorf("%w: %v", ErrTransport, err)
}
