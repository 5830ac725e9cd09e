package tasks

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type AWSRepository interface {
	ListObjects(ctx context.Context, bucket, prefix string) ([]string, error)
	GetObject(ctx context.Context, bucket, key string) (*s3.GetObjectOutput, error)
	DownloadFile(ctx context.Context, bucket, key, dest string) error
	UploadFile(ctx context.Context, bucket, key, src string) error
	RemoveObject(ctx context.Context, bucket, key string) error
}

// ArtifactPrefix is the object key prefix of a task's uploaded outputs.
func ArtifactPrefix(taskID string) string {
	return "tasks/" + taskID + "/"
}
