package services

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PhotoSnapshotter freezes a profile photo for a preview and turns the
// stored reference into something a client can display.
type PhotoSnapshotter interface {
	Snapshot(ctx context.Context, sneakPeekID, photo string) (string, error)
	URL(ctx context.Context, ref string) (string, error)
}

// PassthroughSnapshotter stores the photo reference as-is.
type PassthroughSnapshotter struct{}

func (PassthroughSnapshotter) Snapshot(_ context.Context, _ string, photo string) (string, error) {
	return photo, nil
}

func (PassthroughSnapshotter) URL(_ context.Context, ref string) (string, error) {
	return ref, nil
}

// S3PhotoSnapshotter copies the photo object to a preview-owned key so later
// profile edits do not change what the recipient sees.
type S3PhotoSnapshotter struct {
	Client    *s3.Client
	Presigner *s3.PresignClient
	Bucket    string
	Expiry    time.Duration
}

func NewS3PhotoSnapshotter(client *s3.Client, bucket string) *S3PhotoSnapshotter {
	return &S3PhotoSnapshotter{
		Client:    client,
		Presigner: s3.NewPresignClient(client),
		Bucket:    bucket,
		Expiry:    5 * time.Minute,
	}
}

func isExternalURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// SnapshotKey is the object key a preview's photo is copied to.
func SnapshotKey(sneakPeekID, photoKey string) string {
	return "sneak-peeks/" + sneakPeekID + "/" + path.Base(photoKey)
}

func copySource(bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return bucket + "/" + strings.Join(segments, "/")
}

func (s *S3PhotoSnapshotter) Snapshot(ctx context.Context, sneakPeekID, photo string) (string, error) {
	if isExternalURL(photo) {
		return photo, nil
	}
	key := SnapshotKey(sneakPeekID, photo)
	_, err := s.Client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.Bucket),
		Key:        aws.String(key),
		CopySource: aws.String(copySource(s.Bucket, photo)),
	})
	if err != nil {
		return "", fmt.Errorf("copy %s to %s: %w", photo, key, err)
	}
	return key, nil
}

// URL generates a presigned URL for reading a stored object.
func (s *S3PhotoSnapshotter) URL(ctx context.Context, ref string) (string, error) {
	if isExternalURL(ref) {
		return ref, nil
	}
	params := &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(ref),
	}
	presignedURL, err := s.Presigner.PresignGetObject(ctx, params, s3.WithPresignExpires(s.Expiry))
	if err != nil {
		return "", err
	}
	return presignedURL.URL, nil
}
