package services

import (
	"bytes"
	"context"
	"fmt"
	"freelyforms-backend/config"
	"freelyforms-backend/internal/utils"
	"freelyforms-backend/pkg/logger"
	"strings"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExportArchiver keeps a copy of every generated export.
type ExportArchiver interface {
	Archive(ctx context.Context, prefabID string, data []byte) (string, error)
}

// Archiver receives each export when set. Archive failures never fail the
// export itself.
var Archiver ExportArchiver

// OSSArchiver uploads exports to an Aliyun OSS bucket with STS credentials.
type OSSArchiver struct {
	config *config.Config
}

func NewOSSArchiver(cfg *config.Config) *OSSArchiver {
	return &OSSArchiver{config: cfg}
}

// Archive stores data under exports/<prefab>/<yyyy>/<mm>/<uuid>.xlsx and
// returns the object URL. A failed upload is retried once with fresh
// credentials.
func (a *OSSArchiver) Archive(ctx context.Context, prefabID string, data []byte) (string, error) {
	objectKey := exportObjectKey(prefabID, time.Now())

	err := a.put(ctx, objectKey, data)
	if err != nil {
		logger.Log.Warn("Export upload failed, retrying once", zap.String("object_key", objectKey), zap.Error(err))
		err = a.put(ctx, objectKey, data)
	}
	if err != nil {
		return "", fmt.Errorf("upload failed after retry: %w", err)
	}

	return objectURL(a.config.OSSEndpoint, a.config.OSSBucketName, objectKey), nil
}

func (a *OSSArchiver) put(ctx context.Context, objectKey string, data []byte) error {
	creds, err := GetOSSTSToken(a.config)
	if err != nil {
		return fmt.Errorf("failed to get STS token: %w", err)
	}

	client, err := oss.New(
		a.config.OSSEndpoint,
		creds.AccessKeyId,
		creds.AccessKeySecret,
		oss.SecurityToken(creds.SecurityToken),
		oss.Timeout(10, 60),
		oss.HTTPClient(utils.NewHTTPClient(90*time.Second)),
	)
	if err != nil {
		return fmt.Errorf("failed to create OSS client: %w", err)
	}

	bucket, err := client.Bucket(a.config.OSSBucketName)
	if err != nil {
		return fmt.Errorf("failed to get bucket: %w", err)
	}

	return bucket.PutObject(objectKey, bytes.NewReader(data),
		oss.ContentType(XLSXContentType),
		oss.WithContext(ctx),
	)
}

func exportObjectKey(prefabID string, at time.Time) string {
	return fmt.Sprintf("exports/%s/%d/%02d/%s.xlsx", prefabID, at.Year(), at.Month(), uuid.New().String())
}

// objectURL builds the virtual-hosted URL of an object.
func objectURL(endpoint, bucket, objectKey string) string {
	scheme, host, ok := strings.Cut(endpoint, "://")
	if !ok {
		scheme, host = "https", endpoint
	}
	return fmt.Sprintf("%s://%s.%s/%s", scheme, bucket, host, objectKey)
}
