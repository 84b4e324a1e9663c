package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"bookingrule/internal/domain/rules"
)

const maxRulesObjectSize = 4 << 20

// RulesObject reads and writes the rule table snapshot stored as one JSON object.
type RulesObject struct {
	bucket         string
	key            string
	client         *minio.Client
	logger         *slog.Logger
	bucketInitOnce sync.Once
	bucketInitErr  error
}

func NewRulesObject(endpoint string, useSSL bool, accessKey, secretKey, bucket, key string, logger *slog.Logger) (*RulesObject, error) {
	cleanEndpoint := strings.TrimSpace(endpoint)
	if cleanEndpoint == "" {
		return nil, errors.New("s3: endpoint is required")
	}
	if bucket = strings.TrimSpace(bucket); bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}
	if key = strings.Trim(strings.TrimSpace(key), "/"); key == "" {
		return nil, errors.New("s3: object key is required")
	}
	client, err := minio.New(parseEndpoint(cleanEndpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(accessKey), strings.TrimSpace(secretKey), ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RulesObject{bucket: bucket, key: key, client: client, logger: logger}, nil
}

// Load fetches and parses the snapshot.
func (o *RulesObject) Load(ctx context.Context) (rules.Table, error) {
	obj, err := o.client.GetObject(ctx, o.bucket, o.key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("s3: get object: %w", err)
	}
	defer obj.Close()
	data, err := io.ReadAll(io.LimitReader(obj, maxRulesObjectSize+1))
	if err != nil {
		return nil, fmt.Errorf("s3: read %s/%s: %w", o.bucket, o.key, err)
	}
	if len(data) > maxRulesObjectSize {
		return nil, fmt.Errorf("s3: %s/%s exceeds %d bytes", o.bucket, o.key, maxRulesObjectSize)
	}
	table, err := rules.ParseTable(data)
	if err != nil {
		return nil, err
	}
	o.logger.Info("rule snapshot loaded", "bucket", o.bucket, "key", o.key, "selectors", len(table))
	return table, nil
}

// Publish uploads table as the new snapshot, creating the bucket on first use.
func (o *RulesObject) Publish(ctx context.Context, table rules.Table) error {
	if err := table.Validate(); err != nil {
		return err
	}
	if err := o.ensureBucket(ctx); err != nil {
		return err
	}
	data, err := json.Marshal(struct {
		InventoryRules rules.Table `json:"inventory_rules"`
	}{InventoryRules: table})
	if err != nil {
		return err
	}
	_, err = o.client.PutObject(ctx, o.bucket, o.key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("s3: put object: %w", err)
	}
	o.logger.Info("rule snapshot published", "bucket", o.bucket, "key", o.key, "selectors", len(table))
	return nil
}

func (o *RulesObject) ensureBucket(ctx context.Context) error {
	o.bucketInitOnce.Do(func() {
		exists, err := o.client.BucketExists(ctx, o.bucket)
		if err != nil {
			o.bucketInitErr = fmt.Errorf("s3: check bucket: %w", err)
			return
		}
		if exists {
			return
		}
		if err := o.client.MakeBucket(ctx, o.bucket, minio.MakeBucketOptions{}); err != nil {
			o.bucketInitErr = fmt.Errorf("s3: create bucket: %w", err)
		}
	})
	return o.bucketInitErr
}

func parseEndpoint(endpoint string) string {
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return endpoint
}
