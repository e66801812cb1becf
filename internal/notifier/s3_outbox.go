package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"identity-token-service/config"
	"identity-token-service/internal/model"
	"identity-token-service/internal/util"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// objectPutter : часть s3.Client, нужная outbox
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Outbox складывает уведомления JSON-объектами в бакет, откуда их
// забирает почтовый воркер. Ключ: {prefix}outbox/{kind}/{yyyy-mm-dd}/{id}.json
type S3Outbox struct {
	client objectPutter
	bucket string
	prefix string
}

func NewS3Outbox(ctx context.Context, cfg *config.S3Config) (*S3Outbox, error) {
	var client *s3.Client

	if cfg.Local {
		client = s3.New(s3.Options{
			Region: cfg.Region,
			Credentials: credentials.NewStaticCredentialsProvider(
				"minioadmin",
				"minioadmin",
				"",
			),
			BaseEndpoint: aws.String(cfg.Endpoint),
			UsePathStyle: true,
		})

		if err := createBucketIfNotExists(ctx, client, cfg.Bucket); err != nil {
			return nil, err
		}
	} else {
		awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, util.LogError("[S3Outbox] ошибка загрузки AWS config", err)
		}
		client = s3.NewFromConfig(awsCfg)
	}

	return newS3Outbox(client, cfg.Bucket, cfg.Prefix), nil
}

func newS3Outbox(client objectPutter, bucket, prefix string) *S3Outbox {
	return &S3Outbox{client: client, bucket: bucket, prefix: prefix}
}

// createBucketIfNotExists создает бакет если он не существует
func createBucketIfNotExists(ctx context.Context, client *s3.Client, bucket string) error {
	_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	})
	if err == nil {
		return nil
	}

	_, err = client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return util.LogError("[S3Outbox] ошибка создания бакета", err)
	}

	slog.Info("[S3Outbox] бакет создан", "bucket", bucket)
	return nil
}

func (o *S3Outbox) Notify(ctx context.Context, notification *model.Notification) error {
	body, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("[S3Outbox] ошибка кодирования уведомления: %w", err)
	}

	_, err = o.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(o.bucket),
		Key:         aws.String(o.objectKey(notification)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return util.LogError("[S3Outbox] не удалось записать уведомление", err)
	}

	return nil
}

func (o *S3Outbox) objectKey(n *model.Notification) string {
	return fmt.Sprintf("%soutbox/%s/%s/%s.json", o.prefix, n.Kind, n.CreatedAt.UTC().Format("2006-01-02"), n.ID)
}
