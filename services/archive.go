package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"contact-list/config"
	"contact-list/db"
	"contact-list/unitofwork"
)

// ObjectPutter is the part of the S3 client the archiver uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Snapshot is the archived document.
type Snapshot struct {
	TakenAt  time.Time     `json:"taken_at"`
	Contacts []ContactView `json:"contacts"`
}

// Archiver writes contact snapshots to an S3 bucket.
type Archiver struct {
	client ObjectPutter
	bucket string
	prefix string
	log    *slog.Logger
	now    func() time.Time
}

func NewArchiver(client ObjectPutter, cfg config.ArchiveConfig, log *slog.Logger) *Archiver {
	return &Archiver{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		log:    log,
		now:    time.Now,
	}
}

// NewS3Archiver builds an Archiver on an S3 client from the default AWS
// credential chain.
func NewS3Archiver(ctx context.Context, cfg config.ArchiveConfig, log *slog.Logger) (*Archiver, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewArchiver(s3.NewFromConfig(awsCfg), cfg, log), nil
}

// Archive uploads contacts as a JSON snapshot and returns the object key.
func (a *Archiver) Archive(ctx context.Context, contacts []ContactView) (string, error) {
	if a.bucket == "" {
		return "", errors.New("archive: no bucket configured")
	}
	if contacts == nil {
		contacts = []ContactView{}
	}
	taken := a.now().UTC()
	body, err := json.Marshal(Snapshot{TakenAt: taken, Contacts: contacts})
	if err != nil {
		return "", fmt.Errorf("archive: encode snapshot: %w", err)
	}

	key := fmt.Sprintf("%scontacts-%s.json", a.prefix, taken.Format("20060102T150405Z"))
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		ContentType: aws.String("application/json"),
		Body:        bytes.NewReader(body),
	})
	if err != nil {
		return "", fmt.Errorf("archive: put object %s: %w", key, err)
	}
	a.log.Info("contact snapshot archived", "bucket", a.bucket, "key", key, "contacts", len(contacts))
	return key, nil
}

// Snapshot reads the contact index through the envelope and archives it.
func (a *Archiver) Snapshot(ctx context.Context, e *unitofwork.Envelope, s *db.Session) (string, error) {
	contacts, err := unitofwork.Send[ContactIndex, []ContactView](ctx, e, s, ContactIndex{})
	if err != nil {
		return "", err
	}
	return a.Archive(ctx, contacts)
}
