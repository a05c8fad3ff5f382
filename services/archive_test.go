package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contact-list/config"
	"contact-list/logging"
)

type fakePutter struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.inputs = append(f.inputs, params)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func fixedArchiver(client ObjectPutter, bucket string) *Archiver {
	a := NewArchiver(client, config.ArchiveConfig{Bucket: bucket, Prefix: "snapshots/"}, logging.Discard())
	a.now = func() time.Time { return time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC) }
	return a
}

func TestArchiver_Archive(t *testing.T) {
	putter := &fakePutter{}
	a := fixedArchiver(putter, "contact-snapshots")

	key, err := a.Archive(context.Background(), []ContactView{{ID: "1", Name: "Abe", Email: "abe@example.com"}})
	require.NoError(t, err)
	assert.Equal(t, "snapshots/contacts-20261014T093000Z.json", key)

	require.Len(t, putter.inputs, 1)
	in := putter.inputs[0]
	assert.Equal(t, "contact-snapshots", aws.ToString(in.Bucket))
	assert.Equal(t, key, aws.ToString(in.Key))
	assert.Equal(t, "application/json", aws.ToString(in.ContentType))

	var snap Snapshot
	require.NoError(t, json.Unmarshal(putter.bodies[0], &snap))
	assert.Equal(t, time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC), snap.TakenAt)
	assert.Equal(t, []ContactView{{ID: "1", Name: "Abe", Email: "abe@example.com"}}, snap.Contacts)
}

func TestArchiver_EmptyListIsArray(t *testing.T) {
	putter := &fakePutter{}
	_, err := fixedArchiver(putter, "b").Archive(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, string(putter.bodies[0]), `"contacts":[]`)
}

func TestArchiver_NoBucket(t *testing.T) {
	putter := &fakePutter{}
	_, err := fixedArchiver(putter, "").Archive(context.Background(), nil)
	assert.Error(t, err)
	assert.Empty(t, putter.inputs)
}

func TestArchiver_PutFailure(t *testing.T) {
	boom := errors.New("access denied")
	_, err := fixedArchiver(&fakePutter{err: boom}, "b").Archive(context.Background(), nil)
	assert.ErrorIs(t, err, boom)
}

func TestArchiver_SnapshotArchivesSortedIndex(t *testing.T) {
	f := newFixture(t)
	send[AddContact, AddContactResponse](t, f, AddContact{Email: "ben@example.com", Name: "Ben"})
	send[AddContact, AddContactResponse](t, f, AddContact{Email: "abe@example.com", Name: "Abe"})

	putter := &fakePutter{}
	_, err := fixedArchiver(putter, "b").Snapshot(context.Background(), f.envelope, f.session())
	require.NoError(t, err)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(putter.bodies[0], &snap))
	require.Len(t, snap.Contacts, 2)
	assert.Equal(t, "Abe", snap.Contacts[0].Name)
	assert.Equal(t, "Ben", snap.Contacts[1].Name)
}
