package store

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 is a tiny in-memory stand-in for the GetObject/PutObject subset.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(req.URL.Path, "/")
	switch req.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		f.objects[path] = body
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Etag": {`"etag"`}},
			Body:       io.NopCloser(bytes.NewReader(nil)),
		}, nil
	case http.MethodGet:
		body, ok := f.objects[path]
		if !ok {
			return &http.Response{
				StatusCode: http.StatusNotFound,
				Header:     http.Header{"Content-Type": {"application/xml"}},
				Body: io.NopCloser(strings.NewReader(
					`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)),
			}, nil
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": {"application/json"}},
			Body:       io.NopCloser(bytes.NewReader(body)),
		}, nil
	}
	return &http.Response{StatusCode: http.StatusMethodNotAllowed, Body: io.NopCloser(bytes.NewReader(nil))}, nil
}

func newFakeS3Store(t *testing.T) (Store, *fakeS3) {
	fake := &fakeS3{objects: make(map[string][]byte)}
	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")),
	)
	require.NoError(t, err)

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: fake}
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String("https://mock.s3.local")
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})
	return NewS3StoreFromClient(client, "gear", "tracker/"), fake
}

func TestS3Store_RoundTrip(t *testing.T) {
	s, fake := newFakeS3Store(t)
	ctx := context.Background()

	_, found, err := s.Load(ctx, KeyEquipment)
	require.NoError(t, err)
	assert.False(t, found, "NoSuchKey should read as an absent collection")

	require.NoError(t, s.Save(ctx, KeyEquipment, []byte(`[{"id":"a"}]`)))
	assert.Contains(t, fake.objects, "gear/tracker/equipment.json")

	got, found, err := s.Load(ctx, KeyEquipment)
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `[{"id":"a"}]`, string(got))
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Config{})
	assert.Error(t, err)
}
