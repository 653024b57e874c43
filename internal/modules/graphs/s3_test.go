package graphs

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/qdo/internal/modules/graph"
	testutil "github.com/aristath/qdo/internal/testing"
)

type fakeDownloader struct {
	objects map[string][]byte
	err     error
	calls   int
}

func (f *fakeDownloader) Download(_ context.Context, w io.WriterAt, input *s3.GetObjectInput, _ ...func(*manager.Downloader)) (int64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	data, ok := f.objects[*input.Bucket+"/"+*input.Key]
	if !ok {
		return 0, &types.NoSuchKey{}
	}
	n, err := w.WriteAt(data, 0)
	return int64(n), err
}

func TestParseS3URI(t *testing.T) {
	bucket, key, err := ParseS3URI("s3://graphs/weekly/sample.yaml")
	require.NoError(t, err)
	assert.Equal(t, "graphs", bucket)
	assert.Equal(t, "weekly/sample.yaml", key)

	for _, bad := range []string{"s3://bucket", "s3://bucket/", "http://bucket/key", "s3:///key"} {
		_, _, err := ParseS3URI(bad)
		assert.Error(t, err, bad)
	}
}

func TestS3Source_Load(t *testing.T) {
	d := &fakeDownloader{objects: map[string][]byte{
		"graphs/sample.json": []byte(testutil.SampleJSON),
		"graphs/tiny.yaml":   []byte("edges:\n  - {u: 0, v: 1, weight: 4}\n"),
	}}
	src := NewS3Source(d, zerolog.Nop())

	g, err := src.Load(context.Background(), "s3://graphs/sample.json")
	require.NoError(t, err)
	assert.Equal(t, 6, g.NumEdges())

	g, err = src.Load(context.Background(), "s3://graphs/tiny.yaml")
	require.NoError(t, err)
	assert.Equal(t, 4.0, g.TotalWeight())
}

func TestS3Source_MissingObjectIsNotFound(t *testing.T) {
	src := NewS3Source(&fakeDownloader{}, zerolog.Nop())

	for i := 0; i < 10; i++ {
		_, err := src.Load(context.Background(), "s3://graphs/missing.json")
		assert.ErrorIs(t, err, ErrNotFound)
	}
}

func TestS3Source_BadDocumentIsInvalidGraph(t *testing.T) {
	d := &fakeDownloader{objects: map[string][]byte{"graphs/bad.json": []byte("{")}}
	_, err := NewS3Source(d, zerolog.Nop()).Load(context.Background(), "s3://graphs/bad.json")
	assert.ErrorIs(t, err, graph.ErrInvalidGraph)
}

func TestS3Source_BadDocumentHidesContents(t *testing.T) {
	d := &fakeDownloader{objects: map[string][]byte{"graphs/secrets.yaml": []byte("edges: hunter2-secret-token\n")}}
	_, err := NewS3Source(d, zerolog.Nop()).Load(context.Background(), "s3://graphs/secrets.yaml")
	require.ErrorIs(t, err, graph.ErrInvalidGraph)
	assert.NotContains(t, err.Error(), "hunter2")
}

func TestS3Source_SizeLimit(t *testing.T) {
	d := &fakeDownloader{objects: map[string][]byte{
		"graphs/huge.json": []byte(strings.Repeat(" ", int(MaxDocumentBytes)+1)),
	}}
	_, err := NewS3Source(d, zerolog.Nop()).Load(context.Background(), "s3://graphs/huge.json")
	assert.ErrorIs(t, err, graph.ErrInvalidGraph)
}

func TestS3Source_RestrictTo(t *testing.T) {
	d := &fakeDownloader{objects: map[string][]byte{
		"graphs/sample.json":  []byte(testutil.SampleJSON),
		"private/sample.json": []byte(testutil.SampleJSON),
	}}
	src := NewS3Source(d, zerolog.Nop()).RestrictTo("graphs", " ")

	_, err := src.Load(context.Background(), "s3://graphs/sample.json")
	require.NoError(t, err)

	_, err = src.Load(context.Background(), "s3://private/sample.json")
	assert.ErrorIs(t, err, ErrSourceNotAllowed)
	assert.Equal(t, 1, d.calls, "rejected buckets are never downloaded")

	_, err = NewS3Source(d, zerolog.Nop()).RestrictTo().Load(context.Background(), "s3://graphs/sample.json")
	assert.ErrorIs(t, err, ErrSourceNotAllowed)

	_, err = src.Load(context.Background(), "s3://graphs")
	assert.ErrorIs(t, err, ErrSourceNotAllowed)
}

func TestS3Source_OpensCircuitAfterRepeatedFailures(t *testing.T) {
	d := &fakeDownloader{err: errors.New("connection reset")}
	src := NewS3Source(d, zerolog.Nop())

	for i := 0; i < 5; i++ {
		_, err := src.Load(context.Background(), "s3://graphs/sample.json")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrSourceUnavailable)
	}

	_, err := src.Load(context.Background(), "s3://graphs/sample.json")
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Equal(t, 5, d.calls)
}
