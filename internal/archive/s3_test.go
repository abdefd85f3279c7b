package archive

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Archiver_Archive(t *testing.T) {
	fake := &fakeS3{}
	a := NewWithClient(fake, "uploads", "/imports/")
	id := uuid.New()

	loc, err := a.Archive(context.Background(), id, "materias.csv", []byte("codigo,nombre\n"))
	require.NoError(t, err)

	assert.Equal(t, "s3://uploads/imports/"+id.String()+"/materias.csv", loc)
	assert.Equal(t, "uploads", aws.ToString(fake.input.Bucket))
	assert.Equal(t, "text/csv", aws.ToString(fake.input.ContentType))
	assert.Equal(t, int64(14), aws.ToInt64(fake.input.ContentLength))
	assert.Equal(t, "codigo,nombre\n", string(fake.body))
}

func TestS3Archiver_KeyStripsDirectories(t *testing.T) {
	a := NewWithClient(&fakeS3{}, "b", "imports")
	id := uuid.New()

	assert.Equal(t, "imports/"+id.String()+"/u.csv", a.Key(id, `C:\Users\ana\u.csv`))
	assert.Equal(t, "imports/"+id.String()+"/u.csv", a.Key(id, "../../u.csv"))
	assert.Equal(t, "imports/"+id.String()+"/import.csv", a.Key(id, ""))
}

func TestS3Archiver_Error(t *testing.T) {
	a := NewWithClient(&fakeS3{err: errors.New("access denied")}, "b", "")
	_, err := a.Archive(context.Background(), uuid.New(), "x.csv", nil)
	assert.ErrorContains(t, err, "access denied")
}
