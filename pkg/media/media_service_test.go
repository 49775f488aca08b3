package media

import (
	"context"
	"encoding/hex"
	"errors"
	"regexp"
	"testing"

	"recipe-vault/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/sha3"
)

type fakeS3 struct {
	keys  []string
	types []string
	err   error
}

func (f *fakeS3) UploadFile(_ context.Context, key string, _ []byte, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	f.types = append(f.types, contentType)
	return "https://bucket.example/" + key, nil
}

// Smallest valid PNG header followed by padding.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

func TestUploadRecipeImage(t *testing.T) {
	store := &fakeS3{}
	svc := NewMediaService(store, 1<<20, zaptest.NewLogger(t))

	image, err := svc.UploadRecipeImage(context.Background(), pngBytes)
	require.NoError(t, err)

	digest := sha3.Sum256(pngBytes)
	want := "urn:recipeimg:sha3-" + hex.EncodeToString(digest[:])
	assert.Equal(t, want, image.URN)
	assert.Regexp(t, regexp.MustCompile(`^urn:recipeimg:sha3-[a-f0-9]{64}$`), image.URN)
	assert.Equal(t, "image/png", image.ContentType)
	assert.Equal(t, len(pngBytes), image.Size)
	require.Len(t, store.keys, 1)
	assert.Equal(t, "recipe-images/sha3-"+hex.EncodeToString(digest[:])+".png", store.keys[0])
	assert.Equal(t, "https://bucket.example/"+store.keys[0], image.URL)

	again, err := svc.UploadRecipeImage(context.Background(), pngBytes)
	require.NoError(t, err)
	assert.Equal(t, image.URN, again.URN)
}

func TestUploadRecipeImage_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		max  int
	}{
		{"empty", nil, 1 << 20},
		{"not an image", []byte("plain text, definitely not a picture"), 1 << 20},
		{"too large", pngBytes, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeS3{}
			svc := NewMediaService(store, tt.max, zaptest.NewLogger(t))

			_, err := svc.UploadRecipeImage(context.Background(), tt.data)
			assert.ErrorIs(t, err, domain.ErrInvalidImage)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Empty(t, store.keys)
		})
	}
}

func TestUploadRecipeImage_StorageFailure(t *testing.T) {
	boom := errors.New("s3 unavailable")
	svc := NewMediaService(&fakeS3{err: boom}, 0, zaptest.NewLogger(t))

	_, err := svc.UploadRecipeImage(context.Background(), pngBytes)
	assert.ErrorIs(t, err, boom)
}
