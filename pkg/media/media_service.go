package media

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"

	"recipe-vault/domain"
	"recipe-vault/internal/metrics"
	"recipe-vault/internal/utils/storage"

	"go.uber.org/zap"
	"golang.org/x/crypto/sha3"
)

const (
	urnPrefix = "urn:recipeimg:sha3-"
	keyPrefix = "recipe-images/"
)

var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

type (
	MediaService interface {
		UploadRecipeImage(ctx context.Context, data []byte) (domain.RecipeImage, error)
	}

	mediaService struct {
		s3       storage.AwsS3
		maxBytes int
		log      *zap.Logger
	}
)

func NewMediaService(s3 storage.AwsS3, maxBytes int, log *zap.Logger) MediaService {
	return &mediaService{
		s3:       s3,
		maxBytes: maxBytes,
		log:      log.Named("media"),
	}
}

// UploadRecipeImage stores an image under its SHA3-256 digest and returns
// the URN a visual_references block uses to point at it. Uploading the same
// bytes twice yields the same URN.
func (s *mediaService) UploadRecipeImage(ctx context.Context, data []byte) (domain.RecipeImage, error) {
	if len(data) == 0 {
		return domain.RecipeImage{}, fmt.Errorf("%w: empty file", domain.ErrInvalidImage)
	}
	if s.maxBytes > 0 && len(data) > s.maxBytes {
		return domain.RecipeImage{}, fmt.Errorf("%w: file larger than %d bytes", domain.ErrInvalidImage, s.maxBytes)
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowedContentTypes[contentType]
	if !ok {
		return domain.RecipeImage{}, fmt.Errorf("%w: unsupported content type %s", domain.ErrInvalidImage, contentType)
	}

	digest := sha3.Sum256(data)
	hexDigest := hex.EncodeToString(digest[:])

	url, err := s.s3.UploadFile(ctx, keyPrefix+"sha3-"+hexDigest+ext, data, contentType)
	if err != nil {
		s.log.Error("upload recipe image", zap.String("digest", hexDigest), zap.Error(err))
		return domain.RecipeImage{}, err
	}

	metrics.ImagesUploaded.Inc()
	return domain.RecipeImage{
		URN:         urnPrefix + hexDigest,
		URL:         url,
		ContentType: contentType,
		Size:        len(data),
	}, nil
}
