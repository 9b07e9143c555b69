package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"murmur/internal/models"
	"murmur/internal/validation"

	"github.com/google/uuid"
)

// UploadURLTTL is how long a presigned upload URL stays valid.
const UploadURLTTL = 15 * time.Minute

const (
	maxImageBytes = 5 << 20
	maxVideoBytes = 50 << 20
)

// uploadTypes maps allowed content types to their default extension and size cap.
var uploadTypes = map[string]struct {
	ext     string
	maxSize int64
}{
	"image/jpeg": {".jpg", maxImageBytes},
	"image/png":  {".png", maxImageBytes},
	"image/gif":  {".gif", maxImageBytes},
	"image/webp": {".webp", maxImageBytes},
	"video/mp4":  {".mp4", maxVideoBytes},
	"video/webm": {".webm", maxVideoBytes},
}

// Presigner signs direct-upload URLs against the object store.
type Presigner interface {
	PresignPut(ctx context.Context, key string, ttl time.Duration) (string, error)
	PublicURL(key string) string
}

type StorageService struct {
	presigner Presigner
	now       func() time.Time
}

type UploadURLInput struct {
	UserID      uint
	Filename    string
	ContentType string
	Size        int64
}

// UploadURL is what a client needs to PUT a file and reference it afterwards.
type UploadURL struct {
	UploadURL string    `json:"uploadUrl"`
	ObjectKey string    `json:"objectKey"`
	PublicURL string    `json:"publicUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func NewStorageService(presigner Presigner) *StorageService {
	return &StorageService{presigner: presigner, now: time.Now}
}

// CreateUploadURL validates an upload request and returns a presigned PUT URL
// under uploads/<userID>/.
func (s *StorageService) CreateUploadURL(ctx context.Context, in UploadURLInput) (*UploadURL, error) {
	contentType := strings.ToLower(strings.TrimSpace(in.ContentType))
	kind, ok := uploadTypes[contentType]
	if !ok {
		return nil, models.NewValidationError("Unsupported content type")
	}
	if in.Size <= 0 {
		return nil, models.NewValidationError("File size is required")
	}
	if in.Size > kind.maxSize {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %d MB)", kind.maxSize>>20))
	}

	ext, err := validation.FileExtension(in.Filename)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if !validExtension(ext) {
		ext = kind.ext
	}
	key := fmt.Sprintf("uploads/%d/%s%s", in.UserID, uuid.NewString(), ext)

	signed, err := s.presigner.PresignPut(ctx, key, UploadURLTTL)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	return &UploadURL{
		UploadURL: signed,
		ObjectKey: key,
		PublicURL: s.presigner.PublicURL(key),
		ExpiresAt: s.now().Add(UploadURLTTL).UTC(),
	}, nil
}

func validExtension(ext string) bool {
	if len(ext) < 2 || len(ext) > 6 {
		return false
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
