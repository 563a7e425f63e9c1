package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"dailybright/internal/config"
	"dailybright/internal/middleware"
	"dailybright/internal/models"
	"dailybright/internal/repository"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultPhotoUploadDir       = "/tmp/dailybright/uploads"
	DefaultPhotoMaxUploadSizeMB = 5
	PhotoMaxDimension           = 1440
	WebPQuality                 = 75

	// UploadsRoute is where the upload directory is served.
	UploadsRoute = "/uploads"
)

// UploadPhotoInput is a raw upload.
type UploadPhotoInput struct {
	UserID  uint
	Bucket  string
	Content []byte
}

// PhotoService re-encodes uploads to WebP and stores them on disk.
type PhotoService struct {
	repo               repository.PhotoRepository
	uploadDir          string
	publicBaseURL      string
	maxUploadSizeBytes int64
}

// NewPhotoService returns a new PhotoService.
func NewPhotoService(repo repository.PhotoRepository, cfg *config.Config) *PhotoService {
	uploadDir := DefaultPhotoUploadDir
	maxUploadSizeMB := DefaultPhotoMaxUploadSizeMB
	baseURL := ""

	if cfg != nil {
		if cfg.PhotoUploadDir != "" {
			uploadDir = cfg.PhotoUploadDir
		}
		if cfg.PhotoMaxUploadMB > 0 {
			maxUploadSizeMB = cfg.PhotoMaxUploadMB
		}
		baseURL = cfg.PublicBaseURL
	}

	return &PhotoService{
		repo:               repo,
		uploadDir:          uploadDir,
		publicBaseURL:      strings.TrimRight(baseURL, "/"),
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// UploadDir is the directory served under UploadsRoute.
func (s *PhotoService) UploadDir() string {
	return s.uploadDir
}

// MaxUploadBytes is the largest accepted upload.
func (s *PhotoService) MaxUploadBytes() int64 {
	return s.maxUploadSizeBytes
}

// PublicURL returns the absolute URL a stored photo is served at.
func (s *PhotoService) PublicURL(p *models.Photo) string {
	return s.publicBaseURL + path.Join(UploadsRoute, p.Path)
}

// Upload validates, resizes and stores an image. Uploading identical bytes
// twice returns the first stored photo.
func (s *PhotoService) Upload(ctx context.Context, in UploadPhotoInput) (*models.Photo, error) {
	if in.UserID == 0 {
		return nil, models.NewValidationError("Invalid user")
	}
	if !isPhotoBucket(in.Bucket) {
		return nil, models.NewValidationError("Bucket must be entries or profiles")
	}
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}
	if detected := http.DetectContentType(in.Content); !strings.HasPrefix(detected, "image/") {
		return nil, models.NewValidationError("File must be an image")
	}

	decoded, _, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}

	resized := resizeToFit(decoded, PhotoMaxDimension, PhotoMaxDimension)
	encoded, err := encodeWebP(resized, WebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	sum := sha256.Sum256(encoded)
	hash := hex.EncodeToString(sum[:])

	existing, err := s.repo.GetByHash(ctx, in.UserID, in.Bucket, hash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	rel := path.Join(in.Bucket, strconv.FormatUint(uint64(in.UserID), 10), hash+".webp")
	if err := writeBytesToFile(filepath.Join(s.uploadDir, filepath.FromSlash(rel)), encoded); err != nil {
		return nil, models.NewInternalError(err)
	}

	b := resized.Bounds()
	photo := &models.Photo{
		UserID:      in.UserID,
		Bucket:      in.Bucket,
		Hash:        hash,
		Path:        rel,
		ContentType: "image/webp",
		SizeBytes:   int64(len(encoded)),
		Width:       b.Dx(),
		Height:      b.Dy(),
	}
	stored, err := s.repo.CreateIfAbsent(ctx, photo)
	if err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "photo stored",
		slog.String("bucket", stored.Bucket),
		slog.String("path", stored.Path),
		slog.Int64("bytes", stored.SizeBytes),
	)
	return stored, nil
}

// Release deletes the profile photo userID uploaded that rawURL points at.
// URLs outside the caller's profile bucket, including external ones, are
// left alone.
func (s *PhotoService) Release(ctx context.Context, userID uint, rawURL string) error {
	rel, ok := s.profilePath(userID, rawURL)
	if !ok {
		return nil
	}
	photo, err := s.repo.GetByPath(ctx, userID, rel)
	if err != nil || photo == nil {
		return err
	}
	if err := s.repo.Delete(ctx, photo.ID); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.uploadDir, filepath.FromSlash(rel))); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return models.NewInternalError(err)
	}

	middleware.Logger.InfoContext(ctx, "photo released",
		slog.String("bucket", photo.Bucket),
		slog.String("path", photo.Path),
	)
	return nil
}

func (s *PhotoService) profilePath(userID uint, rawURL string) (string, bool) {
	rel, ok := strings.CutPrefix(rawURL, s.publicBaseURL+UploadsRoute+"/")
	if !ok || rel == "" {
		return "", false
	}
	rel = path.Clean(rel)
	owner := path.Join(models.PhotoBucketProfiles, strconv.FormatUint(uint64(userID), 10)) + "/"
	if !strings.HasPrefix(rel, owner) {
		return "", false
	}
	return rel, true
}

func isPhotoBucket(bucket string) bool {
	return bucket == models.PhotoBucketEntries || bucket == models.PhotoBucketProfiles
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeBytesToFile(p string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o600)
}
