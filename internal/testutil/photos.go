// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"time"

	"dailybright/internal/models"
)

// PhotoRepoStub is an in-memory photo repository for tests.
type PhotoRepoStub struct {
	mu     sync.Mutex
	items  map[string]*models.Photo
	nextID uint
}

// NewPhotoRepoStub creates an empty PhotoRepoStub.
func NewPhotoRepoStub() *PhotoRepoStub {
	return &PhotoRepoStub{items: make(map[string]*models.Photo), nextID: 1}
}

func photoKey(userID uint, bucket, hash string) string {
	return fmt.Sprintf("%d/%s/%s", userID, bucket, hash)
}

// GetByHash returns the photo userID stored in bucket with hash, or nil, nil.
func (s *PhotoRepoStub) GetByHash(_ context.Context, userID uint, bucket, hash string) (*models.Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[photoKey(userID, bucket, hash)], nil
}

// GetByPath returns the photo userID stored at path, or nil, nil.
func (s *PhotoRepoStub) GetByPath(_ context.Context, userID uint, path string) (*models.Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.items {
		if p.UserID == userID && p.Path == path {
			return p, nil
		}
	}
	return nil, nil
}

// Delete removes the photo with id if present.
func (s *PhotoRepoStub) Delete(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, p := range s.items {
		if p.ID == id {
			delete(s.items, key)
		}
	}
	return nil
}

// CreateIfAbsent stores photo unless the same user, bucket and hash exist.
func (s *PhotoRepoStub) CreateIfAbsent(_ context.Context, photo *models.Photo) (*models.Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := photoKey(photo.UserID, photo.Bucket, photo.Hash)
	if existing, ok := s.items[key]; ok {
		return existing, nil
	}
	photo.ID = s.nextID
	s.nextID++
	photo.CreatedAt = time.Now().UTC()
	s.items[key] = photo
	return photo, nil
}

// Len returns the number of stored photos.
func (s *PhotoRepoStub) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// GradientPNG returns an encoded w by h PNG whose pixels vary by position.
func GradientPNG(t interface {
	Helper()
	Fatalf(string, ...any)
}, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
