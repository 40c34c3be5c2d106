package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/faraddouglas/conecsa-api/pkg/util"
)

// PhotoService stores profile photos on local disk.
type PhotoService struct {
	dir    string
	logger *zap.Logger
}

// NewPhotoService constructs the service writing under dir.
func NewPhotoService(dir string, logger *zap.Logger) *PhotoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PhotoService{dir: dir, logger: logger}
}

// Path returns where the photo of userID is stored.
func (s *PhotoService) Path(userID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("photo-%s.jpg", userID))
}

// Save writes the photo of userID, replacing any previous one.
func (s *PhotoService) Save(ctx context.Context, userID string, src io.Reader) (string, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return "", apperrors.NewBadRequest("invalid user id")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", s.storageFailed(userID, err)
	}

	tmp, err := os.CreateTemp(s.dir, "upload-*.tmp")
	if err != nil {
		return "", s.storageFailed(userID, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return "", s.storageFailed(userID, err)
	}
	if err := tmp.Close(); err != nil {
		return "", s.storageFailed(userID, err)
	}

	dst := s.Path(userID)
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", s.storageFailed(userID, err)
	}
	return dst, nil
}

func (s *PhotoService) storageFailed(userID string, err error) error {
	s.logger.Error("photo storage failed", zap.String("user_id", userID), zap.Error(err))
	return apperrors.NewBadRequest("could not store photo")
}
