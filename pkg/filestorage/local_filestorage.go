package filestorage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PublicPrefix is the URL prefix the echo static handler serves basePath under.
const PublicPrefix = "/uploads/"

type FileStorageInterface interface {
	// Save stores file under prefix/yyyy/mm/dd and returns the public URL.
	Save(file io.Reader, originalFileName string, prefix string) (fileURL string, err error)
	Delete(fileURL string) error
}

type LocalFileStorage struct {
	basePath string
}

func NewLocalFileStorage(basePath string) (FileStorageInterface, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalFileStorage{basePath: basePath}, nil
}

func (s *LocalFileStorage) Save(file io.Reader, originalFileName string, prefix string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalFileName))
	uniqueFileName := fmt.Sprintf("%s-%s%s", time.Now().Format("2006-01-02"), uuid.New().String(), ext)

	datePath := time.Now().Format("2006/01/02")
	fullDirPath := filepath.Join(s.basePath, prefix, datePath)

	if err := os.MkdirAll(fullDirPath, 0o755); err != nil {
		return "", err
	}

	dst, err := os.Create(filepath.Join(fullDirPath, uniqueFileName))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err = io.Copy(dst, file); err != nil {
		return "", err
	}

	return PublicPrefix + filepath.ToSlash(filepath.Join(prefix, datePath, uniqueFileName)), nil
}

// Delete is idempotent. Paths escaping basePath are rejected.
func (s *LocalFileStorage) Delete(fileURL string) error {
	relativePath := strings.TrimPrefix(fileURL, PublicPrefix)
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(relativePath))

	base, err := filepath.Abs(s.basePath)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(fullPath)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(abs, base+string(os.PathSeparator)) {
		return fmt.Errorf("path %q is outside of storage", fileURL)
	}

	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
