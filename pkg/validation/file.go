package validation

import (
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"fuel-pricing/config"
	"fuel-pricing/pkg/constants"
	apperrors "fuel-pricing/pkg/errors"
)

const sniffLen = 512

// ValidateFile checks an upload against the rule registered for uc. The
// reader is rewound before returning. Rejections are InvalidInputError.
func ValidateFile(header *multipart.FileHeader, file io.ReadSeeker, uc constants.UploadContext) error {
	rule, ok := config.UploadRules[uc]
	if !ok {
		return apperrors.NewInvalidInputError("unknown upload context %q", uc)
	}

	if rule.MaxBytes > 0 && header.Size > rule.MaxBytes {
		return apperrors.NewInvalidInputError("%s is %.1f MB, limit is %d MB",
			header.Filename, float64(header.Size)/(1<<20), rule.MaxBytes>>20)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !slices.Contains(rule.Extensions, ext) {
		return apperrors.NewInvalidInputError("%s: extension %q not accepted", header.Filename, ext)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	if mimeType := http.DetectContentType(head[:n]); !slices.Contains(rule.MIMETypes, mimeType) {
		return apperrors.NewInvalidInputError("%s: content type %s not accepted", header.Filename, mimeType)
	}
	return nil
}
