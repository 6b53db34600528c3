package config

import "fuel-pricing/pkg/constants"

// UploadRule bounds what a multipart upload may carry.
type UploadRule struct {
	MaxBytes int64
	// Extensions are lower-case and include the dot.
	Extensions []string
	// MIMETypes are matched against http.DetectContentType, so an xlsx
	// sniffs as application/zip.
	MIMETypes []string
}

var UploadRules = map[constants.UploadContext]UploadRule{
	constants.UploadContextResearchPhoto: {
		MaxBytes:   10 << 20,
		Extensions: []string{".jpg", ".jpeg", ".png", ".webp"},
		MIMETypes:  []string{"image/jpeg", "image/png", "image/webp"},
	},
	constants.UploadContextResearchSheet: {
		MaxBytes:   5 << 20,
		Extensions: []string{".xlsx"},
		MIMETypes:  []string{"application/zip"},
	},
}
