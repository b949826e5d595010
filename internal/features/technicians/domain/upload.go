package domain

import (
	"regexp"
	"strings"

	"pixelpanic/internal/core/apperr"
)

// MaxUploadBytes is the largest accepted photo.
const MaxUploadBytes = 10 << 20

// DefaultFolder is used when an upload names no folder.
const DefaultFolder = "gigs"

var folderPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,31}$`)

// allowedImages maps sniffed MIME types to the stored extension.
var allowedImages = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/heic": ".heic",
}

// ImageExtension returns the extension for an accepted image MIME type.
func ImageExtension(mimeType string) (string, bool) {
	ext, ok := allowedImages[strings.ToLower(mimeType)]
	return ext, ok
}

// SanitizeFolder lowercases and validates an upload folder name.
func SanitizeFolder(folder string) (string, error) {
	folder = strings.ToLower(strings.TrimSpace(folder))
	if folder == "" {
		return DefaultFolder, nil
	}
	if !folderPattern.MatchString(folder) {
		return "", apperr.Invalid("folder", "folder may only contain letters, digits, dashes and underscores")
	}
	return folder, nil
}
