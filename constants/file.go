package constants

import "strings"

// Source formats accepted for text acquisition.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
	TXT   = "TXT"
)

// AllowedExtensions holds the default allowed file extensions for invoice ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"heic": {},
	"heif": {},
	"txt":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a file extension to PDF, IMAGE or TXT, or "" when unsupported.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "jpg", "jpeg", "png", "heic", "heif", "tif", "tiff":
		return IMAGE
	case "txt":
		return TXT
	default:
		return ""
	}
}

// IsHEICExt reports whether ext is a HEIC/HEIF variant.
func IsHEICExt(ext string) bool {
	switch NormalizeExt(ext) {
	case "heic", "heif", "heics", "heifs":
		return true
	}
	return false
}

// Thresholds shared by acquisition and scoring.
const (
	// ImageOnlyTextLength is the text length under which a PDF is treated as scanned.
	ImageOnlyTextLength = 200
	// TrustedConfidence is the upstream confidence at which acquisition results are trusted.
	TrustedConfidence = 70
	// EnhancementConfidence is the heuristic confidence under which AI enhancement runs.
	EnhancementConfidence = 90
	// MinTrustedFields is how many populated fields acquisition must supply to replace the baseline.
	MinTrustedFields = 3
)
