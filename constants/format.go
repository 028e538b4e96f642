package constants

import "strings"

// Formats recognized by the auto-detecting engine.
const (
	PDF     = "PDF"
	IMAGE   = "IMAGE"
	DOCX    = "DOCX"
	XLSX    = "XLSX"
	MAIL    = "MAIL"
	ARCHIVE = "ARCHIVE"
	HTML    = "HTML"
	TEXT    = "TEXT"
)

// AllowedExtensions holds the default file extensions picked up by batch ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"tiff": {},
	"docx": {},
	"xlsx": {},
	"eml":  {},
	"zip":  {},
	"html": {},
	"htm":  {},
	"txt":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// AllowedExt checks if a file extension is in the allowed set.
func AllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}
