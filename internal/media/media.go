package media

import (
	"path/filepath"
	"strings"
)

// Kind identifies how the pipeline handles a source file.
type Kind string

const (
	KindVideo       Kind = "video"
	KindImage       Kind = "image"
	KindUnsupported Kind = "unsupported"
)

// ParseKind maps stored kind labels back to a Kind. Unknown labels come back
// as KindUnsupported.
func ParseKind(value string) Kind {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindVideo:
		return KindVideo
	case KindImage:
		return KindImage
	default:
		return KindUnsupported
	}
}

var (
	videoExtensions = map[string]struct{}{
		".mp4": {}, ".avi": {}, ".mov": {}, ".wmv": {}, ".flv": {},
		".mpeg": {}, ".mpg": {}, ".m4v": {}, ".webm": {}, ".mkv": {},
	}
	imageExtensions = map[string]struct{}{
		".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".bmp": {},
		".tiff": {}, ".ico": {}, ".webp": {},
	}
)

// Classify decides a file's kind from its extension alone. Matching is
// case-insensitive; file contents are never inspected, so a misnamed file
// surfaces later as a conversion failure rather than here.
func Classify(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := videoExtensions[ext]; ok {
		return KindVideo
	}
	if _, ok := imageExtensions[ext]; ok {
		return KindImage
	}
	return KindUnsupported
}

// OutputExt returns the extension converted files of the given kind carry.
// Unsupported kinds have no output.
func OutputExt(kind Kind) string {
	switch kind {
	case KindVideo:
		return ".mp4"
	case KindImage:
		return ".jpg"
	default:
		return ""
	}
}

// SourceFile is one discovered file beneath the source root.
type SourceFile struct {
	// Path is the absolute location on disk.
	Path string
	// RelPath is the path relative to the source root, using the platform
	// separator. Discovery sorts on this field.
	RelPath string
	Kind    Kind
}

// Task pairs a source file with the output location it converts into.
type Task struct {
	Source     SourceFile
	OutputPath string
}
