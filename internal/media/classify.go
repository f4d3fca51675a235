package media

import (
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/lehigh-university-libraries/framestitch/internal/models"
)

var allowedTypes = map[string]models.MediaType{
	"image/png":       models.MediaTypeImage,
	"image/jpeg":      models.MediaTypeImage,
	"image/jpg":       models.MediaTypeImage,
	"image/webp":      models.MediaTypeImage,
	"video/mp4":       models.MediaTypeVideo,
	"video/webm":      models.MediaTypeVideo,
	"video/quicktime": models.MediaTypeVideo,
	"video/x-msvideo": models.MediaTypeVideo,
}

// Classify maps a declared content type onto a media type. When the declared
// type is missing or generic the content itself is sniffed. The returned
// string is the content type that was classified.
func Classify(declared string, data []byte) (models.MediaType, string, bool) {
	contentType := normalize(declared)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = normalize(mimetype.Detect(data).String())
	}
	mediaType, ok := allowedTypes[contentType]
	return mediaType, contentType, ok
}

func normalize(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}
