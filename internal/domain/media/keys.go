package media

import "strings"

// MIME types served for HLS content.
const (
	ContentTypePlaylist = "application/vnd.apple.mpegurl"
	ContentTypeSegment  = "video/MP2T"
	ContentTypeBinary   = "application/octet-stream"
)

// StripExtension removes the last extension from a filename.
// "a.b.c" becomes "a.b"; a name without a dot is returned unchanged.
func StripExtension(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx <= 0 {
		return filename
	}
	return filename[:idx]
}

// ObjectKey derives the object store key for one chunk of an upload. The key
// is a pure function of (original filename, chunk name) so re-running the
// pipeline for the same file overwrites the same objects.
func ObjectKey(originalFilename, chunkName string) string {
	return StripExtension(originalFilename) + "/" + chunkName
}

// StreamURL derives the public HLS playlist URL for an uploaded video.
func StreamURL(baseURL, bucket, originalFilename string) string {
	return baseURL + "/" + bucket + "/" + StripExtension(originalFilename) + "/playlist.m3u8"
}

// VideoContentTypeFor maps a chunk produced by the HLS transcoder to its MIME
// type. Anything that is not the playlist is a transport-stream segment.
func VideoContentTypeFor(filename string) string {
	if strings.HasSuffix(filename, ".m3u8") {
		return ContentTypePlaylist
	}
	return ContentTypeSegment
}

// ContentTypeFor maps a chunk filename to the MIME type it is served with.
func ContentTypeFor(filename string) string {
	switch {
	case strings.HasSuffix(filename, ".m3u8"):
		return ContentTypePlaylist
	case strings.HasSuffix(filename, ".ts"):
		return ContentTypeSegment
	case strings.HasSuffix(filename, ".jpg"), strings.HasSuffix(filename, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(filename, ".png"):
		return "image/png"
	case strings.HasSuffix(filename, ".gif"):
		return "image/gif"
	default:
		return ContentTypeBinary
	}
}
