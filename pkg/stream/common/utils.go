package common

import "strings"

// IsValidURL performs basic URL validation
func IsValidURL(url string) bool {
	url = strings.TrimSpace(url)
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

// ExtractContentType extracts main content type without parameters
func ExtractContentType(contentType string) string {
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	// Remove charset and other parameters
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}

	return strings.TrimSpace(contentType)
}

// BaseURL returns everything before the last path separator of a playlist URL
func BaseURL(playlistURL string) string {
	idx := strings.LastIndex(playlistURL, "/")
	if idx == -1 {
		return playlistURL
	}
	return playlistURL[:idx]
}
