package domain

import "strings"

// IsSupportedImage reports whether name ends with a supported image extension, ignoring case.
func IsSupportedImage(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range supportedImageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
