// backend-go/internal/domain/models.go
package domain

import "time"

// ImageDescriptor is the public view of one image stored in the gallery directory
type ImageDescriptor struct {
	Name         string    `json:"name"`
	URL          string    `json:"url"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

// UploadResult is returned once per successful upload
type UploadResult struct {
	Message  string `json:"message"`
	FileName string `json:"fileName"`
	Path     string `json:"path"`
	URL      string `json:"url"`
	Commit   string `json:"commit"`
}

// DocumentUpdateResult is returned after the JSON data document has been rewritten
type DocumentUpdateResult struct {
	Message string `json:"message"`
	Path    string `json:"path"`
	Commit  string `json:"commit"`
}

// supportedImageExtensions lists the lowercase suffixes the gallery displays
var supportedImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// SupportedImageExtensions returns a copy of the extensions the gallery displays.
func SupportedImageExtensions() []string {
	return append([]string(nil), supportedImageExtensions...)
}
