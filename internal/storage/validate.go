package storage

import (
	"fmt"
	"path"
	"strings"
)

var validContentTypes = map[string]bool{
	"text/plain":               true,
	"application/octet-stream": true,
}

// ValidateUpload checks that key names a .s2p file and that contentType is
// one a browser or curl would send for it.
func ValidateUpload(key, contentType string) error {
	if !validContentTypes[contentType] {
		return fmt.Errorf("invalid content type: %s. Supported types: text/plain, application/octet-stream", contentType)
	}
	if !strings.EqualFold(path.Ext(key), ".s2p") {
		return fmt.Errorf("invalid file name: %s. Only .s2p files are accepted", key)
	}
	return nil
}
