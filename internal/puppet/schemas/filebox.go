package schemas

import (
	"encoding/base64"
	"errors"
)

// FileBox carries a file either inline (Base64) or by reference (URL).
type FileBox struct {
	Name      string `json:"name"`
	MediaType string `json:"mediaType,omitempty"`
	Size      int64  `json:"size,omitempty"`
	Base64    string `json:"base64,omitempty"`
	URL       string `json:"url,omitempty"`
}

// NewFileBoxFromBytes builds an inline file box.
func NewFileBoxFromBytes(name, mediaType string, data []byte) FileBox {
	return FileBox{
		Name:      name,
		MediaType: mediaType,
		Size:      int64(len(data)),
		Base64:    base64.StdEncoding.EncodeToString(data),
	}
}

// Bytes decodes an inline file box. A file box that only references a URL
// has no bytes to return.
func (f FileBox) Bytes() ([]byte, error) {
	if f.Base64 == "" {
		if f.URL != "" {
			return nil, errors.New("file box is a url reference")
		}
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(f.Base64)
}
