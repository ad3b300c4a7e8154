package portal

import (
	"encoding/base64"
	"encoding/hex"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"

	"github.com/felixgeelhaar/kavach/internal/errors"
)

// Digest returns the hex BLAKE3-256 digest of data
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// NewDocumentUpload builds an upload from raw file content
func NewDocumentUpload(fileName, documentType string, data []byte) DocumentUpload {
	contentType := mime.TypeByExtension(filepath.Ext(fileName))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return DocumentUpload{
		DocumentType: documentType,
		FileName:     filepath.Base(fileName),
		ContentType:  contentType,
		Content:      base64.StdEncoding.EncodeToString(data),
		Size:         len(data),
		Digest:       Digest(data),
	}
}

// ReadDocumentUpload reads path and builds an upload
func ReadDocumentUpload(path, documentType string) (DocumentUpload, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DocumentUpload{}, errors.NewFileNotFoundError(path)
	}
	if err != nil {
		return DocumentUpload{}, errors.Wrap(errors.ErrCodeFileReadFailed, "failed to read document", err)
	}
	return NewDocumentUpload(path, documentType, data), nil
}

// VerifyDigest reports whether content (base64) matches digest
func (u DocumentUpload) VerifyDigest() bool {
	data, err := base64.StdEncoding.DecodeString(u.Content)
	if err != nil {
		return false
	}
	return Digest(data) == u.Digest
}
