package object

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	"constructia-backend/internal/shared/util"
)

// NewKey builds a storage key under the tenant's hashed namespace with a random prefix.
func NewKey(tenantID, fileName string) (string, error) {
	sanitizedName, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", fmt.Errorf("sanitize file name: %w", err)
	}
	return path.Join(util.HashTenantKey(tenantID), fmt.Sprintf("%s_%s", randomID(), sanitizedName)), nil
}

// Sniff reads up to 512 bytes to detect the content type and returns a reader
// that replays them ahead of the remaining body.
func Sniff(r io.Reader) (string, io.Reader, error) {
	var sniff [512]byte
	n, err := io.ReadFull(r, sniff[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, fmt.Errorf("read sniff: %w", err)
	}
	head := make([]byte, n)
	copy(head, sniff[:n])
	return http.DetectContentType(head), io.MultiReader(bytes.NewReader(head), r), nil
}

func randomID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
