// Package attachments brokers short-lived upload and download links for
// chat attachments held in object storage.
package attachments

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	keyRoot = "attachments"

	// Link modes for download links.
	ModeProxy  = "proxy"
	ModeSigned = "signed"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._\-]+`)

// UploadGrant is a one-shot permission to PUT an object.
type UploadGrant struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Link is a resolvable download reference: either a proxy URL served by
// this process or a direct presigned URL from the provider.
type Link struct {
	Mode      string     `json:"mode"`
	URL       string     `json:"url"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type proxyToken struct {
	Key       string `json:"key"`
	SessionID string `json:"session_id"`
}

// Broker turns object keys into links. Presigned URLs are issued fresh on
// every call.
type Broker struct {
	signer      Signer
	publicBase  string
	uploadTTL   time.Duration
	downloadTTL time.Duration
}

func NewBroker(signer Signer, publicBase string, uploadTTL, downloadTTL time.Duration) *Broker {
	if uploadTTL <= 0 {
		uploadTTL = 10 * time.Minute
	}
	if downloadTTL <= 0 {
		downloadTTL = 5 * time.Minute
	}
	return &Broker{
		signer:      signer,
		publicBase:  strings.TrimRight(publicBase, "/"),
		uploadTTL:   uploadTTL,
		downloadTTL: downloadTTL,
	}
}

// SessionPrefix is the key prefix attachments for a session are expected
// to live under.
func SessionPrefix(sessionID string) string {
	return keyRoot + "/" + sessionID + "/"
}

// SignUpload allocates a fresh object key under the session prefix and
// returns a presigned PUT for it.
func (b *Broker) SignUpload(ctx context.Context, sessionID, filename, contentType string) (UploadGrant, error) {
	name := sanitizeFilename(filename)
	key := SessionPrefix(sessionID) + uuid.NewString() + "/" + name

	url, err := b.signer.PresignPut(ctx, key, contentType, b.uploadTTL)
	if err != nil {
		return UploadGrant{}, err
	}
	return UploadGrant{
		Key:       key,
		URL:       url,
		ExpiresAt: time.Now().UTC().Add(b.uploadTTL),
	}, nil
}

// DownloadLink produces a reference for an existing object. Keys under the
// session's expected prefix get a path-scoped proxy URL; any other key gets
// an opaque token URL. Mode "signed" bypasses the proxy and returns a
// direct presigned GET.
func (b *Broker) DownloadLink(ctx context.Context, sessionID, key, mode string) (Link, error) {
	if mode == ModeSigned {
		url, err := b.signer.PresignGet(ctx, key, b.downloadTTL)
		if err != nil {
			return Link{}, err
		}
		expires := time.Now().UTC().Add(b.downloadTTL)
		return Link{Mode: ModeSigned, URL: url, ExpiresAt: &expires}, nil
	}

	prefix := SessionPrefix(sessionID)
	if scoped, ok := strings.CutPrefix(key, prefix); ok && scoped != "" {
		return Link{
			Mode: ModeProxy,
			URL:  b.publicBase + "/api/attachments/" + sessionID + "/" + scoped,
		}, nil
	}

	token, err := EncodeToken(key, sessionID)
	if err != nil {
		return Link{}, err
	}
	return Link{
		Mode: ModeProxy,
		URL:  b.publicBase + "/api/attachments/t/" + token,
	}, nil
}

// SignGet issues a direct presigned GET for a key the caller has already
// resolved. Used by the proxy redirect handlers.
func (b *Broker) SignGet(ctx context.Context, key string) (string, error) {
	return b.signer.PresignGet(ctx, key, b.downloadTTL)
}

// ListSession enumerates the objects stored under a session's prefix.
func (b *Broker) ListSession(ctx context.Context, sessionID string) ([]Object, error) {
	return b.signer.List(ctx, SessionPrefix(sessionID))
}

// EncodeToken packs a key/session pair into an opaque URL-safe token.
func EncodeToken(key, sessionID string) (string, error) {
	data, err := json.Marshal(proxyToken{Key: key, SessionID: sessionID})
	if err != nil {
		return "", fmt.Errorf("encode proxy token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeToken is the inverse of EncodeToken.
func DecodeToken(token string) (key, sessionID string, err error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", "", fmt.Errorf("decode proxy token: %w", err)
	}
	var t proxyToken
	if err := json.Unmarshal(data, &t); err != nil {
		return "", "", fmt.Errorf("decode proxy token: %w", err)
	}
	if t.Key == "" || t.SessionID == "" {
		return "", "", fmt.Errorf("proxy token missing key or session id")
	}
	return t.Key, t.SessionID, nil
}

func sanitizeFilename(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	base = unsafeNameChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		return "upload"
	}
	return base
}
