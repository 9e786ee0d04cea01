package attachments

import (
	"context"
	"strings"
	"testing"
	"time"
)

type fakeSigner struct {
	putCalls int
	getCalls int
	lastKey  string
	objects  []Object
}

func (f *fakeSigner) PresignPut(_ context.Context, key, contentType string, expires time.Duration) (string, error) {
	f.putCalls++
	f.lastKey = key
	return "https://store.example/put/" + key, nil
}

func (f *fakeSigner) PresignGet(_ context.Context, key string, expires time.Duration) (string, error) {
	f.getCalls++
	f.lastKey = key
	return "https://store.example/get/" + key, nil
}

func (f *fakeSigner) List(_ context.Context, prefix string) ([]Object, error) {
	var out []Object
	for _, o := range f.objects {
		if strings.HasPrefix(o.Key, prefix) {
			out = append(out, o)
		}
	}
	return out, nil
}

func newTestBroker(signer Signer) *Broker {
	return NewBroker(signer, "https://bridge.example", 10*time.Minute, 5*time.Minute)
}

func TestSignUploadScopesKeyToSession(t *testing.T) {
	signer := &fakeSigner{}
	b := newTestBroker(signer)

	grant, err := b.SignUpload(context.Background(), "sess-1", "résumé (final).pdf", "application/pdf")
	if err != nil {
		t.Fatalf("SignUpload() error = %v", err)
	}
	if !strings.HasPrefix(grant.Key, "attachments/sess-1/") {
		t.Fatalf("key = %q, want session prefix", grant.Key)
	}
	if !strings.HasSuffix(grant.Key, ".pdf") {
		t.Fatalf("key lost extension: %q", grant.Key)
	}
	if strings.ContainsAny(grant.Key, "() é") {
		t.Fatalf("key not sanitized: %q", grant.Key)
	}
	if grant.URL == "" || signer.putCalls != 1 {
		t.Fatalf("presign PUT not issued: %+v", grant)
	}
}

func TestDownloadLinkScopedKeyUsesProxyPath(t *testing.T) {
	b := newTestBroker(&fakeSigner{})

	link, err := b.DownloadLink(context.Background(), "sess-1", "attachments/sess-1/abc/file.png", "")
	if err != nil {
		t.Fatalf("DownloadLink() error = %v", err)
	}
	want := "https://bridge.example/api/attachments/sess-1/abc/file.png"
	if link.Mode != ModeProxy || link.URL != want {
		t.Fatalf("link = %+v, want proxy URL %q", link, want)
	}
}

func TestDownloadLinkForeignKeyUsesToken(t *testing.T) {
	b := newTestBroker(&fakeSigner{})

	link, err := b.DownloadLink(context.Background(), "sess-1", "exports/other/file.png", "")
	if err != nil {
		t.Fatalf("DownloadLink() error = %v", err)
	}
	const tokenBase = "https://bridge.example/api/attachments/t/"
	if !strings.HasPrefix(link.URL, tokenBase) {
		t.Fatalf("link URL = %q, want token URL", link.URL)
	}

	key, sessionID, err := DecodeToken(strings.TrimPrefix(link.URL, tokenBase))
	if err != nil {
		t.Fatalf("DecodeToken() error = %v", err)
	}
	if key != "exports/other/file.png" || sessionID != "sess-1" {
		t.Fatalf("token resolved to %q / %q", key, sessionID)
	}
}

func TestDownloadLinkSignedMode(t *testing.T) {
	signer := &fakeSigner{}
	b := newTestBroker(signer)

	link, err := b.DownloadLink(context.Background(), "sess-1", "attachments/sess-1/abc/file.png", ModeSigned)
	if err != nil {
		t.Fatalf("DownloadLink() error = %v", err)
	}
	if link.Mode != ModeSigned || signer.getCalls != 1 {
		t.Fatalf("signed mode should presign directly: %+v", link)
	}
	if link.ExpiresAt == nil {
		t.Fatalf("signed link missing expiry")
	}
}

func TestEverySignedCallIsFresh(t *testing.T) {
	signer := &fakeSigner{}
	b := newTestBroker(signer)

	for i := 0; i < 3; i++ {
		if _, err := b.SignGet(context.Background(), "attachments/sess-1/k"); err != nil {
			t.Fatalf("SignGet() error = %v", err)
		}
	}
	if signer.getCalls != 3 {
		t.Fatalf("getCalls = %d, want 3 (no caching)", signer.getCalls)
	}
}

func TestDecodeTokenRejectsGarbage(t *testing.T) {
	if _, _, err := DecodeToken("not-base64!!"); err == nil {
		t.Fatalf("DecodeToken() should reject invalid encoding")
	}
	if _, _, err := DecodeToken("e30"); err == nil { // "{}"
		t.Fatalf("DecodeToken() should reject empty token fields")
	}
}

func TestListSession(t *testing.T) {
	signer := &fakeSigner{objects: []Object{
		{Key: "attachments/sess-1/a/x.png", Size: 10},
		{Key: "attachments/sess-2/b/y.png", Size: 20},
	}}
	b := newTestBroker(signer)

	objects, err := b.ListSession(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("ListSession() error = %v", err)
	}
	if len(objects) != 1 || objects[0].Key != "attachments/sess-1/a/x.png" {
		t.Fatalf("ListSession() = %+v", objects)
	}
}
