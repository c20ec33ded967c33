package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedURLRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)

	token, expiresAt, err := signer.Generate("msg-1", "abc123.pdf")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), expiresAt, 5*time.Second)

	messageID, relPath, _, err := signer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "msg-1", messageID)
	assert.Equal(t, "abc123.pdf", relPath)
}

func TestSignedURLRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	token, _, err := signer.Generate("msg-1", "abc123.pdf")
	require.NoError(t, err)

	_, _, _, err = signer.Parse(token + "x")
	assert.Error(t, err)

	other := NewSignedURLSigner("other-secret", time.Minute)
	_, _, _, err = other.Parse(token)
	assert.Error(t, err)
}

func TestSignedURLRejectsExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Nanosecond)
	token, _, err := signer.Generate("msg-1", "abc123.pdf")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, _, _, err = signer.Parse(token)
	assert.Error(t, err)
}

func TestCoarseKind(t *testing.T) {
	assert.Equal(t, "image", CoarseKind("a.png", ""))
	assert.Equal(t, "image", CoarseKind("blob", "image/jpeg"))
	assert.Equal(t, "video", CoarseKind("clip.mp4", ""))
	assert.Equal(t, "audio", CoarseKind("voice.m4a", ""))
	assert.Equal(t, "document", CoarseKind("report.pdf", "application/pdf"))
}
