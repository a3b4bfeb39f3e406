package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const testSecret = "test-webhook-secret-at-least-32-chars"

func TestVerifySignature_Valid(t *testing.T) {
	now := time.Now()
	payload := []byte(`{"type":"subscription.created","data":{"id":"evt_123"}}`)

	header := Sign(payload, testSecret, now)
	assert.True(t, VerifySignature(payload, header, testSecret, now))
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	now := time.Now()
	payload := []byte(`{"type":"subscription.created"}`)

	header := Sign(payload, "some-other-secret-1234567890123456", now)
	assert.False(t, VerifySignature(payload, header, testSecret, now))
}

func TestVerifySignature_TamperedPayload(t *testing.T) {
	now := time.Now()
	payload := []byte(`{"data":{"customer":{"external_id":"user-1"}}}`)
	header := Sign(payload, testSecret, now)

	tampered := []byte(`{"data":{"customer":{"external_id":"user-2"}}}`)
	assert.False(t, VerifySignature(tampered, header, testSecret, now))
}

func TestVerifySignature_ExpiredTimestamp(t *testing.T) {
	now := time.Now()
	payload := []byte(`{"type":"subscription.created"}`)

	header := Sign(payload, testSecret, now.Add(-10*time.Minute))
	assert.False(t, VerifySignature(payload, header, testSecret, now))
}

func TestVerifySignature_FutureTimestamp(t *testing.T) {
	now := time.Now()
	payload := []byte(`{"type":"subscription.created"}`)

	header := Sign(payload, testSecret, now.Add(10*time.Minute))
	assert.False(t, VerifySignature(payload, header, testSecret, now))
}

func TestVerifySignature_MissingParts(t *testing.T) {
	now := time.Now()
	payload := []byte(`{}`)

	assert.False(t, VerifySignature(nil, "t=1,v1=ab", testSecret, now))
	assert.False(t, VerifySignature(payload, "", testSecret, now))
	assert.False(t, VerifySignature(payload, "t=1,v1=ab", "", now))
	assert.False(t, VerifySignature(payload, "garbage", testSecret, now))
	assert.False(t, VerifySignature(payload, "v1=deadbeef", testSecret, now))
}
