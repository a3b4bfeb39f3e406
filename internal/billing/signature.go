package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// signatureTolerance bounds how far a webhook timestamp may drift from the
// server clock, in either direction, before the delivery is rejected.
const signatureTolerance = 5 * time.Minute

// VerifySignature checks a Polar webhook signature header against the raw
// request body. The header format is "t=<unix-seconds>,v1=<hex-hmac>"; the
// HMAC-SHA256 is computed over "<timestamp>.<payload>".
func VerifySignature(payload []byte, header, secret string, now time.Time) bool {
	if len(payload) == 0 || header == "" || secret == "" {
		return false
	}

	ts, sig := parseSignatureHeader(header)
	if ts == 0 || sig == "" {
		return false
	}

	drift := now.Sub(time.Unix(ts, 0))
	if drift > signatureTolerance || drift < -signatureTolerance {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	return hmac.Equal(got, expected)
}

// Sign produces a signature header for payload, for use in tests and tooling.
func Sign(payload []byte, secret string, now time.Time) string {
	ts := strconv.FormatInt(now.Unix(), 10)
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(ts))
	h.Write([]byte("."))
	h.Write(payload)
	return "t=" + ts + ",v1=" + hex.EncodeToString(h.Sum(nil))
}

func parseSignatureHeader(header string) (int64, string) {
	var ts int64
	var sig string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			ts, _ = strconv.ParseInt(value, 10, 64)
		case "v1":
			sig = value
		}
	}
	return ts, sig
}
