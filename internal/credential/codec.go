// Package credential encrypts, decrypts and structurally validates the opaque
// payload printed inside attendance QR codes.
package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// TypeAttendance is the only credential type issued; check-in vs check-out is decided by the clock.
const TypeAttendance = "attendance"

var (
	hkdfSalt = []byte("kiosk-attendance/qr")
	hkdfInfo = []byte("xchacha20poly1305 v1")
	aad      = []byte("qr-credential")
)

var ErrEmptyKey = errors.New("credential: encryption key is empty")

// Payload is the structure sealed inside a QR code.
// Signature is an opaque uniqueness tag; it is never verified against anything.
type Payload struct {
	ID         string    `json:"id"`
	KioskID    string    `json:"kioskId"`
	EmployeeID string    `json:"employeeId"`
	Type       string    `json:"type"`
	CreatedAt  time.Time `json:"createdAt"`
	CreatedBy  string    `json:"createdBy"`
	Signature  string    `json:"signature"`
}

// Codec seals payloads with XChaCha20-Poly1305 under a key derived from the pre-shared secret.
type Codec struct {
	key []byte
}

func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, ErrEmptyKey
	}

	key := make([]byte, chacha20poly1305.KeySize)
	r := hkdf.New(sha256.New, []byte(secret), hkdfSalt, hkdfInfo)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("credential: derive key: %w", err)
	}
	return &Codec{key: key}, nil
}

// Issue builds a fresh payload for an employee at a kiosk.
func Issue(kioskID, employeeCode, issuedBy string, now time.Time) Payload {
	return Payload{
		ID:         uuid.NewString(),
		KioskID:    kioskID,
		EmployeeID: employeeCode,
		Type:       TypeAttendance,
		CreatedAt:  now.UTC(),
		CreatedBy:  issuedBy,
		Signature:  uuid.NewString(),
	}
}

// Encode returns base64url(nonce || ciphertext).
func (c *Codec) Encode(p Payload) (string, error) {
	plain, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("credential: marshal payload: %w", err)
	}
	return c.seal(plain)
}

func (c *Codec) seal(plain []byte) (string, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", fmt.Errorf("credential: init cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plain)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("credential: nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, plain, aad)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decode opens an encoded payload. Any failure (bad encoding, wrong key,
// tampering, malformed JSON) yields nil; this is a routine outcome, not an error.
func (c *Codec) Decode(encoded string) *Payload {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil
	}

	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return nil
	}
	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return nil
	}

	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil
	}

	var p Payload
	if err := json.Unmarshal(plain, &p); err != nil {
		return nil
	}
	return &p
}

// ValidateStructure requires id, kioskId, employeeId, createdAt and signature.
func ValidateStructure(p *Payload) bool {
	if p == nil {
		return false
	}
	return p.ID != "" &&
		p.KioskID != "" &&
		p.EmployeeID != "" &&
		!p.CreatedAt.IsZero() &&
		p.Signature != ""
}

// MissingFields lists the required fields absent from p, for logging.
func MissingFields(p *Payload) []string {
	if p == nil {
		return []string{"id", "kioskId", "employeeId", "createdAt", "signature"}
	}
	var missing []string
	if p.ID == "" {
		missing = append(missing, "id")
	}
	if p.KioskID == "" {
		missing = append(missing, "kioskId")
	}
	if p.EmployeeID == "" {
		missing = append(missing, "employeeId")
	}
	if p.CreatedAt.IsZero() {
		missing = append(missing, "createdAt")
	}
	if p.Signature == "" {
		missing = append(missing, "signature")
	}
	return missing
}
