package certificate

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// Status represents the certificate status.
type Status string

const (
	StatusActive  Status = "active"
	StatusRevoked Status = "revoked"
	StatusExpired Status = "expired"
)

// Certificate is issued at most once per (user, course) that reached
// completion. CertificateNumber and VerificationCode are globally unique;
// the verification code comes from a cryptographically strong source so it
// cannot be guessed from earlier codes.
type Certificate struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	CourseID          uuid.UUID
	CertificateNumber string
	VerificationCode  string
	UserFullName      string
	CourseTitle       string
	FinalScore        *float64
	TotalHours        int
	Status            Status
	PdfURL            *string
	CompletionDate    time.Time
	IssuedAt          time.Time
}

// New issues an active certificate for a completed course.
func New(userID, courseID uuid.UUID, userFullName, courseTitle string, finalScore *float64, totalHours int) (*Certificate, error) {
	number, err := generateCertificateNumber()
	if err != nil {
		return nil, err
	}
	code, err := generateVerificationCode()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &Certificate{
		ID:                uuid.New(),
		UserID:            userID,
		CourseID:          courseID,
		CertificateNumber: number,
		VerificationCode:  code,
		UserFullName:      userFullName,
		CourseTitle:       courseTitle,
		FinalScore:        finalScore,
		TotalHours:        totalHours,
		Status:            StatusActive,
		CompletionDate:    now,
		IssuedAt:          now,
	}, nil
}

// SetPdfURL records the rendered artifact location.
func (c *Certificate) SetPdfURL(url string) {
	c.PdfURL = &url
}

// Revoke marks the certificate revoked.
func (c *Certificate) Revoke() {
	c.Status = StatusRevoked
}

// generateCertificateNumber produces CERT + UTC date + random suffix. The
// database unique constraint catches the rare collision.
func generateCertificateNumber() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(100000))
	if err != nil {
		return "", fmt.Errorf("generate certificate number: %w", err)
	}
	return fmt.Sprintf("CERT%s%05d", time.Now().UTC().Format("20060102"), n.Int64()), nil
}

// generateVerificationCode produces 16 random bytes hex-encoded.
func generateVerificationCode() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
