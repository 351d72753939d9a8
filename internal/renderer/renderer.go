// Package renderer produces the downloadable certificate artifact. Rendering
// is best-effort: a failed render never blocks certificate issuance, the
// pdf_url just stays empty until a later re-render.
package renderer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/learnhub-th/coursepay/internal/domain/certificate"
)

// Renderer turns an issued certificate into a retrievable artifact and
// returns its public URL.
type Renderer interface {
	Render(ctx context.Context, cert *certificate.Certificate) (string, error)
}

// FileRenderer writes a minimal HTML artifact to local disk. Stands in for a
// real PDF pipeline behind the same interface.
type FileRenderer struct {
	outputDir string
	publicURL string
}

func NewFileRenderer(outputDir, publicURL string) *FileRenderer {
	return &FileRenderer{outputDir: outputDir, publicURL: publicURL}
}

func (r *FileRenderer) Render(_ context.Context, cert *certificate.Certificate) (string, error) {
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	content := fmt.Sprintf(
		`<html><body><h1>Certificate of Completion</h1>
<p>%s</p>
<p>has completed</p>
<p>%s</p>
<p>Certificate No: %s</p>
<p>Verify at: /verify/%s</p>
</body></html>
`,
		cert.UserFullName, cert.CourseTitle, cert.CertificateNumber, cert.VerificationCode,
	)

	filename := cert.CertificateNumber + ".html"
	path := filepath.Join(r.outputDir, filename)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write certificate artifact: %w", err)
	}

	return r.publicURL + "/" + filename, nil
}

var _ Renderer = (*FileRenderer)(nil)
