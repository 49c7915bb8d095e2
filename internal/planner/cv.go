package planner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"github.com/terra-clan/skillify/internal/gate"
	"github.com/terra-clan/skillify/internal/models"
	"github.com/terra-clan/skillify/internal/tasks"
)

// Accepted CV formats
const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// DefaultMaxUploadBytes is the CV size limit
const DefaultMaxUploadBytes int64 = 5 * 1024 * 1024

// Upload is a CV file as received from the client
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.ReaderAt
}

// ValidateUpload checks type and size and makes sure the document opens.
// It returns the detected MIME type.
func (p *Planner) ValidateUpload(up Upload) (string, error) {
	mime := detectType(up)
	if mime == "" {
		return "", invalid("Invalid file type", "Please upload a PDF or DOCX file")
	}
	if up.Size > p.opts.MaxUploadBytes {
		return "", p.TooLarge()
	}
	if err := openDocument(mime, up.Body, up.Size); err != nil {
		slog.Info("rejected unreadable cv", "filename", up.Filename, "type", mime, "error", err)
		return "", invalid("Invalid file type", "Please upload a PDF or DOCX file")
	}
	return mime, nil
}

// TooLarge is the validation error for a file over the size limit
func (p *Planner) TooLarge() error {
	return invalid("File too large", fmt.Sprintf("Please upload a file smaller than %s", humanBytes(p.opts.MaxUploadBytes)))
}

// UploadCV validates the file and starts the simulated CV processing. When
// the task completes the mock CV profile is merged and cvUploaded is set.
// A second upload before the first finishes replaces it.
func (p *Planner) UploadCV(up Upload) (*tasks.Task[Outcome], error) {
	mime, err := p.ValidateUpload(up)
	if err != nil {
		return nil, err
	}

	slog.Info("processing cv", "filename", up.Filename, "type", mime, "size", up.Size)

	mock := p.catalog.MockCV
	process := func(ctx context.Context) (Outcome, error) {
		return Outcome{
			Notice: models.Notice{
				Title:       "CV Uploaded Successfully",
				Description: "Your CV has been processed and your profile has been created!",
			},
			Next: gate.PathDreamJob,
		}, nil
	}
	apply := func(Outcome) {
		p.store.UpdateProfile(mock)
		p.store.SetCVUploaded(true)
	}
	return tasks.Submit(p.runner, slotCV, p.opts.CVDelay, process, apply), nil
}

// detectType trusts the declared content type. Clients that send a generic
// type fall back to the file extension.
func detectType(up Upload) string {
	ct := strings.ToLower(strings.TrimSpace(up.ContentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch ct {
	case MimePDF, MimeDOCX:
		return ct
	case "", "application/octet-stream":
		switch strings.ToLower(filepath.Ext(up.Filename)) {
		case ".pdf":
			return MimePDF
		case ".docx":
			return MimeDOCX
		}
	}
	return ""
}

// openDocument parses just enough of the file to know it is a real
// document. Nothing is extracted.
func openDocument(mime string, body io.ReaderAt, size int64) (err error) {
	if body == nil || size <= 0 {
		return fmt.Errorf("empty document")
	}

	switch mime {
	case MimePDF:
		// the pdf parser reports some malformed input by panicking
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("malformed pdf: %v", r)
			}
		}()
		r, err := pdf.NewReader(body, size)
		if err != nil {
			return fmt.Errorf("failed to read pdf: %w", err)
		}
		if r.NumPage() == 0 {
			return fmt.Errorf("pdf has no pages")
		}
		return nil

	case MimeDOCX:
		doc, err := docx.ReadDocxFromMemory(body, size)
		if err != nil {
			return fmt.Errorf("failed to parse docx: %w", err)
		}
		return doc.Close()
	}
	return fmt.Errorf("unsupported file type: %s", mime)
}

func humanBytes(n int64) string {
	const mb = 1024 * 1024
	if n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}
