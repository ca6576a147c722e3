package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/edudefi-go-api/internal/dto"
	"github.com/noah-isme/edudefi-go-api/internal/models"
	"github.com/noah-isme/edudefi-go-api/internal/observability"
	"github.com/noah-isme/edudefi-go-api/internal/repository"
)

const pdfMimeType = "application/pdf"

var (
	// ErrDocumentRequired indicates no file was attached.
	ErrDocumentRequired = errors.New("document is required")
	// ErrDocumentTooLarge indicates the payload exceeded the configured limit.
	ErrDocumentTooLarge = errors.New("document exceeds maximum allowed size")
	// ErrDocumentNotPDF indicates the payload is not a PDF.
	ErrDocumentNotPDF = errors.New("document must be a PDF")
	// ErrDocumentStoreFailed indicates the blob store rejected the payload.
	ErrDocumentStoreFailed = errors.New("document storage failed")
)

// DocumentStore persists contract documents and returns the identifier recorded on chain.
type DocumentStore interface {
	Name() string
	Put(ctx context.Context, name string, body []byte) (blobID string, url string, err error)
}

// DocumentService validates and stores contract PDFs.
type DocumentService interface {
	Upload(ctx context.Context, file *multipart.FileHeader, uploader string) (dto.Document, error)
	UploadBytes(ctx context.Context, name string, body []byte, uploader string) (dto.Document, error)
}

type documentService struct {
	store   DocumentStore
	repo    repository.ContractDocumentRepository
	maxSize int64
	logger  zerolog.Logger
	tracer  trace.Tracer
}

// NewDocumentService constructs a document service limited to maxSizeMB megabytes.
func NewDocumentService(store DocumentStore, repo repository.ContractDocumentRepository, maxSizeMB int, logger zerolog.Logger) DocumentService {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &documentService{
		store:   store,
		repo:    repo,
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		logger:  logger.With().Str("component", "document_service").Logger(),
		tracer:  otel.Tracer("github.com/noah-isme/edudefi-go-api/internal/service/document"),
	}
}

func (s *documentService) Upload(ctx context.Context, file *multipart.FileHeader, uploader string) (dto.Document, error) {
	if file == nil {
		return dto.Document{}, ErrDocumentRequired
	}
	if file.Size > s.maxSize {
		s.reject("size")
		return dto.Document{}, ErrDocumentTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		return dto.Document{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		return dto.Document{}, err
	}
	return s.UploadBytes(ctx, file.Filename, buf.Bytes(), uploader)
}

func (s *documentService) UploadBytes(ctx context.Context, name string, body []byte, uploader string) (dto.Document, error) {
	ctx, span := s.tracer.Start(ctx, "document.store")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("document.max_bytes", s.maxSize),
		attribute.Int("document.size_bytes", len(body)),
		attribute.String("document.store", s.store.Name()),
	)

	if len(body) == 0 {
		span.SetStatus(codes.Error, "validation failed")
		return dto.Document{}, ErrDocumentRequired
	}
	if int64(len(body)) > s.maxSize {
		s.reject("size")
		span.RecordError(ErrDocumentTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return dto.Document{}, ErrDocumentTooLarge
	}

	detected := mimetype.Detect(body)
	span.SetAttributes(attribute.String("document.detected_mime", detected.String()))
	if !detected.Is(pdfMimeType) {
		s.reject("type")
		span.RecordError(ErrDocumentNotPDF)
		span.SetStatus(codes.Error, "type not allowed")
		return dto.Document{}, ErrDocumentNotPDF
	}

	checksum := sha256.Sum256(body)
	fileName := documentFileName(name)

	blobID, url, err := s.store.Put(ctx, fileName, body)
	if err != nil {
		s.reject("storage")
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failed")
		s.logger.Error().Err(err).Str("store", s.store.Name()).Str("file", fileName).Msg("document upload failed")
		return dto.Document{}, fmt.Errorf("%w: %v", ErrDocumentStoreFailed, err)
	}

	record := models.ContractDocument{
		BlobID:    blobID,
		URL:       url,
		FileName:  fileName,
		SizeBytes: int64(len(body)),
		Checksum:  hex.EncodeToString(checksum[:]),
		Store:     s.store.Name(),
		Uploader:  uploader,
	}
	if err := s.repo.Create(ctx, &record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.Document{}, err
	}

	observability.DocumentUploads().WithLabelValues(s.store.Name(), "stored").Inc()
	span.SetAttributes(attribute.String("document.blob_id", blobID))
	span.SetStatus(codes.Ok, "stored")
	s.logger.Info().Str("blob_id", blobID).Str("uploader", uploader).Int("size", len(body)).Msg("contract document stored")

	return dto.NewDocument(record), nil
}

func (s *documentService) reject(reason string) {
	observability.DocumentUploads().WithLabelValues(s.store.Name(), reason).Inc()
}

func documentFileName(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == "/" || base == "" {
		return "contract.pdf"
	}
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if !strings.HasSuffix(strings.ToLower(base), ".pdf") {
		base += ".pdf"
	}
	return base
}
