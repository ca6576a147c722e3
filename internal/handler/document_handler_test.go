package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edudefi-go-api/internal/dto"
	"github.com/noah-isme/edudefi-go-api/internal/handler"
	"github.com/noah-isme/edudefi-go-api/internal/service"
)

type mockDocuments struct {
	uploader string
	fileName string
	err      error
}

func (m *mockDocuments) Upload(_ context.Context, file *multipart.FileHeader, uploader string) (dto.Document, error) {
	m.uploader = uploader
	m.fileName = file.Filename
	if m.err != nil {
		return dto.Document{}, m.err
	}
	return dto.Document{BlobID: "blob-9", FileName: file.Filename, SizeBytes: file.Size, Checksum: "c0ffee", Store: "walrus"}, nil
}

func (m *mockDocuments) UploadBytes(context.Context, string, []byte, string) (dto.Document, error) {
	return dto.Document{}, m.err
}

func uploadRequest(t *testing.T, field string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, "terms.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.7"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v2/documents", body)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
	return req
}

func documentApp(svc service.DocumentService) *fiber.App {
	app, group := walletApp("/api/v2/documents")
	handler.NewDocumentHandler(svc, zerolog.Nop()).Register(group)
	return app
}

func TestDocumentHandler_Upload(t *testing.T) {
	svc := &mockDocuments{}
	resp, err := documentApp(svc).Test(uploadRequest(t, "document"), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, testWallet, svc.uploader)
	require.Equal(t, "terms.pdf", svc.fileName)

	body, _ := readEnvelope(t, resp)
	var document dto.Document
	require.NoError(t, json.Unmarshal(body.Data, &document))
	require.Equal(t, "blob-9", document.BlobID)
}

func TestDocumentHandler_MissingFile(t *testing.T) {
	svc := &mockDocuments{}
	resp, err := documentApp(svc).Test(uploadRequest(t, "file"), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Empty(t, svc.fileName)

	body, _ := readEnvelope(t, resp)
	require.Equal(t, "document_missing", body.Code)
}

func TestDocumentHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: 12 MB", service.ErrDocumentTooLarge), fiber.StatusRequestEntityTooLarge, "document_too_large"},
		{fmt.Errorf("%w: image/png", service.ErrDocumentNotPDF), fiber.StatusUnsupportedMediaType, "document_not_pdf"},
		{fmt.Errorf("%w: publisher returned 500", service.ErrDocumentStoreFailed), fiber.StatusBadGateway, "document_store_failed"},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			resp, err := documentApp(&mockDocuments{err: tc.err}).Test(uploadRequest(t, "document"), -1)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)

			body, _ := readEnvelope(t, resp)
			require.Equal(t, tc.code, body.Code)
		})
	}
}
