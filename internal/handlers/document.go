package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/voyagery/voyagery-api/internal/apperrors"
	"github.com/voyagery/voyagery-api/internal/middleware"
	"github.com/voyagery/voyagery-api/internal/services"
	"github.com/voyagery/voyagery-api/pkg/dto"
)

// multipart framing on top of the file itself
const multipartOverhead = 1 << 20

type DocumentHandler struct {
	documentService DocumentServiceInterface
	maxUploadBytes  int64
}

func NewDocumentHandler(documentService DocumentServiceInterface, maxUploadBytes int64) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		maxUploadBytes:  maxUploadBytes,
	}
}

func (h *DocumentHandler) Upload(c *drift.Context) {
	c.Request.Body = http.MaxBytesReader(c.Response, c.Request.Body, h.maxUploadBytes+multipartOverhead)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(c, apperrors.Validation(fmt.Sprintf("file exceeds %d bytes", h.maxUploadBytes)))
			return
		}
		respondError(c, apperrors.Validation("file is required"))
		return
	}
	defer file.Close()

	if header.Size > h.maxUploadBytes {
		respondError(c, apperrors.Validation(fmt.Sprintf("file exceeds %d bytes", h.maxUploadBytes)))
		return
	}

	doc, err := h.documentService.Upload(c.Request.Context(), middleware.GetUserID(c), services.DocumentUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Kind:        c.Request.FormValue("kind"),
		Size:        header.Size,
		Content:     file,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	_ = c.JSON(201, toDocumentResponse(doc))
}

func (h *DocumentHandler) List(c *drift.Context) {
	docs, err := h.documentService.ListForOwner(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]dto.DocumentResponse, len(docs))
	for i := range docs {
		response[i] = toDocumentResponse(&docs[i])
	}

	_ = c.JSON(200, response)
}

// Download streams the stored bytes back to the owner.
func (h *DocumentHandler) Download(c *drift.Context) {
	id, err := pathUUID(c, "fileId")
	if err != nil {
		respondError(c, err)
		return
	}

	doc, content, err := h.documentService.Open(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	defer content.Close()

	header := c.Response.Header()
	header.Set("Content-Type", doc.ContentType)
	header.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
	if doc.Size > 0 {
		header.Set("Content-Length", strconv.FormatInt(doc.Size, 10))
	}
	c.Response.WriteHeader(http.StatusOK)
	if _, err := io.Copy(c.Response, content); err != nil {
		slog.Warn("document download interrupted", "document_id", doc.ID, "error", err)
	}
	c.Abort()
}

func (h *DocumentHandler) Delete(c *drift.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.documentService.Delete(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		respondError(c, err)
		return
	}

	_ = c.JSON(200, dto.MessageResponse{Message: "document deleted"})
}
