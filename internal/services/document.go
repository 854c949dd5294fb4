package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/voyagery/voyagery-api/internal/apperrors"
	"github.com/voyagery/voyagery-api/internal/blob"
	"github.com/voyagery/voyagery-api/internal/database"
	"github.com/voyagery/voyagery-api/internal/models"
)

const documentColumns = `id, owner_id, file_id, filename, content_type, size, kind, created_at`

var documentKinds = map[string]bool{
	"passport":   true,
	"visa":       true,
	"transcript": true,
	"resume":     true,
	"other":      true,
}

// DocumentService stores document contents in the blob store and their metadata in Postgres.
type DocumentService struct {
	db    *database.DB
	blobs blob.Store
}

// NewDocumentService refuses uploads and downloads when blobs is nil.
func NewDocumentService(db *database.DB, blobs blob.Store) *DocumentService {
	if blobs == nil {
		blobs = blob.Disabled{}
	}
	return &DocumentService{db: db, blobs: blobs}
}

type DocumentUpload struct {
	Filename    string
	ContentType string
	Kind        string
	Size        int64
	Content     io.Reader
}

func scanDocument(row pgx.Row) (*models.Document, error) {
	var d models.Document
	err := row.Scan(&d.ID, &d.OwnerID, &d.FileID, &d.Filename, &d.ContentType, &d.Size, &d.Kind, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *DocumentService) Upload(ctx context.Context, ownerID uuid.UUID, upload DocumentUpload) (*models.Document, error) {
	filename := filepath.Base(strings.TrimSpace(upload.Filename))
	if filename == "" || filename == "." || filename == "/" {
		return nil, apperrors.Validation("filename is required")
	}
	kind := upload.Kind
	if kind == "" {
		kind = "other"
	}
	if !documentKinds[kind] {
		return nil, apperrors.Validation("unknown document kind")
	}
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	fileID, err := s.blobs.Put(ctx, filename, contentType, upload.Content)
	if err != nil {
		return nil, err
	}

	doc, err := scanDocument(s.db.Pool.QueryRow(ctx, `
		INSERT INTO documents (owner_id, file_id, filename, content_type, size, kind)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+documentColumns,
		ownerID, fileID, filename, contentType, upload.Size, kind))
	if err != nil {
		if delErr := s.blobs.Delete(ctx, fileID); delErr != nil {
			slog.WarnContext(ctx, "orphaned blob after failed upload", "file_id", fileID, "error", delErr)
		}
		return nil, fmt.Errorf("failed to save document: %w", err)
	}
	return doc, nil
}

func (s *DocumentService) ListForOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Document, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

func (s *DocumentService) getOwned(ctx context.Context, ownerID, id uuid.UUID) (*models.Document, error) {
	doc, err := scanDocument(s.db.Pool.QueryRow(ctx, `
		SELECT `+documentColumns+` FROM documents WHERE id = $1
	`, id))
	if isNoRows(err) {
		return nil, apperrors.NotFound("document not found")
	}
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != ownerID {
		return nil, apperrors.Forbidden("not your document")
	}
	return doc, nil
}

// Open returns the document's metadata and a reader for its contents. The caller closes the reader.
func (s *DocumentService) Open(ctx context.Context, ownerID, id uuid.UUID) (*models.Document, io.ReadCloser, error) {
	doc, err := s.getOwned(ctx, ownerID, id)
	if err != nil {
		return nil, nil, err
	}
	r, err := s.blobs.Open(ctx, doc.FileID)
	if err != nil {
		return nil, nil, err
	}
	return doc, r, nil
}

func (s *DocumentService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	doc, err := s.getOwned(ctx, ownerID, id)
	if err != nil {
		return err
	}

	if _, err := s.db.Pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if err := s.blobs.Delete(ctx, doc.FileID); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		slog.WarnContext(ctx, "orphaned blob after delete", "file_id", doc.FileID, "error", err)
	}
	return nil
}
