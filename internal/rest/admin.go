package rest

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/chatri/govportal/api"
	"github.com/chatri/govportal/content/application"
	"github.com/chatri/govportal/internal/auth"
	"github.com/chatri/govportal/internal/blobstore"
)

// Login exchanges the shared admin credential for the session token.
func (h *Handler) Login(c *gin.Context) {
	req := &api.LoginRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, ok := h.gate.Login(req.Username, req.Password)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	c.SetCookie(auth.SessionCookie, token, 0, "/", "", false, true)
	c.JSON(http.StatusOK, api.LoginResponse{Token: token})
}

// AdminListRecords lists the whole collection, drafts and scheduled
// records included.
func (h *Handler) AdminListRecords(c *gin.Context) {
	svc, ok := h.serviceFor(c)
	if !ok {
		return
	}

	records, err := svc.List(c.Request.Context(), true)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]*api.Record, 0, len(records))
	for _, r := range records {
		out = append(out, api.FromDomain(r))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) AdminGetRecord(c *gin.Context) {
	svc, ok := h.serviceFor(c)
	if !ok {
		return
	}

	record, err := svc.GetBySlug(c.Request.Context(), c.Param("slug"), true)
	if err != nil {
		writeError(c, err)
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}

	c.JSON(http.StatusOK, api.FromDomain(record))
}

// CreateRecord creates a record. If the request referenced a freshly
// uploaded image and creation fails, the orphaned upload is deleted.
func (h *Handler) CreateRecord(c *gin.Context) {
	svc, ok := h.serviceFor(c)
	if !ok {
		return
	}

	req := &api.CreateRecordRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := svc.Create(c.Request.Context(), application.CreateRecord{
		Title:        req.Title,
		Summary:      req.Summary,
		Content:      req.Content,
		Date:         req.Date,
		Published:    req.Published.Ptr(),
		DisplayFrom:  req.DisplayFrom,
		DisplayUntil: req.DisplayUntil,
		ImageURL:     req.ImageURL,
	})
	if err != nil {
		h.discardUpload(req.ImageURL)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, api.FromDomain(record))
}

// UpdateRecord applies a partial update. Image lifecycle follows
// upload-then-commit: the replaced image is deleted only after the record
// write succeeds, and a newly uploaded image is deleted if it fails.
func (h *Handler) UpdateRecord(c *gin.Context) {
	svc, ok := h.serviceFor(c)
	if !ok {
		return
	}

	req := &api.UpdateRecordRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	slug := c.Param("slug")

	var previousImage *string
	if req.ImageURL.Present {
		if existing, err := svc.GetBySlug(c.Request.Context(), slug, true); err == nil && existing != nil {
			previousImage = existing.ImageURL
		}
	}

	record, err := svc.Update(c.Request.Context(), slug, application.UpdateRecord{
		Title:        req.Title.Ptr(),
		Summary:      req.Summary.Ptr(),
		Content:      req.Content.Ptr(),
		Date:         req.Date.Ptr(),
		Published:    req.Published.Ptr(),
		DisplayFrom:  req.DisplayFrom.Ptr(),
		DisplayUntil: req.DisplayUntil.Ptr(),
		ImageURL:     req.ImageURL.Ptr(),
	})
	if err != nil {
		if req.ImageURL.Present && req.ImageURL.Value != nil {
			h.discardUpload(*req.ImageURL.Value)
		}
		writeError(c, err)
		return
	}

	// Commit succeeded; the image the record no longer points at can go.
	if req.ImageURL.Present && previousImage != nil {
		if record.ImageURL == nil || *record.ImageURL != *previousImage {
			h.discardUpload(*previousImage)
		}
	}

	c.JSON(http.StatusOK, api.FromDomain(record))
}

func (h *Handler) DeleteRecord(c *gin.Context) {
	svc, ok := h.serviceFor(c)
	if !ok {
		return
	}

	slug := c.Param("slug")

	record, err := svc.GetBySlug(c.Request.Context(), slug, true)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := svc.Remove(c.Request.Context(), slug); err != nil {
		writeError(c, err)
		return
	}

	if record != nil && record.ImageURL != nil {
		h.discardUpload(*record.ImageURL)
	}

	c.Status(http.StatusNoContent)
}

// Upload accepts a multipart image and returns its public reference.
func (h *Handler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}
	if file.Size > blobstore.MaxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload exceeds 5 MB"})
		return
	}

	src, err := file.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, blobstore.MaxUploadSize+1))
	if err != nil {
		writeError(c, err)
		return
	}

	ref, err := h.blobs.Save(data)
	switch {
	case errors.Is(err, blobstore.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload exceeds 5 MB"})
	case errors.Is(err, blobstore.ErrUnsupportedType):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
	case err != nil:
		writeError(c, err)
	default:
		c.JSON(http.StatusCreated, api.UploadResponse{URL: ref})
	}
}

// discardUpload deletes a blob this store owns. External URLs and blanks
// are left alone, and failures only log: blob cleanup never fails a
// request that already reached its outcome.
func (h *Handler) discardUpload(ref string) {
	if ref == "" || !h.blobs.Owns(ref) {
		return
	}
	if err := h.blobs.Delete(ref); err != nil {
		log.Warn().Err(err).Str("ref", ref).Msg("Failed to delete upload")
	}
}
