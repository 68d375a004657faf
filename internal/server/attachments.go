package server

import (
	"net/http"

	attachmentdomain "github.com/carebook/carebook/internal/attachment/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Uploads are capped well below typical reverse-proxy limits.
const maxAttachmentBytes = 25 << 20

func (s *Server) handleUploadAttachment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if fileHeader.Size > maxAttachmentBytes {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	defer file.Close()

	att, err := s.attachmentSvc.Upload(c.Request.Context(), attachmentdomain.UploadRequest{
		AppointmentID: id,
		FileName:      fileHeader.Filename,
		ContentType:   fileHeader.Header.Get("Content-Type"),
		SizeBytes:     fileHeader.Size,
		Body:          file,
	}, actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"attachment": att})
}

func (s *Server) handleListAttachments(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	attachments, err := s.attachmentSvc.List(c.Request.Context(), id, actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attachments": attachments})
}

func (s *Server) handleDownloadAttachment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	attachmentID, err := parseID(c.Param("attachmentId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	download, err := s.attachmentSvc.Open(c.Request.Context(), id, attachmentID, actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer func() {
		if err := download.Body.Close(); err != nil {
			s.log.Warn("failed to close attachment stream", zap.Error(err))
		}
	}()

	contentType := download.Attachment.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", `attachment; filename="`+download.Attachment.FileName+`"`)
	c.DataFromReader(http.StatusOK, download.Attachment.SizeBytes, contentType, download.Body, nil)
}

func (s *Server) handleDeleteAttachment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	attachmentID, err := parseID(c.Param("attachmentId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.attachmentSvc.Delete(c.Request.Context(), id, attachmentID, actor); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
