package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"blockon/api/internal/media/sniffer"
	"blockon/api/internal/service"
)

const profileField = "profile"

func (h HandlerSet) UploadProfile(c *gin.Context) {
	// multipart overhead on top of the file itself
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.profiles.MaxSize()+1<<20)

	fileHeader, err := c.FormFile(profileField)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "profile file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "unable to read profile file"})
		return
	}
	defer file.Close()

	ctx, cancel := h.callContext(c.Request.Context())
	defer cancel()

	path, err := h.profiles.Upload(ctx, service.ProfileUploadInput{
		File:         file,
		Filename:     fileHeader.Filename,
		DeclaredMIME: sniffer.DeclaredMIME(http.Header(fileHeader.Header)),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"path": path})
}
