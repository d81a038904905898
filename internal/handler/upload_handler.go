package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/certcat/certcat/internal/response"
	"github.com/certcat/certcat/internal/storage"
)

type UploadHandler struct {
	storage *storage.Service
}

func NewUploadHandler(svc *storage.Service) *UploadHandler {
	return &UploadHandler{storage: svc}
}

type storeFunc func(ctx context.Context, data []byte, contentType string) (*storage.UploadResult, error)

// Background stores a template background design
// @Summary      Upload a background image
// @Tags         uploads
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Image file (max 2MB)"
// @Security     BearerAuth
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /uploads/background [post]
func (h *UploadHandler) Background(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, storage.MaxBackgroundSize, h.storage.UploadBackground)
}

// Element stores an image placed as a canvas element
// @Summary      Upload an element image
// @Tags         uploads
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Image file (max 1MB)"
// @Security     BearerAuth
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /uploads/element [post]
func (h *UploadHandler) Element(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, storage.MaxElementSize, h.storage.UploadElementImage)
}

func (h *UploadHandler) upload(w http.ResponseWriter, r *http.Request, maxSize int64, store storeFunc) {
	// +1 so an oversized body is detected instead of silently truncated
	if err := r.ParseMultipartForm(maxSize + 1); err != nil {
		response.BadRequest(w, "Invalid multipart form", err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "Missing file field", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		response.InternalError(w, "Failed to read upload")
		return
	}

	result, err := store(r.Context(), data, header.Header.Get("Content-Type"))
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrFileTooLarge):
			response.BadRequest(w, "File exceeds the size limit", nil)
		case errors.Is(err, storage.ErrUnsupportedType):
			response.BadRequest(w, "File type is not allowed", nil)
		default:
			// storage failures are dismissible; nothing server-side is left dirty
			response.InternalError(w, "Upload failed, please try again")
		}
		return
	}
	response.Created(w, "File uploaded", result)
}
