package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/certcat/certcat/internal/middleware"
	"github.com/certcat/certcat/internal/model"
	"github.com/certcat/certcat/internal/response"
	"github.com/certcat/certcat/internal/service"
	"github.com/certcat/certcat/internal/utils"
)

type CertificateHandler struct {
	svc service.CertificateService
}

func NewCertificateHandler(svc service.CertificateService) *CertificateHandler {
	return &CertificateHandler{svc: svc}
}

func organizerFromContext(r *http.Request) utils.Identity {
	ctx := r.Context()
	return utils.Identity{
		UID:   middleware.GetUIDFromContext(ctx),
		Email: middleware.GetEmailFromContext(ctx),
		Name:  middleware.GetNameFromContext(ctx),
	}
}

// Generate issues certificates for a batch of recipients
// @Summary      Bulk-generate certificates
// @Description  Issue one certificate per recipient from a template and email each a verification link
// @Tags         certificates
// @Accept       json
// @Produce      json
// @Param        request  body  model.GenerateRequest  true  "Generation request"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      429  {object}  response.Response
// @Router       /certificates/generate [post]
func (h *CertificateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req model.GenerateRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", err.Error())
		return
	}
	ve := utils.ValidationErrors{}
	if req.TemplateID == "" {
		ve["template_id"] = "template_id is required"
	}
	if req.EventName == "" {
		ve["event_name"] = "event_name is required"
	}
	if len(req.Recipients) == 0 {
		ve["recipients"] = "at least one recipient is required"
	}
	if ve.HasErrors() {
		response.BadRequest(w, "Invalid generation request", ve)
		return
	}

	result, err := h.svc.Generate(r.Context(), req, organizerFromContext(r))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInsufficientCapacity):
			response.TooManyRequests(w,
				fmt.Sprintf("Need %d emails but only %d available today", len(req.Recipients), result.RemainingCapacity),
				result)
		case errors.Is(err, service.ErrNoRecipients):
			response.BadRequest(w, "No valid recipients in the request", nil)
		case errors.Is(err, service.ErrTemplateNotFound), errors.Is(err, service.ErrNotOwner):
			response.NotFound(w, "Template not found")
		default:
			response.InternalError(w, "Certificate generation failed")
		}
		return
	}
	response.Success(w, "Certificates generated", result)
}

// GenerateTest issues a short-lived test certificate
// @Summary      Generate a test certificate
// @Description  Issue an expiring certificate to preview a template end to end
// @Tags         certificates
// @Accept       json
// @Produce      json
// @Param        request  body  model.TestCertificateRequest  true  "Test request"
// @Security     BearerAuth
// @Success      201  {object}  response.Response
// @Router       /certificates/test [post]
func (h *CertificateHandler) GenerateTest(w http.ResponseWriter, r *http.Request) {
	var req model.TestCertificateRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", err.Error())
		return
	}
	cert, err := h.svc.GenerateTest(r.Context(), req, organizerFromContext(r))
	if err != nil {
		if errors.Is(err, service.ErrTemplateNotFound) || errors.Is(err, service.ErrNotOwner) {
			response.NotFound(w, "Template not found")
			return
		}
		response.InternalError(w, "Test certificate generation failed")
		return
	}
	response.Created(w, "Test certificate generated", cert)
}

// List returns the organizer's issued certificates
// @Summary      List issued certificates
// @Tags         certificates
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /certificates [get]
func (h *CertificateHandler) List(w http.ResponseWriter, r *http.Request) {
	certs, err := h.svc.ListByOrganizer(r.Context(), middleware.GetEmailFromContext(r.Context()))
	if err != nil {
		response.InternalError(w, "Failed to load certificates")
		return
	}
	response.Success(w, "Certificates loaded", certs)
}

// Delete removes an issued certificate
// @Summary      Delete a certificate
// @Tags         certificates
// @Produce      json
// @Param        id  path  string  true  "Certificate ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /certificates/{id} [delete]
func (h *CertificateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.svc.Delete(r.Context(), id, middleware.GetEmailFromContext(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCertificateNotFound):
			response.NotFound(w, "Certificate not found")
		case errors.Is(err, service.ErrNotOwner):
			response.Forbidden(w, "Certificate belongs to another organizer")
		default:
			response.InternalError(w, "Failed to delete certificate")
		}
		return
	}
	response.Success(w, "Certificate deleted", nil)
}

// Capacity reports today's email sending headroom
// @Summary      Email capacity
// @Tags         certificates
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /certificates/capacity [get]
func (h *CertificateHandler) Capacity(w http.ResponseWriter, r *http.Request) {
	response.Success(w, "Capacity loaded", h.svc.Capacity())
}

// Verify resolves a certificate for the public verification page
// @Summary      Verify a certificate
// @Tags         verify
// @Produce      json
// @Param        id  path  string  true  "Certificate ID"
// @Success      200  {object}  response.Response
// @Router       /verify/{id} [get]
func (h *CertificateHandler) Verify(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Verify(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.InternalError(w, "Verification failed")
		return
	}
	response.Success(w, res.Message, res)
}

// Download streams the certificate as a vector PDF
// @Summary      Download certificate PDF
// @Tags         verify
// @Produce      application/pdf
// @Param        id  path  string  true  "Certificate ID"
// @Success      200  {file}  binary
// @Failure      404  {object}  response.Response
// @Router       /verify/{id}/download [get]
func (h *CertificateHandler) Download(w http.ResponseWriter, r *http.Request) {
	pdf, filename, err := h.svc.DownloadPDF(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, service.ErrCertificateNotFound) {
			response.NotFound(w, "Certificate not found")
			return
		}
		response.InternalError(w, "PDF export failed")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(pdf)
}

// Preview streams a raster preview of the certificate
// @Summary      Preview certificate image
// @Tags         verify
// @Produce      image/png
// @Param        id     path   string  true   "Certificate ID"
// @Param        width  query  int     false  "Render width in pixels"
// @Success      200  {file}  binary
// @Failure      404  {object}  response.Response
// @Router       /verify/{id}/preview [get]
func (h *CertificateHandler) Preview(w http.ResponseWriter, r *http.Request) {
	width, _ := strconv.Atoi(r.URL.Query().Get("width"))
	png, err := h.svc.PreviewPNG(r.Context(), chi.URLParam(r, "id"), width)
	if err != nil {
		if errors.Is(err, service.ErrCertificateNotFound) {
			response.NotFound(w, "Certificate not found")
			return
		}
		response.InternalError(w, "Preview render failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}
