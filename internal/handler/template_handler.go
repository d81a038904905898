package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/certcat/certcat/internal/middleware"
	"github.com/certcat/certcat/internal/model"
	"github.com/certcat/certcat/internal/render/fonts"
	"github.com/certcat/certcat/internal/response"
	"github.com/certcat/certcat/internal/service"
	"github.com/certcat/certcat/internal/utils"
)

type TemplateHandler struct {
	svc service.TemplateService
}

func NewTemplateHandler(svc service.TemplateService) *TemplateHandler {
	return &TemplateHandler{svc: svc}
}

// List returns the caller's templates
// @Summary      List templates
// @Tags         templates
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /templates [get]
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	templates, err := h.svc.List(r.Context(), middleware.GetUIDFromContext(r.Context()))
	if err != nil {
		response.InternalError(w, "Failed to load templates")
		return
	}
	response.Success(w, "Templates loaded", templates)
}

// Get returns one template
// @Summary      Get template by ID
// @Tags         templates
// @Produce      json
// @Param        id  path  string  true  "Template ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /templates/{id} [get]
func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	tpl, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"), middleware.GetUIDFromContext(r.Context()))
	if err != nil {
		h.writeTemplateError(w, err)
		return
	}
	response.Success(w, "Template loaded", tpl)
}

// Create stores a new template
// @Summary      Create a template
// @Tags         templates
// @Accept       json
// @Produce      json
// @Param        request  body  model.CreateTemplateRequest  true  "Template"
// @Security     BearerAuth
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /templates [post]
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateTemplateRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", err.Error())
		return
	}
	ctx := r.Context()
	tpl, err := h.svc.Create(ctx, req, middleware.GetUIDFromContext(ctx), middleware.GetEmailFromContext(ctx))
	if err != nil {
		if errors.Is(err, service.ErrInvalidTemplate) {
			response.BadRequest(w, "Template name is required", nil)
			return
		}
		response.InternalError(w, "Failed to create template")
		return
	}
	response.Created(w, "Template created", tpl)
}

// Update mutates an owned template
// @Summary      Update a template
// @Tags         templates
// @Accept       json
// @Produce      json
// @Param        id       path  string                       true  "Template ID"
// @Param        request  body  model.CreateTemplateRequest  true  "Fields to update"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /templates/{id} [put]
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.CreateTemplateRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", err.Error())
		return
	}
	tpl, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req, middleware.GetUIDFromContext(r.Context()))
	if err != nil {
		h.writeTemplateError(w, err)
		return
	}
	response.Success(w, "Template updated", tpl)
}

// Delete removes an owned template
// @Summary      Delete a template
// @Tags         templates
// @Produce      json
// @Param        id  path  string  true  "Template ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /templates/{id} [delete]
func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), middleware.GetUIDFromContext(r.Context())); err != nil {
		h.writeTemplateError(w, err)
		return
	}
	response.Success(w, "Template deleted", nil)
}

// Options returns the fixed design choices the editor offers
// @Summary      Editor options
// @Description  Output-resolution presets and the font catalog
// @Tags         templates
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /templates/options [get]
func (h *TemplateHandler) Options(w http.ResponseWriter, r *http.Request) {
	response.Success(w, "Options loaded", map[string]interface{}{
		"output_presets": model.OutputPresets,
		"font_families":  fonts.Families(),
	})
}

func (h *TemplateHandler) writeTemplateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrTemplateNotFound):
		response.NotFound(w, "Template not found")
	case errors.Is(err, service.ErrNotOwner):
		response.Forbidden(w, "Template belongs to another owner")
	default:
		response.InternalError(w, "Template operation failed")
	}
}
