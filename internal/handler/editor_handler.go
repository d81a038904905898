package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/certcat/certcat/internal/canvas"
	"github.com/certcat/certcat/internal/editor"
	"github.com/certcat/certcat/internal/middleware"
	"github.com/certcat/certcat/internal/model"
	"github.com/certcat/certcat/internal/response"
	"github.com/certcat/certcat/internal/service"
	"github.com/certcat/certcat/internal/utils"
)

type EditorHandler struct {
	svc service.EditorService
}

func NewEditorHandler(svc service.EditorService) *EditorHandler {
	return &EditorHandler{svc: svc}
}

// editorState is the session snapshot returned after every mutation so the
// client can redraw without a second round trip.
type editorState struct {
	Elements model.ElementList `json:"elements"`
	SnapX    bool              `json:"snap_x"`
	SnapY    bool              `json:"snap_y"`
	Dragging int               `json:"dragging"`
}

func stateOf(sess *editor.Session) editorState {
	sx, sy := sess.Snapped()
	return editorState{
		Elements: sess.Elements(),
		SnapX:    sx,
		SnapY:    sy,
		Dragging: sess.Dragging(),
	}
}

type pointerRequest struct {
	Action string  `json:"action"` // down | move | up
	Index  int     `json:"index"`
	X      float64 `json:"x"` // canvas percent, or surface pixels when dimensions are sent
	Y      float64 `json:"y"`

	// Surface dimensions let clients send raw pixel coordinates; when both
	// are set X/Y are converted to percentages server-side.
	SurfaceW float64 `json:"surface_w,omitempty"`
	SurfaceH float64 `json:"surface_h,omitempty"`
}

// percent resolves the event coordinates into canvas percentages.
func (p *pointerRequest) percent() (x, y float64) {
	if p.SurfaceW > 0 && p.SurfaceH > 0 {
		return canvas.PixelToPercent(p.X, p.Y, p.SurfaceW, p.SurfaceH)
	}
	return p.X, p.Y
}

type addElementRequest struct {
	Kind   string  `json:"kind"` // text | recipient | image | qrcode
	Value  string  `json:"value"`
	Src    string  `json:"src"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type updateElementRequest struct {
	Element *model.Element `json:"element"`
	Width   *float64       `json:"width"` // aspect-locked resize when set alone
}

type layerRequest struct {
	Direction string `json:"direction"` // forward | backward
}

type toggleRequest struct {
	Field string `json:"field"` // visible | locked
}

// Open starts or resumes the editing session
// @Summary      Open editor session
// @Tags         editor
// @Produce      json
// @Param        id  path  string  true  "Template ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /templates/{id}/editor/open [post]
func (h *EditorHandler) Open(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.Open(r.Context(), chi.URLParam(r, "id"), middleware.GetUIDFromContext(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Success(w, "Editor session opened", stateOf(sess))
}

// State returns the current session snapshot
// @Summary      Editor session state
// @Tags         editor
// @Produce      json
// @Param        id  path  string  true  "Template ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /templates/{id}/editor [get]
func (h *EditorHandler) State(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Success(w, "Editor state", stateOf(sess))
}

// Pointer feeds one pointer event into the drag state machine
// @Summary      Pointer event
// @Description  down starts a drag on an element, move repositions it with axis snapping, up settles it
// @Tags         editor
// @Accept       json
// @Produce      json
// @Param        id       path  string          true  "Template ID"
// @Param        request  body  pointerRequest  true  "Pointer event"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /templates/{id}/editor/pointer [post]
func (h *EditorHandler) Pointer(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req pointerRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", err.Error())
		return
	}
	px, py := req.percent()
	switch req.Action {
	case "down":
		if err := sess.PointerDown(req.Index, px, py); err != nil {
			h.writeError(w, err)
			return
		}
	case "move":
		sess.PointerMove(px, py)
	case "up":
		sess.PointerUp()
	default:
		response.BadRequest(w, "Unknown pointer action", nil)
		return
	}
	response.Success(w, "Pointer handled", stateOf(sess))
}

// AddElement appends a new element
// @Summary      Add element
// @Tags         editor
// @Accept       json
// @Produce      json
// @Param        id       path  string             true  "Template ID"
// @Param        request  body  addElementRequest  true  "Element to add"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /templates/{id}/editor/elements [post]
func (h *EditorHandler) AddElement(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req addElementRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", err.Error())
		return
	}
	switch req.Kind {
	case "text":
		value := req.Value
		if value == "" {
			value = "New Text"
		}
		sess.AddText(value)
	case "recipient":
		sess.AddRecipientName()
	case "image":
		if req.Src == "" {
			response.BadRequest(w, "Image element needs a src", nil)
			return
		}
		sess.AddImage(req.Src, req.Width, req.Height)
	case "qrcode":
		sess.AddQRCode()
	default:
		response.BadRequest(w, "Unknown element kind", nil)
		return
	}
	response.Success(w, "Element added", stateOf(sess))
}

// UpdateElement mutates one element's properties
// @Summary      Update element
// @Tags         editor
// @Accept       json
// @Produce      json
// @Param        id       path  string                true  "Template ID"
// @Param        index    path  int                   true  "Element index"
// @Param        request  body  updateElementRequest  true  "Mutation"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /templates/{id}/editor/elements/{index} [patch]
func (h *EditorHandler) UpdateElement(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req updateElementRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", err.Error())
		return
	}
	idx := indexParam(r)

	switch {
	case req.Width != nil && req.Element == nil:
		err = sess.Resize(idx, *req.Width)
	case req.Element != nil:
		err = sess.Update(idx, func(el *model.Element) {
			// position and type are owned by the drag loop and creation flow
			req.Element.Type = el.Type
			req.Element.X = el.X
			req.Element.Y = el.Y
			*el = *req.Element
		})
	default:
		response.BadRequest(w, "Nothing to update", nil)
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Success(w, "Element updated", stateOf(sess))
}

// DuplicateElement copies an element on top of the stack
// @Summary      Duplicate element
// @Tags         editor
// @Produce      json
// @Param        id     path  string  true  "Template ID"
// @Param        index  path  int     true  "Element index"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /templates/{id}/editor/elements/{index}/duplicate [post]
func (h *EditorHandler) DuplicateElement(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if _, err := sess.Duplicate(indexParam(r)); err != nil {
		h.writeError(w, err)
		return
	}
	response.Success(w, "Element duplicated", stateOf(sess))
}

// DeleteElement removes an element
// @Summary      Delete element
// @Tags         editor
// @Produce      json
// @Param        id     path  string  true  "Template ID"
// @Param        index  path  int     true  "Element index"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /templates/{id}/editor/elements/{index} [delete]
func (h *EditorHandler) DeleteElement(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := sess.Delete(indexParam(r)); err != nil {
		h.writeError(w, err)
		return
	}
	response.Success(w, "Element deleted", stateOf(sess))
}

// MoveLayer shifts an element one step through the z-order
// @Summary      Move element layer
// @Tags         editor
// @Accept       json
// @Produce      json
// @Param        id       path  string        true  "Template ID"
// @Param        index    path  int           true  "Element index"
// @Param        request  body  layerRequest  true  "Direction"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /templates/{id}/editor/elements/{index}/layer [post]
func (h *EditorHandler) MoveLayer(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req layerRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", err.Error())
		return
	}
	idx := indexParam(r)
	switch req.Direction {
	case "forward":
		err = sess.MoveForward(idx)
	case "backward":
		err = sess.MoveBackward(idx)
	default:
		response.BadRequest(w, "Unknown direction", nil)
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Success(w, "Layer moved", stateOf(sess))
}

// Toggle flips an element's visible or locked flag
// @Summary      Toggle element flag
// @Tags         editor
// @Accept       json
// @Produce      json
// @Param        id       path  string         true  "Template ID"
// @Param        index    path  int            true  "Element index"
// @Param        request  body  toggleRequest  true  "Flag to flip"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /templates/{id}/editor/elements/{index}/toggle [post]
func (h *EditorHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req toggleRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", err.Error())
		return
	}
	idx := indexParam(r)
	switch req.Field {
	case "visible":
		err = sess.ToggleVisible(idx)
	case "locked":
		err = sess.ToggleLocked(idx)
	default:
		response.BadRequest(w, "Unknown field", nil)
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Success(w, "Flag toggled", stateOf(sess))
}

// Undo steps the element list back one settled mutation
// @Summary      Undo
// @Tags         editor
// @Produce      json
// @Param        id  path  string  true  "Template ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /templates/{id}/editor/undo [post]
func (h *EditorHandler) Undo(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	sess.Undo()
	response.Success(w, "Undo applied", stateOf(sess))
}

// Redo restores the last undone mutation
// @Summary      Redo
// @Tags         editor
// @Produce      json
// @Param        id  path  string  true  "Template ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /templates/{id}/editor/redo [post]
func (h *EditorHandler) Redo(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	sess.Redo()
	response.Success(w, "Redo applied", stateOf(sess))
}

// Save persists the session onto the template
// @Summary      Save editor session
// @Tags         editor
// @Produce      json
// @Param        id  path  string  true  "Template ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /templates/{id}/editor/save [post]
func (h *EditorHandler) Save(w http.ResponseWriter, r *http.Request) {
	tpl, err := h.svc.Save(r.Context(), chi.URLParam(r, "id"), middleware.GetUIDFromContext(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Success(w, "Template saved", tpl)
}

// Close discards the in-memory session
// @Summary      Close editor session
// @Tags         editor
// @Produce      json
// @Param        id  path  string  true  "Template ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /templates/{id}/editor [delete]
func (h *EditorHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.svc.Close(chi.URLParam(r, "id"), middleware.GetUIDFromContext(r.Context()))
	response.Success(w, "Editor session closed", nil)
}

func indexParam(r *http.Request) int {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		return -1
	}
	return idx
}

func (h *EditorHandler) session(r *http.Request) (*editor.Session, error) {
	return h.svc.Session(chi.URLParam(r, "id"), middleware.GetUIDFromContext(r.Context()))
}

func (h *EditorHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNoSession):
		response.NotFound(w, "No editor session, open one first")
	case errors.Is(err, service.ErrTemplateNotFound):
		response.NotFound(w, "Template not found")
	case errors.Is(err, service.ErrNotOwner):
		response.Forbidden(w, "Template belongs to another owner")
	case errors.Is(err, editor.ErrElementNotFound):
		response.NotFound(w, "Element not found")
	case errors.Is(err, editor.ErrElementLocked):
		response.BadRequest(w, "Element is locked", nil)
	default:
		response.InternalError(w, "Editor operation failed")
	}
}
