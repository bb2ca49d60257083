package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"tripflow/internal/itinerary/service"
	httputil "tripflow/pkg/http"
	"tripflow/pkg/logger"
	"tripflow/pkg/model"
)

// HeaderUserID carries the caller's identity. There is no ambient session;
// the gateway in front of this service is expected to set it.
const HeaderUserID = "X-User-ID"

type ScheduleHandler struct {
	service service.ItineraryService
	log     *logger.Logger
}

func NewScheduleHandler(service service.ItineraryService, log *logger.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		service: service,
		log:     log,
	}
}

// dragRequest is the wire form of a drag-end gesture.
type dragRequest struct {
	Source model.DragSource `json:"source"`
	Target model.DragTarget `json:"target"`
}

func (h *ScheduleHandler) userID(w http.ResponseWriter, r *http.Request, handlerName string) (string, bool) {
	userID := r.Header.Get(HeaderUserID)
	if userID == "" {
		if err := httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{
			Error: "X-User-ID header is required",
		}); err != nil {
			h.log.Error("failed to write unauthorized response", "handler", handlerName, "operation", "WriteJSON", "error", err)
		}
		return "", false
	}
	return userID, true
}

func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := h.userID(w, r, "Get")
	if !ok {
		return
	}

	view, err := h.service.GetSchedule(r.Context(), ps.ByName("tripId"), userID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Get", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, view); err != nil {
		h.log.Error("failed to write success response", "handler", "Get", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ScheduleHandler) Save(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := h.userID(w, r, "Save")
	if !ok {
		return
	}

	var data model.ScheduleData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Save", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	view, err := h.service.SaveSchedule(r.Context(), ps.ByName("tripId"), userID, &data)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Save", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, view); err != nil {
		h.log.Error("failed to write success response", "handler", "Save", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ScheduleHandler) Drag(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := h.userID(w, r, "Drag")
	if !ok {
		return
	}

	var req dragRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Drag", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	view, err := h.service.ApplyDrag(r.Context(), ps.ByName("tripId"), userID, req.Source, req.Target)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Drag", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, view); err != nil {
		h.log.Error("failed to write success response", "handler", "Drag", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ScheduleHandler) DeleteVisit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := h.userID(w, r, "DeleteVisit")
	if !ok {
		return
	}

	view, err := h.service.DeleteVisit(r.Context(), ps.ByName("tripId"), userID, ps.ByName("dayId"), ps.ByName("locationId"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "DeleteVisit", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, view); err != nil {
		h.log.Error("failed to write success response", "handler", "DeleteVisit", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ScheduleHandler) Candidates(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := h.userID(w, r, "Candidates")
	if !ok {
		return
	}

	lists, err := h.service.ListCandidates(r.Context(), ps.ByName("tripId"), userID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Candidates", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, lists); err != nil {
		h.log.Error("failed to write success response", "handler", "Candidates", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ScheduleHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/trips/:tripId/schedule", h.Get)
	router.PUT("/api/v1/trips/:tripId/schedule", h.Save)
	router.POST("/api/v1/trips/:tripId/schedule/drag", h.Drag)
	router.DELETE("/api/v1/trips/:tripId/schedule/days/:dayId/locations/:locationId", h.DeleteVisit)
	router.GET("/api/v1/trips/:tripId/candidates", h.Candidates)
}
