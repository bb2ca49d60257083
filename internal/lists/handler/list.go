package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"tripflow/internal/lists/service"
	httputil "tripflow/pkg/http"
	"tripflow/pkg/logger"
	"tripflow/pkg/model"
)

const HeaderUserID = "X-User-ID"

type ListHandler struct {
	service service.ListService
	log     *logger.Logger
}

func NewListHandler(service service.ListService, log *logger.Logger) *ListHandler {
	return &ListHandler{
		service: service,
		log:     log,
	}
}

type createListRequest struct {
	TripID string `json:"trip_id"`
	Name   string `json:"name"`
}

func (h *ListHandler) userID(w http.ResponseWriter, r *http.Request, handlerName string) (string, bool) {
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

func (h *ListHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, ok := h.userID(w, r, "Create")
	if !ok {
		return
	}

	var req createListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	list, err := h.service.CreateList(r.Context(), req.TripID, userID, req.Name)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, list); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ListHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := h.userID(w, r, "Delete")
	if !ok {
		return
	}

	if err := h.service.DeleteList(r.Context(), ps.ByName("listId"), userID); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Delete", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ListHandler) AddLocation(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := h.userID(w, r, "AddLocation")
	if !ok {
		return
	}

	var loc model.CandidateLocation
	if err := json.NewDecoder(r.Body).Decode(&loc); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "AddLocation", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	created, err := h.service.AddLocation(r.Context(), ps.ByName("listId"), userID, loc)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "AddLocation", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, created); err != nil {
		h.log.Error("failed to write created response", "handler", "AddLocation", "operation", "WriteCreated", "error", err)
	}
}

func (h *ListHandler) RemoveLocation(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := h.userID(w, r, "RemoveLocation")
	if !ok {
		return
	}

	if err := h.service.RemoveLocation(r.Context(), ps.ByName("listId"), userID, ps.ByName("locationId")); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "RemoveLocation", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ListHandler) GetByTrip(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := h.userID(w, r, "GetByTrip")
	if !ok {
		return
	}

	lists, err := h.service.GetByTripID(r.Context(), ps.ByName("tripId"), userID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByTrip", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, lists); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByTrip", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ListHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/lists", h.Create)
	router.DELETE("/api/v1/lists/:listId", h.Delete)
	router.POST("/api/v1/lists/:listId/locations", h.AddLocation)
	router.DELETE("/api/v1/lists/:listId/locations/:locationId", h.RemoveLocation)
	router.GET("/api/v1/trips/:tripId/lists", h.GetByTrip)
}
