package api

import (
	"net/http"
	"strings"

	"shareit/internal/models"
)

func (s *HTTPServer) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}
	var req createItemRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeRequestError(w, r, err)
		return
	}

	item, err := s.svc.Items.CreateItem(r.Context(), userID, &models.Item{
		Name:        strings.TrimSpace(*req.Name),
		Description: strings.TrimSpace(*req.Description),
		Available:   *req.Available,
		RequestID:   req.RequestID,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemResponse(item))
}

func (s *HTTPServer) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}
	itemID, err := pathID(r)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeRequestError(w, r, err)
		return
	}

	item, err := s.svc.Items.UpdateItem(r.Context(), userID, itemID, models.ItemPatch{
		Name:        req.Name,
		Description: req.Description,
		Available:   req.Available,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(item))
}

func (s *HTTPServer) handleGetItem(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}
	itemID, err := pathID(r)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}

	d, err := s.svc.Items.GetItem(r.Context(), userID, itemID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDetailsResponse(d))
}

func (s *HTTPServer) handleListItems(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}
	page, err := pageParams(r)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}

	items, err := s.svc.Items.ListOwnerItems(r.Context(), userID, page)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]itemResponse, 0, len(items))
	for _, d := range items {
		out = append(out, toItemDetailsResponse(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *HTTPServer) handleSearchItems(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}
	page, err := pageParams(r)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}

	items, err := s.svc.Items.SearchItems(r.Context(), userID, r.URL.Query().Get("text"), page)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]itemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toItemResponse(it))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *HTTPServer) handleAddComment(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}
	itemID, err := pathID(r)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}
	var req commentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeRequestError(w, r, err)
		return
	}

	c, err := s.svc.Items.AddComment(r.Context(), userID, itemID, req.Text)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCommentResponse(c))
}
