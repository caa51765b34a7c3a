package api

import (
	"net/http"

	"shareit/internal/models"
)

func (s *HTTPServer) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}
	var req newRequestBody
	if err := decodeAndValidate(r, &req); err != nil {
		writeRequestError(w, r, err)
		return
	}

	created, err := s.svc.Requests.CreateRequest(r.Context(), userID, req.Description)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemRequestResponse(created))
}

func (s *HTTPServer) handleListOwnRequests(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}

	reqs, err := s.svc.Requests.ListOwnRequests(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeItemRequests(w, reqs)
}

func (s *HTTPServer) handleListOtherRequests(w http.ResponseWriter, r *http.Request) {
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

	reqs, err := s.svc.Requests.ListOtherRequests(r.Context(), userID, page)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeItemRequests(w, reqs)
}

func (s *HTTPServer) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}
	requestID, err := pathID(r)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}

	req, err := s.svc.Requests.GetRequest(r.Context(), userID, requestID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemRequestResponse(req))
}

func writeItemRequests(w http.ResponseWriter, reqs []*models.ItemRequest) {
	out := make([]itemRequestResponse, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, toItemRequestResponse(req))
	}
	writeJSON(w, http.StatusOK, out)
}
