package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"shareit/internal/models"
	"shareit/internal/service"
)

func callerID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.Header.Get(userIDHeader))
	if raw == "" {
		return 0, fmt.Errorf("missing %s header", userIDHeader)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s header", userIDHeader)
	}
	return id, nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", r.PathValue("id"))
	}
	return id, nil
}

func optionalInt(r *http.Request, name string) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", name)
	}
	return &v, nil
}

// pageParams reads from/size. Paging applies only when both are given.
func pageParams(r *http.Request) (*models.Page, error) {
	from, err := optionalInt(r, "from")
	if err != nil {
		return nil, err
	}
	size, err := optionalInt(r, "size")
	if err != nil {
		return nil, err
	}
	return service.NewPage(from, size)
}

func decodeJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// writeRequestError reports a malformed request. Domain kinds keep their own status.
func writeRequestError(w http.ResponseWriter, r *http.Request, err error) {
	if statusFor(err) != http.StatusInternalServerError {
		writeServiceError(w, r, err)
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}
