package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/domainforge/internal/metrics"
	"github.com/dmitrymomot/domainforge/internal/store"
	"github.com/dmitrymomot/domainforge/internal/verify"
)

var errInvalidRecordID = errors.New("invalid record id")

type createDomainRequest struct {
	ProjectID uuid.UUID `json:"project_id"`
	Domain    string    `json:"domain"`
}

// domainResponse is the envelope for domain lifecycle endpoints.
// Instructions are present when the operation issued or refreshed a
// verification challenge.
type domainResponse struct {
	Record       *store.DomainRecord  `json:"record"`
	Instructions *verify.Instructions `json:"instructions,omitempty"`
}

func (h *Handler) createDomain(w http.ResponseWriter, r *http.Request) {
	var req createDomainRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ProjectID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "project_id is required")
		return
	}
	if req.Domain == "" {
		writeError(w, http.StatusBadRequest, "domain is required")
		return
	}

	rec, instructions, err := h.domains.Configure(r.Context(), req.ProjectID, req.Domain)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, domainResponse{Record: rec, Instructions: instructions})
}

func (h *Handler) getDomain(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.domains.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, domainResponse{Record: rec})
}

func (h *Handler) verifyDomain(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	force := r.URL.Query().Get("force") == "true"

	out, err := h.domains.Verify(r.Context(), id, force)
	if err != nil {
		if errorStatus(err) == http.StatusInternalServerError {
			metrics.ObserveVerification(metrics.OutcomeError)
		}
		h.respondError(w, r, err)
		return
	}

	metrics.ObserveVerification(outcomeLabel(out))
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) reconfigureDomain(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, instructions, err := h.domains.Reconfigure(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, domainResponse{Record: rec, Instructions: instructions})
}

func (h *Handler) deleteDomain(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.domains.Remove(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func recordID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, errInvalidRecordID
	}
	return id, nil
}

func outcomeLabel(out *verify.Outcome) string {
	switch {
	case out.AlreadyVerified:
		return metrics.OutcomeAlreadyVerified
	case out.Result != nil && out.Result.Success:
		return metrics.OutcomeVerified
	default:
		return metrics.OutcomeFailed
	}
}
