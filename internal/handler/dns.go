package handler

import "net/http"

// dnsCheckRequest drives /v1/dns/verify. Exactly one check runs per
// call: connectivity when check_connectivity is set, routing when
// check_routing is set, token ownership otherwise.
type dnsCheckRequest struct {
	Domain            string `json:"domain"`
	Token             string `json:"token,omitempty"`
	CheckConnectivity bool   `json:"check_connectivity,omitempty"`
	CheckRouting      bool   `json:"check_routing,omitempty"`
}

// dnsVerify is the stateless check surface: it inspects live DNS and
// reports, touching no stored state. DNS-level failures are part of the
// result payload, not HTTP errors.
func (h *Handler) dnsVerify(w http.ResponseWriter, r *http.Request) {
	var req dnsCheckRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Domain == "" {
		writeError(w, http.StatusBadRequest, "domain is required")
		return
	}

	var (
		result any
		err    error
	)
	switch {
	case req.CheckConnectivity:
		result, err = h.checker.CheckConnectivity(r.Context(), req.Domain)
	case req.CheckRouting:
		result, err = h.checker.CheckRouting(r.Context(), req.Domain)
	default:
		result, err = h.checker.VerifyOwnership(r.Context(), req.Domain, req.Token)
	}
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type propagationRequest struct {
	Domain string `json:"domain"`
	Token  string `json:"token"`
}

func (h *Handler) dnsPropagation(w http.ResponseWriter, r *http.Request) {
	var req propagationRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Domain == "" {
		writeError(w, http.StatusBadRequest, "domain is required")
		return
	}

	status, err := h.propagation.Check(r.Context(), req.Domain, req.Token)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}
