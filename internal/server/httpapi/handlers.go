package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mvoronin/parceltrack/internal/common"
	"github.com/mvoronin/parceltrack/internal/server/models"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps the service error taxonomy onto HTTP status codes. The
// body carries only the sentinel text, never wrapped internals.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {

	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, common.ErrValidation):
		status, msg = http.StatusBadRequest, common.ErrValidation.Error()
	case errors.Is(err, common.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, common.ErrUnauthorized.Error()
	case errors.Is(err, common.ErrInvalidToken):
		status, msg = http.StatusUnauthorized, common.ErrInvalidToken.Error()
	case errors.Is(err, common.ErrTokenExpired):
		status, msg = http.StatusUnauthorized, common.ErrTokenExpired.Error()
	case errors.Is(err, common.ErrForbidden):
		status, msg = http.StatusForbidden, common.ErrForbidden.Error()
	case errors.Is(err, common.ErrNotFound):
		status, msg = http.StatusNotFound, common.ErrNotFound.Error()
	case errors.Is(err, common.ErrInvalidTransition):
		status, msg = http.StatusConflict, common.ErrInvalidTransition.Error()
	default:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}

	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return common.ErrValidation
	}
	return nil
}

type packageResponse struct {
	ID             string    `json:"id"`
	Owner          string    `json:"owner"`
	AssignedAgents []string  `json:"assignedAgents"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	AuditPending   bool      `json:"auditPending,omitempty"`
}

func toPackageResponse(p *models.Package, auditPending bool) packageResponse {
	return packageResponse{
		ID:             p.ID,
		Owner:          p.Owner,
		AssignedAgents: p.AssignedAgents,
		Status:         string(p.Status),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		AuditPending:   auditPending,
	}
}

func toPackageList(pkgs []*models.Package) []packageResponse {
	result := make([]packageResponse, 0, len(pkgs))
	for _, p := range pkgs {
		result = append(result, toPackageResponse(p, false))
	}
	return result
}

type auditEntryResponse struct {
	Seq       int64     `json:"seq"`
	PackageID string    `json:"packageId"`
	ActorID   string    `json:"actorId"`
	ActorRole string    `json:"actorRole"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func toAuditList(entries []*models.AuditEntry) []auditEntryResponse {
	result := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		result = append(result, auditEntryResponse{
			Seq:       e.Seq,
			PackageID: e.PackageID,
			ActorID:   e.ActorID,
			ActorRole: string(e.ActorRole),
			Action:    string(e.Action),
			Detail:    e.Detail,
			Timestamp: e.Timestamp,
		})
	}
	return result
}

type registerRequest struct {
	UserName string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	role, err := models.ParseRole(req.Role)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.users.Register(r.Context(), req.UserName, req.Password, role)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"id":       user.ID,
		"username": user.UserName,
		"role":     string(user.Role),
	})
}

type loginRequest struct {
	UserName string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	pair, err := s.users.Login(r.Context(), req.UserName, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	pair, err := s.users.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

type createPackageRequest struct {
	Owner          string     `json:"owner"`
	AssignedAgents []string   `json:"assignedAgents"`
	PII            models.PII `json:"pii"`
}

func (s *Server) handleCreatePackage(w http.ResponseWriter, r *http.Request) {
	var req createPackageRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	pkg, err := s.packages.CreatePackage(r.Context(), actorFromContext(r.Context()),
		req.Owner, req.AssignedAgents, &req.PII)
	if err != nil && !errors.Is(err, common.ErrAuditGap) {
		s.writeError(w, r, err)
		return
	}

	// An audit gap degrades the response, it does not undo the creation.
	writeJSON(w, http.StatusCreated, toPackageResponse(pkg, errors.Is(err, common.ErrAuditGap)))
}

func (s *Server) handleGetPackage(w http.ResponseWriter, r *http.Request) {
	pkg, err := s.packages.GetPackage(r.Context(), actorFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPackageResponse(pkg, false))
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	next, err := models.ParseStatus(req.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	pkg, err := s.packages.UpdateStatus(r.Context(), actorFromContext(r.Context()), r.PathValue("id"), next)
	if err != nil && !errors.Is(err, common.ErrAuditGap) {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPackageResponse(pkg, errors.Is(err, common.ErrAuditGap)))
}

func (s *Server) handleDecryptPackage(w http.ResponseWriter, r *http.Request) {
	pii, err := s.packages.DecryptPackage(r.Context(), actorFromContext(r.Context()), r.PathValue("id"))
	if err != nil && !errors.Is(err, common.ErrAuditGap) {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		PII          *models.PII `json:"pii"`
		AuditPending bool        `json:"auditPending,omitempty"`
	}{PII: pii, AuditPending: errors.Is(err, common.ErrAuditGap)})
}

func (s *Server) handleAuditByPackage(w http.ResponseWriter, r *http.Request) {
	entries, err := s.packages.AuditByPackage(r.Context(), actorFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuditList(entries))
}

func (s *Server) handleAuditByAgent(w http.ResponseWriter, r *http.Request) {
	entries, err := s.packages.AuditByAgent(r.Context(), actorFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuditList(entries))
}

func (s *Server) handleListByOwner(w http.ResponseWriter, r *http.Request) {
	pkgs, err := s.packages.ListByOwner(r.Context(), actorFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPackageList(pkgs))
}

func (s *Server) handleListByAgent(w http.ResponseWriter, r *http.Request) {
	pkgs, err := s.packages.ListByAssignedAgent(r.Context(), actorFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPackageList(pkgs))
}

func (s *Server) handleRequestProofUpload(w http.ResponseWriter, r *http.Request) {
	proof, url, err := s.proofs.RequestUpload(r.Context(), actorFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"proofId":   proof.ID,
		"uploadUrl": url,
	})
}

func (s *Server) handleMarkProofUploaded(w http.ResponseWriter, r *http.Request) {
	if err := s.proofs.MarkUploaded(r.Context(), actorFromContext(r.Context()), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetProofURL(w http.ResponseWriter, r *http.Request) {
	url, err := s.proofs.GetDownloadURL(r.Context(), actorFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"downloadUrl": url})
}
