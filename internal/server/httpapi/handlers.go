package httpapi

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/gophauth/internal/common"
	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"github.com/dmitrijs2005/gophauth/internal/server/guard"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/dmitrijs2005/gophauth/internal/server/views"
	"github.com/go-chi/chi/v5"
)

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, pb.StatusResponse{Success: true, Message: "gophauth is alive"})
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var req pb.RegisterRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}

	tokens, err := h.identity.Register(r.Context(), views.RegisterInput(req))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, views.Tokens(tokens))
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req pb.LoginRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}

	tokens, err := h.identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, views.Tokens(tokens))
}

func (h *handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req pb.RefreshRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}

	access, err := h.identity.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, views.Access(access))
}

func (h *handler) changePassword(w http.ResponseWriter, r *http.Request) {
	u, _ := guard.PrincipalFromContext(r.Context())

	var req pb.ChangePasswordRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := h.identity.ChangePassword(r.Context(), u.ID, req.OldPassword, req.NewPassword); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, pb.StatusResponse{Success: true, Message: "Password changed successfully"})
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	u, _ := guard.PrincipalFromContext(r.Context())

	if err := h.identity.Logout(r.Context(), u); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, pb.StatusResponse{Success: true, Message: "Logged out successfully"})
}

func (h *handler) getMe(w http.ResponseWriter, r *http.Request) {
	u, _ := guard.PrincipalFromContext(r.Context())
	respondJSON(w, http.StatusOK, views.User(u))
}

func (h *handler) updateMe(w http.ResponseWriter, r *http.Request) {
	u, _ := guard.PrincipalFromContext(r.Context())

	var req pb.UpdateMeRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}

	updated, err := h.identity.UpdateProfile(r.Context(), u.ID, views.ProfileUpdate(req))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, views.User(updated))
}

// queryInt returns the named query parameter and whether it was present.
func queryInt(r *http.Request, name string) (int, bool, error) {
	q := r.URL.Query()
	if !q.Has(name) {
		return 0, false, nil
	}
	v, err := strconv.Atoi(q.Get(name))
	if err != nil {
		return 0, true, common.NewError(common.ErrValidation, name+": must be an integer.")
	}
	return v, true, nil
}

func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	skip, _, err := queryInt(r, "skip")
	if err != nil {
		respondError(w, err)
		return
	}
	limit, ok, err := queryInt(r, "limit")
	if err != nil {
		respondError(w, err)
		return
	}
	if !ok {
		limit = services.DefaultListLimit
	}

	list, err := h.identity.ListUsers(r.Context(), skip, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, views.Users(list).Users)
}

func (h *handler) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.identity.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, views.User(u))
}

func (h *handler) deactivateUser(w http.ResponseWriter, r *http.Request) {
	if err := h.identity.Deactivate(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, pb.StatusResponse{Success: true, Message: "User deactivated successfully"})
}
