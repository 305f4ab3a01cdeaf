package user

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/paramedia/dispatch/internal/auth"
	"github.com/paramedia/dispatch/internal/shared/errors"
	"github.com/paramedia/dispatch/internal/shared/events"
	"github.com/paramedia/dispatch/internal/shared/listing"
	"github.com/paramedia/dispatch/internal/shared/metrics"
	"github.com/paramedia/dispatch/internal/shared/types"
)

// Handler provides HTTP handlers for the users collection
type Handler struct {
	repo   *Repository
	tokens *auth.Tokens
	bus    *events.Bus
}

// NewHandler creates a new user handler
func NewHandler(repo *Repository, tokens *auth.Tokens, bus *events.Bus) *Handler {
	return &Handler{repo: repo, tokens: tokens, bus: bus}
}

// Register attaches the user routes. Every route re-checks its permission
// against the store; the route chosen decides which visibility tier's
// filter applies.
func (h *Handler) Register(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.With(auth.Require("users", auth.PermViewUsers)).Get("/", h.List)
		r.With(auth.Require("users", auth.PermCreateUsers)).Post("/", h.Create)

		r.Route("/{userID}", func(r chi.Router) {
			r.With(auth.Require("users", auth.PermViewUsers)).Get("/", h.Get)
			r.With(auth.Require("users", auth.PermEditUsers)).Put("/", h.Update)
			r.With(auth.Require("users", auth.PermDeleteUsers)).Delete("/", h.Delete)
		})
	})

	r.Route("/turn-users", func(r chi.Router) {
		r.With(auth.Require("users", auth.PermViewTurnUsers)).Get("/", h.TurnList)
		r.With(auth.Require("users", auth.PermViewTurnUsers)).Get("/{userID}", h.TurnGet)
	})
}

// Login authenticates by email and password and issues a session token.
// The response carries the redacted user document alongside the token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if req.Username == "" || req.Password == "" {
		writeError(w, errors.BadRequest("username and password are required"))
		return
	}

	u, err := h.repo.GetByEmail(r.Context(), req.Username)
	if err != nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
		// Same answer for unknown user and wrong password.
		metrics.RecordLogin("failed")
		writeError(w, errors.Authentication("invalid username or password"))
		return
	}

	token, err := h.tokens.Issue(u.ID)
	if err != nil {
		writeError(w, errors.Internal(err))
		return
	}

	metrics.RecordLogin("ok")
	h.publish(r, "auth.login", u.ID, u.FullName(), map[string]any{"user_id": u.ID})

	writeJSON(w, http.StatusOK, LoginResponse{User: u, Token: token})
}

// List lists all users (global tier)
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, total, err := h.repo.List(r.Context(), auth.GlobalScope(), listing.Parse(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeList(w, users, total)
}

// TurnList lists the users sharing a shift with the requester (shift tier)
func (h *Handler) TurnList(w http.ResponseWriter, r *http.Request) {
	ident := auth.GetIdentity(r.Context())
	scope := auth.ShiftScope(ident.ID, ident.Shifts)

	users, total, err := h.repo.List(r.Context(), scope, listing.Parse(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeList(w, users, total)
}

// Get gets a user by ID (global tier)
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid user ID"))
		return
	}

	u, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, u)
}

// TurnGet gets a single user, re-checking shift membership after the fetch:
// an existing record outside the requester's shifts is forbidden, not
// hidden as missing.
func (h *Handler) TurnGet(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid user ID"))
		return
	}

	u, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	ident := auth.GetIdentity(r.Context())
	if !auth.ShiftScope(ident.ID, ident.Shifts).AllowsUser(u.ID, u.Shifts) {
		writeError(w, errors.Authorization("user is not in your shifts"))
		return
	}

	writeJSON(w, http.StatusOK, u)
}

// Create creates a new user
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if details := req.Validate(); len(details) > 0 {
		writeError(w, errors.Validation("validation failed", details))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, errors.Internal(err))
		return
	}

	// Permissions default from the role only when the request carries none;
	// they are stored as their own field from here on.
	permissions := req.Permissions
	if permissions == nil {
		permissions = auth.DefaultPermissionsFor(req.Role)
	}

	shifts := req.Shifts
	if shifts == nil {
		shifts = []string{}
	}

	ident := auth.GetIdentity(r.Context())
	var addedBy *types.ID
	if ident != nil {
		addedBy = &ident.ID
	}

	u := &User{
		ID:           types.NewID(),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		BirthDate:    req.BirthDate,
		RegisteredAt: time.Now().UTC().Format("2006-01-02"),
		Phone:        req.Phone,
		Email:        req.Email,
		CURP:         req.CURP,
		Address:      req.Address,
		Role:         req.Role,
		Shifts:       shifts,
		Permissions:  permissions,
		PasswordHash: hash,
		AddedBy:      addedBy,
	}

	if err := h.repo.Create(r.Context(), u); err != nil {
		writeError(w, err)
		return
	}

	if ident != nil {
		h.publish(r, "user.created", ident.ID, ident.Name, map[string]any{
			"user_id": u.ID,
			"email":   u.Email,
			"role":    u.Role,
		})
	}

	writeJSON(w, http.StatusCreated, u)
}

// Update updates a user
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid user ID"))
		return
	}

	u, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if details := req.Validate(); len(details) > 0 {
		writeError(w, errors.Validation("validation failed", details))
		return
	}

	u.FirstName = req.FirstName
	u.LastName = req.LastName
	u.BirthDate = req.BirthDate
	u.Phone = req.Phone
	u.Email = req.Email
	u.CURP = req.CURP
	u.Address = req.Address
	u.Role = req.Role
	if req.Shifts != nil {
		u.Shifts = req.Shifts
	}
	if req.Permissions != nil {
		u.Permissions = req.Permissions
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			writeError(w, errors.Internal(err))
			return
		}
		u.PasswordHash = hash
	}

	if err := h.repo.Update(r.Context(), u); err != nil {
		writeError(w, err)
		return
	}

	if ident := auth.GetIdentity(r.Context()); ident != nil {
		h.publish(r, "user.updated", ident.ID, ident.Name, map[string]any{"user_id": u.ID})
	}

	writeJSON(w, http.StatusOK, u)
}

// Delete deletes a user. Their outstanding tokens keep verifying until
// expiry, but identity resolution fails from now on, so every later request
// is rejected.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid user ID"))
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	if ident := auth.GetIdentity(r.Context()); ident != nil {
		h.publish(r, "user.deleted", ident.ID, ident.Name, map[string]any{"user_id": id})
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) publish(r *http.Request, eventType string, actorID types.ID, actorName string, data map[string]any) {
	if h.bus == nil {
		return
	}
	event := events.NewEvent(eventType, "users", data).WithActor(actorID, actorName)
	h.bus.Publish(r.Context(), event)
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeList writes a page as a bare array with the scoped total in
// X-Total-Count, the contract the admin frontend paginates against.
func writeList(w http.ResponseWriter, users []User, total int) {
	if users == nil {
		users = []User{}
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	writeJSON(w, http.StatusOK, users)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	if appErr, ok := err.(*errors.AppError); ok {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
