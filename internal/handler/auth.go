package handler

import (
	"net/http"

	"github.com/akorchak/fleet-dispatch/internal/domain"
	"github.com/akorchak/fleet-dispatch/internal/service"
)

// Signup handles POST /auth/signup.
func (s *Server) Signup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username  string `json:"username"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		Role      string `json:"role"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondErr(w, r, err)
		return
	}

	user, err := s.auth.Signup(r.Context(), service.SignupInput{
		Username:  body.Username,
		Email:     body.Email,
		Password:  body.Password,
		Role:      domain.Role(body.Role),
		FirstName: body.FirstName,
		LastName:  body.LastName,
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}

	respondOK(w, http.StatusCreated, map[string]any{"user": userJSON(user)})
}

// Login handles POST /auth/login.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondErr(w, r, err)
		return
	}

	token, user, err := s.auth.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	respondOK(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  userJSON(user),
	})
}
