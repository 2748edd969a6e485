package api

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"sihacare/m/domain"
)

type ctxKey string

const ctxUser ctxKey = "user"

type authClaims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (h *Handler) generateToken(userID int64, role string) (string, error) {
	claims := authClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.secret))
}

// authMiddleware validates the bearer token and loads the user fresh from
// the store, so role changes and de-approvals take effect immediately.
func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		tokenString := strings.TrimSpace(header[len("Bearer "):])
		token, err := jwt.ParseWithClaims(tokenString, &authClaims{}, func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(h.secret), nil
		})
		if err != nil || !token.Valid {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		claims, ok := token.Claims.(*authClaims)
		if !ok {
			respondError(w, http.StatusUnauthorized, "invalid token claims")
			return
		}

		var user domain.User
		err = h.db.Get(&user,
			`SELECT id, name, email, role, is_approved, created_at FROM users WHERE id = ?`,
			claims.UserID)
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusUnauthorized, "unknown user")
			return
		}
		if err != nil {
			respondError(w, http.StatusInternalServerError, "unable to load user")
			return
		}
		if !user.IsApproved {
			respondError(w, http.StatusForbidden, "account pending approval")
			return
		}

		ctx := context.WithValue(r.Context(), ctxUser, &user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentUser returns the authenticated user stored by authMiddleware.
func currentUser(r *http.Request) *domain.User {
	user, _ := r.Context().Value(ctxUser).(*domain.User)
	return user
}

// requireRole checks that the authenticated user holds one of the allowed
// roles; this is the capability gate in front of every ledger mutation.
func (h *Handler) requireRole(w http.ResponseWriter, r *http.Request, allowed ...string) bool {
	user := currentUser(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return false
	}
	for _, role := range allowed {
		if user.Role == role {
			return true
		}
	}
	respondError(w, http.StatusForbidden, "insufficient permissions")
	return false
}

// Auth handlers

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "name, email and password are required")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to secure password")
		return
	}

	// The first account becomes an approved admin so the instance can be
	// bootstrapped; everyone after that waits for an admin.
	role := domain.RoleUnassigned
	approved := 0
	var existing int
	if err := h.db.Get(&existing, `SELECT COUNT(*) FROM users`); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to register")
		return
	}
	if existing == 0 {
		role = domain.RoleAdmin
		approved = 1
	}

	res, err := h.db.Exec(
		`INSERT INTO users (name, email, password, role, is_approved) VALUES (?, ?, ?, ?, ?)`,
		req.Name, req.Email, hashed, role, approved)
	if err != nil {
		respondError(w, http.StatusConflict, "email already exists")
		return
	}
	userID, _ := res.LastInsertId()

	token, err := h.generateToken(userID, role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}

	respondJSON(w, http.StatusCreated, authResponse{
		Token: token,
		User: domain.User{
			ID:         userID,
			Name:       req.Name,
			Email:      req.Email,
			Role:       role,
			IsApproved: approved == 1,
		},
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var user domain.User
	err := h.db.Get(&user,
		`SELECT id, name, email, password, role, is_approved, created_at FROM users WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.generateToken(user.ID, user.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}

	user.Password = ""
	respondJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, currentUser(r))
}
