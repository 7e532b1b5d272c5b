package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/freshpress/portal-bff-go/internal/domain"
	"github.com/freshpress/portal-bff-go/internal/port"
	"github.com/freshpress/portal-bff-go/internal/session"
)

type messageResponse struct {
	Message string `json:"message"`
}

func authSignupHandler(auth port.AuthAPI, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.SignupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Email == "" || req.Password == "" || req.FullName == "" {
			writeError(w, http.StatusBadRequest, "fullName, email and password are required")
			return
		}

		msg, err := auth.Signup(r.Context(), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if msg == "" {
			msg = "Account created. Check your email to verify your address."
		}
		writeJSON(w, http.StatusCreated, messageResponse{Message: msg})
	}
}

func authLoginHandler(auth port.AuthAPI, mgr *session.Manager, rs *runtimes, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "email and password are required")
			return
		}

		result, err := auth.Login(r.Context(), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		sess, err := mgr.Login(r.Context(), &result.User, result.Token)
		if err != nil {
			// The backend accepted the login; a persistence hiccup only
			// costs session restore after a restart.
			logger.Warn("session persistence failed after login", zap.Error(err))
		}
		rs.forSession(sess)

		logger.Info("user logged in",
			zap.String("user_id", result.User.ID),
			zap.String("role", string(result.User.Role)),
		)
		writeJSON(w, http.StatusOK, result)
	}
}

func authLogoutHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := runtimeFromContext(r.Context())
		userID := ""
		if u := rt.session.User(); u != nil {
			userID = u.ID
		}
		rt.session.Logout(r.Context())
		logger.Info("user logged out", zap.String("user_id", userID))
		writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out"})
	}
}

func authVerifyEmailHandler(auth port.AuthAPI, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")
		if token == "" {
			writeError(w, http.StatusBadRequest, "verification token is required")
			return
		}
		msg, err := auth.VerifyEmail(r.Context(), token)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if msg == "" {
			msg = "Email verified. You can sign in now."
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: msg})
	}
}

func authResendVerificationHandler(auth port.AuthAPI, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.ResendVerificationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
			writeError(w, http.StatusBadRequest, "email is required")
			return
		}
		if err := auth.ResendVerification(r.Context(), req.Email); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "Verification email sent"})
	}
}

func authForgotPasswordHandler(auth port.AuthAPI, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.ForgotPasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
			writeError(w, http.StatusBadRequest, "email is required")
			return
		}
		if err := auth.ForgotPassword(r.Context(), req.Email); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		// Same response whether or not the account exists.
		writeJSON(w, http.StatusOK, messageResponse{Message: "If that account exists, a reset email is on its way"})
	}
}
