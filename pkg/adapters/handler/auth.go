package handler

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/wadjakorntonsri/kind-letters/pkg/config"
)

const (
	authCookieName  = "auth_token"
	stateCookieName = "oauthstate"
	sessionTTL      = 24 * time.Hour

	// subject used for tokens issued through the shared password
	passwordModerator = "moderator"

	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// AuthHandler issues moderator session tokens, either for the shared admin
// password or for an allowlisted Google account.
type AuthHandler struct {
	oauthConfig   *oauth2.Config
	userInfoURL   string
	adminPassword []byte
	jwtSecret     []byte
	frontendURL   string
	allowedEmails []string
	isProduction  bool
	trustProxy    bool
	logger        *zap.Logger
}

type GoogleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// LoginRequest payload
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse carries the token for clients that cannot use cookies
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func NewAuthHandler(cfg *config.Config, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL:   googleUserInfoURL,
		adminPassword: []byte(cfg.AdminPassword),
		jwtSecret:     []byte(cfg.JWTSecret),
		frontendURL:   cfg.FrontendURL,
		allowedEmails: cfg.AllowedEmails,
		isProduction:  cfg.IsProduction(),
		trustProxy:    cfg.TrustProxy,
		logger:        logger,
	}
}

// Login exchanges the shared admin password for a session token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	if len(h.adminPassword) == 0 || !passwordMatches(h.adminPassword, []byte(req.Password)) {
		h.logger.Warn("admin login failed", zap.String("remote_addr", clientIP(r, h.trustProxy)))
		writeError(w, http.StatusUnauthorized, "incorrect password")
		return
	}

	token, expiresAt, err := h.issueSession(w, passwordModerator)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: expiresAt})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    "",
		Expires:  time.Now().Add(-1 * time.Hour),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := h.generateStateOauthCookie(w)
	url := h.oauthConfig.AuthCodeURL(state)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	oauthState, err := r.Cookie(stateCookieName)
	if err != nil {
		h.logger.Warn("oauth callback without state cookie", zap.Error(err))
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return
	}

	if r.FormValue("state") != oauthState.Value {
		h.logger.Warn("oauth callback with mismatched state")
		writeError(w, http.StatusBadRequest, "invalid oauth state")
		return
	}

	token, err := h.oauthConfig.Exchange(r.Context(), r.FormValue("code"))
	if err != nil {
		h.logger.Error("oauth code exchange failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "code exchange failed")
		return
	}

	resp, err := h.oauthConfig.Client(r.Context(), token).Get(h.userInfoURL)
	if err != nil {
		h.logger.Error("failed getting user info", zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed getting user info")
		return
	}
	defer resp.Body.Close()

	var googleUser GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&googleUser); err != nil {
		h.logger.Error("failed decoding user info", zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed decoding user info")
		return
	}

	// An empty allowlist admits nobody; the shared password stays the fallback.
	if !googleUser.VerifiedEmail || !slices.Contains(h.allowedEmails, googleUser.Email) {
		h.logger.Warn("google login denied", zap.String("email", googleUser.Email))
		writeError(w, http.StatusForbidden, "access denied: your email is not in the allowlist")
		return
	}

	if _, _, err := h.issueSession(w, googleUser.Email); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	h.logger.Info("moderator login", zap.String("email", googleUser.Email))
	http.Redirect(w, r, h.frontendURL, http.StatusTemporaryRedirect)
}

// issueSession signs a token for subject and sets it as the auth cookie.
func (h *AuthHandler) issueSession(w http.ResponseWriter, subject string) (string, time.Time, error) {
	expirationTime := time.Now().Add(sessionTTL)
	claims := &jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expirationTime),
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.jwtSecret)
	if err != nil {
		return "", time.Time{}, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    tokenString,
		Expires:  expirationTime,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	return tokenString, expirationTime, nil
}

func (h *AuthHandler) generateStateOauthCookie(w http.ResponseWriter) string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	state := base64.URLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Expires:  time.Now().Add(20 * time.Minute),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	return state
}

// passwordMatches compares digests so the comparison time does not depend
// on the length of either input.
func passwordMatches(want, got []byte) bool {
	a := sha256.Sum256(want)
	b := sha256.Sum256(got)
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}
