package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-inventory/internal/config"
	"github.com/iliyamo/seat-inventory/internal/repository"
	"github.com/iliyamo/seat-inventory/internal/utils"
)

// AuthHandler issues access tokens for seat holders.  Full account
// management (refresh tokens, profiles, email verification) lives in the
// users service; this surface exists so the reservation endpoints have an
// authenticated subject to attribute seats to.
type AuthHandler struct {
	Cfg     config.Config
	Holders *repository.HolderRepo
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(cfg config.Config, holders *repository.HolderRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Holders: holders}
}

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type authResp struct {
	HolderID uint64    `json:"holder_id"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	Token    string    `json:"token"`
	Expires  time.Time `json:"expires"`
}

// Register creates a holder account and returns an access token
// immediately.  New accounts always get the HOLDER role; ADMIN and SERVICE
// principals are provisioned out of band.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Holders.Create(ctx, req.Email, req.Password, "HOLDER", h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create holder failed"})
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, id, "HOLDER", h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusCreated, authResp{
		HolderID: id,
		Email:    req.Email,
		Role:     "HOLDER",
		Token:    access.Token,
		Expires:  access.Exp,
	})
}

// Login verifies credentials and returns a fresh access token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	holder, err := h.Holders.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrHolderNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !holder.IsActive || !utils.VerifyPassword(holder.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, holder.ID, holder.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, authResp{
		HolderID: holder.ID,
		Email:    holder.Email,
		Role:     holder.Role,
		Token:    access.Token,
		Expires:  access.Exp,
	})
}
