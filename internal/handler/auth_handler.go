package handler

import (
	"net/http"
	"time"

	"shopcrm/internal/model"
	"shopcrm/pkg/database"
	"shopcrm/pkg/jwtutil"
	"shopcrm/pkg/logger"
	"shopcrm/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Register handles user registration
func Register(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RegisterCounter.Inc()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Email == "" || req.Password == "" {
		prometheus.RecordError("incomplete_registration")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	user := model.User{
		Email:    req.Email,
		Password: string(hashed),
		Name:     req.Name,
		Role:     model.RoleCustomer,
	}

	// New users joining on a tenant host belong to that tenant
	if t, ok := tenantFromContext(c); ok {
		user.TenantID = &t.ID
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().WithContext(c.Request().Context()).Create(&user); result.Error != nil {
		log.Error("Failed to create user", zap.String("email", req.Email), zap.Error(result.Error))
		prometheus.RecordError("registration_failed")
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	}

	log.Info("User registered", zap.Uint("id", user.ID), zap.String("email", user.Email))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "registration successful",
		"user":    user,
	})
}

// Login handles user authentication and token issuance
func Login(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	result := database.GetDB().WithContext(c.Request().Context()).Where("email = ?", req.Email).First(&user)
	if result.Error != nil {
		log.Warn("User not found", zap.String("email", req.Email))
		prometheus.RecordError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Warn("Invalid password", zap.String("email", req.Email))
		prometheus.RecordError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	// Users logging in on a tenant host must belong to that tenant
	tenantName := ""
	if t, ok := tenantFromContext(c); ok {
		if user.Role != model.RoleMasterAdmin && (user.TenantID == nil || *user.TenantID != t.ID) {
			log.Warn("Login attempt on wrong tenant host",
				zap.String("email", req.Email), zap.Uint("host_tenant_id", t.ID))
			prometheus.RecordError("tenant_access_denied")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
		}
		tenantName = t.Name
	}

	token, err := jwtutil.GenerateToken(user.Email, user.ID, user.Role, user.TenantID, tenantName)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	log.Info("User logged in", zap.Uint("id", user.ID), zap.String("email", user.Email))
	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"user":  user,
	})
}

// GetProfile returns the authenticated user's record
func GetProfile(c echo.Context) error {
	log := logger.FromEcho(c)

	userID, ok := userIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var user model.User
	if result := database.GetDB().WithContext(c.Request().Context()).First(&user, userID); result.Error != nil {
		log.Error("User not found", zap.Uint("id", userID), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	return c.JSON(http.StatusOK, user)
}
