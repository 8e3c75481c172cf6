package users

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"doculingua-backend/internal/shared/server/middleware"
	"doculingua-backend/internal/shared/server/respond"
	"doculingua-backend/internal/shared/telemetry"
)

const maxImageBytes = 5 << 20

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes mounts the account endpoints. public carries no auth; protected
// must already run the auth middleware.
func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.POST("/users/signup", h.signup)
	public.POST("/users/login", h.login)
	public.POST("/users/sendOtp", h.sendOTP)
	public.POST("/users/forgot-password", h.forgotPassword)

	protected.GET("/users/me", h.me)
	protected.PUT("/users/me", h.update)
	protected.DELETE("/users/me", h.delete)
	protected.POST("/users/change-password", h.changePassword)
	protected.POST("/users/logout", h.logout)
}

type profileDTO struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	UserImage string    `json:"userImage,omitempty"`
	Languages []string  `json:"languages"`
	Documents []string  `json:"documents"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toProfile(u User) profileDTO {
	langs := u.Languages
	if langs == nil {
		langs = []string{}
	}
	docs := u.Documents
	if docs == nil {
		docs = []string{}
	}
	return profileDTO{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		UserImage: u.UserImage,
		Languages: langs,
		Documents: docs,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type authResponse struct {
	Token string     `json:"token"`
	User  profileDTO `json:"user"`
}

type signupRequest struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type updateRequest struct {
	FullName  *string   `json:"fullName"`
	Email     *string   `json:"email"`
	Languages *[]string `json:"languages"`
	Language  *[]string `json:"language"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

type sendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type forgotPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

func (h *Handler) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "bad_request", "fullName, a valid email and password are required")
		return
	}
	res, err := h.Svc.Signup(c.Request.Context(), SignupInput{FullName: req.FullName, Email: req.Email, Password: req.Password})
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Created(c, authResponse{Token: res.Token, User: toProfile(res.User)})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "bad_request", "email and password are required")
		return
	}
	res, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, authResponse{Token: res.Token, User: toProfile(res.User)})
}

func (h *Handler) me(c *gin.Context) {
	user, err := h.Svc.Me(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, toProfile(user))
}

func (h *Handler) update(c *gin.Context) {
	in, err := bindUpdate(c)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	user, err := h.Svc.UpdateProfile(c.Request.Context(), middleware.UserIDFromContext(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, toProfile(user))
}

func (h *Handler) delete(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.UserIDFromContext(c)
	if err := h.Svc.Delete(ctx, userID); err != nil {
		writeError(c, err)
		return
	}
	tokenID, expiry := middleware.TokenFromContext(c)
	if err := h.Svc.Logout(ctx, tokenID, expiry); err != nil {
		telemetry.Warn("users.delete.revoke_failed", map[string]any{"user_id": userID, "error": err})
	}
	respond.Message(c, http.StatusOK, "account deleted")
}

func (h *Handler) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "bad_request", "currentPassword and newPassword are required")
		return
	}
	if err := h.Svc.ChangePassword(c.Request.Context(), middleware.UserIDFromContext(c), req.CurrentPassword, req.NewPassword); err != nil {
		writeError(c, err)
		return
	}
	respond.Message(c, http.StatusOK, "password updated")
}

func (h *Handler) sendOTP(c *gin.Context) {
	var req sendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "bad_request", "a valid email is required")
		return
	}
	if err := h.Svc.SendOTP(c.Request.Context(), req.Email); err != nil {
		writeError(c, err)
		return
	}
	respond.Message(c, http.StatusOK, "otp sent")
}

func (h *Handler) forgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "bad_request", "a valid email, otp and newPassword are required")
		return
	}
	if err := h.Svc.ResetPassword(c.Request.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		writeError(c, err)
		return
	}
	respond.Message(c, http.StatusOK, "password reset")
}

func (h *Handler) logout(c *gin.Context) {
	tokenID, expiry := middleware.TokenFromContext(c)
	if err := h.Svc.Logout(c.Request.Context(), tokenID, expiry); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to log out")
		return
	}
	respond.Message(c, http.StatusOK, "logged out")
}

// bindUpdate accepts either a JSON body or a multipart form with an optional userImage file.
func bindUpdate(c *gin.Context) (UpdateInput, error) {
	var in UpdateInput
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		var req updateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return in, errors.New("invalid JSON body")
		}
		in.FullName = req.FullName
		in.Email = req.Email
		in.Languages = req.Languages
		if in.Languages == nil {
			in.Languages = req.Language
		}
		return in, nil
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImageBytes+(1<<20))
	if v, ok := c.GetPostForm("fullName"); ok {
		in.FullName = &v
	}
	if v, ok := c.GetPostForm("email"); ok {
		in.Email = &v
	}
	for _, field := range []string{"language[]", "language", "languages"} {
		if langs, ok := c.GetPostFormArray(field); ok {
			in.Languages = &langs
			break
		}
	}

	fh, err := c.FormFile("userImage")
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil
	}
	if err != nil {
		return in, errors.New("invalid multipart body")
	}
	if fh.Size > maxImageBytes {
		return in, errors.New("userImage exceeds 5 MiB")
	}
	f, err := fh.Open()
	if err != nil {
		return in, errors.New("unable to read userImage")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return in, errors.New("unable to read userImage")
	}
	in.Image = &ImageUpload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}
	return in, nil
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		respond.Error(c, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
	case errors.Is(err, ErrInvalidOTP):
		respond.Error(c, http.StatusBadRequest, "invalid_otp", "invalid otp")
	case errors.Is(err, ErrOTPExpired):
		respond.Error(c, http.StatusBadRequest, "otp_expired", "otp expired")
	case errors.Is(err, ErrEmailTaken):
		respond.Error(c, http.StatusConflict, "email_taken", "email already registered")
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "user not found")
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "internal error: "+err.Error())
	}
}
