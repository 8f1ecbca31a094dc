package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/majdjoubi/halqa/internal/auth"
	"github.com/majdjoubi/halqa/internal/connect"
	"github.com/majdjoubi/halqa/internal/helpers"
	"github.com/majdjoubi/halqa/internal/middleware"
	"github.com/majdjoubi/halqa/internal/models"
	"github.com/majdjoubi/halqa/internal/services"
)

// signUpErrorStatus maps a sign-up failure to its HTTP status: a transient
// provider condition (session not propagated yet) is 503 so the client
// retries, a permanent rejection such as a duplicate email is 409.
func signUpErrorStatus(err error) int {
	var authErr *auth.AuthError
	if errors.As(err, &authErr) {
		if authErr.Temporary {
			return http.StatusServiceUnavailable
		}
		return http.StatusConflict
	}
	return http.StatusBadRequest
}

func SignUp(a *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input services.SignUpInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		session, tokens, err := a.SignUp(c.Request.Context(), input)
		if err != nil {
			var authErr *auth.AuthError
			if errors.As(err, &authErr) {
				c.JSON(signUpErrorStatus(err), models.ErrorResponse(authErr.Message))
				return
			}
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		if tokens != nil {
			middleware.SetAuthCookies(c, tokens.AccessToken, tokens.RefreshToken, tokens.ExpiresIn)
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(session, "account created"))
	}
}

func SignIn(a *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid request payload"))
			return
		}

		session, tokens, err := a.SignIn(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			var authErr *auth.AuthError
			if errors.As(err, &authErr) {
				c.JSON(http.StatusUnauthorized, models.ErrorResponse(authErr.Message))
				return
			}
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		if tokens != nil {
			middleware.SetAuthCookies(c, tokens.AccessToken, tokens.RefreshToken, tokens.ExpiresIn)
		}
		c.JSON(http.StatusOK, models.SuccessResponse(session, "signed in"))
	}
}

// SignOut clears the local session and cookies even when the provider call
// fails or no session exists; signing out twice is not an error.
func SignOut(a *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken, _ := c.Cookie("access_token")

		_ = a.SignOut(c.Request.Context(), accessToken)
		middleware.ClearAuthCookies(c)

		c.JSON(http.StatusOK, models.SuccessResponse(nil, "signed out"))
	}
}

// GetSession returns the caller's resolved session. A session without a
// profile is valid; clients use it to prompt profile completion.
func GetSession(a *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, exists := c.Get("access_token")
		if !exists {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("unauthorized"))
			return
		}

		session, err := a.Restore(c.Request.Context(), token.(string))
		if err != nil {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("invalid or expired token"))
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(session, ""))
	}
}

func UpdateProfile(a *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, exists := c.Get("user")
		if !exists {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("unauthorized"))
			return
		}
		principal, ok := claims.(*helpers.Principal)
		if !ok {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse("invalid user claims"))
			return
		}

		var fields map[string]interface{}
		if err := c.ShouldBindJSON(&fields); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		accessToken, _ := c.Cookie("access_token")

		profile, err := a.UpdateProfile(
			c.Request.Context(),
			principal.UserID,
			models.ParseRole(principal.Role),
			fields,
			accessToken,
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(profile, "profile updated"))
	}
}

// UploadProfileImage pushes the image to Cloudinary and stores the hosted
// URL on the caller's profile.
func UploadProfileImage(a *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, exists := c.Get("user")
		if !exists {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("unauthorized"))
			return
		}
		principal, ok := claims.(*helpers.Principal)
		if !ok {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse("invalid user claims"))
			return
		}

		var req struct {
			ImageData string `json:"image_data" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("image_data is required"))
			return
		}

		imageURL, err := helpers.UploadProfileImage(c.Request.Context(), connect.Cld, req.ImageData)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse(err.Error()))
			return
		}

		accessToken, _ := c.Cookie("access_token")
		profile, err := a.UpdateProfile(
			c.Request.Context(),
			principal.UserID,
			models.ParseRole(principal.Role),
			map[string]interface{}{"profile_image_url": imageURL},
			accessToken,
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(profile, "profile image updated"))
	}
}

// HealthCheck reports API liveness plus best-effort auth provider
// reachability; a provider probe failure is informational, not an error.
func HealthCheck(a *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":         "OK",
			"service":        "halqa-api",
			"auth_reachable": a.TestConnection(c.Request.Context()),
		})
	}
}
