package v1

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"chatter-server/services/auth-api/internal/domain/user"
	"chatter-server/services/auth-api/internal/interfaces/httpserver/handlers/userhandler"
	"chatter-server/services/auth-api/internal/interfaces/httpserver/middlewares"
	"chatter-server/services/auth-api/internal/interfaces/httpserver/requests"
	"chatter-server/services/auth-api/internal/interfaces/httpserver/responses"
)

// RegisterPublicRoutes registers the routes that need no credentials.
func RegisterPublicRoutes(router gin.IRoutes, handler *userhandler.Handler) {
	router.POST("/users/create-user/", createUser(handler))
	router.POST("/users/token/", token(handler))
	router.POST("/users/token/refresh/", refreshToken(handler))
	router.POST("/users/search-by-username/", searchByUsername(handler))
}

// RegisterServiceRoutes registers the service-to-service routes; mount them
// behind the RequireServiceKey middleware.
func RegisterServiceRoutes(router gin.IRoutes, handler *userhandler.Handler) {
	router.POST("/users/verify-token/", verifyToken(handler))
}

// RegisterAccountRoutes registers the routes acting on the authenticated
// account; mount them behind the RequireAuth middleware.
func RegisterAccountRoutes(router gin.IRoutes, handler *userhandler.Handler) {
	router.POST("/users/verify-user/", verifyOTP(handler))
	router.GET("/users/resend-otp/", resendOTP(handler))
	router.GET("/users/profile/", profile)
	router.POST("/users/logout/", logout(handler))
}

func createUser(handler *userhandler.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req requests.CreateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.HandleValidationError(c, err)
			return
		}

		u, err := handler.Register(c.Request.Context(), user.RegisterInput{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Username:  req.Username,
			Email:     req.Email,
			Password:  req.Password,
		})
		if err != nil {
			responses.HandleError(c, err, "failed to register user")
			return
		}

		c.JSON(http.StatusCreated, responses.RegisterResponse{
			Message: fmt.Sprintf("Registered successfully. OTP sent to %s, expires in 10min", u.Email),
			Data:    u.Profile(),
		})
	}
}

func token(handler *userhandler.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req requests.TokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.HandleValidationError(c, err)
			return
		}

		pair, err := handler.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			responses.HandleError(c, err, "failed to log in")
			return
		}

		c.JSON(http.StatusOK, responses.TokenPairResponse{
			Access:  pair.Access,
			Refresh: pair.Refresh,
		})
	}
}

func refreshToken(handler *userhandler.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req requests.RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.HandleValidationError(c, err)
			return
		}

		access, err := handler.Refresh(c.Request.Context(), req.Refresh)
		if err != nil {
			responses.HandleError(c, err, "failed to refresh token")
			return
		}

		c.JSON(http.StatusOK, responses.AccessTokenResponse{Access: access})
	}
}

func verifyOTP(handler *userhandler.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := middlewares.CurrentUser(c)

		var req requests.VerifyOTPRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, responses.MessageResponse{Message: "OTP is required."})
			return
		}

		if err := handler.VerifyOTP(c.Request.Context(), u.ID, req.OTP); err != nil {
			responses.HandleError(c, err, "failed to verify account")
			return
		}

		c.JSON(http.StatusAccepted, responses.MessageResponse{Message: "Account verified."})
	}
}

func resendOTP(handler *userhandler.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := middlewares.CurrentUser(c)

		if err := handler.ResendOTP(c.Request.Context(), u.ID); err != nil {
			responses.HandleError(c, err, "failed to resend otp")
			return
		}

		c.JSON(http.StatusOK, responses.MessageResponse{Message: "OTP sent successfully, Expires in 10min."})
	}
}

func profile(c *gin.Context) {
	u := middlewares.CurrentUser(c)
	c.JSON(http.StatusOK, responses.ProfileResponse{User: u.Profile()})
}

func logout(handler *userhandler.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req requests.LogoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.HandleValidationError(c, err)
			return
		}

		if err := handler.Logout(c.Request.Context(), req.Refresh); err != nil {
			c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "Invalid token."})
			return
		}

		c.JSON(http.StatusOK, responses.MessageResponse{Message: "Logout successful."})
	}
}

func verifyToken(handler *userhandler.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req requests.VerifyTokenRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
			c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "Token required"})
			return
		}

		u, err := handler.VerifyAccessToken(c.Request.Context(), req.Token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, responses.VerifyTokenResponse{
				Valid: false,
				Error: "invalid token",
			})
			return
		}

		p := u.Profile()
		c.JSON(http.StatusOK, responses.VerifyTokenResponse{Valid: true, User: &p})
	}
}

func searchByUsername(handler *userhandler.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req requests.SearchByUsernameRequest
		if err := c.ShouldBindJSON(&req); err != nil || len(req.Usernames) == 0 {
			c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "usernames must be a non-empty list"})
			return
		}

		users, err := handler.SearchByUsernames(c.Request.Context(), req.Usernames)
		if err != nil {
			responses.HandleError(c, err, "failed to search users")
			return
		}

		c.JSON(http.StatusOK, responses.NewSearchByUsernameResponse(users))
	}
}
