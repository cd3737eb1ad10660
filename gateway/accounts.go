package gateway

import (
	"net/http"

	"github.com/example/storefront/pkg/service"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type deviceTokenRequest struct {
	FCMToken string `json:"fcmToken"`
}

type checkEmailRequest struct {
	Email string `json:"email"`
}

func (g *Gateway) registerAdmin(c *gin.Context) {
	var req service.RegisterAdminInput
	if !g.bind(c, &req) {
		return
	}
	admin, err := g.svc.Accounts.RegisterAdmin(c.Request.Context(), req)
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Admin registered", admin)
}

func (g *Gateway) loginAdmin(c *gin.Context) {
	var req loginRequest
	if !g.bind(c, &req) {
		return
	}
	session, admin, err := g.svc.Accounts.LoginAdmin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Login successful", gin.H{
		"token": session.Token,
		"role":  session.Role,
		"admin": admin,
	})
}

func (g *Gateway) changePassword(c *gin.Context) {
	var req service.ChangePasswordInput
	if !g.bind(c, &req) {
		return
	}
	if err := g.svc.Accounts.ChangePassword(c.Request.Context(), subject(c), req); err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Password changed", nil)
}

func (g *Gateway) setDeviceToken(c *gin.Context) {
	var req deviceTokenRequest
	if !g.bind(c, &req) {
		return
	}
	if err := g.svc.Accounts.SetAdminDeviceToken(c.Request.Context(), subject(c), req.FCMToken); err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Device token saved", nil)
}

func (g *Gateway) getStore(c *gin.Context) {
	store, err := g.svc.Accounts.GetStore(c.Request.Context(), subject(c))
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Store", store)
}

func (g *Gateway) saveStore(c *gin.Context) {
	var req service.StoreInput
	if !g.bind(c, &req) {
		return
	}
	store, err := g.svc.Accounts.SaveStore(c.Request.Context(), subject(c), req)
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Store saved", store)
}

func (g *Gateway) updateStoreLogo(c *gin.Context) {
	logo, closeLogo, ok := g.formImage(c, "logo")
	if !ok {
		return
	}
	defer closeLogo()
	if logo == nil {
		abort(c, http.StatusBadRequest, "logo is required")
		return
	}

	store, err := g.svc.Accounts.UpdateStoreLogo(c.Request.Context(), subject(c), logo)
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Store logo updated", store)
}

// Mobile users

func (g *Gateway) checkEmail(c *gin.Context) {
	var req checkEmailRequest
	if !g.bind(c, &req) {
		return
	}
	res, err := g.svc.Accounts.CheckEmail(c.Request.Context(), req.Email)
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Email checked", res)
}

func (g *Gateway) mobileSignup(c *gin.Context) {
	var req service.MobileSignupInput
	if !g.bind(c, &req) {
		return
	}
	user, session, created, err := g.svc.Accounts.MobileSignup(c.Request.Context(), req)
	if err != nil {
		g.fail(c, err)
		return
	}
	data := gin.H{"user": user, "token": session.Token}
	if !created {
		respond(c, http.StatusOK, "User already registered", data)
		return
	}
	respond(c, http.StatusCreated, "User registered", data)
}

func (g *Gateway) getProfile(c *gin.Context) {
	user, err := g.svc.Accounts.GetProfile(c.Request.Context(), subject(c))
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Profile", user)
}

func (g *Gateway) updateProfile(c *gin.Context) {
	var req service.ProfileInput
	if !g.bind(c, &req) {
		return
	}
	user, err := g.svc.Accounts.UpdateProfile(c.Request.Context(), subject(c), req)
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Profile updated", user)
}
