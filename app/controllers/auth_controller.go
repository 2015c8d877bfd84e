package controllers

import (
	"github.com/shashiranjanraj/storefront/app/requests"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
)

type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

func (ac *AuthController) Login(c *ctx.Context) {
	var req requests.Login
	if !c.DecodeJSON(&req) {
		return
	}
	session, err := ac.auth.Login(c.Context(), req)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(session)
}
