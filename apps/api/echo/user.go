package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/masomo/dashboard/core/identity"
	"github.com/masomo/dashboard/core/policy"
	"github.com/masomo/dashboard/core/session"
)

type (
	userApi struct {
		svc        *identity.Service
		issuer     *tokenIssuer
		validate   *validator.Validate
		translator ut.Translator
	}

	UserResponse struct {
		User identity.Identity `json:"user"`
	}

	TokenResponse struct {
		Token string `json:"token"`
	}

	CapabilitiesResponse struct {
		Role         identity.Role       `json:"role"`
		Capabilities []policy.Capability `json:"capabilities"`
	}
)

func newUserApi(issuer *tokenIssuer, opts *Options) *userApi {
	return &userApi{
		svc:        opts.IdentitySvc,
		issuer:     issuer,
		validate:   opts.Validate,
		translator: opts.Translator,
	}
}

func registerAuthAPI(g *echo.Group, issuer *tokenIssuer, opts *Options) {
	api := newUserApi(issuer, opts)

	ag := g.Group("/auth")
	ag.POST("/login", api.login)
	ag.POST("/token-refresh", api.refreshToken, issuer.middleware())
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := newUserApi(nil, opts)

	ug := g.Group("/users", jwt)
	ug.GET("/profile", api.profile)
	ug.PUT("/profile", api.updateProfile)
	ug.GET("/capabilities", api.capabilities)
	ug.GET("", api.query, capabilityMiddleware(api.svc, policy.ManageUsers))
	ug.GET("/roles", api.queryRoles, capabilityMiddleware(api.svc, policy.ManageUsers))
}

// Handlers

func (api *userApi) login(ctx echo.Context) error {
	var creds identity.Credentials
	if err := ctx.Bind(&creds); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}
	if err := creds.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Authenticate(ctx.Request().Context(), creds)
	if err != nil {
		switch err {
		case identity.ErrInvalidCredentials:
			return errAuthenticationFailed
		case identity.ErrAccountDeactivated:
			return errAccountDeactivated
		default:
			return errors.Wrap(err, "authenticating")
		}
	}
	token, err := api.issuer.generateToken(api.issuer.userClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, session.AuthResponse{Token: token, Identity: usr.Identity()})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := api.issuer.refresh(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

func (api *userApi) profile(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, UserResponse{User: usr.Identity()})
}

func (api *userApi) updateProfile(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data identity.UpdateProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err := data.Validate(usr, api.validate, api.svc); err != nil {
		return err
	}

	usr, err = api.svc.UpdateProfile(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, UserResponse{User: usr.Identity()})
}

func (api *userApi) capabilities(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, CapabilitiesResponse{
		Role:         usr.Role,
		Capabilities: policy.Capabilities(usr.Role),
	})
}

func (api *userApi) query(ctx echo.Context) error {
	users, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	idents := make([]identity.Identity, 0, len(users))
	for _, usr := range users {
		idents = append(idents, usr.Identity())
	}
	return ctx.JSON(http.StatusOK, idents)
}

func (api *userApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, identity.Roles)
}
