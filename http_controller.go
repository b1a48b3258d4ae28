package auth

import (
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// MessageUserRegistered is the body of a successful registration
const MessageUserRegistered = "User registered successfully"

// RouteRegistrar captures the router methods used by the controllers.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Put(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

type AuthControllerRoutes struct {
	Login    []string
	Register []string
}

type AuthController struct {
	Debug  bool
	Logger Logger
	Auther *Auther
	Routes *AuthControllerRoutes
	// HashidUserIDs derives new user IDs from the email
	HashidUserIDs bool
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		ac.Logger = ensureLogger(logger, "auth.controller")
		return ac
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		ac.Debug = debug
		return ac
	}
}

func WithControllerHashidUserIDs(enabled bool) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		ac.HashidUserIDs = enabled
		return ac
	}
}

func NewAuthController(auther *Auther, opts ...AuthControllerOption) *AuthController {
	if auther == nil {
		panic("Missing Auther in auth controller...")
	}

	c := &AuthController{
		Auther: auther,
		Logger: newDefLogger("auth.controller"),
		Routes: &AuthControllerRoutes{
			Login:    []string{"/api/v1/auth/login", "/api/v1/auth/signin"},
			Register: []string{"/api/v1/auth/register", "/api/v1/auth/signup"},
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	return c
}

// RegisterRoutes mounts login and registration on r. Both are public.
func (a *AuthController) RegisterRoutes(r RouteRegistrar) {
	for i, path := range a.Routes.Login {
		r.Post(path, a.Login).SetName(fmt.Sprintf("auth.login.%d", i))
	}
	for i, path := range a.Routes.Register {
		r.Post(path, a.Register).SetName(fmt.Sprintf("auth.register.%d", i))
	}
}

// LoginPayload is the login request body
type LoginPayload struct {
	UsernameOrEmail string `json:"usernameOrEmail"`
	Password        string `json:"password"`
}

// Validate will run validation rules
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UsernameOrEmail, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// JWTAuthResponse is returned by a successful login
type JWTAuthResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
}

func (a *AuthController) Login(ctx router.Context) error {
	payload := new(LoginPayload)
	if err := ctx.Bind(payload); err != nil {
		return ErrMalformedPayload
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	token, err := a.Auther.Login(ctx.Context(), payload.UsernameOrEmail, payload.Password)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, JWTAuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
	})
}

// RegisterPayload is the registration request body
type RegisterPayload struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will validate the payload
func (r RegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Username, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100)),
	)
}

func (a *AuthController) Register(ctx router.Context) error {
	payload := new(RegisterPayload)
	if err := ctx.Bind(payload); err != nil {
		return ErrMalformedPayload
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	user, err := a.Auther.Register(ctx.Context(), RegisterUserMessage{
		Name:      payload.Name,
		Username:  payload.Username,
		Email:     payload.Email,
		Password:  payload.Password,
		UseHashid: a.HashidUserIDs,
	})
	if err != nil {
		return err
	}

	if a.Debug {
		// PasswordHash is excluded from JSON
		fmt.Println("======= AUTH REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(user))
		fmt.Println("============================")
	}

	return ctx.Status(http.StatusCreated).SendString(MessageUserRegistered)
}
