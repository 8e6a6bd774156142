package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-blog/auth"
	"github.com/goliatone/go-blog/logging"
	"github.com/goliatone/go-blog/persistence"
	"github.com/goliatone/go-print"
)

type AuthControllerRoutes struct {
	Login    string
	Register string
}

type AuthController struct {
	Debug  bool
	Logger logging.Logger
	Auther *auth.Auther
	Routes *AuthControllerRoutes
}

type AuthControllerOption func(*AuthController) *AuthController

func WithAuther(a *auth.Auther) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = a
		return c
	}
}

func WithAuthLogger(l logging.Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logging.Resolve("auth", l)
		return c
	}
}

func WithAuthDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: logging.Default("auth"),
		Routes: &AuthControllerRoutes{
			Login:    "/login",
			Register: "/register",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing Auther in auth controller...")
	}

	return c
}

func RegisterAuthRoutes(app fiber.Router, controller *AuthController, scope fiber.Handler) {
	app.Post(controller.Routes.Register, scope, controller.Register).Name("register.post")
	app.Post(controller.Routes.Login, scope, controller.Login).Name("sign-in.post")
}

func (a *AuthController) Register(c *fiber.Ctx) error {
	payload := new(UserCreate)
	if err := c.BodyParser(payload); err != nil {
		return malformedBody(err)
	}

	if err := payload.Validate(); err != nil {
		return validationError(err)
	}

	session, err := persistence.SessionFrom(c)
	if err != nil {
		return err
	}

	identity, err := a.Auther.Register(c.UserContext(), session.DB(), payload.Username, payload.Password)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(UserOut{
		ID:       identity.ID,
		Username: identity.Username,
	})
}

func (a *AuthController) Login(c *fiber.Ctx) error {
	payload := new(LoginRequest)
	if err := c.BodyParser(payload); err != nil {
		return malformedBody(err)
	}

	if err := payload.Validate(); err != nil {
		return validationError(err)
	}

	if a.Debug {
		a.Logger.Debug("login attempt", "payload", print.MaybePrettyJSON(map[string]string{
			"username": payload.Username,
		}))
	}

	session, err := persistence.SessionFrom(c)
	if err != nil {
		return err
	}

	token, err := a.Auther.Login(c.UserContext(), session.DB(), payload.Username, payload.Password)
	if err != nil {
		return err
	}

	return c.JSON(TokenOut{
		AccessToken: token,
		TokenType:   "bearer",
	})
}
