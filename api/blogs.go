package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-blog/auth"
	"github.com/goliatone/go-blog/logging"
	"github.com/goliatone/go-blog/middleware/jwtware"
	"github.com/goliatone/go-blog/persistence"
	"github.com/goliatone/go-blog/repository"
	"github.com/goliatone/go-blog/views"
	"github.com/goliatone/go-errors"
)

type BlogControllerRoutes struct {
	Collection string
	Item       string
}

type BlogController struct {
	Logger             logging.Logger
	Repo               repository.Manager
	Notifier           views.Notifier
	Routes             *BlogControllerRoutes
	DefaultOwnerID     int64
	CreateRequiresAuth bool
	Now                func() time.Time
}

type BlogControllerOption func(*BlogController) *BlogController

func WithBlogRepository(repo repository.Manager) BlogControllerOption {
	return func(b *BlogController) *BlogController {
		b.Repo = repo
		return b
	}
}

func WithViewNotifier(n views.Notifier) BlogControllerOption {
	return func(b *BlogController) *BlogController {
		if n != nil {
			b.Notifier = n
		}
		return b
	}
}

// WithBlogOwnership sets how the owner of a new entry is chosen. When
// requireAuth is false every entry is owned by defaultOwner.
func WithBlogOwnership(requireAuth bool, defaultOwner int64) BlogControllerOption {
	return func(b *BlogController) *BlogController {
		b.CreateRequiresAuth = requireAuth
		if defaultOwner > 0 {
			b.DefaultOwnerID = defaultOwner
		}
		return b
	}
}

func WithBlogLogger(l logging.Logger) BlogControllerOption {
	return func(b *BlogController) *BlogController {
		b.Logger = logging.Resolve("blogs", l)
		return b
	}
}

func WithBlogClock(now func() time.Time) BlogControllerOption {
	return func(b *BlogController) *BlogController {
		if now != nil {
			b.Now = now
		}
		return b
	}
}

func NewBlogController(opts ...BlogControllerOption) *BlogController {
	b := &BlogController{
		Logger:         logging.Default("blogs"),
		Notifier:       views.Nop,
		DefaultOwnerID: 1,
		Now:            time.Now,
		Routes: &BlogControllerRoutes{
			Collection: "/blogs",
			Item:       "/blogs/:id",
		},
	}

	for _, opt := range opts {
		b = opt(b)
	}

	if b.Repo == nil {
		panic("Missing repository.Manager in blog controller...")
	}

	return b
}

// RegisterBlogRoutes mounts the blog endpoints. gate runs before scope so a
// rejected request never opens a session.
func RegisterBlogRoutes(app fiber.Router, controller *BlogController, gate, scope fiber.Handler) {
	create := []fiber.Handler{scope, controller.Create}
	if controller.CreateRequiresAuth {
		create = append([]fiber.Handler{gate}, create...)
	}

	app.Post(controller.Routes.Collection, create...).Name("blogs.create")
	app.Get(controller.Routes.Collection, gate, scope, controller.List).Name("blogs.list")
	app.Get(controller.Routes.Item, gate, scope, controller.Get).Name("blogs.get")
}

func (b *BlogController) Create(c *fiber.Ctx) error {
	payload := new(BlogCreate)
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

	ownerID, err := b.ownerFor(c, session)
	if err != nil {
		return err
	}

	record, err := b.Repo.Blogs().CreateTx(c.UserContext(), session.DB(), payload.Title, payload.Content, ownerID)
	if err != nil {
		return err
	}

	b.Logger.Info("blog created", "id", record.ID, "owner_id", ownerID)

	return c.Status(fiber.StatusCreated).JSON(toBlogOut(record))
}

func (b *BlogController) ownerFor(c *fiber.Ctx, session persistence.Session) (int64, error) {
	if !b.CreateRequiresAuth {
		return b.DefaultOwnerID, nil
	}

	username, ok := jwtware.Username(c)
	if !ok {
		return 0, auth.ErrUnauthorized
	}

	identity, err := b.Repo.Users().GetByUsernameTx(c.UserContext(), session.DB(), username)
	if err != nil {
		if errors.Is(err, auth.ErrIdentityNotFound) {
			return 0, auth.ErrUnauthorized
		}
		return 0, err
	}

	return identity.ID, nil
}

func (b *BlogController) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return errors.NewValidationFromMap("invalid request", map[string]string{
			"id": "must be a positive integer",
		}).WithTextCode(TextCodeValidation).WithCode(fiber.StatusUnprocessableEntity)
	}

	session, err := persistence.SessionFrom(c)
	if err != nil {
		return err
	}

	record, err := b.Repo.Blogs().GetByIDTx(c.UserContext(), session.DB(), int64(id))
	if err != nil {
		return err
	}

	if err := c.JSON(toBlogOut(record)); err != nil {
		return err
	}

	username, _ := jwtware.Username(c)
	b.Notifier.Notify(c.UserContext(), views.View{
		BlogID:   record.ID,
		Username: username,
		At:       b.Now(),
	})

	return nil
}

func (b *BlogController) List(c *fiber.Ctx) error {
	session, err := persistence.SessionFrom(c)
	if err != nil {
		return err
	}

	records, err := b.Repo.Blogs().ListTx(c.UserContext(), session.DB())
	if err != nil {
		return err
	}

	return c.JSON(toBlogList(records))
}
