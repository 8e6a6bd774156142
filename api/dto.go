package api

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-blog/repository"
)

// BlogCreate payload
type BlogCreate struct {
	Title   string `json:"title" form:"title"`
	Content string `json:"content" form:"content"`
}

// Validate will run validation rules
func (r BlogCreate) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Title,
			validation.Required,
			validation.Length(1, 255),
		),
		validation.Field(
			&r.Content,
			validation.Required,
		),
	)
}

// BlogOut is the public view of a blog entry. The owner is not exposed.
type BlogOut struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

func toBlogOut(b *repository.Blog) BlogOut {
	return BlogOut{
		ID:      b.ID,
		Title:   b.Title,
		Content: b.Content,
	}
}

func toBlogList(records []*repository.Blog) []BlogOut {
	out := make([]BlogOut, 0, len(records))
	for _, b := range records {
		out = append(out, toBlogOut(b))
	}
	return out
}

// UserCreate payload
type UserCreate struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Validate will run validation rules
func (r UserCreate) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Username,
			validation.Required,
			validation.Length(1, 150),
		),
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(1, 72),
		),
	)
}

// UserOut is the public view of a registered user
type UserOut struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// LoginRequest payload, accepted as a form or as JSON
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// TokenOut is returned by a successful login
type TokenOut struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
