package repository

import (
	"time"

	"github.com/uptrace/bun"
)

// User is the stored identity
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id"`
	Username      string     `bun:"username,notnull,unique" json:"username"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Blog is a blog entry. OwnerID is not a foreign key; entries may point at
// an owner that was never registered.
type Blog struct {
	bun.BaseModel `bun:"table:blogs,alias:blg"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id"`
	Title         string     `bun:"title,notnull" json:"title"`
	Content       string     `bun:"content,notnull" json:"content"`
	OwnerID       int64      `bun:"owner_id,notnull" json:"owner_id"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Models lists every model with a table, in creation order
func Models() []any {
	return []any{
		(*User)(nil),
		(*Blog)(nil),
	}
}
