package blog

import (
	"time"

	"github.com/uptrace/bun"
)

type Category struct {
	bun.BaseModel `bun:"table:categories,alias:cat"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	Name          string    `bun:"name,notnull" json:"name"`
	Description   string    `bun:"description" json:"description"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"-"`
}

type Post struct {
	bun.BaseModel `bun:"table:posts,alias:pst"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	Title         string    `bun:"title,notnull,unique" json:"title"`
	Description   string    `bun:"description,notnull" json:"description"`
	Content       string    `bun:"content,notnull" json:"content"`
	CategoryID    int64     `bun:"category_id" json:"categoryId"`
	Category      *Category `bun:"rel:belongs-to,join:category_id=id" json:"-"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"-"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"-"`
}

// Comment belongs to exactly one post and is removed with it
type Comment struct {
	bun.BaseModel `bun:"table:comments,alias:cmt"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	Name          string    `bun:"name,notnull" json:"name"`
	Email         string    `bun:"email,notnull" json:"email"`
	Body          string    `bun:"body,notnull" json:"body"`
	PostID        int64     `bun:"post_id,notnull" json:"-"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"-"`
}
