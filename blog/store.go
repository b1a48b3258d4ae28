package blog

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"
	"time"

	auth "github.com/goliatone/go-blog-auth"
	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

const (
	DefaultPageNumber    = 0
	DefaultPageSize      = 10
	DefaultSortBy        = "id"
	DefaultSortDirection = "asc"
)

var sortableColumns = map[string]string{
	"id":          "id",
	"title":       "title",
	"description": "description",
	"content":     "content",
	"categoryId":  "category_id",
}

// Page is a zero based page request
type Page struct {
	Number  int
	Size    int
	SortBy  string
	SortDir string
}

func (p Page) normalize() Page {
	if p.Number < 0 {
		p.Number = DefaultPageNumber
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if _, ok := sortableColumns[p.SortBy]; !ok {
		p.SortBy = DefaultSortBy
	}
	if strings.EqualFold(p.SortDir, "desc") {
		p.SortDir = "DESC"
	} else {
		p.SortDir = "ASC"
	}
	return p
}

// ErrCommentNotInPost the comment id exists but under another post
var ErrCommentNotInPost = errors.New("Comment does not belong to this post", errors.CategoryBadInput).
	WithTextCode("COMMENT_NOT_IN_POST").
	WithCode(errors.CodeBadRequest)

type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateCategory(ctx context.Context, category *Category) (*Category, error) {
	category.ID = 0
	if _, err := s.db.NewInsert().Model(category).Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create category")
	}
	return category, nil
}

func (s *Store) GetCategory(ctx context.Context, id int64) (*Category, error) {
	category := &Category{}
	err := s.db.NewSelect().Model(category).Where("?TableAlias.id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, auth.NewResourceNotFound("Category", "id", id)
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to get category")
	}
	return category, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]*Category, error) {
	categories := []*Category{}
	if err := s.db.NewSelect().Model(&categories).Order("id ASC").Scan(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list categories")
	}
	return categories, nil
}

func (s *Store) UpdateCategory(ctx context.Context, id int64, update *Category) (*Category, error) {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	category.Name = update.Name
	category.Description = update.Description

	if _, err := s.db.NewUpdate().Model(category).Column("name", "description").WherePK().Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to update category")
	}
	return category, nil
}

func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.db.NewDelete().Model(category).WherePK().Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete category")
	}
	return nil
}

// CreatePost fails with a 404 when the referenced category does not exist
func (s *Store) CreatePost(ctx context.Context, post *Post) (*Post, error) {
	if _, err := s.GetCategory(ctx, post.CategoryID); err != nil {
		return nil, err
	}

	post.ID = 0
	if _, err := s.db.NewInsert().Model(post).Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryConflict, "failed to create post").
			WithCode(errors.CodeBadRequest)
	}
	return post, nil
}

func (s *Store) GetPost(ctx context.Context, id int64) (*Post, error) {
	return getPost(ctx, s.db, id)
}

func getPost(ctx context.Context, db bun.IDB, id int64) (*Post, error) {
	post := &Post{}
	err := db.NewSelect().Model(post).Where("?TableAlias.id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, auth.NewResourceNotFound("Post", "id", id)
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to get post")
	}
	return post, nil
}

// ListPosts returns one page of posts and the total count
func (s *Store) ListPosts(ctx context.Context, page Page) ([]*Post, int, Page, error) {
	page = page.normalize()

	posts := []*Post{}
	total, err := s.db.NewSelect().
		Model(&posts).
		OrderExpr("? "+page.SortDir, bun.Ident(sortableColumns[page.SortBy])).
		Limit(page.Size).
		Offset(page.Number * page.Size).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, page, errors.Wrap(err, errors.CategoryInternal, "failed to list posts")
	}
	return posts, total, page, nil
}

func (s *Store) UpdatePost(ctx context.Context, id int64, update *Post) (*Post, error) {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetCategory(ctx, update.CategoryID); err != nil {
		return nil, err
	}

	post.Title = update.Title
	post.Description = update.Description
	post.Content = update.Content
	post.CategoryID = update.CategoryID
	post.UpdatedAt = time.Now()

	_, err = s.db.NewUpdate().
		Model(post).
		Column("title", "description", "content", "category_id", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryConflict, "failed to update post").
			WithCode(errors.CodeBadRequest)
	}
	return post, nil
}

// DeletePost removes the post and its comments together
func (s *Store) DeletePost(ctx context.Context, id int64) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		post, err := getPost(ctx, tx, id)
		if err != nil {
			return err
		}

		_, err = tx.NewDelete().
			Model((*Comment)(nil)).
			Where("post_id = ?", post.ID).
			Exec(ctx)
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to delete post comments")
		}

		if _, err := tx.NewDelete().Model(post).WherePK().Exec(ctx); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to delete post")
		}
		return nil
	})
}

func (s *Store) PostsByCategory(ctx context.Context, categoryID int64) ([]*Post, error) {
	if _, err := s.GetCategory(ctx, categoryID); err != nil {
		return nil, err
	}

	posts := []*Post{}
	err := s.db.NewSelect().
		Model(&posts).
		Where("?TableAlias.category_id = ?", categoryID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list posts by category")
	}
	return posts, nil
}

// CreateComment attaches comment to an existing post
func (s *Store) CreateComment(ctx context.Context, postID int64, comment *Comment) (*Comment, error) {
	if _, err := s.GetPost(ctx, postID); err != nil {
		return nil, err
	}

	comment.ID = 0
	comment.PostID = postID
	if _, err := s.db.NewInsert().Model(comment).Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create comment")
	}
	return comment, nil
}

func (s *Store) CommentsByPost(ctx context.Context, postID int64) ([]*Comment, error) {
	if _, err := s.GetPost(ctx, postID); err != nil {
		return nil, err
	}

	comments := []*Comment{}
	err := s.db.NewSelect().
		Model(&comments).
		Where("?TableAlias.post_id = ?", postID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list comments")
	}
	return comments, nil
}

// GetComment fails with a 400 when the comment exists under a different post
func (s *Store) GetComment(ctx context.Context, postID, id int64) (*Comment, error) {
	if _, err := s.GetPost(ctx, postID); err != nil {
		return nil, err
	}

	comment := &Comment{}
	err := s.db.NewSelect().Model(comment).Where("?TableAlias.id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, auth.NewResourceNotFound("Comment", "id", id)
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to get comment")
	}

	if comment.PostID != postID {
		return nil, ErrCommentNotInPost
	}
	return comment, nil
}

func (s *Store) UpdateComment(ctx context.Context, postID, id int64, update *Comment) (*Comment, error) {
	comment, err := s.GetComment(ctx, postID, id)
	if err != nil {
		return nil, err
	}

	comment.Name = update.Name
	comment.Email = update.Email
	comment.Body = update.Body

	if _, err := s.db.NewUpdate().Model(comment).Column("name", "email", "body").WherePK().Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to update comment")
	}
	return comment, nil
}

func (s *Store) DeleteComment(ctx context.Context, postID, id int64) error {
	comment, err := s.GetComment(ctx, postID, id)
	if err != nil {
		return err
	}
	if _, err := s.db.NewDelete().Model(comment).WherePK().Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete comment")
	}
	return nil
}
