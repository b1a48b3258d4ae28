package blog

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	auth "github.com/goliatone/go-blog-auth"
	"github.com/goliatone/go-blog-auth/middleware/jwtware"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// PostPayload is the create and update body for posts
type PostPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	CategoryID  int64  `json:"categoryId"`
}

// Validate will run validation rules
func (r PostPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title,
			validation.Required,
			validation.Length(4, 0).Error("Post title must have at least 4 characters"),
		),
		validation.Field(&r.Description,
			validation.Required,
			validation.Length(10, 0).Error("Post description must have at least 10 characters"),
		),
		validation.Field(&r.Content, validation.Required),
	)
}

func (r PostPayload) post() *Post {
	return &Post{
		Title:       strings.TrimSpace(r.Title),
		Description: r.Description,
		Content:     r.Content,
		CategoryID:  r.CategoryID,
	}
}

// CategoryPayload is the create and update body for categories
type CategoryPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Validate will run validation rules
func (r CategoryPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
	)
}

// CommentPayload is the create and update body for comments
type CommentPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Body  string `json:"body"`
}

// Validate will run validation rules
func (r CommentPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required.Error("Name should not be null or empty")),
		validation.Field(&r.Email,
			validation.Required.Error("Email should not be null or empty"),
			is.Email,
		),
		validation.Field(&r.Body,
			validation.Required,
			validation.Length(10, 0).Error("Comment body must be minimum 10 characters"),
		),
	)
}

func (r CommentPayload) comment() *Comment {
	return &Comment{
		Name:  strings.TrimSpace(r.Name),
		Email: strings.TrimSpace(r.Email),
		Body:  r.Body,
	}
}

// PostResponse is one page of posts
type PostResponse struct {
	Content      []*Post `json:"content"`
	PageNo       int     `json:"pageNo"`
	PageSize     int     `json:"pageSize"`
	TotalElement int     `json:"totalElement"`
	TotalPage    int     `json:"totalPage"`
	Last         bool    `json:"last"`
}

type Controller struct {
	store  *Store
	guard  *jwtware.Guard
	logger auth.Logger
}

func NewController(store *Store, guard *jwtware.Guard, logger auth.Logger) *Controller {
	if guard == nil {
		guard = jwtware.NewGuard(jwtware.DefaultContextKey, nil)
	}
	if logger == nil {
		logger = auth.NewLogger("blog")
	}
	return &Controller{store: store, guard: guard, logger: logger}
}

// RegisterRoutes mounts the post, comment, and category routes. Reads and
// comments are public; post and category writes require ADMIN.
func (bc *Controller) RegisterRoutes(r auth.RouteRegistrar) {
	admin := bc.guard.RequireRole(auth.RoleAdmin)

	r.Post("/api/v1/posts", bc.CreatePost, admin).SetName("posts.create")
	r.Get("/api/v1/posts", bc.ListPosts).SetName("posts.list")
	r.Get("/api/v1/posts/category/:id", bc.PostsByCategory).SetName("posts.by_category")
	r.Get("/api/v1/posts/:id", bc.GetPost).SetName("posts.get")
	r.Put("/api/v1/posts/:id", bc.UpdatePost, admin).SetName("posts.update")
	r.Delete("/api/v1/posts/:id", bc.DeletePost, admin).SetName("posts.delete")

	r.Post("/api/v1/posts/:postId/comments", bc.CreateComment).SetName("comments.create")
	r.Get("/api/v1/posts/:postId/comments", bc.ListComments).SetName("comments.list")
	r.Get("/api/v1/posts/:postId/comments/:id", bc.GetComment).SetName("comments.get")
	r.Put("/api/v1/posts/:postId/comments/:id", bc.UpdateComment).SetName("comments.update")
	r.Delete("/api/v1/posts/:postId/comments/:id", bc.DeleteComment).SetName("comments.delete")

	r.Post("/api/categories", bc.CreateCategory, admin).SetName("categories.create")
	r.Get("/api/categories", bc.ListCategories).SetName("categories.list")
	r.Get("/api/categories/:id", bc.GetCategory).SetName("categories.get")
	r.Put("/api/categories/:id", bc.UpdateCategory, admin).SetName("categories.update")
	r.Delete("/api/categories/:id", bc.DeleteCategory, admin).SetName("categories.delete")
}

func (bc *Controller) CreatePost(ctx router.Context) error {
	payload := new(PostPayload)
	if err := ctx.Bind(payload); err != nil {
		return auth.ErrMalformedPayload
	}
	if err := payload.Validate(); err != nil {
		return err
	}

	post, err := bc.store.CreatePost(ctx.Context(), payload.post())
	if err != nil {
		return err
	}

	bc.logger.Info("post created", "id", post.ID, "by", subject(ctx))
	return ctx.JSON(http.StatusCreated, post)
}

func (bc *Controller) ListPosts(ctx router.Context) error {
	page := Page{
		Number:  queryInt(ctx, "pageNo", DefaultPageNumber),
		Size:    queryInt(ctx, "pageSize", DefaultPageSize),
		SortBy:  ctx.Query("sortBy", DefaultSortBy),
		SortDir: ctx.Query("sortDir", DefaultSortDirection),
	}

	posts, total, page, err := bc.store.ListPosts(ctx.Context(), page)
	if err != nil {
		return err
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + page.Size - 1) / page.Size
	}

	return ctx.JSON(http.StatusOK, PostResponse{
		Content:      posts,
		PageNo:       page.Number,
		PageSize:     page.Size,
		TotalElement: total,
		TotalPage:    totalPages,
		Last:         page.Number >= totalPages-1,
	})
}

func (bc *Controller) GetPost(ctx router.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	post, err := bc.store.GetPost(ctx.Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, post)
}

func (bc *Controller) UpdatePost(ctx router.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	payload := new(PostPayload)
	if err := ctx.Bind(payload); err != nil {
		return auth.ErrMalformedPayload
	}
	if err := payload.Validate(); err != nil {
		return err
	}

	post, err := bc.store.UpdatePost(ctx.Context(), id, payload.post())
	if err != nil {
		return err
	}

	bc.logger.Info("post updated", "id", post.ID, "by", subject(ctx))
	return ctx.JSON(http.StatusOK, post)
}

func (bc *Controller) DeletePost(ctx router.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	if err := bc.store.DeletePost(ctx.Context(), id); err != nil {
		return err
	}

	bc.logger.Info("post deleted", "id", id, "by", subject(ctx))
	return ctx.Status(http.StatusOK).SendString(fmt.Sprintf("Post with id %d was deleted successfully", id))
}

func (bc *Controller) PostsByCategory(ctx router.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	posts, err := bc.store.PostsByCategory(ctx.Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, posts)
}

func (bc *Controller) CreateComment(ctx router.Context) error {
	postID, err := pathID(ctx, "postId")
	if err != nil {
		return err
	}

	payload := new(CommentPayload)
	if err := ctx.Bind(payload); err != nil {
		return auth.ErrMalformedPayload
	}
	if err := payload.Validate(); err != nil {
		return err
	}

	comment, err := bc.store.CreateComment(ctx.Context(), postID, payload.comment())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, comment)
}

func (bc *Controller) ListComments(ctx router.Context) error {
	postID, err := pathID(ctx, "postId")
	if err != nil {
		return err
	}
	comments, err := bc.store.CommentsByPost(ctx.Context(), postID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, comments)
}

func (bc *Controller) GetComment(ctx router.Context) error {
	postID, id, err := commentPath(ctx)
	if err != nil {
		return err
	}
	comment, err := bc.store.GetComment(ctx.Context(), postID, id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, comment)
}

func (bc *Controller) UpdateComment(ctx router.Context) error {
	postID, id, err := commentPath(ctx)
	if err != nil {
		return err
	}

	payload := new(CommentPayload)
	if err := ctx.Bind(payload); err != nil {
		return auth.ErrMalformedPayload
	}
	if err := payload.Validate(); err != nil {
		return err
	}

	comment, err := bc.store.UpdateComment(ctx.Context(), postID, id, payload.comment())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, comment)
}

func (bc *Controller) DeleteComment(ctx router.Context) error {
	postID, id, err := commentPath(ctx)
	if err != nil {
		return err
	}
	if err := bc.store.DeleteComment(ctx.Context(), postID, id); err != nil {
		return err
	}
	return ctx.Status(http.StatusOK).SendString(
		fmt.Sprintf("Comment with id %d, under the Post with id %d was deleted successfully", id, postID),
	)
}

func (bc *Controller) CreateCategory(ctx router.Context) error {
	payload := new(CategoryPayload)
	if err := ctx.Bind(payload); err != nil {
		return auth.ErrMalformedPayload
	}
	if err := payload.Validate(); err != nil {
		return err
	}

	category, err := bc.store.CreateCategory(ctx.Context(), &Category{
		Name:        payload.Name,
		Description: payload.Description,
	})
	if err != nil {
		return err
	}

	bc.logger.Info("category created", "id", category.ID, "by", subject(ctx))
	return ctx.JSON(http.StatusCreated, category)
}

func (bc *Controller) ListCategories(ctx router.Context) error {
	categories, err := bc.store.ListCategories(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, categories)
}

func (bc *Controller) GetCategory(ctx router.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	category, err := bc.store.GetCategory(ctx.Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, category)
}

func (bc *Controller) UpdateCategory(ctx router.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	payload := new(CategoryPayload)
	if err := ctx.Bind(payload); err != nil {
		return auth.ErrMalformedPayload
	}
	if err := payload.Validate(); err != nil {
		return err
	}

	category, err := bc.store.UpdateCategory(ctx.Context(), id, &Category{
		Name:        payload.Name,
		Description: payload.Description,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, category)
}

func (bc *Controller) DeleteCategory(ctx router.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	if err := bc.store.DeleteCategory(ctx.Context(), id); err != nil {
		return err
	}
	return ctx.Status(http.StatusOK).SendString(fmt.Sprintf("Category with id %d was deleted successfully", id))
}

func pathID(ctx router.Context, name string) (int64, error) {
	raw := ctx.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.New("Invalid id "+raw, errors.CategoryBadInput).
			WithTextCode("INVALID_ID").
			WithCode(errors.CodeBadRequest)
	}
	return id, nil
}

func commentPath(ctx router.Context) (int64, int64, error) {
	postID, err := pathID(ctx, "postId")
	if err != nil {
		return 0, 0, err
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return 0, 0, err
	}
	return postID, id, nil
}

// queryInt falls back to def when the parameter is missing or not a number
func queryInt(ctx router.Context, name string, def int) int {
	n, err := strconv.Atoi(ctx.Query(name))
	if err != nil {
		return def
	}
	return n
}

func subject(ctx router.Context) string {
	if identity, ok := jwtware.GetIdentity(ctx); ok {
		return identity.Subject
	}
	return ""
}
