package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"vidshare/internal/model"
)

var postColumns = []string{"id", "title", "prompt", "thumbnail", "video", "creator", "created_at"}

type postRepository struct {
	db    *sqlx.DB
	table table
}

func NewPostRepository(db *sqlx.DB, databaseID, tableID string) PostRepository {
	return &postRepository{
		db:    db,
		table: table{schema: databaseID, name: tableID, columns: postColumns},
	}
}

// Create inserts a post row. Both media URLs are required by the table.
func (r *postRepository) Create(ctx context.Context, p *model.Post) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, title, prompt, thumbnail, video, creator)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, r.table.qualified())

	err := r.db.QueryRowxContext(ctx, query,
		p.ID,
		p.Title,
		p.Prompt,
		p.Thumbnail,
		p.Video,
		p.CreatorID,
	).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}

	return nil
}

// List returns post rows matching the predicates.
func (r *postRepository) List(ctx context.Context, queries ...Query) ([]model.Post, error) {
	query, args, err := buildSelect(r.table, queries)
	if err != nil {
		return nil, err
	}

	posts := []model.Post{}
	if err := r.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}
