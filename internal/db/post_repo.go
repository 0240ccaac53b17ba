package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"usermail/internal/types"
)

// PostRepository provides read access to posts with their topic and the
// author's staff flag hydrated in one round trip.
type PostRepository struct {
	db DBTX
}

// NewPostRepository creates a new PostRepository.
func NewPostRepository(db DBTX) *PostRepository {
	return &PostRepository{db: db}
}

// FindByID retrieves a live post by id. A trashed topic leaves Post.Topic nil
// rather than failing the lookup. Trashed posts are reported as not found.
func (r *PostRepository) FindByID(ctx context.Context, id int64) (*types.Post, error) {
	row := r.db.QueryRow(ctx,
		`SELECT p.id, p.topic_id, p.post_number, p.user_id, a.username, p.raw,
		        p.user_deleted, p.created_at,
		        t.id, t.title, t.slug, t.archetype,
		        COALESCE(a.admin OR a.moderator, FALSE)
		 FROM posts p
		 LEFT JOIN topics t ON t.id = p.topic_id AND t.deleted_at IS NULL
		 LEFT JOIN users a ON a.id = p.user_id
		 WHERE p.id = $1 AND p.deleted_at IS NULL`,
		id,
	)

	var p types.Post
	var (
		authorName     *string
		topicID        *int64
		topicTitle     *string
		topicSlug      *string
		topicArchetype *string
	)
	err := row.Scan(
		&p.ID,
		&p.TopicID,
		&p.PostNumber,
		&p.UserID,
		&authorName,
		&p.Raw,
		&p.UserDeleted,
		&p.CreatedAt,
		&topicID,
		&topicTitle,
		&topicSlug,
		&topicArchetype,
		&p.AuthorStaff,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundPost, "post not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve post", err)
	}

	if authorName != nil {
		p.Username = *authorName
	}
	if topicID != nil {
		t := &types.Topic{ID: *topicID, Archetype: types.ArchetypeRegular}
		if topicTitle != nil {
			t.Title = *topicTitle
		}
		if topicSlug != nil {
			t.Slug = *topicSlug
		}
		if topicArchetype != nil {
			t.Archetype = types.Archetype(*topicArchetype)
		}
		p.Topic = t
	}
	return &p, nil
}
