package useremail

import (
	"context"

	"usermail/internal/types"
)

// UserFinder loads users. A missing user is an AppError with
// ErrCodeNotFoundUser.
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*types.User, error)
}

// PostFinder loads posts with their topic. A missing post is an AppError
// with ErrCodeNotFoundPost.
type PostFinder interface {
	FindByID(ctx context.Context, id int64) (*types.Post, error)
}

// NotificationFinder loads notifications. A missing notification is an
// AppError with ErrCodeNotFoundNotification.
type NotificationFinder interface {
	FindByID(ctx context.Context, id int64) (*types.Notification, error)
}

// ReadState answers whether a user has read timings for a post.
type ReadState interface {
	PostTimingExists(ctx context.Context, topicID int64, postNumber int, userID int64) (bool, error)
}

// ResolvedContext is everything the policy reads. User is always set; Post
// and Notification are nil when not requested or, for notifications, not
// found. PostSeen is false when there is no post.
type ResolvedContext struct {
	User         *types.User
	Post         *types.Post
	Notification *types.Notification
	PostSeen     bool
}

// Resolution is the result of Resolve. When Skip is non-nil the evaluation
// ends there and Context is only partially filled.
type Resolution struct {
	Context     ResolvedContext
	SkipContext SkipContext
	Skip        *SkipReason
}

// Resolver loads the entities a request refers to.
type Resolver struct {
	users         UserFinder
	posts         PostFinder
	notifications NotificationFinder
	readState     ReadState
}

// NewResolver creates a Resolver.
func NewResolver(users UserFinder, posts PostFinder, notifications NotificationFinder, readState ReadState) *Resolver {
	return &Resolver{
		users:         users,
		posts:         posts,
		notifications: notifications,
		readState:     readState,
	}
}

// Resolve loads the user, then the post and notification when requested,
// then the post's read state. A missing user or post ends in a skip; a
// missing notification is tolerated. Any other repository error is returned
// unchanged.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Resolution, error) {
	var res Resolution

	user, err := r.users.FindByID(ctx, req.UserID)
	switch {
	case types.CodeOf(err) == types.ErrCodeNotFoundUser:
		res.SkipContext = newSkipContext(req, nil)
		reason := reasonNoUser(req.UserID)
		res.Skip = &reason
		return res, nil
	case err != nil:
		return res, err
	}
	res.Context.User = user
	res.SkipContext = newSkipContext(req, user)

	if req.PostID != nil {
		post, err := r.posts.FindByID(ctx, *req.PostID)
		switch {
		case types.CodeOf(err) == types.ErrCodeNotFoundPost:
			reason := reasonPostNotFound(*req.PostID)
			res.Skip = &reason
			return res, nil
		case err != nil:
			return res, err
		}
		res.Context.Post = post
	}

	if req.NotificationID != nil {
		n, err := r.notifications.FindByID(ctx, *req.NotificationID)
		if err != nil && types.CodeOf(err) != types.ErrCodeNotFoundNotification {
			return res, err
		}
		res.Context.Notification = n
	}

	if post := res.Context.Post; post != nil {
		seen, err := r.readState.PostTimingExists(ctx, post.TopicID, post.PostNumber, user.ID)
		if err != nil {
			return res, err
		}
		res.Context.PostSeen = seen
	}

	return res, nil
}
