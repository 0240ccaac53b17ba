package email

import (
	"fmt"
	"strings"

	"usermail/internal/types"
)

const maxExcerptRunes = 300

// Site identifies the forum in subjects and links.
type Site struct {
	Name    string
	BaseURL string
}

func (s Site) subject(title string) string {
	return fmt.Sprintf("[%s] %s", s.Name, title)
}

func (s Site) preferencesURL() string {
	return s.BaseURL + "/my/preferences/emails"
}

func (s Site) listHeaders() map[string]string {
	return map[string]string{
		"List-Unsubscribe":         "<" + s.preferencesURL() + ">",
		"X-Auto-Response-Suppress": "All",
	}
}

// Builder produces the message for one email type. A nil message with a nil
// error means there is nothing worth sending.
type Builder interface {
	Build(user *types.User, args Args) (*Message, error)
}

// BuilderFunc adapts a function to the Builder interface.
type BuilderFunc func(user *types.User, args Args) (*Message, error)

// Build calls f.
func (f BuilderFunc) Build(user *types.User, args Args) (*Message, error) {
	return f(user, args)
}

type notificationSpec struct {
	heading        string
	requiresPost   bool
	privateMessage bool
}

var notificationSpecs = map[types.EmailType]notificationSpec{
	types.EmailUserPrivateMessage:          {"%s sent you a private message", true, true},
	types.EmailUserReplied:                 {"%s replied to your post", true, false},
	types.EmailUserMentioned:               {"%s mentioned you", true, false},
	types.EmailUserGroupMentioned:          {"%s mentioned a group you belong to", true, false},
	types.EmailUserQuoted:                  {"%s quoted you", true, false},
	types.EmailUserPosted:                  {"%s posted in a topic you are watching", true, false},
	types.EmailUserLinked:                  {"%s linked to your post", true, false},
	types.EmailUserInvitedToPrivateMessage: {"%s invited you to a private message", false, true},
	types.EmailUserInvitedToTopic:          {"%s invited you to a topic", false, false},
}

type notificationBuilder struct {
	emailType types.EmailType
	spec      notificationSpec
	renderer  *Renderer
	site      Site
}

// Build renders a post or notification email. Post-bound types fail with
// InvalidParameters(post_id) when no post was resolved; invitation types
// fall back to the notification data keys topic_title, url and
// display_username.
func (b *notificationBuilder) Build(user *types.User, args Args) (*Message, error) {
	post := args.Post
	if post == nil && b.spec.requiresPost {
		return nil, types.InvalidParameters("post_id")
	}

	title := args.NotificationData.String("topic_title")
	actor := args.NotificationData.String("display_username")
	actionURL := b.site.BaseURL
	if rel := args.NotificationData.String("url"); rel != "" {
		actionURL = b.site.BaseURL + rel
	}

	var excerpt string
	var postID *int64
	if post != nil {
		if post.Topic != nil && post.Topic.Title != "" {
			title = post.Topic.Title
		}
		if post.Username != "" {
			actor = post.Username
		}
		actionURL = post.URL(b.site.BaseURL)
		excerpt = excerptOf(post.Raw, maxExcerptRunes)
		id := post.ID
		postID = &id
	}
	if actor == "" {
		actor = "Someone"
	}
	if title == "" {
		title = "New notification"
	}
	if b.spec.privateMessage {
		title = "[PM] " + title
	}

	data := templateData{
		SiteName:       b.site.Name,
		Subject:        b.site.subject(title),
		Heading:        fmt.Sprintf(b.spec.heading, actor),
		Excerpt:        excerpt,
		ActionURL:      actionURL,
		ActionText:     "View it on " + b.site.Name,
		PreferencesURL: b.site.preferencesURL(),
	}
	html, text, err := b.renderer.render(kindNotification, data)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalTemplate, "failed to render notification email", err)
	}

	return &Message{
		To:        []string{user.Email},
		Subject:   data.Subject,
		HTML:      html,
		Text:      text,
		Headers:   b.site.listHeaders(),
		EmailType: b.emailType,
		UserID:    user.ID,
		PostID:    postID,
	}, nil
}

type digestBuilder struct {
	renderer *Renderer
	site     Site
}

// Build renders the activity summary from NotificationData["topics"], a list
// of objects with title, url and excerpt. An empty summary yields no message.
func (b *digestBuilder) Build(user *types.User, args Args) (*Message, error) {
	items := digestItems(args.NotificationData, b.site.BaseURL)
	if len(items) == 0 {
		return nil, nil
	}

	data := templateData{
		SiteName:       b.site.Name,
		Subject:        b.site.subject("Summary"),
		Heading:        fmt.Sprintf("Here's what you missed on %s, %s", b.site.Name, user.Username),
		Items:          items,
		ActionURL:      b.site.BaseURL + "/latest",
		ActionText:     "See more",
		PreferencesURL: b.site.preferencesURL(),
	}
	html, text, err := b.renderer.render(kindDigest, data)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalTemplate, "failed to render digest email", err)
	}

	return &Message{
		To:        []string{user.Email},
		Subject:   data.Subject,
		HTML:      html,
		Text:      text,
		Headers:   b.site.listHeaders(),
		EmailType: types.EmailDigest,
		UserID:    user.ID,
	}, nil
}

func digestItems(data types.JSONMap, baseURL string) []digestItem {
	raw, _ := data["topics"].([]any)
	items := make([]digestItem, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		topic := types.JSONMap(m)
		title := topic.String("title")
		if title == "" {
			continue
		}
		items = append(items, digestItem{
			Title:   title,
			URL:     baseURL + topic.String("url"),
			Excerpt: excerptOf(topic.String("excerpt"), maxExcerptRunes),
		})
	}
	return items
}

type tokenSpec struct {
	subject    string
	heading    string
	intro      string
	actionText string
	path       string
}

var tokenSpecs = map[types.EmailType]tokenSpec{
	types.EmailSignup: {
		"Confirm your new account", "Welcome to %s!",
		"Click the link below to activate your account.", "Activate your account", "/u/activate-account/",
	},
	types.EmailForgotPassword: {
		"Password reset", "Reset your password on %s",
		"Somebody asked to reset your password. Follow the link below to choose a new one.", "Choose a new password", "/u/password-reset/",
	},
	types.EmailAuthorizeEmail: {
		"Confirm your new email address", "Confirm your email address on %s",
		"Follow the link below to confirm this address for your account.", "Confirm email address", "/u/authorize-email/",
	},
	types.EmailAdminLogin: {
		"Log in", "Log in to %s",
		"Somebody asked to log in to your account as an administrator.", "Log in", "/u/admin-login/",
	},
	types.EmailAccountCreated: {
		"Your account has been created", "An account was created for you on %s",
		"Follow the link below to set a password and finish setting up your account.", "Set your password", "/u/password-reset/",
	},
}

type tokenBuilder struct {
	emailType types.EmailType
	spec      tokenSpec
	renderer  *Renderer
	site      Site
}

// Build renders an account email around args.EmailToken, which is required.
func (b *tokenBuilder) Build(user *types.User, args Args) (*Message, error) {
	if args.EmailToken == "" {
		return nil, types.InvalidParameters("email_token")
	}

	data := templateData{
		SiteName:   b.site.Name,
		Subject:    b.site.subject(b.spec.subject),
		Heading:    fmt.Sprintf(b.spec.heading, b.site.Name),
		Intro:      b.spec.intro,
		ActionURL:  b.site.BaseURL + b.spec.path + args.EmailToken,
		ActionText: b.spec.actionText,
	}
	html, text, err := b.renderer.render(kindToken, data)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalTemplate, "failed to render account email", err)
	}

	return &Message{
		To:        []string{user.Email},
		Subject:   data.Subject,
		HTML:      html,
		Text:      text,
		EmailType: b.emailType,
		UserID:    user.ID,
	}, nil
}

// excerptOf collapses whitespace and truncates to max runes, preferring a
// word boundary.
func excerptOf(raw string, max int) string {
	s := strings.Join(strings.Fields(raw), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	cut := string(r[:max])
	if i := strings.LastIndexByte(cut, ' '); i > len(cut)/2 {
		cut = cut[:i]
	}
	return cut + "..."
}
