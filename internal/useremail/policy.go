package useremail

import (
	"time"

	"usermail/internal/notifications/email"
	"usermail/internal/types"
)

// Verdict is the terminal outcome of the eligibility rules.
type Verdict int

const (
	VerdictSend Verdict = iota
	VerdictSkip
	VerdictSuppress
)

func (v Verdict) String() string {
	switch v {
	case VerdictSend:
		return "send"
	case VerdictSkip:
		return "skip"
	case VerdictSuppress:
		return "suppress"
	default:
		return "unknown"
	}
}

// Decision is the result of Policy.Evaluate. Reason is set for VerdictSkip;
// Builder and Args are set for VerdictSend.
type Decision struct {
	Verdict Verdict
	Reason  SkipReason
	Builder email.Builder
	Args    email.Args
}

func skip(reason SkipReason) Decision {
	return Decision{Verdict: VerdictSkip, Reason: reason}
}

func suppress() Decision {
	return Decision{Verdict: VerdictSuppress}
}

// BuilderLookup resolves the message builder for an email type.
type BuilderLookup interface {
	Lookup(t types.EmailType) (email.Builder, bool)
}

// Policy evaluates the eligibility rules. It performs no I/O and holds no
// per-request state, so one Policy serves concurrent evaluations.
type Policy struct {
	window   time.Duration
	builders BuilderLookup
	clock    types.Clock
}

// NewPolicy creates a Policy. window is how recently a user must have been
// seen for an activity email to be redundant.
func NewPolicy(window time.Duration, builders BuilderLookup, clock types.Clock) *Policy {
	if clock == nil {
		clock = types.RealClock{}
	}
	return &Policy{window: window, builders: builders, clock: clock}
}

// Evaluate applies the rules in order; the first that matches decides. The
// only error it returns is InvalidParameters for a type without a builder.
func (p *Policy) Evaluate(req Request, rc ResolvedContext) (Decision, error) {
	user, post, n := rc.User, rc.Post, rc.Notification
	now := p.clock.Now()
	suspended := user.Suspended(now)

	if user.Anonymous {
		return skip(reasonAnonymousUser), nil
	}
	if suspended && req.Type != types.EmailUserPrivateMessage {
		return skip(reasonSuspendedNotPM), nil
	}
	if user.Staged && req.Type == types.EmailDigest {
		return suppress(), nil
	}

	if req.activityDriven(rc) && p.seenRecently(user, now) && !suspended {
		return skip(reasonSeenRecently), nil
	}

	args := email.Args{
		Post:       post,
		EmailToken: req.EmailToken,
		ToAddress:  req.ToAddress,
	}

	if req.notificationDriven(rc) {
		args.NotificationType = req.NotificationType
		args.NotificationData = req.NotificationData
		if n != nil {
			if args.NotificationType == nil {
				t := n.NotificationType
				args.NotificationType = &t
			}
			if args.NotificationData == nil {
				args.NotificationData = n.Data
			}
		}

		if user.Options.MailingListMode &&
			post != nil && post.Topic != nil && !post.Topic.PrivateMessage() &&
			args.NotificationType != nil && SentByMailingList(*args.NotificationType) {
			return suppress(), nil
		}

		if !user.Options.EmailAlways && ((n != nil && n.Read) || (post != nil && rc.PostSeen)) {
			return skip(reasonNotificationAlreadyRead), nil
		}
	}

	if post != nil {
		switch {
		case post.Topic == nil:
			return skip(reasonTopicNil), nil
		case post.UserDeleted:
			return skip(reasonPostDeleted), nil
		case suspended && !post.AuthorStaff:
			return skip(reasonUserSuspended), nil
		case rc.PostSeen:
			return skip(reasonAlreadyRead), nil
		}
	}

	builder, ok := p.builders.Lookup(req.Type)
	if !ok {
		return Decision{}, types.InvalidParameters("type=" + string(req.Type))
	}

	return Decision{Verdict: VerdictSend, Builder: builder, Args: args}, nil
}

// seenRecently is false for users who always want email and for staged
// users, who cannot have been browsing.
func (p *Policy) seenRecently(user *types.User, now time.Time) bool {
	if user.Options.EmailAlways || user.Staged || user.LastSeenAt == nil {
		return false
	}
	return now.Sub(*user.LastSeenAt) < p.window
}
