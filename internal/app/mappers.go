package app

import (
	"strconv"
	"strings"
	"time"

	"bank_reviews/internal/domain"
)

/********** alias registry (single source of truth) **********/

var reviewAliases = map[string][]string{
	"user_name":     {"userName", "user_name", "author", "user.name"},
	"rating":        {"score", "rating"},
	"at":            {"at", "date", "timestamp"},
	"content":       {"content", "text", "review"},
	"review_id":     {"reviewId", "review_id", "id"},
	"app_version":   {"appVersion", "reviewCreatedVersion", "app_version"},
	"replied_at":    {"repliedAt", "replied_at", "reply.at"},
	"reply_content": {"replyContent", "reply_content", "reply.content"},
	"thumbs_up":     {"thumbsUpCount", "thumbs_up_count", "likes"},
	"user_image":    {"userImage", "user_image", "avatar"},
}

const timestampLayout = "2006-01-02 15:04:05"

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// firstAlias returns the first non-nil value for a named alias set.
func firstAlias(m map[string]any, key string) any {
	for _, p := range reviewAliases[key] {
		if v := lookupAny(m, p); v != nil {
			return v
		}
	}
	return nil
}

// aliasString renders the aliased value as text, or def when absent.
func aliasString(m map[string]any, key, def string) string {
	switch v := firstAlias(m, key).(type) {
	case nil:
		return def
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return def
	}
}

// aliasTimestamp accepts RFC3339 strings or unix seconds and renders
// timestampLayout; anything else yields def.
func aliasTimestamp(m map[string]any, key, def string) string {
	switch v := firstAlias(m, key).(type) {
	case string:
		if t, err := time.Parse(time.RFC3339, strings.TrimSpace(v)); err == nil {
			return t.UTC().Format(timestampLayout)
		}
		if strings.TrimSpace(v) != "" {
			return v
		}
	case float64:
		return time.Unix(int64(v), 0).UTC().Format(timestampLayout)
	}
	return def
}

/********** review mapper **********/

func mapReview(bank string, r map[string]any) domain.RawReview {
	return domain.RawReview{
		UserName:      aliasString(r, "user_name", ""),
		Rating:        aliasString(r, "rating", ""),
		Date:          aliasTimestamp(r, "at", domain.MissingTimestamp),
		Review:        aliasString(r, "content", ""),
		ReviewID:      aliasString(r, "review_id", ""),
		AppVersion:    aliasString(r, "app_version", ""),
		RepliedAt:     aliasTimestamp(r, "replied_at", domain.MissingReply),
		ReplyContent:  aliasString(r, "reply_content", domain.MissingReply),
		ThumbsUpCount: aliasString(r, "thumbs_up", ""),
		UserImageURL:  aliasString(r, "user_image", ""),
		Bank:          bank,
		Source:        domain.SourceGooglePlay,
	}
}

func mapReviews(bank string, in []map[string]any) []domain.RawReview {
	out := make([]domain.RawReview, 0, len(in))
	for _, r := range in {
		out = append(out, mapReview(bank, r))
	}
	return out
}
