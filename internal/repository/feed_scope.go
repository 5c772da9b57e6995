package repository

import (
	"minato/internal/models"

	"gorm.io/gorm"
)

// feedScope applies the content predicates of one timeline page to a query.
// The same filter is applied to the posts query and to the reposts query via
// its joined target, with only the table qualifier changing, so the two
// candidate fetches can never disagree about which posts are eligible.
func feedScope(db *gorm.DB, table string, f models.FeedFilter) *gorm.DB {
	// Timelines carry top-level, active posts only.
	db = db.Where(table + ".replied_id IS NULL").
		Where(table + ".is_active = true")

	switch {
	case f.Tag == models.TagFollowing:
		if f.Viewer == "" {
			// An anonymous viewer follows nobody and has no own posts.
			db = db.Where("1 = 0")
		} else {
			db = db.Where(
				table+".user_id = ? OR EXISTS (SELECT 1 FROM follows WHERE follows.follower_id = ? AND follows.followee_id = "+table+".user_id)",
				f.Viewer, f.Viewer,
			)
		}
	case f.Scoped():
		db = db.Where(
			"EXISTS (SELECT 1 FROM post_tags JOIN tags ON tags.id = post_tags.tag_id WHERE post_tags.post_id = "+table+".id AND tags.name = ?)",
			f.Tag,
		)
	}

	if f.LiveOnly {
		db = db.Where("EXISTS (SELECT 1 FROM products WHERE products.post_id = " + table + ".id AND products.live_release = true)")
	}

	return db
}

// feedBound applies the cursor bound and fetch ordering to the stream's own
// timestamp column. Ties on created_at order by id ascending so truncation
// stays deterministic across identical requests.
func feedBound(db *gorm.DB, table string, f models.FeedFilter) *gorm.DB {
	switch f.Direction {
	case models.FeedAfter:
		return db.Where(table+".created_at > ?", f.Bound).
			Order(table + ".created_at ASC, " + table + ".id ASC")
	case models.FeedBefore:
		return db.Where(table+".created_at < ?", f.Bound).
			Order(table + ".created_at DESC, " + table + ".id ASC")
	default:
		return db.Order(table + ".created_at DESC, " + table + ".id ASC")
	}
}
