package server

import (
	"minato/internal/service"

	"github.com/gofiber/fiber/v2"

	"minato/internal/models"
)

// GetTimeline handles GET /api/posts
//
// Query parameters:
//
//	tagName - tag name scope; the following pseudo-tag selects the viewer's
//	          follow graph, the latest pseudo-tag (or no tag) means no scope.
//	          tag is accepted as an alias.
//	live    - "true" restricts to posts with live-release products
//	after   - item id; return items strictly newer than it
//	before  - item id; return items strictly older than it
func (s *Server) GetTimeline(c *fiber.Ctx) error {
	tag := c.Query("tagName")
	if tag == "" {
		tag = c.Query("tag")
	}
	q := service.TimelineQuery{
		ViewerID: viewerID(c),
		Tag:      tag,
		LiveOnly: c.QueryBool("live"),
		AfterID:  c.Query("after"),
		BeforeID: c.Query("before"),
	}

	items, err := s.feedService.Timeline(c.UserContext(), q)
	if err != nil {
		return respondServiceError(c, err)
	}
	if items == nil {
		items = []*models.FeedItem{}
	}
	return models.RespondWithList(c, items, len(items))
}
