package assets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/courseloom/courseloom-backend/internal/model"
)

// URLPair maps a draft-bucket URL to its promoted production URL.
type URLPair struct {
	DraftURL      string `json:"draft_url"`
	ProductionURL string `json:"production_url"`
}

// Promoter copies draft-bucket assets to production storage through the
// asset service. Promotion runs before the commit transaction opens so a
// failed promotion leaves the database untouched.
type Promoter struct {
	client *resty.Client
}

// NewPromoter creates a Promoter against the asset service.
func NewPromoter(baseURL, apiKey string) *Promoter {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Authorization", "Bearer "+apiKey).
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	return &Promoter{client: client}
}

type promoteRequest struct {
	CourseID int64    `json:"course_id"`
	URLs     []string `json:"urls"`
}

type promoteResponse struct {
	Pairs []URLPair `json:"pairs"`
}

// Promote asks the asset service to copy the given draft URLs to production
// storage and returns the resulting URL pairs.
func (p *Promoter) Promote(ctx context.Context, courseID int64, urls []string) ([]URLPair, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	var out promoteResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(promoteRequest{CourseID: courseID, URLs: urls}).
		SetResult(&out).
		Post("/v1/assets/promote")
	if err != nil {
		return nil, fmt.Errorf("promote assets: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("promote assets: asset service returned %s", resp.Status())
	}
	if len(out.Pairs) != len(urls) {
		return nil, fmt.Errorf("promote assets: expected %d pairs, got %d", len(urls), len(out.Pairs))
	}
	return out.Pairs, nil
}

// CollectDraftURLs gathers every resource URL in the draft that still points
// at draft storage. Tombstoned nodes are skipped.
func CollectDraftURLs(doc *model.DraftDocument, draftPrefix string) []string {
	var urls []string
	seen := make(map[string]bool)

	for _, m := range doc.Modules {
		if m.Deleted {
			continue
		}
		for _, it := range m.Items {
			if it.Deleted || it.Lesson == nil || it.Lesson.Deleted {
				continue
			}
			for _, res := range it.Lesson.Resources {
				if res.Deleted {
					continue
				}
				if strings.HasPrefix(res.URL, draftPrefix) && !seen[res.URL] {
					seen[res.URL] = true
					urls = append(urls, res.URL)
				}
			}
		}
	}
	return urls
}

// RewriteURLs replaces draft URLs with their production counterparts in
// place. URLs without a pair are left as they are.
func RewriteURLs(doc *model.DraftDocument, pairs []URLPair) {
	if len(pairs) == 0 {
		return
	}
	byDraft := make(map[string]string, len(pairs))
	for _, p := range pairs {
		byDraft[p.DraftURL] = p.ProductionURL
	}

	for mi := range doc.Modules {
		for ii := range doc.Modules[mi].Items {
			lesson := doc.Modules[mi].Items[ii].Lesson
			if lesson == nil {
				continue
			}
			for ri := range lesson.Resources {
				if prod, ok := byDraft[lesson.Resources[ri].URL]; ok {
					lesson.Resources[ri].URL = prod
				}
			}
		}
	}
}
