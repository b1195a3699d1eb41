package assets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courseloom/courseloom-backend/internal/model"
)

func draftWithResources(urls ...string) *model.DraftDocument {
	resources := make([]model.DraftResource, len(urls))
	for i, u := range urls {
		resources[i] = model.DraftResource{ID: -int64(i + 1), Name: "file", URL: u}
	}
	return &model.DraftDocument{
		Version: 1,
		Name:    "Course",
		Modules: []model.DraftModule{{
			ID:    -1,
			Title: "Module",
			Items: []model.DraftItem{{
				ID:   "tmp-1.1",
				Type: model.ItemTypeLesson,
				Lesson: &model.DraftLesson{
					ID:        -1,
					Title:     "Lesson",
					Kind:      model.LessonKindDocument,
					Resources: resources,
				},
			}},
		}},
	}
}

func TestCollectDraftURLsSkipsProductionAndTombstones(t *testing.T) {
	doc := draftWithResources(
		"https://draft.cdn/courses/a.pdf",
		"https://cdn.courseloom.com/courses/b.pdf",
		"https://draft.cdn/courses/a.pdf", // duplicate
	)
	doc.Modules[0].Items[0].Lesson.Resources = append(
		doc.Modules[0].Items[0].Lesson.Resources,
		model.DraftResource{ID: 9, URL: "https://draft.cdn/courses/gone.pdf", Deleted: true},
	)

	urls := CollectDraftURLs(doc, "https://draft.cdn/")
	assert.Equal(t, []string{"https://draft.cdn/courses/a.pdf"}, urls)
}

func TestRewriteURLsReplacesPairedOnly(t *testing.T) {
	doc := draftWithResources(
		"https://draft.cdn/courses/a.pdf",
		"https://draft.cdn/courses/b.pdf",
	)

	RewriteURLs(doc, []URLPair{
		{DraftURL: "https://draft.cdn/courses/a.pdf", ProductionURL: "https://cdn.courseloom.com/courses/a.pdf"},
	})

	res := doc.Modules[0].Items[0].Lesson.Resources
	assert.Equal(t, "https://cdn.courseloom.com/courses/a.pdf", res[0].URL)
	assert.Equal(t, "https://draft.cdn/courses/b.pdf", res[1].URL)
}

func TestPromoteRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/assets/promote", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req promoteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := promoteResponse{}
		for _, u := range req.URLs {
			resp.Pairs = append(resp.Pairs, URLPair{DraftURL: u, ProductionURL: "https://cdn/" + u})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := NewPromoter(srv.URL, "secret")
	pairs, err := p.Promote(context.Background(), 7, []string{"x.pdf", "y.pdf"})
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, "https://cdn/x.pdf", pairs[0].ProductionURL)
}

func TestPromoteEmptyInputShortCircuits(t *testing.T) {
	p := NewPromoter("http://unused", "secret")
	pairs, err := p.Promote(context.Background(), 7, nil)
	require.NoError(t, err)
	assert.Nil(t, pairs)
}

func TestPromoteServiceErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewPromoter(srv.URL, "secret")
	_, err := p.Promote(context.Background(), 7, []string{"x.pdf"})
	assert.Error(t, err)
}
