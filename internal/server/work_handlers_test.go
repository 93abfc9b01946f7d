package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func putJSON(t *testing.T, app *fiber.App, path string, body any, header string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, path, jsonBody(t, body))
	req.Header.Set("Content-Type", "application/json")
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func getJSON(t *testing.T, app *fiber.App, path string, header string, dest any) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	if dest != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
	}
	return resp.StatusCode
}

func TestSubmitWork(t *testing.T) {
	t.Parallel()
	srv, app, db := newTestApp(t)
	admin := createTestUser(t, db, "siteowner", "press-start", true)
	reader := createTestUser(t, db, "inkreader", "press-start", false)

	t.Run("requires auth", func(t *testing.T) {
		resp := postJSON(t, app, "/api/works", map[string]any{
			"title": "Anonymous", "content": "text", "category": "prose",
		}, "")
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("reader submission lands pending", func(t *testing.T) {
		resp := postJSON(t, app, "/api/works", map[string]any{
			"title": "Harbor Lights", "content": "The tide came in slow.", "category": "prose",
		}, bearerToken(t, srv, reader))
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var work models.Work
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&work))
		assert.Equal(t, models.StatusPending, work.Status)
		assert.Equal(t, "inkreader", work.Author)
	})

	t.Run("admin personal submission goes live", func(t *testing.T) {
		resp := postJSON(t, app, "/api/works", map[string]any{
			"title": "Winter Notes", "content": "Snow on the sill.", "category": "essay", "is_personal": true,
		}, bearerToken(t, srv, admin))
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var work models.Work
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&work))
		assert.Equal(t, models.StatusPublished, work.Status)
	})

	t.Run("pen name is honored for community submissions", func(t *testing.T) {
		resp := postJSON(t, app, "/api/works", map[string]any{
			"title": "Borrowed Voice", "content": "text", "category": "prose", "author": "The Harbor Ghost",
		}, bearerToken(t, srv, reader))
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var work models.Work
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&work))
		assert.Equal(t, "The Harbor Ghost", work.Author)
		assert.Equal(t, reader.ID, work.SubmittedBy)
	})

	t.Run("bad category is a 400", func(t *testing.T) {
		resp := postJSON(t, app, "/api/works", map[string]any{
			"title": "Recipe", "content": "Two eggs.", "category": "recipe",
		}, bearerToken(t, srv, reader))
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestSubmitEdit(t *testing.T) {
	t.Parallel()
	srv, app, db := newTestApp(t)
	author := createTestUser(t, db, "inkreader", "press-start", false)
	other := createTestUser(t, db, "bystander", "press-start", false)

	work := models.Work{Title: "River Song", Content: "text", Author: author.Username, SubmittedBy: author.ID, Category: models.CategoryProse, Status: models.StatusPublished}
	require.NoError(t, db.Create(&work).Error)
	path := "/api/works/" + itoa(work.ID)

	t.Run("owner files a draft, live copy untouched", func(t *testing.T) {
		resp := putJSON(t, app, path, map[string]string{
			"title": "River Song, revised", "content": "New current.",
		}, bearerToken(t, srv, author))
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got models.Work
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, "River Song", got.Title)
		assert.True(t, got.HasPendingEdit)
		require.NotNil(t, got.DraftTitle)
		assert.Equal(t, "River Song, revised", *got.DraftTitle)
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		resp := putJSON(t, app, path, map[string]string{
			"title": "Hijacked", "content": "nope",
		}, bearerToken(t, srv, other))
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("pending draft is invisible to other readers", func(t *testing.T) {
		var anon models.Work
		require.Equal(t, http.StatusOK, getJSON(t, app, path, "", &anon))
		assert.Equal(t, "River Song", anon.Title)
		assert.False(t, anon.HasPendingEdit)
		assert.Nil(t, anon.DraftTitle)
		assert.Nil(t, anon.DraftContent)

		var asOther models.Work
		require.Equal(t, http.StatusOK, getJSON(t, app, path, bearerToken(t, srv, other), &asOther))
		assert.False(t, asOther.HasPendingEdit)
		assert.Nil(t, asOther.DraftTitle)

		var asOwner models.Work
		require.Equal(t, http.StatusOK, getJSON(t, app, path, bearerToken(t, srv, author), &asOwner))
		require.True(t, asOwner.HasPendingEdit)
		assert.Equal(t, "River Song, revised", *asOwner.DraftTitle)
	})
}

func TestGetWorkVisibility(t *testing.T) {
	t.Parallel()
	srv, app, db := newTestApp(t)
	admin := createTestUser(t, db, "siteowner", "press-start", true)
	author := createTestUser(t, db, "inkreader", "press-start", false)
	stranger := createTestUser(t, db, "bystander", "press-start", false)

	published := models.Work{Title: "Public", Content: "text", Author: author.Username, SubmittedBy: author.ID, Category: models.CategoryProse, Status: models.StatusPublished}
	require.NoError(t, db.Create(&published).Error)
	hidden := models.Work{Title: "Hidden", Content: "text", Author: author.Username, SubmittedBy: author.ID, Category: models.CategoryProse, Status: models.StatusPublished, IsHidden: true}
	require.NoError(t, db.Create(&hidden).Error)
	pending := models.Work{Title: "Pending", Content: "text", Author: author.Username, SubmittedBy: author.ID, Category: models.CategoryProse, Status: models.StatusPending}
	require.NoError(t, db.Create(&pending).Error)

	path := func(w models.Work) string {
		return "/api/works/" + itoa(w.ID)
	}

	assert.Equal(t, http.StatusOK, getJSON(t, app, path(published), "", nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, app, path(hidden), "", nil))
	assert.Equal(t, http.StatusOK, getJSON(t, app, path(hidden), bearerToken(t, srv, admin), nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, app, path(pending), "", nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, app, path(pending), bearerToken(t, srv, stranger), nil))
	assert.Equal(t, http.StatusOK, getJSON(t, app, path(pending), bearerToken(t, srv, author), nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, app, "/api/works/zero", "", nil))
}

func TestListAndSearchWorks(t *testing.T) {
	t.Parallel()
	srv, app, db := newTestApp(t)
	admin := createTestUser(t, db, "siteowner", "press-start", true)

	works := []models.Work{
		{Title: "Pinned Essay", Content: "text", Author: admin.Username, SubmittedBy: admin.ID, Category: models.CategoryEssay, IsPersonal: true, Status: models.StatusPublished, IsPinned: true},
		{Title: "Plain Essay", Content: "text", Author: admin.Username, SubmittedBy: admin.ID, Category: models.CategoryEssay, IsPersonal: true, Status: models.StatusPublished},
		{Title: "Community Essay", Content: "text", Author: admin.Username, SubmittedBy: admin.ID, Category: models.CategoryEssay, Status: models.StatusPublished},
		{Title: "Hidden Community", Content: "text", Author: admin.Username, SubmittedBy: admin.ID, Category: models.CategoryEssay, Status: models.StatusPublished, IsHidden: true},
	}
	for i := range works {
		require.NoError(t, db.Create(&works[i]).Error)
	}

	t.Run("personal listing is pinned-first", func(t *testing.T) {
		var got []models.Work
		require.Equal(t, http.StatusOK, getJSON(t, app, "/api/works/personal/essay", "", &got))
		require.Len(t, got, 2)
		assert.Equal(t, "Pinned Essay", got[0].Title)
	})

	t.Run("community listing hides hidden works from readers", func(t *testing.T) {
		var got []models.Work
		require.Equal(t, http.StatusOK, getJSON(t, app, "/api/works/community/essay", "", &got))
		require.Len(t, got, 1)
		assert.Equal(t, "Community Essay", got[0].Title)

		require.Equal(t, http.StatusOK, getJSON(t, app, "/api/works/community/essay", bearerToken(t, srv, admin), &got))
		assert.Len(t, got, 2)
	})

	t.Run("unknown category is a 400", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, getJSON(t, app, "/api/works/personal/recipes", "", nil))
	})

	t.Run("search matches personal titles", func(t *testing.T) {
		var got []models.Work
		require.Equal(t, http.StatusOK, getJSON(t, app, "/api/works/search?q=essay", "", &got))
		require.Len(t, got, 2)

		assert.Equal(t, http.StatusBadRequest, getJSON(t, app, "/api/works/search", "", nil))
	})
}

func TestCommentFlow(t *testing.T) {
	t.Parallel()
	srv, app, db := newTestApp(t)
	admin := createTestUser(t, db, "siteowner", "press-start", true)
	reader := createTestUser(t, db, "inkreader", "press-start", false)

	work := models.Work{Title: "Open Floor", Content: "text", Author: admin.Username, SubmittedBy: admin.ID, Category: models.CategoryProse, IsPersonal: true, Status: models.StatusPublished}
	require.NoError(t, db.Create(&work).Error)
	base := "/api/works/" + itoa(work.ID) + "/comments"

	t.Run("submitting needs auth", func(t *testing.T) {
		resp := postJSON(t, app, base, map[string]string{"content": "hi"}, "")
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("submitted comment is pending and invisible to readers", func(t *testing.T) {
		resp := postJSON(t, app, base, map[string]string{"content": "Lovely ending."}, bearerToken(t, srv, reader))
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var comment models.Comment
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&comment))
		assert.Equal(t, models.StatusPending, comment.Status)

		var visible []models.Comment
		require.Equal(t, http.StatusOK, getJSON(t, app, base, "", &visible))
		assert.Len(t, visible, 0)

		// Admin sees the pending comment in place.
		require.Equal(t, http.StatusOK, getJSON(t, app, base, bearerToken(t, srv, admin), &visible))
		assert.Len(t, visible, 1)
	})
}

func TestFeedAndCollections(t *testing.T) {
	t.Parallel()
	_, app, db := newTestApp(t)
	admin := createTestUser(t, db, "siteowner", "press-start", true)

	serial := "letters-from-the-harbor"
	works := []models.Work{
		{Title: "Harbor I", Content: "text", Author: admin.Username, SubmittedBy: admin.ID, Category: models.CategoryNovel, IsPersonal: true, Status: models.StatusPublished, CollectionID: &serial, CollectionName: "Letters from the Harbor"},
		{Title: "Harbor II", Content: "text", Author: admin.Username, SubmittedBy: admin.ID, Category: models.CategoryNovel, IsPersonal: true, Status: models.StatusPublished, CollectionID: &serial, CollectionName: "Letters from the Harbor"},
		{Title: "Standalone", Content: "text", Author: admin.Username, SubmittedBy: admin.ID, Category: models.CategoryProse, IsPersonal: true, Status: models.StatusPublished},
	}
	for i := range works {
		require.NoError(t, db.Create(&works[i]).Error)
	}

	t.Run("feed folds the collection into one item", func(t *testing.T) {
		var items []map[string]any
		require.Equal(t, http.StatusOK, getJSON(t, app, "/api/feed", "", &items))
		require.Len(t, items, 2)

		types := []string{items[0]["type"].(string), items[1]["type"].(string)}
		assert.Contains(t, types, "collection")
		assert.Contains(t, types, "work")
	})

	t.Run("collection detail lists members oldest-first", func(t *testing.T) {
		var col models.Collection
		require.Equal(t, http.StatusOK, getJSON(t, app, "/api/collections/"+serial, "", &col))
		assert.Equal(t, "Letters from the Harbor", col.Name)
		require.Len(t, col.Works, 2)
		assert.Equal(t, "Harbor I", col.Works[0].Title)
	})

	t.Run("missing collection is a 404", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, getJSON(t, app, "/api/collections/nope", "", nil))
	})
}
