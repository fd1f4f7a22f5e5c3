package echoapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edubridge/backoffice/core"
	"github.com/edubridge/backoffice/core/brochure"
	"github.com/edubridge/backoffice/core/user"
	"github.com/edubridge/backoffice/testutil"
)

func Test_brochureApi_access(t *testing.T) {
	app := setup(t)
	agent := testutil.CreateUser(t, app.usrRepo, "Amani", "amani@test.cd", "", core.RoleAgent, user.StatusActive)
	typ := testutil.CreateType(t, app.catRepo, "Masters")
	assigned := testutil.CreateProgram(t, app.catRepo, "Oxford", typ.ID)
	other := testutil.CreateProgram(t, app.catRepo, "Cambridge", typ.ID)
	testutil.Assign(t, app.asgRepo, agent.ID, assigned.ID)
	token := app.token(t, agent)

	runHTTPTests(t, app, []httpTest{
		{name: "auth required", path: "/api/brochures/types", wantCode: http.StatusUnauthorized, wantMsg: errMissingToken},
		{name: "list types", path: "/api/brochures/types", token: token, wantMsg: "Brochure types retrieved successfully"},
		{
			name: "create type: admin required", method: http.MethodPost, path: "/api/brochures/types", token: token,
			body: brochure.NewType{Name: "PhD"}, wantCode: http.StatusForbidden,
		},
		{
			name: "delete program: admin required", method: http.MethodDelete, path: "/api/brochures/ups/" + assigned.ID, token: token,
			wantCode: http.StatusForbidden,
		},
		{name: "assigned program", path: "/api/brochures/ups/" + assigned.ID, token: token},
		{
			name: "unassigned program", path: "/api/brochures/ups/" + other.ID, token: token,
			wantCode: http.StatusForbidden, wantMsg: "You are not assigned to this university program",
		},
		{name: "unassigned brochures", path: "/api/brochures/ups/" + other.ID + "/brochures", token: token, wantCode: http.StatusForbidden},
	})

	t.Run("agents only see their programs", func(t *testing.T) {
		var ups []brochure.ProgramWithCount
		decodeData(t, app.serve(newRequest(t, http.MethodGet, "/api/brochures/ups", token, nil)), &ups)
		require.Len(t, ups, 1)
		assert.Equal(t, assigned.ID, ups[0].ID)
	})
}

func Test_brochureApi_catalogue(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin@test.cd", "", core.RoleAdmin, user.StatusActive)
	token := app.token(t, admin)

	var typ brochure.BrochureType
	rec := app.serve(newRequest(t, http.MethodPost, "/api/brochures/types", token, brochure.NewType{Name: " Masters "}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	decodeData(t, rec, &typ)
	assert.Equal(t, "Masters", typ.Name)

	var up brochure.Program
	rec = app.serve(newRequest(t, http.MethodPost, "/api/brochures/ups", token, brochure.NewProgram{Name: "Oxford", TypeID: typ.ID}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	decodeData(t, rec, &up)

	var cat brochure.Category
	rec = app.serve(newRequest(t, http.MethodPost, "/api/brochures/categories", token, brochure.NewCategory{Name: "Fees", TypeID: typ.ID}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	decodeData(t, rec, &cat)
	require.NotNil(t, cat.TypeID)
	assert.Equal(t, typ.ID, *cat.TypeID)

	runHTTPTests(t, app, []httpTest{
		{name: "create type: blank", method: http.MethodPost, path: "/api/brochures/types", token: token,
			body: brochure.NewType{Name: "  "}, wantCode: http.StatusBadRequest, wantField: "name"},
		{name: "create program: unknown type", method: http.MethodPost, path: "/api/brochures/ups", token: token,
			body: brochure.NewProgram{Name: "MIT", TypeID: "5a0d1b6f-7c2e-4a3b-9d1e-2f3a4b5c6d7e"}, wantCode: http.StatusBadRequest},
		{name: "update type", method: http.MethodPut, path: "/api/brochures/types/" + typ.ID, token: token,
			body: brochure.UpdateType{Name: "Masters degrees"}, wantMsg: "Brochure type updated successfully"},
		{name: "update type: invalid id", method: http.MethodPut, path: "/api/brochures/types/lol", token: token,
			body: brochure.UpdateType{Name: "lol"}, wantCode: http.StatusNotFound},
		{name: "update program", method: http.MethodPut, path: "/api/brochures/ups/" + up.ID, token: token,
			body: brochure.UpdateProgram{Name: "Oxford University"}, wantMsg: "University program updated successfully"},
		{name: "update category", method: http.MethodPut, path: "/api/brochures/categories/" + cat.ID, token: token,
			body: brochure.UpdateCategory{Name: "Fees & scholarships"}, wantMsg: "Category updated successfully"},
		{name: "list categories", path: "/api/brochures/categories", token: token},
	})

	t.Run("types carry their program count", func(t *testing.T) {
		var types []brochure.TypeWithCount
		decodeData(t, app.serve(newRequest(t, http.MethodGet, "/api/brochures/types", token, nil)), &types)
		require.Len(t, types, 1)
		assert.Equal(t, "Masters degrees", types[0].Name)
		assert.Equal(t, 1, types[0].UPCount)
	})

	t.Run("programs by type", func(t *testing.T) {
		var ups []brochure.ProgramWithCount
		decodeData(t, app.serve(newRequest(t, http.MethodGet, "/api/brochures/types/"+typ.ID+"/ups", token, nil)), &ups)
		require.Len(t, ups, 1)
		assert.Equal(t, "Oxford University", ups[0].Name)
	})

	t.Run("delete type cascades", func(t *testing.T) {
		rec := app.serve(newRequest(t, http.MethodDelete, "/api/brochures/types/"+typ.ID, token, nil))
		checkResponse(t, httpTest{wantMsg: "Brochure type and all associated programs and brochures deleted successfully"}, rec)

		rec = app.serve(newRequest(t, http.MethodGet, "/api/brochures/ups/"+up.ID, token, nil))
		checkResponse(t, httpTest{wantCode: http.StatusNotFound}, rec)

		got, err := app.catRepo.GetCategory(context.Background(), cat.ID)
		require.NoError(t, err)
		assert.Nil(t, got.TypeID)
	})
}

func Test_brochureApi_brochures(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin@test.cd", "", core.RoleAdmin, user.StatusActive)
	token := app.token(t, admin)
	typ := testutil.CreateType(t, app.catRepo, "Masters")
	up := testutil.CreateProgram(t, app.catRepo, "Oxford", typ.ID)
	path := "/api/brochures/ups/" + up.ID + "/brochures"

	exists := func(p string) bool {
		ok, err := app.store.Exists(p)
		require.NoError(t, err)
		return ok
	}

	t.Run("validation", func(t *testing.T) {
		rec := app.serve(newMultipartRequest(t, http.MethodPost, path, token, map[string]string{"title": " "}, "guide.pdf", "%PDF"))
		checkResponse(t, httpTest{wantCode: http.StatusBadRequest, wantField: "title"}, rec)

		// the rejected upload does not linger in temp
		infos, err := app.store.ReadDir(brochure.TempDir)
		require.NoError(t, err)
		assert.Empty(t, infos)
	})

	var b brochure.Brochure
	t.Run("create with file", func(t *testing.T) {
		rec := app.serve(newMultipartRequest(t, http.MethodPost, path, token, map[string]string{"title": "MBA Guide"}, "Guide.PDF", "%PDF"))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		decodeData(t, rec, &b)

		assert.Equal(t, "/documents/brochure/oxford_mba-guide/mba-guide.PDF", b.FileURL, "extension case is kept")
		assert.Equal(t, "mba-guide.PDF", b.Name)
		assert.Equal(t, b.FileURL, b.URL)
		assert.True(t, exists(b.FileURL))
	})

	t.Run("same title does not overwrite", func(t *testing.T) {
		var b2 brochure.Brochure
		rec := app.serve(newMultipartRequest(t, http.MethodPost, path, token, map[string]string{"title": "MBA Guide"}, "guide.PDF", "%PDF"))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		decodeData(t, rec, &b2)
		assert.NotEqual(t, b.FileURL, b2.FileURL)
		assert.True(t, exists(b.FileURL))
		assert.True(t, exists(b2.FileURL))
	})

	t.Run("create without file", func(t *testing.T) {
		var b3 brochure.Brochure
		body := brochure.NewBrochure{Title: "Open day", URL: "https://example.com/open-day"}
		rec := app.serve(newRequest(t, http.MethodPost, path, token, body))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		decodeData(t, rec, &b3)
		assert.Empty(t, b3.FileURL)
		assert.Equal(t, "https://example.com/open-day", b3.URL)
	})

	t.Run("list", func(t *testing.T) {
		var items []brochure.Brochure
		decodeData(t, app.serve(newRequest(t, http.MethodGet, path, token, nil)), &items)
		assert.Len(t, items, 3)
	})

	t.Run("update replaces file", func(t *testing.T) {
		oldFile := b.FileURL
		rec := app.serve(newMultipartRequest(t, http.MethodPut, "/api/brochures/items/"+b.ID, token,
			map[string]string{"title": "MBA Brochure"}, "new.pdf", "%PDF-2"))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decodeData(t, rec, &b)

		assert.Equal(t, "/documents/brochure/oxford_mba-brochure/mba-brochure.pdf", b.FileURL)
		assert.True(t, exists(b.FileURL))
		assert.False(t, exists(oldFile))
	})

	t.Run("update unknown", func(t *testing.T) {
		rec := app.serve(newRequest(t, http.MethodPut, "/api/brochures/items/5a0d1b6f-7c2e-4a3b-9d1e-2f3a4b5c6d7e", token,
			brochure.UpdateBrochure{Title: "lol"}))
		checkResponse(t, httpTest{wantCode: http.StatusNotFound}, rec)
	})

	t.Run("delete removes file and dir", func(t *testing.T) {
		rec := app.serve(newRequest(t, http.MethodDelete, "/api/brochures/items/"+b.ID, token, nil))
		checkResponse(t, httpTest{wantMsg: "Brochure deleted successfully"}, rec)
		assert.False(t, exists(b.FileURL))
		assert.False(t, exists("/documents/brochure/oxford_mba-brochure"))
		assert.True(t, exists(brochure.BrochureRoot))
	})

	t.Run("delete program cascades", func(t *testing.T) {
		rec := app.serve(newRequest(t, http.MethodDelete, "/api/brochures/ups/"+up.ID, token, nil))
		checkResponse(t, httpTest{wantMsg: "University program and all associated brochures deleted successfully"}, rec)

		items, err := app.catRepo.QueryBrochures(context.Background(), up.ID)
		require.NoError(t, err)
		assert.Empty(t, items)
		assert.False(t, exists("/documents/brochure/oxford_mba-guide"))
	})
}

func Test_brochureApi_uploads(t *testing.T) {
	app := setup(t)
	write := func(p, content string) {
		fp := filepath.Join(app.conf.Storage.Root, filepath.FromSlash(p))
		require.NoError(t, os.MkdirAll(filepath.Dir(fp), 0o755))
		require.NoError(t, os.WriteFile(fp, []byte(content), 0o644))
	}
	placed := path.Join(brochure.BrochureRoot, "oxford_mba-guide", "mba-guide.pdf")
	write(placed, "%PDF-placed")
	write(path.Join(brochure.TempDir, "5f0c.pdf"), "%PDF-parked")
	write("config.yml", "secret: true")

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantBody string
	}{
		{name: "placed brochure", path: "/uploads" + placed, wantCode: http.StatusOK, wantBody: "%PDF-placed"},
		{name: "parked upload", path: "/uploads" + brochure.TempDir + "/5f0c.pdf", wantCode: http.StatusNotFound},
		{name: "storage root", path: "/uploads/config.yml", wantCode: http.StatusNotFound},
		{name: "traversal", path: "/uploads" + brochure.BrochureRoot + "/../../temp/5f0c.pdf", wantCode: http.StatusNotFound},
		{name: "missing brochure", path: "/uploads" + brochure.BrochureRoot + "/x_y/y.pdf", wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.serve(httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}
