package brochure

import (
	"path"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edubridge/backoffice/core"
	filestore "github.com/edubridge/backoffice/storage/files"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func newFileManager(t *testing.T) (*FileManager, core.FileStore) {
	t.Helper()
	store := filestore.NewMemStore()
	return NewFileManager(store, nopLogger{}), store
}

func saveTemp(t *testing.T, fm *FileManager, name string) Upload {
	t.Helper()
	upload, err := fm.SaveTemp(strings.NewReader("%PDF-1.4"), name)
	require.NoError(t, err)
	return upload
}

func exists(t *testing.T, store core.FileStore, p string) bool {
	t.Helper()
	ok, err := store.Exists(p)
	require.NoError(t, err)
	return ok
}

func strPtr(s string) *string { return &s }

func TestDirName(t *testing.T) {
	tests := []struct {
		program string
		title   string
		want    string
	}{
		{program: "Oxford", title: "MBA Guide", want: "oxford_mba-guide"},
		{program: "  Université de Montréal ", title: "Guide 2024!", want: "universit-de-montral_guide-2024"},
		{program: "Imperial -- College", title: "Fees & Scholarships", want: "imperial-college_fees-scholarships"},
		{program: "", title: "", want: "university_brochure"},
		{program: "!!!", title: "???", want: "university_brochure"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, DirName(tt.program, tt.title))
		})
	}
}

func TestUpload_Ext(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "guide.pdf", want: ".pdf"},
		{name: "archive.tar.gz", want: ".gz"},
		{name: `C:\Users\me\guide.docx`, want: ".docx"},
		{name: "README", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Upload{OriginalName: tt.name}.Ext())
		})
	}
}

func TestFileManager_SaveTemp(t *testing.T) {
	fm, store := newFileManager(t)

	upload := saveTemp(t, fm, "Guide.PDF")
	assert.Equal(t, TempDir, path.Dir(upload.Path))
	assert.True(t, strings.HasSuffix(upload.Path, ".PDF"), "extension case is kept")
	assert.Equal(t, "Guide.PDF", upload.OriginalName)
	assert.True(t, exists(t, store, upload.Path))

	other := saveTemp(t, fm, "Guide.PDF")
	assert.NotEqual(t, upload.Path, other.Path)
}

func TestFileManager_Place(t *testing.T) {
	fm, store := newFileManager(t)

	ts := time.Unix(1700000000, 0)
	nowFunc = func() time.Time { return ts }
	defer func() { nowFunc = time.Now }()

	dir := "/documents/brochure/oxford_mba-guide"
	tests := []struct {
		name     string
		program  *string
		wantURL  string
		wantName string
	}{
		{name: "fresh", program: strPtr("Oxford"), wantURL: dir + "/mba-guide.pdf", wantName: "mba-guide.pdf"},
		{name: "taken", program: strPtr("Oxford"), wantURL: dir + "/mba-guide_1700000000.pdf", wantName: "mba-guide_1700000000.pdf"},
		{name: "taken twice", program: strPtr("Oxford"), wantURL: dir + "/mba-guide_1700000000_1.pdf", wantName: "mba-guide_1700000000_1.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upload := saveTemp(t, fm, "brochure.pdf")
			stored, err := fm.Place(upload, tt.program, "MBA Guide")
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, stored.FileURL)
			assert.Equal(t, tt.wantName, stored.Name)
			assert.True(t, exists(t, store, stored.FileURL))
			assert.False(t, exists(t, store, upload.Path), "the upload must be moved")
		})
	}

	t.Run("program not found", func(t *testing.T) {
		upload := saveTemp(t, fm, "brochure.pdf")
		stored, err := fm.Place(upload, nil, "MBA Guide")
		require.NoError(t, err)
		assert.Equal(t, upload.Path, stored.FileURL)
		assert.Equal(t, path.Base(upload.Path), stored.Name)
		assert.True(t, exists(t, store, upload.Path), "the upload must stay in temp")
	})

	t.Run("untitled", func(t *testing.T) {
		upload := saveTemp(t, fm, "brochure.pdf")
		stored, err := fm.Place(upload, strPtr("Oxford"), "   ")
		require.NoError(t, err)
		assert.Equal(t, "/documents/brochure/oxford_brochure/brochure.pdf", stored.FileURL)
	})
}

func TestFileManager_Cleanup(t *testing.T) {
	place := func(t *testing.T, fm *FileManager, program, title string) string {
		stored, err := fm.Place(saveTemp(t, fm, "x.pdf"), &program, title)
		require.NoError(t, err)
		return stored.FileURL
	}

	t.Run("removes file and empty directory", func(t *testing.T) {
		fm, store := newFileManager(t)
		fileURL := place(t, fm, "Oxford", "MBA Guide")

		require.NoError(t, fm.Cleanup(fileURL))
		assert.False(t, exists(t, store, fileURL))
		assert.False(t, exists(t, store, path.Dir(fileURL)))
		assert.True(t, exists(t, store, BrochureRoot), "the brochure root is never removed")
	})

	t.Run("keeps non-empty directory", func(t *testing.T) {
		fm, store := newFileManager(t)
		first := place(t, fm, "Oxford", "MBA Guide")
		second := place(t, fm, "Oxford", "MBA Guide")

		require.NoError(t, fm.Cleanup(first))
		assert.False(t, exists(t, store, first))
		assert.True(t, exists(t, store, second))
		assert.True(t, exists(t, store, path.Dir(second)))
	})

	t.Run("removes empty grandparent inside the root", func(t *testing.T) {
		fm, store := newFileManager(t)
		fileURL := BrochureRoot + "/legacy/oxford/guide.pdf"
		require.NoError(t, store.Write(fileURL, strings.NewReader("%PDF")))

		require.NoError(t, fm.Cleanup(fileURL))
		assert.False(t, exists(t, store, BrochureRoot+"/legacy/oxford"))
		assert.False(t, exists(t, store, BrochureRoot+"/legacy"))
		assert.True(t, exists(t, store, BrochureRoot))
	})

	t.Run("keeps temp directory", func(t *testing.T) {
		fm, store := newFileManager(t)
		upload := saveTemp(t, fm, "x.pdf")

		require.NoError(t, fm.Cleanup(upload.Path))
		assert.False(t, exists(t, store, upload.Path))
		assert.True(t, exists(t, store, TempDir))
	})

	t.Run("missing file", func(t *testing.T) {
		fm, _ := newFileManager(t)
		assert.NoError(t, fm.Cleanup("/documents/brochure/lol/lol.pdf"))
		assert.NoError(t, fm.Cleanup(""))
	})
}

func TestFileManager_DiscardUpload(t *testing.T) {
	fm, store := newFileManager(t)
	upload := saveTemp(t, fm, "x.pdf")

	fm.DiscardUpload(upload)
	assert.False(t, exists(t, store, upload.Path))

	fm.DiscardUpload(upload) // already gone
	fm.DiscardUpload(Upload{})
}
