package brochure

import (
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/edubridge/backoffice/core"
)

const (
	// BrochureRoot holds one directory per program/title pair.
	BrochureRoot = "/documents/brochure"
	// TempDir receives uploads before they are placed.
	TempDir = "/temp"

	defaultTitleSlug   = "brochure"
	defaultProgramSlug = "university"
	maxCollisionTries  = 100
)

var nowFunc = time.Now // mockable

// Upload is a file received by the API and parked under TempDir.
type Upload struct {
	Path         string // store path, eg. "/temp/5f0c....pdf"
	OriginalName string
}

func (u Upload) Ext() string {
	return path.Ext(path.Base(strings.ReplaceAll(u.OriginalName, "\\", "/")))
}

// StoredFile is where a placed Upload ended.
type StoredFile struct {
	FileURL string
	Name    string
}

// FileManager places uploads under BrochureRoot and cleans them up.
type FileManager struct {
	store  core.FileStore
	logger core.Logger
}

func NewFileManager(store core.FileStore, logger core.Logger) *FileManager {
	return &FileManager{store: store, logger: logger}
}

// DirName is the directory of a program's brochure: slug(program) + "_" + slug(title).
func DirName(programName, title string) string {
	return slugOr(programName, defaultProgramSlug) + "_" + slugOr(title, defaultTitleSlug)
}

func slugOr(s, fallback string) string {
	if slug := core.Slugify(s); slug != "" {
		return slug
	}
	return fallback
}

// SaveTemp writes r under TempDir with a random name keeping the extension of originalName.
func (fm *FileManager) SaveTemp(r io.Reader, originalName string) (Upload, error) {
	upload := Upload{OriginalName: originalName}
	upload.Path = path.Join(TempDir, uuid.New().String()+upload.Ext())

	if err := fm.store.MkdirAll(TempDir); err != nil {
		return Upload{}, core.NewFileSystemError("mkdir", TempDir, err)
	}
	if err := fm.store.Write(upload.Path, r); err != nil {
		return Upload{}, core.NewFileSystemError("write", upload.Path, err)
	}
	return upload, nil
}

// Place moves upload to BrochureRoot/DirName(programName, title)/slug(title)+ext.
// An existing file is never overwritten: the name gets a "_<unix seconds>" suffix, then "_<n>".
// When programName is nil the upload stays where it is and its temp path is returned.
func (fm *FileManager) Place(upload Upload, programName *string, title string) (StoredFile, error) {
	if programName == nil {
		name := path.Base(upload.Path)
		return StoredFile{FileURL: path.Join(TempDir, name), Name: name}, nil
	}

	dir := path.Join(BrochureRoot, DirName(*programName, title))
	if err := fm.store.MkdirAll(dir); err != nil {
		return StoredFile{}, core.NewFileSystemError("mkdir", dir, err)
	}

	name, err := fm.freeName(dir, slugOr(title, defaultTitleSlug), upload.Ext())
	if err != nil {
		return StoredFile{}, err
	}

	dest := path.Join(dir, name)
	if err := fm.store.Rename(upload.Path, dest); err != nil {
		return StoredFile{}, core.NewFileSystemError("rename", upload.Path, err)
	}
	return StoredFile{FileURL: dest, Name: name}, nil
}

// freeName returns the first of base+ext, base_<ts>+ext, base_<ts>_<n>+ext not taken in dir.
// The check and the following rename are not atomic.
func (fm *FileManager) freeName(dir, base, ext string) (string, error) {
	candidates := func(i int) string {
		switch i {
		case 0:
			return base + ext
		case 1:
			return fmt.Sprintf("%s_%d%s", base, nowFunc().Unix(), ext)
		default:
			return fmt.Sprintf("%s_%d_%d%s", base, nowFunc().Unix(), i-1, ext)
		}
	}

	for i := 0; i < maxCollisionTries; i++ {
		name := candidates(i)
		fp := path.Join(dir, name)
		exists, err := fm.store.Exists(fp)
		if err != nil {
			return "", core.NewFileSystemError("stat", fp, err)
		}
		if !exists {
			return name, nil
		}
	}
	return "", core.NewFileSystemError("place", path.Join(dir, base+ext), fmt.Errorf("no free name after %d tries", maxCollisionTries))
}

// Cleanup removes the file at fileURL, then its parent directory when empty, then its
// grandparent when empty and strictly inside BrochureRoot. A missing file is not an error.
func (fm *FileManager) Cleanup(fileURL string) error {
	if fileURL == "" {
		return nil
	}
	fp := path.Clean("/" + fileURL)

	exists, err := fm.store.Exists(fp)
	if err != nil {
		return core.NewFileSystemError("stat", fp, err)
	}
	if !exists {
		return nil
	}
	if err := fm.store.Remove(fp); err != nil {
		return core.NewFileSystemError("remove", fp, err)
	}

	parent := path.Dir(fp)
	if isProtectedDir(parent) {
		return nil
	}
	removed, err := fm.removeIfEmpty(parent)
	if err != nil || !removed {
		return err
	}

	grandParent := path.Dir(parent)
	if !strings.HasPrefix(grandParent, BrochureRoot+"/") {
		return nil
	}
	_, err = fm.removeIfEmpty(grandParent)
	return err
}

// Discard runs Cleanup and logs its failure. Database state wins over the file system.
func (fm *FileManager) Discard(fileURL string) {
	if err := fm.Cleanup(fileURL); err != nil {
		fm.logger.Error("Error deleting brochure file", err, map[string]interface{}{"fileUrl": fileURL})
	}
}

// DiscardUpload removes an upload still parked under TempDir.
func (fm *FileManager) DiscardUpload(upload Upload) {
	if upload.Path == "" {
		return
	}
	if exists, err := fm.store.Exists(upload.Path); err != nil || !exists {
		return
	}
	if err := fm.store.Remove(upload.Path); err != nil {
		fm.logger.Error("Error deleting upload", core.NewFileSystemError("remove", upload.Path, err))
	}
}

func (fm *FileManager) removeIfEmpty(dir string) (bool, error) {
	entries, err := fm.store.ReadDir(dir)
	if err != nil {
		return false, core.NewFileSystemError("readdir", dir, err)
	}
	if len(entries) > 0 {
		return false, nil
	}
	if err := fm.store.Remove(dir); err != nil {
		return false, core.NewFileSystemError("rmdir", dir, err)
	}
	return true, nil
}

func isProtectedDir(dir string) bool {
	switch dir {
	case "/", "/documents", BrochureRoot, TempDir:
		return true
	}
	return false
}
