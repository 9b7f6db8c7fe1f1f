package helpers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const maxImageSizeBytes = 5 * 1024 * 1024 // 5MB

var allowedImageMimeTypes = []string{
	"image/jpeg",
	"image/png",
}

// ImageStore owns the two image directories: a scratch area for uploads in
// flight and the permanent face corpus keyed by uuid.
type ImageStore struct {
	ScratchDir string
	CorpusDir  string
}

func NewImageStore(scratchDir, corpusDir string) (*ImageStore, error) {
	for _, dir := range []string{scratchDir, corpusDir} {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return nil, err
		}
	}
	return &ImageStore{ScratchDir: scratchDir, CorpusDir: corpusDir}, nil
}

// StagedImage is a scratch file waiting to be either promoted into the
// corpus or discarded. Callers must defer Discard; it is a no-op once the
// file has been promoted or already removed.
type StagedImage struct {
	imageUUID uuid.UUID
	path      string
	promoted  bool
}

func (s *StagedImage) UUID() uuid.UUID {
	return s.imageUUID
}

func (s *StagedImage) Path() string {
	return s.path
}

func (s *StagedImage) Discard() {
	if s.promoted {
		return
	}
	os.Remove(s.path)
}

// Stage writes the upload to the scratch directory under a fresh uuid name.
func (store *ImageStore) Stage(r io.Reader) (*StagedImage, error) {
	imageUUID := uuid.New()
	path := filepath.Join(store.ScratchDir, fmt.Sprintf("%s.png", imageUUID))

	dst, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		os.Remove(path)
		return nil, err
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return nil, err
	}

	return &StagedImage{imageUUID: imageUUID, path: path}, nil
}

// StageUpload validates the multipart upload (size and mime type) and
// stages it.
func (store *ImageStore) StageUpload(fileHeader *multipart.FileHeader) (*StagedImage, error) {
	if fileHeader.Size > maxImageSizeBytes {
		return nil, fmt.Errorf("file size exceeds maximum limit of %d MB", maxImageSizeBytes/(1024*1024))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil && err != io.EOF {
		return nil, err
	}
	mimeType := http.DetectContentType(buffer[:n])

	mimeTypeAllowed := false
	for _, allowedType := range allowedImageMimeTypes {
		if mimeType == allowedType {
			mimeTypeAllowed = true
			break
		}
	}
	if !mimeTypeAllowed {
		return nil, fmt.Errorf("invalid file type. Allowed types: %v", allowedImageMimeTypes)
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	return store.Stage(src)
}

// Promote moves the staged file into the corpus under its uuid name. A
// partially written corpus file is removed on failure.
func (store *ImageStore) Promote(staged *StagedImage) error {
	corpusPath := store.CorpusPath(staged.imageUUID)

	if err := os.Rename(staged.path, corpusPath); err != nil {
		// cross-device fallback
		if copyErr := copyFile(staged.path, corpusPath); copyErr != nil {
			os.Remove(corpusPath)
			return copyErr
		}
		os.Remove(staged.path)
	}

	staged.promoted = true
	return nil
}

func (store *ImageStore) CorpusPath(imageUUID uuid.UUID) string {
	return filepath.Join(store.CorpusDir, fmt.Sprintf("%s.png", imageUUID))
}

func (store *ImageStore) RemoveCorpusImage(imageUUID uuid.UUID) error {
	err := os.Remove(store.CorpusPath(imageUUID))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// SaveUpload validates the multipart upload and writes it into dir under a
// fresh uuid name. Used for event images, which skip the staging flow.
func SaveUpload(dir string, fileHeader *multipart.FileHeader) (uuid.UUID, error) {
	if fileHeader.Size > maxImageSizeBytes {
		return uuid.Nil, fmt.Errorf("file size exceeds maximum limit of %d MB", maxImageSizeBytes/(1024*1024))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return uuid.Nil, err
	}
	defer src.Close()

	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil && err != io.EOF {
		return uuid.Nil, err
	}
	mimeType := http.DetectContentType(buffer[:n])

	mimeTypeAllowed := false
	for _, allowedType := range allowedImageMimeTypes {
		if mimeType == allowedType {
			mimeTypeAllowed = true
			break
		}
	}
	if !mimeTypeAllowed {
		return uuid.Nil, fmt.Errorf("invalid file type. Allowed types: %v", allowedImageMimeTypes)
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return uuid.Nil, err
	}

	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return uuid.Nil, err
	}

	imageUUID := uuid.New()
	path := filepath.Join(dir, fmt.Sprintf("%s.png", imageUUID))

	dst, err := os.Create(path)
	if err != nil {
		return uuid.Nil, err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return uuid.Nil, err
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return uuid.Nil, err
	}

	return imageUUID, nil
}

// RemoveImage deletes a <uuid>.png from dir; a missing file is not an error.
func RemoveImage(dir string, imageUUID uuid.UUID) error {
	err := os.Remove(filepath.Join(dir, fmt.Sprintf("%s.png", imageUUID)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// SafeJoin joins name onto baseDir and rejects any result that escapes
// baseDir, guarding file-serving endpoints against path traversal.
func SafeJoin(baseDir, name string) (string, error) {
	fullPath := filepath.Join(baseDir, name)

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", err
	}
	absFull, err := filepath.Abs(fullPath)
	if err != nil {
		return "", err
	}
	if absFull != absBase && !strings.HasPrefix(absFull, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected")
	}
	return absFull, nil
}
