// Package facerec wraps the face detection and recognition capability the
// registration flow depends on. Callers only see the Engine contract; the
// embedding model and detector live behind it.
package facerec

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNoFaceDetected is returned when no face is found in the image.
var ErrNoFaceDetected = errors.New("no face detected")

// ErrMultipleFaces is returned when more than one face is detected.
var ErrMultipleFaces = errors.New("multiple faces detected")

// Region is the bounding box of a detected face.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Match is a corpus entry whose face is within the engine's distance
// threshold of the probe image, ranked by ascending distance.
type Match struct {
	ImageUUID uuid.UUID `json:"image_uuid"`
	Distance  float64   `json:"distance"`
}

// Engine is the embedding collaborator contract: detect exactly one face in
// an image, and search a directory of enrolled face images for matches.
// Implementations take filesystem paths, so callers stage uploads to disk
// first.
type Engine interface {
	DetectSingleFace(ctx context.Context, imagePath string) (Region, error)
	SearchCorpus(ctx context.Context, imagePath, corpusDir string) ([]Match, error)
}
