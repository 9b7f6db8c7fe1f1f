package facerec

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Kagami/go-face"
	"github.com/google/uuid"
)

// DlibEngine implements Engine on top of dlib via go-face. The corpus is a
// flat directory of <uuid>.png files scanned in full on every search; no
// index is kept between calls.
type DlibEngine struct {
	rec       *face.Recognizer
	threshold float64
	mu        sync.Mutex // the dlib recognizer is not safe for concurrent use
}

// NewDlibEngine loads the dlib models from modelDir. modelDir must contain
// shape_predictor_5_face_landmarks.dat and
// dlib_face_recognition_resnet_model_v1.dat. Faces within threshold
// Euclidean distance count as the same person.
func NewDlibEngine(modelDir string, threshold float64) (*DlibEngine, error) {
	rec, err := face.NewRecognizer(modelDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load face recognition models: %w", err)
	}
	return &DlibEngine{rec: rec, threshold: threshold}, nil
}

func (e *DlibEngine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rec != nil {
		e.rec.Close()
		e.rec = nil
	}
}

func (e *DlibEngine) DetectSingleFace(ctx context.Context, imagePath string) (Region, error) {
	if err := ctx.Err(); err != nil {
		return Region{}, err
	}

	e.mu.Lock()
	faces, err := e.rec.RecognizeFile(imagePath)
	e.mu.Unlock()
	if err != nil {
		return Region{}, fmt.Errorf("face detection failed: %w", err)
	}

	switch len(faces) {
	case 0:
		return Region{}, ErrNoFaceDetected
	case 1:
		rect := faces[0].Rectangle
		return Region{
			X:      rect.Min.X,
			Y:      rect.Min.Y,
			Width:  rect.Dx(),
			Height: rect.Dy(),
		}, nil
	default:
		return Region{}, ErrMultipleFaces
	}
}

func (e *DlibEngine) SearchCorpus(ctx context.Context, imagePath, corpusDir string) ([]Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	probeFaces, err := e.rec.RecognizeFile(imagePath)
	e.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("probe recognition failed: %w", err)
	}
	if len(probeFaces) == 0 {
		return nil, ErrNoFaceDetected
	}
	probe := probeFaces[0].Descriptor

	entries, err := os.ReadDir(corpusDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus directory: %w", err)
	}

	var matches []Match
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".png") {
			continue
		}
		imageUUID, err := uuid.Parse(strings.TrimSuffix(entry.Name(), ".png"))
		if err != nil {
			continue
		}

		e.mu.Lock()
		enrolled, err := e.rec.RecognizeSingleFile(filepath.Join(corpusDir, entry.Name()))
		e.mu.Unlock()
		if err != nil || enrolled == nil {
			continue
		}

		distance := euclideanDistance(probe, enrolled.Descriptor)
		if distance <= e.threshold {
			matches = append(matches, Match{ImageUUID: imageUUID, Distance: distance})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	return matches, nil
}

func euclideanDistance(d1, d2 face.Descriptor) float64 {
	var sum float64
	for i := range d1 {
		diff := float64(d1[i] - d2[i])
		sum += diff * diff
	}
	return math.Sqrt(sum)
}
