package batch

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/agenthands/labelcheck/internal/core/model"
)

// NamedApplication is an application file from a batch upload.
type NamedApplication struct {
	Name        string
	Application *model.ApplicationData
}

func newBatch() *model.VerificationBatch {
	return &model.VerificationBatch{ID: uuid.NewString()}
}

func newPair(img *model.Image, app *NamedApplication) *model.FilePair {
	p := &model.FilePair{ID: uuid.NewString(), Image: img}
	if img != nil {
		p.ImageName = img.Name
	}
	if app != nil {
		p.ApplicationName = app.Name
		p.Application = app.Application
	}
	switch {
	case img == nil:
		p.Status = model.PairMissingImage
	case app == nil || app.Application == nil:
		p.Status = model.PairMissingApplication
	default:
		p.Status = model.PairComplete
	}
	return p
}

// PairByIndex pairs the i-th image with the i-th application. Surplus
// entries on either side become incomplete pairs.
func PairByIndex(images []model.Image, apps []NamedApplication) *model.VerificationBatch {
	b := newBatch()
	n := max(len(images), len(apps))
	for i := 0; i < n; i++ {
		var img *model.Image
		var app *NamedApplication
		if i < len(images) {
			img = &images[i]
		}
		if i < len(apps) {
			app = &apps[i]
		}
		b.Pairs = append(b.Pairs, newPair(img, app))
	}
	return b
}

// PairByStem pairs files whose names match once the extension is dropped,
// ignoring case: "label-01.png" goes with "label-01.json". Images keep
// their upload order; unmatched applications follow.
func PairByStem(images []model.Image, apps []NamedApplication) *model.VerificationBatch {
	b := newBatch()

	byStem := make(map[string][]int)
	for i, a := range apps {
		s := Stem(a.Name)
		byStem[s] = append(byStem[s], i)
	}
	used := make([]bool, len(apps))

	for i := range images {
		var app *NamedApplication
		s := Stem(images[i].Name)
		if queue := byStem[s]; len(queue) > 0 {
			j := queue[0]
			byStem[s] = queue[1:]
			used[j] = true
			app = &apps[j]
		}
		b.Pairs = append(b.Pairs, newPair(&images[i], app))
	}
	for j := range apps {
		if !used[j] {
			b.Pairs = append(b.Pairs, newPair(nil, &apps[j]))
		}
	}
	return b
}

func Stem(name string) string {
	base := filepath.Base(name)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}
