package server

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agenthands/labelcheck/internal/core/batch"
	"github.com/agenthands/labelcheck/internal/core/model"
	"github.com/agenthands/labelcheck/internal/core/summary"
)

// Verify handles a single image plus its applicationData JSON.
func (s *Server) Verify(c *gin.Context) {
	fh, err := c.FormFile("image")
	if err != nil {
		if tooLarge(err) {
			s.uploadTooLarge(c)
			return
		}
		s.badRequest(c, "image file is required")
		return
	}

	raw := strings.TrimSpace(c.PostForm("applicationData"))
	if raw == "" {
		s.badRequest(c, "applicationData is required")
		return
	}
	var app model.ApplicationData
	if err := json.Unmarshal([]byte(raw), &app); err != nil {
		s.badRequest(c, "Invalid applicationData JSON")
		return
	}

	img, err := readImage(fh)
	if err != nil {
		s.badRequest(c, fmt.Sprintf("could not read %s", fh.Filename))
		return
	}
	s.Logger.Debug("verifying upload",
		zap.String("image", img.Name),
		zap.String("size", humanize.IBytes(uint64(len(img.Data)))))

	res, err := s.Verifier.Verify(c.Request.Context(), img, &app)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// VerifyBatch pairs uploaded images with applications and verifies every
// complete pair. Applications come either as an applicationData JSON
// array matched by position, or as JSON files matched by file name.
func (s *Server) VerifyBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		if tooLarge(err) {
			s.uploadTooLarge(c)
			return
		}
		s.badRequest(c, "multipart form expected")
		return
	}

	images := make([]model.Image, 0, len(form.File["images"]))
	for _, fh := range form.File["images"] {
		img, err := readImage(fh)
		if err != nil {
			s.badRequest(c, fmt.Sprintf("could not read %s", fh.Filename))
			return
		}
		images = append(images, img)
	}

	var b *model.VerificationBatch
	if raw := form.Value["applicationData"]; len(raw) > 0 {
		var list []model.ApplicationData
		if err := json.Unmarshal([]byte(raw[0]), &list); err != nil {
			s.badRequest(c, "Invalid applicationData JSON")
			return
		}
		apps := make([]batch.NamedApplication, len(list))
		for i := range list {
			apps[i] = batch.NamedApplication{Name: fmt.Sprintf("applicationData[%d]", i), Application: &list[i]}
		}
		if len(images) == 0 && len(apps) == 0 {
			s.badRequest(c, "no images or applications uploaded")
			return
		}
		b = batch.PairByIndex(images, apps)
	} else {
		files := form.File["applications"]
		if len(images) == 0 && len(files) == 0 {
			s.badRequest(c, "no images or applications uploaded")
			return
		}
		apps := make([]batch.NamedApplication, 0, len(files))
		for _, fh := range files {
			app, err := readApplication(fh)
			if err != nil {
				s.badRequest(c, fmt.Sprintf("invalid application file %s", fh.Filename))
				return
			}
			apps = append(apps, batch.NamedApplication{Name: fh.Filename, Application: app})
		}
		b = batch.PairByStem(images, apps)
	}

	if err := s.Runner.Run(c.Request.Context(), b); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

type OverrideRequest struct {
	Result model.VerificationResult `json:"result"`
	Field  string                   `json:"field"`
	Status model.Status             `json:"status"`
	Note   string                   `json:"note"`
}

// Override applies a reviewer's verdict to one field of a result.
func (s *Server) Override(c *gin.Context) {
	var req OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "Invalid request")
		return
	}
	res, err := summary.Override(req.Result, req.Field, req.Status, req.Note)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func readImage(fh *multipart.FileHeader) (model.Image, error) {
	data, err := readFile(fh)
	if err != nil {
		return model.Image{}, err
	}
	return model.Image{
		Name:     fh.Filename,
		Data:     data,
		MIMEType: fh.Header.Get("Content-Type"),
	}, nil
}

func readApplication(fh *multipart.FileHeader) (*model.ApplicationData, error) {
	data, err := readFile(fh)
	if err != nil {
		return nil, err
	}
	var app model.ApplicationData
	if err := json.Unmarshal(data, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
