package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"regexp"
	"strings"

	"github.com/agenthands/labelcheck/internal/core/model"
)

var leadingAmount = regexp.MustCompile(`^\s*([0-9]+(?:[.,][0-9]+)?)\s*(.*?)\s*$`)

// splitAmount separates "45% ABV" into "45" and "% ABV".
func splitAmount(v string) (amount, rest string) {
	m := leadingAmount.FindStringSubmatch(v)
	if m == nil {
		return "", strings.TrimSpace(v)
	}
	return m[1], m[2]
}

// applicationForm renders app in the backend's snake_case form, with the
// alcohol and volume values split into amount and unit.
func applicationForm(app *model.ApplicationData) map[string]string {
	if app == nil {
		app = &model.ApplicationData{}
	}
	form := make(map[string]string, len(model.ApplicationFields)+4)
	for _, id := range model.ApplicationFields {
		v, _ := app.Value(id)
		form[id] = v
	}
	form["alcohol_content_amount"], form["alcohol_content_format"] = splitAmount(app.AlcoholContent)
	form["net_contents_amount"], form["net_contents_unit"] = splitAmount(app.NetContents)
	return form
}

func encodeForm(img model.Image, app *model.ApplicationData) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	name := img.Name
	if name == "" {
		name = "label"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, name))
	h.Set("Content-Type", img.MIMEType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, "", err
	}

	appJSON, err := json.Marshal(applicationForm(app))
	if err != nil {
		return nil, "", err
	}
	if err := w.WriteField("applicationData", string(appJSON)); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
