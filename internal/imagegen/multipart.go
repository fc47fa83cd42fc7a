package imagegen

import (
	"errors"
	"io"
	"mime/multipart"
	"strconv"
	"strings"
)

// ErrMissingPrompt is returned when the edit form has no prompt field.
var ErrMissingPrompt = errors.New("missing prompt")

// ParseEditForm extracts an EditRequest from a parsed multipart form: the
// main "image", an optional "mask", and any field starting with "image"
// other than "image_size" is treated as a numbered reference image.
func ParseEditForm(form *multipart.Form) (*EditRequest, error) {
	req := &EditRequest{}

	if v := formValue(form, "prompt"); v != "" {
		req.Prompt = v
	}
	if req.Prompt == "" {
		return nil, ErrMissingPrompt
	}

	if v := formValue(form, "n"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.N = n
		}
	}
	req.Size = formValue(form, "size")
	req.ImageSize = formValue(form, "image_size")
	req.AspectRatio = formValue(form, "aspect_ratio")
	req.Style = formValue(form, "style")
	req.ResponseFormat = formValue(form, "response_format")
	req.Model = formValue(form, "model")

	for name, headers := range form.File {
		if len(headers) == 0 {
			continue
		}
		data, err := readFormFile(headers[0])
		if err != nil {
			return nil, err
		}
		switch {
		case name == "image":
			req.MainImage = data
		case name == "mask":
			req.Mask = data
		case strings.HasPrefix(name, "image") && name != "image_size":
			req.References = append(req.References, data)
		}
	}

	return req, nil
}

func formValue(form *multipart.Form, name string) string {
	if vs, ok := form.Value[name]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func readFormFile(h *multipart.FileHeader) ([]byte, error) {
	f, err := h.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
