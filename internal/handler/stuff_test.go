package handler

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rongsox/dashboard/internal/domain"
)

type fakeArchiver struct {
	archived []string
	err      error
}

func (f *fakeArchiver) ArchiveStuffImage(ctx context.Context, upload *domain.Upload) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.archived = append(f.archived, upload.Filename)
	return "stuffs/" + upload.Filename, nil
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func newTestStuffHandler(t *testing.T, archiver ImageArchiver) (*StuffHandler, *fakeBackend, *fakeRenderer) {
	t.Helper()
	backend := newFakeBackend()
	renderer := &fakeRenderer{}
	return NewStuffHandler(backend, archiver, newTestLists(t), newValidator(), renderer, newTestLogger()), backend, renderer
}

func TestStuffCreate_WithImage(t *testing.T) {
	archiver := &fakeArchiver{}
	h, backend, _ := newTestStuffHandler(t, archiver)

	form := url.Values{"stuffName": {"Botol Plastik"}, "buyingPrice": {"3.000"}, "sellingPrice": {"4500"}}
	rec := httptest.NewRecorder()
	h.Create(rec, signedIn(postMultipart(t, "/stuffs", form, "image", "botol.png", tinyPNG(t)), staff))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, domain.StuffInput{StuffName: "Botol Plastik", BuyingPrice: 3000, SellingPrice: 4500}, backend.lastStuff)
	require.NotNil(t, backend.lastImage)
	assert.Equal(t, "botol.png", backend.lastImage.Filename)
	assert.Equal(t, []string{"botol.png"}, archiver.archived)
	assert.Equal(t, "Add stuff success, stuff created !", toastOf(rec).Message)
}

func TestStuffCreate_WithoutImage(t *testing.T) {
	h, backend, _ := newTestStuffHandler(t, nil)

	form := url.Values{"stuffName": {"Kardus"}, "buyingPrice": {"1500"}, "sellingPrice": {"2000"}}
	rec := httptest.NewRecorder()
	h.Create(rec, signedIn(postMultipart(t, "/stuffs", form, "", "", nil), staff))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Nil(t, backend.lastImage)
}

func TestStuffCreate_RejectsWrongImageType(t *testing.T) {
	h, backend, renderer := newTestStuffHandler(t, nil)

	form := url.Values{"stuffName": {"Ka"}, "buyingPrice": {"abc"}, "sellingPrice": {"2000"}}
	rec := httptest.NewRecorder()
	h.Create(rec, signedIn(postMultipart(t, "/stuffs", form, "image", "notes.pdf", []byte("%PDF-1.4")), staff))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Zero(t, backend.calls["CreateStuff"])
	call := renderer.last(t)
	assert.True(t, call.Data.HasError("stuffName"))
	assert.True(t, call.Data.HasError("buyingPrice"))
	assert.True(t, call.Data.HasError("image"), "image and struct errors are merged")
}

func TestStuffUpdate_ArchiveFailureDoesNotBlock(t *testing.T) {
	h, backend, _ := newTestStuffHandler(t, &fakeArchiver{err: errors.New("disk full")})

	form := url.Values{"stuffName": {"Besi Tua"}, "buyingPrice": {"5000"}, "sellingPrice": {"6000"}}
	req := signedIn(postMultipart(t, "/stuffs/s1", form, "image", "besi.png", tinyPNG(t)), staff)
	req.SetPathValue("id", "s1")
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "s1", backend.lastStuff.ID)
	assert.Equal(t, "Update stuff success !", toastOf(rec).Message)
}

func TestStuffEdit_Prefills(t *testing.T) {
	h, backend, renderer := newTestStuffHandler(t, nil)
	backend.stuffs = []domain.Stuff{{ID: "s1", StuffName: "Besi Tua", BuyingPrice: 5000, SellingPrice: 6000, Image: &domain.Image{URL: "https://cdn/besi.png"}}}

	req := signedIn(httptest.NewRequest(http.MethodGet, "/stuffs/s1/edit", nil), staff)
	req.SetPathValue("id", "s1")
	h.Edit(httptest.NewRecorder(), req)

	call := renderer.last(t)
	assert.Equal(t, "stuffs/form", call.Name)
	assert.Equal(t, domain.StuffInput{ID: "s1", StuffName: "Besi Tua", BuyingPrice: 5000, SellingPrice: 6000}, call.Data.Form)
	assert.Equal(t, StuffForm{ImageURL: "https://cdn/besi.png"}, call.Data.Data)
}

func TestStuffEdit_NotFound(t *testing.T) {
	h, _, _ := newTestStuffHandler(t, nil)

	req := signedIn(httptest.NewRequest(http.MethodGet, "/stuffs/missing/edit", nil), staff)
	req.SetPathValue("id", "missing")
	rec := httptest.NewRecorder()
	h.Edit(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/stuffs", rec.Header().Get("Location"))
	assert.Equal(t, ToastError, toastOf(rec).Kind)
}

func TestParseAmount(t *testing.T) {
	tests := map[string]int64{
		"1500":      1500,
		"1.500":     1500,
		"1,250,000": 1250000,
		" 75 ":      75,
		"":          0,
		"abc":       0,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseAmount(in), "parseAmount(%q)", in)
	}
}
