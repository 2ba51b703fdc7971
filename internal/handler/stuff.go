package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rongsox/dashboard/internal/domain"
	"github.com/rongsox/dashboard/internal/listview"
	"github.com/rongsox/dashboard/internal/querycache"
	"github.com/rongsox/dashboard/internal/validate"
)

// StuffBackend is the subset of the backend client used for stuffs.
type StuffBackend interface {
	ListStuffs(ctx context.Context, q url.Values) (domain.Page[domain.Stuff], error)
	GetStuff(ctx context.Context, id string) (domain.Stuff, error)
	CreateStuff(ctx context.Context, in domain.StuffInput, image *domain.Upload) (domain.Stuff, error)
	UpdateStuff(ctx context.Context, in domain.StuffInput, image *domain.Upload) (domain.Stuff, error)
	SetStuffStatus(ctx context.Context, id string, active bool) error
}

// ImageArchiver keeps a local copy of uploaded stuff pictures.
type ImageArchiver interface {
	ArchiveStuffImage(ctx context.Context, upload *domain.Upload) (string, error)
}

// StuffForm is the view model of the stuff form.
type StuffForm struct {
	// ImageURL is the current picture when editing.
	ImageURL string
}

// StuffHandler handles the stuff (inventory) pages. Create and update are
// multipart forms with an optional image.
type StuffHandler struct {
	resource
	backend  StuffBackend
	archiver ImageArchiver
}

// NewStuffHandler creates a new StuffHandler. archiver may be nil.
func NewStuffHandler(
	backend StuffBackend,
	archiver ImageArchiver,
	lists *querycache.Lists,
	validator *validate.Validator,
	renderer TemplateRenderer,
	logger *slog.Logger,
) *StuffHandler {
	return &StuffHandler{
		resource: resource{
			lists:     lists,
			validator: validator,
			renderer:  renderer,
			logger:    logger,
		},
		backend:  backend,
		archiver: archiver,
	}
}

// Index renders the stuff list.
func (h *StuffHandler) Index(w http.ResponseWriter, r *http.Request) {
	renderList(&h.resource, w, r, "stuffs/index", "Stuffs", listview.Stuffs, h.backend.ListStuffs)
}

// New renders the empty stuff form.
func (h *StuffHandler) New(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, "stuffs/form", "Add Stuff", domain.StuffInput{}, StuffForm{}, nil)
}

// Edit renders the stuff form prefilled from the backend.
func (h *StuffHandler) Edit(w http.ResponseWriter, r *http.Request) {
	stuff, err := h.backend.GetStuff(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, listview.Stuffs.Path, err)
		return
	}
	h.renderForm(w, r, "stuffs/form", "Edit Stuff", domain.StuffInput{
		ID:           stuff.ID,
		StuffName:    stuff.StuffName,
		BuyingPrice:  stuff.BuyingPrice,
		SellingPrice: stuff.SellingPrice,
	}, StuffForm{ImageURL: stuff.ImageURL()}, nil)
}

// Create adds a stuff.
func (h *StuffHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, "")
}

// Update replaces a stuff. Without a new image the old one is kept.
func (h *StuffHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, r.PathValue("id"))
}

func (h *StuffHandler) save(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	in := domain.StuffInput{
		ID:           id,
		StuffName:    strings.TrimSpace(r.FormValue("stuffName")),
		BuyingPrice:  parseAmount(r.FormValue("buyingPrice")),
		SellingPrice: parseAmount(r.FormValue("sellingPrice")),
	}
	title, op, success := "Add Stuff", "stuff.create", "Add stuff success, stuff created !"
	if id != "" {
		title, op, success = "Edit Stuff", "stuff.update", "Update stuff success !"
	}
	view := StuffForm{ImageURL: r.FormValue("currentImage")}

	image, err := formUpload(r, "image")
	if err != nil {
		h.renderForm(w, r, "stuffs/form", title, in, view, err)
		return
	}
	if err := validate.Merge(h.validator.Struct(op, in), h.validator.Image(op, "image", image)); err != nil {
		h.renderForm(w, r, "stuffs/form", title, in, view, err)
		return
	}

	if id == "" {
		_, err = h.backend.CreateStuff(ctx, in, image)
	} else {
		_, err = h.backend.UpdateStuff(ctx, in, image)
	}
	if err != nil {
		h.renderForm(w, r, "stuffs/form", title, in, view, err)
		return
	}

	if image != nil && h.archiver != nil {
		if key, err := h.archiver.ArchiveStuffImage(ctx, image); err != nil {
			h.logger.Warn("failed to archive stuff image", "stuff_name", in.StuffName, "error", err)
		} else {
			h.logger.Debug("stuff image archived", "key", key)
		}
	}

	h.invalidate(ctx, domain.KindStuff)
	h.logger.Info("stuff saved", "op", op, "stuff_name", in.StuffName)
	redirectWithToast(w, r, returnTo(r, listview.Stuffs.Path), SuccessToast(success))
}

// SetStatus activates or deactivates a stuff.
func (h *StuffHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	back := returnTo(r, listview.Stuffs.Path)
	active, err := parseStatus(r)
	if err != nil {
		h.fail(w, r, back, err)
		return
	}
	if err := h.backend.SetStuffStatus(r.Context(), r.PathValue("id"), active); err != nil {
		h.fail(w, r, back, err)
		return
	}
	h.invalidate(r.Context(), domain.KindStuff)
	redirectWithToast(w, r, back, SuccessToast("Update stuff status success !"))
}

// RegisterRoutes registers the stuff routes, each wrapped by protect.
func (h *StuffHandler) RegisterRoutes(mux *http.ServeMux, protect func(http.Handler) http.Handler) {
	mux.Handle("GET /stuffs", protect(http.HandlerFunc(h.Index)))
	mux.Handle("POST /stuffs/filter", protect(filterHandler(&h.resource, listview.Stuffs)))
	mux.Handle("GET /stuffs/new", protect(http.HandlerFunc(h.New)))
	mux.Handle("POST /stuffs", protect(http.HandlerFunc(h.Create)))
	mux.Handle("GET /stuffs/{id}/edit", protect(http.HandlerFunc(h.Edit)))
	mux.Handle("POST /stuffs/{id}", protect(http.HandlerFunc(h.Update)))
	mux.Handle("POST /stuffs/{id}/status", protect(http.HandlerFunc(h.SetStatus)))
}

// parseAmount reads a whole rupiah amount. Thousands separators are
// accepted; anything unparsable reads as 0 and fails validation.
func parseAmount(s string) int64 {
	s = strings.NewReplacer(".", "", ",", "", " ", "").Replace(strings.TrimSpace(s))
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
