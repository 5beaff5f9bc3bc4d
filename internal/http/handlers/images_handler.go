package handlers

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/itcons/afisha/internal/domain"
	"github.com/itcons/afisha/internal/http/response"
	"github.com/itcons/afisha/internal/repo/postgres"
	"github.com/itcons/afisha/internal/storage"
	"github.com/itcons/afisha/pkg/events"
	"github.com/itcons/afisha/pkg/logger"
)

const maxGalleryImages = 5

// ImagesHandler handles the single multipart endpoint that mutates an
// event's cover and gallery in one request: deletions first, then the
// cover swap, then gallery appends.
type ImagesHandler struct {
	Accounts   postgres.AccountRepo
	Organizers postgres.OrganizerRepo
	Events     postgres.EventRepo
	Images     postgres.ImageRepo
	Store      *storage.MediaStore
	Bus        events.Publisher
}

func NewImagesHandler(
	accounts postgres.AccountRepo,
	organizers postgres.OrganizerRepo,
	evts postgres.EventRepo,
	images postgres.ImageRepo,
	store *storage.MediaStore,
	bus events.Publisher,
) *ImagesHandler {
	return &ImagesHandler{
		Accounts:   accounts,
		Organizers: organizers,
		Events:     evts,
		Images:     images,
		Store:      store,
		Bus:        bus,
	}
}

// Register mounts under the organizer role guard.
func (h *ImagesHandler) Register(r chi.Router) {
	r.Post("/events/{eventID}/images", h.upload)
}

func (h *ImagesHandler) upload(w http.ResponseWriter, r *http.Request) {
	profile, ok := resolveOrganizerProfile(r.Context(), w, r, h.Accounts, h.Organizers)
	if !ok {
		return
	}
	ctx := r.Context()

	eventID, err := strconv.ParseInt(chi.URLParam(r, "eventID"), 10, 64)
	if err != nil {
		response.NotFound(w, "event not found")
		return
	}
	event, err := h.Events.GetOwned(ctx, eventID, profile.ID)
	if err != nil {
		response.InternalError(w)
		return
	}
	if event == nil {
		response.NotFound(w, "event not found")
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		response.BadRequest(w, "invalid multipart body")
		return
	}

	var cover *multipart.FileHeader
	var gallery []*multipart.FileHeader
	if r.MultipartForm != nil {
		if files := r.MultipartForm.File["cover_image"]; len(files) > 0 {
			cover = files[0]
		}
		gallery = r.MultipartForm.File["gallery_images"]
	}

	if len(gallery) > maxGalleryImages {
		response.BadRequest(w, "gallery_images must be <= 5 files")
		return
	}

	deletedIDs, ok := parseDeletedIDs(r.FormValue("deleted_gallery_ids"))
	if !ok {
		response.BadRequest(w, "deleted_gallery_ids must be a JSON list of ids")
		return
	}
	clearCover := r.FormValue("clear_cover") == "1" || strings.EqualFold(r.FormValue("clear_cover"), "true")

	if cover != nil && !isImage(cover) {
		response.BadRequest(w, "cover_image must be an image")
		return
	}
	for _, f := range gallery {
		if !isImage(f) {
			response.BadRequest(w, "all gallery_images must be images")
			return
		}
	}

	if len(deletedIDs) > 0 {
		paths, err := h.Images.DeleteGallery(ctx, event.ID, deletedIDs)
		if err != nil {
			response.InternalError(w)
			return
		}
		h.removeFiles(paths)
	}

	if clearCover && cover == nil {
		paths, err := h.Images.DeleteCover(ctx, event.ID)
		if err != nil {
			response.InternalError(w)
			return
		}
		h.removeFiles(paths)
		if err := h.Events.SetCoverURL(ctx, event.ID, nil); err != nil {
			response.InternalError(w)
			return
		}
	}

	// Limit applies to what remains after this request's deletions.
	count, err := h.Images.GalleryCount(ctx, event.ID)
	if err != nil {
		response.InternalError(w)
		return
	}
	if count+len(gallery) > maxGalleryImages {
		response.BadRequest(w, "total gallery images must be <= 5")
		return
	}

	if cover != nil {
		paths, err := h.Images.DeleteCover(ctx, event.ID)
		if err != nil {
			response.InternalError(w)
			return
		}
		h.removeFiles(paths)

		rel, err := h.saveUpload(cover)
		if err != nil {
			response.InternalError(w)
			return
		}
		img := &domain.EventImage{EventID: event.ID, Path: rel, SortOrder: 0}
		if err := h.Images.Insert(ctx, img); err != nil {
			response.InternalError(w)
			return
		}
		url := h.Store.URL(rel)
		if err := h.Events.SetCoverURL(ctx, event.ID, &url); err != nil {
			response.InternalError(w)
			return
		}
	}

	if len(gallery) > 0 {
		last, err := h.Images.MaxGallerySort(ctx, event.ID)
		if err != nil {
			response.InternalError(w)
			return
		}

		// Files are written concurrently; rows are inserted afterwards in
		// submission order so sort_order stays stable.
		rels := make([]string, len(gallery))
		var g errgroup.Group
		for i, f := range gallery {
			i, f := i, f
			g.Go(func() error {
				rel, err := h.saveUpload(f)
				rels[i] = rel
				return err
			})
		}
		if err := g.Wait(); err != nil {
			h.removeFiles(rels)
			response.InternalError(w)
			return
		}
		for i, rel := range rels {
			img := &domain.EventImage{EventID: event.ID, Path: rel, SortOrder: last + i + 1}
			if err := h.Images.Insert(ctx, img); err != nil {
				response.InternalError(w)
				return
			}
		}
	}

	fresh, err := h.Events.GetOwned(ctx, event.ID, profile.ID)
	if err != nil || fresh == nil {
		response.InternalError(w)
		return
	}

	if h.Bus != nil {
		err := h.Bus.Publish(ctx, events.EventImagesUpdated, events.EventImagesUpdatedEvent{
			EventID:      fresh.ID,
			GalleryCount: len(fresh.Images),
			HasCover:     fresh.CoverImageURL != nil,
			UpdatedAt:    time.Now().UTC(),
		})
		if err != nil {
			logger.WarnContext(ctx, "failed to publish images update", "error", err)
		}
	}

	response.JSON(w, http.StatusOK, eventDetailPayload(fresh, requestOrigin(r), h.Store))
}

func (h *ImagesHandler) saveUpload(header *multipart.FileHeader) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()
	return h.Store.Save(file, header)
}

func (h *ImagesHandler) removeFiles(paths []string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := h.Store.Remove(p); err != nil {
			logger.Warn("failed to remove media file", "path", p, "error", err)
		}
	}
}

func isImage(header *multipart.FileHeader) bool {
	return strings.HasPrefix(header.Header.Get("Content-Type"), "image/")
}

// parseDeletedIDs accepts an empty value or a JSON array; numbers and
// numeric strings both count as ids.
func parseDeletedIDs(raw string) ([]int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	var parsed []any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, false
	}
	ids := make([]int64, 0, len(parsed))
	for _, v := range parsed {
		switch n := v.(type) {
		case float64:
			ids = append(ids, int64(n))
		case string:
			id, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
			if err != nil {
				return nil, false
			}
			ids = append(ids, id)
		default:
			return nil, false
		}
	}
	return ids, true
}
