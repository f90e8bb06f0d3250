package web

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/jspm/jspm-packages/internal/errors"
	"github.com/jspm/jspm-packages/pkg/islands"
	"github.com/jspm/jspm-packages/pkg/routepath"
	"github.com/jspm/jspm-packages/pkg/store"
)

// handleAction applies an island action posted by a client without the
// island runtime, then sends the browser back to the page it came from.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "island")
	name := chi.URLParam(r, "action")

	island, ok := s.pages.Catalog().New(tag)
	if !ok {
		s.writeError(w, r, apperrors.New("J201").WithDetail(tag))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseForm(); err != nil {
		s.writeError(w, r, apperrors.New("J202").Wrap(err).WithDetail("malformed form body"))
		return
	}

	id := s.session.ensureSession(w, r)
	root, release := s.roots.Acquire(r.Context(), id)
	defer release()
	ctx := store.WithStore(r.Context(), root.Store)

	doc := islands.AnchorList{{
		Tag:   tag,
		Props: islands.Props{"props": r.PostFormValue("props")},
	}}
	m, err := islands.Mount(ctx, doc, island, islands.Env{
		Hasher:   root.Hasher,
		Renderer: s.renderer,
		Logger:   s.logger.With("session", id),
	})
	if err != nil {
		s.writeError(w, r, apperrors.FromError(err, "J202"))
		return
	}
	if m == nil {
		s.writeError(w, r, apperrors.New("J201").WithDetail(tag))
		return
	}
	defer m.Unmount()

	err = m.Dispatch(ctx, islands.Action{Name: name, Value: r.PostFormValue("value")})
	if s.metrics != nil {
		s.metrics.RecordAction(tag, name, err)
	}
	if err != nil {
		s.writeError(w, r, actionError(err))
		return
	}

	http.Redirect(w, r, backTo(r), http.StatusSeeOther)
}

// backTo returns the same-origin page that posted r, or the home page.
func backTo(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || (ref.Host != "" && ref.Host != r.Host) {
		return "/"
	}
	target := ref.EscapedPath()
	if ref.RawQuery != "" {
		target += "?" + ref.RawQuery
	}
	back, err := routepath.LocalTarget(target)
	if err != nil {
		return "/"
	}
	return back
}
