package pages

import (
	"errors"

	apperrors "github.com/jspm/jspm-packages/internal/errors"
	"github.com/jspm/jspm-packages/pkg/render"
	"github.com/jspm/jspm-packages/pkg/store"
	"github.com/jspm/jspm-packages/pkg/vdom"
)

// NotFound renders the 404 page.
func (p *Pages) NotFound(s store.State, path string) render.PageData {
	body := p.layout(s, "",
		vdom.Section(vdom.Class("error"),
			vdom.H1("Page not found"),
			vdom.P(vdom.Code(path), " does not exist."),
			vdom.P(vdom.A(vdom.Href("/"), "Back to the home page")),
		),
	)
	return page("Not found", body)
}

// Error renders the page for err and returns the HTTP status to send.
// Coded application errors pick the status and message; anything else is
// a 500 with a generic message.
func (p *Pages) Error(s store.State, err error) (render.PageData, int) {
	appErr := RegistryError(err)
	var coded *apperrors.AppError
	if errors.As(err, &coded) {
		appErr = coded
	}

	status := appErr.Status()
	title := appErr.Message
	if title == "" {
		title = "Something went wrong"
	}

	body := p.layout(s, "",
		vdom.Section(vdom.Class("error"),
			vdom.H1(title),
			vdom.If(appErr.Detail != "", vdom.P(appErr.Detail)),
			vdom.If(appErr.Suggestion != "", vdom.P(vdom.Class("suggestion"), appErr.Suggestion)),
			vdom.P(vdom.Small(vdom.Class("code"), appErr.Code)),
			vdom.P(vdom.A(vdom.Href("/"), "Back to the home page")),
		),
	)
	return page(title, body), status
}
