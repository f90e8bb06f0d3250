package pages

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/jspm/jspm-packages/pkg/render"
	"github.com/jspm/jspm-packages/pkg/store"
	"github.com/jspm/jspm-packages/pkg/vdom"
)

func searchPath(query string, pageNum int) string {
	v := url.Values{}
	v.Set("q", query)
	if pageNum > 1 {
		v.Set("page", strconv.Itoa(pageNum))
	}
	return "/search?" + v.Encode()
}

// Search renders one page of search results. pageNum starts at 1.
func (p *Pages) Search(ctx context.Context, query string, pageNum int, s store.State) (render.PageData, error) {
	query = strings.TrimSpace(query)
	if pageNum < 1 {
		pageNum = 1
	}

	if query == "" {
		body := p.layout(s, "",
			vdom.H1("Search"),
			vdom.P(vdom.Class("empty"), "Enter a package name or keyword."),
		)
		return page("Search", body), nil
	}

	res, err := p.registry.Search(ctx, query, (pageNum-1)*p.cfg.PageSize, p.cfg.PageSize)
	if err != nil {
		return render.PageData{}, err
	}

	items := make([]Summary, 0, len(res.Objects))
	for _, o := range res.Objects {
		items = append(items, summaryFrom(o))
	}

	pages := (res.Total + p.cfg.PageSize - 1) / p.cfg.PageSize

	body := p.layout(s, query,
		vdom.H1(vdom.Textf("Results for “%s”", query)),
		vdom.P(vdom.Class("total"), vdom.Textf("%d packages found", res.Total)),
		vdom.If(len(items) == 0, vdom.P(vdom.Class("empty"), "No packages match your search.")),
		packageList(items),
		pager(query, pageNum, pages),
	)
	return page(fmt.Sprintf("Search: %s", query), body), nil
}

func pager(query string, current, total int) *vdom.VNode {
	if total <= 1 {
		return nil
	}
	return vdom.Nav(vdom.Class("pager"), vdom.AriaLabel("Pages"),
		vdom.If(current > 1, vdom.A(vdom.Rel("prev"), vdom.Href(searchPath(query, current-1)), "← Previous")),
		vdom.Span(vdom.Textf(" Page %d of %d ", current, total)),
		vdom.If(current < total, vdom.A(vdom.Rel("next"), vdom.Href(searchPath(query, current+1)), "Next →")),
	)
}
