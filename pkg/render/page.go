package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jspm/jspm-packages/pkg/vdom"
)

// PageData contains all data needed to render a complete HTML page.
type PageData struct {
	// Body is the root VNode for the page content
	Body *vdom.VNode

	// Title is the page title
	Title string

	// Meta contains meta tags for the page
	Meta []MetaTag

	// Links contains link tags (favicon, preconnect, etc.)
	Links []LinkTag

	// StyleSheets contains paths to external stylesheets
	StyleSheets []string

	// Styles contains inline CSS styles
	Styles []string

	// Live injects the island runtime. Without it the page is static.
	// The runtime finds its session through the HttpOnly cookie, so no
	// session id is written into the page.
	Live bool

	// Boot is serialized into the runtime's boot block. It carries the
	// initial store revision so the client can discard stale fragments.
	Boot map[string]any

	// Lang is the language attribute for the html element
	// Defaults to "en" if not specified
	Lang string
}

// MetaTag represents a meta element in the document head.
type MetaTag struct {
	Name     string // name attribute
	Content  string // content attribute
	Property string // property attribute (for OpenGraph)
}

// LinkTag represents a link element in the document head.
type LinkTag struct {
	Rel  string // rel attribute
	Href string // href attribute
	Type string // type attribute
}

// RenderPage renders a complete HTML document to the given writer.
func (r *Renderer) RenderPage(w io.Writer, page PageData) error {
	lang := page.Lang
	if lang == "" {
		lang = "en"
	}

	if _, err := io.WriteString(w, "<!DOCTYPE html>\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, `<html lang="%s">`+"\n", escapeAttr(lang)); err != nil {
		return err
	}
	if err := r.renderHead(w, page); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "<body>\n"); err != nil {
		return err
	}
	if err := r.RenderToWriter(w, page.Body); err != nil {
		return err
	}
	if err := r.renderIslandRuntime(w, page); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n</body>\n</html>\n")
	return err
}

// renderHead renders the document head section.
func (r *Renderer) renderHead(w io.Writer, page PageData) error {
	io.WriteString(w, "<head>\n")
	io.WriteString(w, `  <meta charset="utf-8">`+"\n")
	io.WriteString(w, `  <meta name="viewport" content="width=device-width, initial-scale=1">`+"\n")

	if page.Title != "" {
		fmt.Fprintf(w, "  <title>%s</title>\n", escapeHTML(page.Title))
	}

	for _, meta := range page.Meta {
		io.WriteString(w, "  <meta")
		if meta.Name != "" {
			fmt.Fprintf(w, ` name="%s"`, escapeAttr(meta.Name))
		}
		if meta.Property != "" {
			fmt.Fprintf(w, ` property="%s"`, escapeAttr(meta.Property))
		}
		fmt.Fprintf(w, ` content="%s">`+"\n", escapeAttr(meta.Content))
	}

	for _, link := range page.Links {
		fmt.Fprintf(w, `  <link rel="%s" href="%s"`, escapeAttr(link.Rel), escapeAttr(link.Href))
		if link.Type != "" {
			fmt.Fprintf(w, ` type="%s"`, escapeAttr(link.Type))
		}
		io.WriteString(w, ">\n")
	}

	for _, href := range page.StyleSheets {
		fmt.Fprintf(w, `  <link rel="stylesheet" href="%s">`+"\n", escapeAttr(href))
	}

	for _, style := range page.Styles {
		fmt.Fprintf(w, "  <style>%s</style>\n", style)
	}

	_, err := io.WriteString(w, "</head>\n")
	return err
}

// renderIslandRuntime injects the boot block and the island runtime script.
func (r *Renderer) renderIslandRuntime(w io.Writer, page PageData) error {
	if !page.Live {
		return nil
	}

	boot := map[string]any{}
	for k, v := range page.Boot {
		boot[k] = v
	}
	boot["live"] = r.config.LivePath

	data, err := json.Marshal(boot)
	if err != nil {
		return fmt.Errorf("encode boot block: %w", err)
	}

	// json.Marshal escapes <, > and & so the payload cannot close the tag.
	if _, err := fmt.Fprintf(w, `<script type="application/json" id="jspm-boot">%s</script>`, data); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, `<script type="module" src="%s"></script>`, escapeAttr(r.config.IslandScript))
	return err
}
