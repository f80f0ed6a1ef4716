// Package views renders the HTML pages of the worksheet server.
package views

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	appI18n "github.com/pavelanni/worksheet/internal/i18n"
	"github.com/pavelanni/worksheet/internal/model"
)

const baseStyle = `
body { font-family: system-ui, sans-serif; max-width: 60rem; margin: 0 auto; padding: 1rem 1.5rem; color: #222; }
header { display: flex; justify-content: space-between; align-items: baseline; border-bottom: 1px solid #ddd; margin-bottom: 1rem; }
header a { color: inherit; text-decoration: none; }
.notice { background: #fff8e1; border: 1px solid #f0d36b; padding: .5rem .75rem; border-radius: 4px; }
.flash { background: #e8f5e9; border: 1px solid #8bc34a; padding: .5rem .75rem; border-radius: 4px; }
.worksheet-list { list-style: none; padding: 0; }
.worksheet-list li { padding: .4rem 0; border-bottom: 1px solid #eee; }
.topics { display: flex; flex-wrap: wrap; gap: .75rem; margin-bottom: .75rem; }
.worksheet-list .meta { color: #777; font-size: .9em; margin-left: .5rem; }
form.panel { border: 1px solid #ddd; border-radius: 6px; padding: 1rem; margin: 1rem 0; }
form.panel label { display: block; margin: .5rem 0 .2rem; }
form.panel textarea { width: 100%; min-height: 8rem; }
.worksheet-input { font: inherit; padding: 2px 4px; border: 1px solid #999; border-radius: 3px; }
.answer-input-container { margin-top: .5rem; }
.matching-input { width: 100%; }
table.results { border-collapse: collapse; width: 100%; }
table.results td, table.results th { border: 1px solid #ddd; padding: .3rem .5rem; text-align: left; }
tr.correct td:first-child { border-left: 4px solid #4caf50; }
tr.incorrect td:first-child { border-left: 4px solid #e53935; }
`

// pageWriter writes HTML fragments and keeps the first write error.
type pageWriter struct {
	w   io.Writer
	err error
}

func (p *pageWriter) raw(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

func (p *pageWriter) text(s string) {
	p.raw(templ.EscapeString(s))
}

func (p *pageWriter) attr(name, value string) {
	p.raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

func (p *pageWriter) component(ctx context.Context, c templ.Component) {
	if p.err == nil && c != nil {
		p.err = c.Render(ctx, p.w)
	}
}

func url(ctx context.Context, path string) string {
	return model.BasePathFromContext(ctx) + path
}

func worksheetURL(ctx context.Context, id int64) string {
	return url(ctx, "/worksheets/"+strconv.FormatInt(id, 10))
}

// Layout wraps body in the page shell. extraStyle is emitted as-is inside a
// style element after the base styles.
func Layout(title, extraStyle string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &pageWriter{w: w}
		p.raw("<!DOCTYPE html><html><head><meta charset=\"utf-8\">")
		p.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		p.raw("<title>")
		p.text(title)
		p.raw(" | ")
		p.text(appI18n.T(ctx, "AppTitle"))
		p.raw("</title><style>")
		p.raw(baseStyle)
		p.raw("</style>")
		if extraStyle != "" {
			p.raw("<style>")
			p.raw(extraStyle)
			p.raw("</style>")
		}
		p.raw("</head><body><header><h2><a")
		p.attr("href", url(ctx, "/"))
		p.raw(">")
		p.text(appI18n.T(ctx, "AppTitle"))
		p.raw("</a></h2></header><main>")
		p.component(ctx, body)
		p.raw("</main></body></html>")
		return p.err
	})
}
