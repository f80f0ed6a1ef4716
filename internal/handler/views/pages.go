package views

import (
	"context"
	"io"
	neturl "net/url"
	"strconv"

	"github.com/a-h/templ"

	appI18n "github.com/pavelanni/worksheet/internal/i18n"
	"github.com/pavelanni/worksheet/internal/model"
)

// IndexData is what the index page shows.
type IndexData struct {
	Worksheets []model.Worksheet
	// Topics are all stored topics; Topic is the one the list is filtered by.
	Topics      []string
	Topic       string
	CanGenerate bool
	// Flash is a message ID shown above the list, or empty.
	Flash string
}

// IndexPage lists stored worksheets with the upload and generate forms.
func IndexPage(data IndexData) templ.Component {
	worksheets, canGenerate, flash := data.Worksheets, data.CanGenerate, data.Flash
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &pageWriter{w: w}
		if flash != "" {
			p.raw(`<p class="flash">`)
			p.text(appI18n.T(ctx, flash))
			p.raw("</p>")
		}

		p.raw("<section><h1>")
		p.text(appI18n.T(ctx, "Worksheets"))
		p.raw("</h1>")
		if len(data.Topics) > 0 {
			p.raw(`<nav class="topics">`)
			topicLink(p, url(ctx, "/"), appI18n.T(ctx, "AllTopics"), data.Topic == "")
			for _, t := range data.Topics {
				topicLink(p, url(ctx, "/?topic="+neturl.QueryEscape(t)), t, data.Topic == t)
			}
			p.raw("</nav>")
		}
		if len(worksheets) == 0 {
			p.raw("<p>")
			p.text(appI18n.T(ctx, "NoWorksheets"))
			p.raw("</p>")
		} else {
			p.raw(`<ul class="worksheet-list">`)
			for _, ws := range worksheets {
				p.raw("<li><a")
				p.attr("href", worksheetURL(ctx, ws.ID))
				p.raw(">")
				p.text(ws.Title)
				p.raw(`</a><span class="meta">`)
				if ws.Topic != "" {
					p.text(ws.Topic + " · ")
				}
				p.text(appI18n.Tp(ctx, "QuestionsCount", ws.QuestionCount))
				p.text(" · " + ws.CreatedAt.Format("2006-01-02"))
				p.raw("</span></li>")
			}
			p.raw("</ul>")
		}
		p.raw("</section>")

		p.raw(`<form class="panel" method="post" enctype="multipart/form-data"`)
		p.attr("action", url(ctx, "/worksheets"))
		p.raw("><h2>")
		p.text(appI18n.T(ctx, "UploadWorksheet"))
		p.raw(`</h2><label for="title">`)
		p.text(appI18n.T(ctx, "Title"))
		p.raw(`</label><input id="title" name="title" type="text"><label for="topic">`)
		p.text(appI18n.T(ctx, "Topic"))
		p.raw(`</label><input id="topic" name="topic" type="text"><label for="html">`)
		p.text(appI18n.T(ctx, "WorksheetHTML"))
		p.raw(`</label><textarea id="html" name="html"></textarea><label for="worksheet_file">`)
		p.text(appI18n.T(ctx, "OrChooseFile"))
		p.raw(`</label><input id="worksheet_file" name="worksheet_file" type="file" accept=".html,.htm,text/html"><p><button type="submit">`)
		p.text(appI18n.T(ctx, "Upload"))
		p.raw("</button></p></form>")

		if canGenerate {
			p.raw(`<form class="panel" method="post"`)
			p.attr("action", url(ctx, "/worksheets/generate"))
			p.raw("><h2>")
			p.text(appI18n.T(ctx, "GenerateWorksheet"))
			p.raw(`</h2><label for="gen-topic">`)
			p.text(appI18n.T(ctx, "Topic"))
			p.raw(`</label><input id="gen-topic" name="topic" type="text" required><label for="gen-grade">`)
			p.text(appI18n.T(ctx, "GradeLevel"))
			p.raw(`</label><input id="gen-grade" name="grade" type="text"><label for="gen-count">`)
			p.text(appI18n.T(ctx, "NumQuestions"))
			p.raw(`</label><input id="gen-count" name="count" type="number" min="1" max="30" value="10"><label><input name="include_answer_key" type="checkbox" value="on" checked> `)
			p.text(appI18n.T(ctx, "IncludeAnswerKey"))
			p.raw(`</label><p><button type="submit">`)
			p.text(appI18n.T(ctx, "Generate"))
			p.raw("</button></p></form>")
		}
		return p.err
	})
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return Layout(appI18n.T(ctx, "Worksheets"), "", body).Render(ctx, w)
	})
}

func topicLink(p *pageWriter, href, label string, active bool) {
	if active {
		p.raw(`<strong>`)
		p.text(label)
		p.raw(`</strong>`)
		return
	}
	p.raw("<a")
	p.attr("href", href)
	p.raw(">")
	p.text(label)
	p.raw("</a>")
}

// WorksheetPage renders the interactive worksheet. Question markup already
// carries the injected inputs and is written unescaped.
func WorksheetPage(ws model.Worksheet, parsed model.ParsedWorksheet) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &pageWriter{w: w}
		p.raw("<h1>")
		p.text(ws.Title)
		p.raw("</h1>")

		if parsed.TotalQuestions == 0 {
			p.raw(`<p class="notice">`)
			p.text(appI18n.T(ctx, "NoQuestionsFound"))
			p.raw("</p>")
			return p.err
		}
		if !parsed.HasAnswerKey {
			p.raw(`<p class="notice">`)
			p.text(appI18n.T(ctx, "NoAnswerKey"))
			p.raw("</p>")
		}

		p.raw(`<form class="worksheet" method="post"`)
		p.attr("action", worksheetURL(ctx, ws.ID)+"/submit")
		p.raw(`><p><label for="student_name">`)
		p.text(appI18n.T(ctx, "YourName"))
		p.raw(`</label> <input id="student_name" name="student_name" type="text"></p>`)
		for _, q := range parsed.Questions {
			p.raw(q.Markup)
		}
		p.raw(`<p><button type="submit">`)
		p.text(appI18n.T(ctx, "SubmitAnswers"))
		p.raw("</button></p></form>")
		return p.err
	})
	return Layout(ws.Title, parsed.Stylesheet, body)
}

// ResultPage shows the graded submission.
func ResultPage(ws model.Worksheet, sub model.Submission) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &pageWriter{w: w}
		res := sub.Result
		p.raw("<h1>")
		p.text(appI18n.T(ctx, "Results"))
		p.raw(": ")
		p.text(ws.Title)
		p.raw("</h1>")
		if sub.StudentName != "" {
			p.raw("<p>")
			p.text(appI18n.Td(ctx, "StudentLabel", map[string]any{"Name": sub.StudentName}))
			p.raw("</p>")
		}
		p.raw(`<p class="score">`)
		p.text(appI18n.Td(ctx, "ScoreSummary", map[string]any{
			"Correct":    res.Correct,
			"Total":      res.Total,
			"Percentage": res.Percentage,
		}))
		p.raw("</p>")

		p.raw(`<table class="results"><thead><tr><th>`)
		p.text(appI18n.T(ctx, "Question"))
		p.raw("</th><th>")
		p.text(appI18n.T(ctx, "YourAnswer"))
		p.raw("</th><th>")
		p.text(appI18n.T(ctx, "CorrectAnswer"))
		p.raw("</th><th>")
		p.text(appI18n.T(ctx, "Feedback"))
		p.raw("</th></tr></thead><tbody>")
		for _, d := range res.Details {
			class := "incorrect"
			if d.IsCorrect {
				class = "correct"
			}
			p.raw("<tr")
			p.attr("class", class)
			p.raw("><td>")
			p.text(strconv.Itoa(d.QuestionID))
			p.raw("</td><td>")
			p.text(d.StudentAnswer)
			p.raw("</td><td>")
			p.text(d.CorrectAnswer)
			p.raw("</td><td>")
			p.text(d.Feedback)
			p.raw("</td></tr>")
		}
		p.raw("</tbody></table><p><a")
		p.attr("href", worksheetURL(ctx, ws.ID))
		p.raw(">")
		p.text(appI18n.T(ctx, "TryAgain"))
		p.raw("</a> · <a")
		p.attr("href", url(ctx, "/"))
		p.raw(">")
		p.text(appI18n.T(ctx, "BackToList"))
		p.raw("</a></p>")
		return p.err
	})
	return Layout(ws.Title, "", body)
}
