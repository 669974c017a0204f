// internal/notify/compose.go
package notify

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// Raw HTML in templates or user input is dropped by the renderer, which
// runs without html.WithUnsafe.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

var funcs = template.FuncMap{
	"md":    escapeMarkdown,
	"title": title,
}

var (
	reservationTmpl = template.Must(template.New("reservation").Funcs(funcs).Parse(`## Thank you for booking with Club-Verse!

Hi {{md .Name}},

Your reservation at **{{md .Club}}** is confirmed for **{{md .Date}}** at **{{md .Time}}** for **{{.Guests}}** guest(s).

Location: {{md .ClubLocation}}
Special Requests: {{if .SpecialRequests}}{{md .SpecialRequests}}{{else}}None{{end}}

We look forward to hosting you!

_This is an automated email. Please do not reply._
`))

	membershipTmpl = template.Must(template.New("membership").Funcs(funcs).Parse(`## Welcome to Club-Verse {{title .Type}}!

Hi {{md .Name}},

Your **{{title .Type}}** membership is active.

Period: {{title .Period}}
Valid from: {{.StartDate.Format "2 Jan 2006"}}
Valid until: {{.EndDate.Format "2 Jan 2006"}}
Amount paid: {{.TotalAmount}}

Membership ID: ` + "`{{.ID}}`" + `

_This is an automated email. Please do not reply._
`))

	resetTmpl = template.Must(template.New("reset").Funcs(funcs).Parse(`## Reset your Club-Verse password

Hi {{md .Name}},

Someone asked to reset the password for this account. Use the link below within {{.Valid}}:

[Reset password]({{.Link}})

If it wasn't you, ignore this email and your password stays the same.
`))
)

// render executes a markdown template and converts the result to HTML.
func render(tmpl *template.Template, data interface{}) (string, error) {
	var md bytes.Buffer
	if err := tmpl.Execute(&md, data); err != nil {
		return "", fmt.Errorf("execute %s template: %w", tmpl.Name(), err)
	}
	var html bytes.Buffer
	if err := mdRenderer.Convert(md.Bytes(), &html); err != nil {
		return "", fmt.Errorf("render %s markdown: %w", tmpl.Name(), err)
	}
	return html.String(), nil
}

const markdownSpecial = "\\`*_{}[]()<>#+-.!|~"

// escapeMarkdown keeps user input from being read as markup.
func escapeMarkdown(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(markdownSpecial, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func title(v interface{}) string {
	s := fmt.Sprint(v)
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
