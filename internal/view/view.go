// Package view holds the embedded wizard templates and the turbo-stream
// envelope used for partial page updates.
package view

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
)

const (
	MIMETurboStream = "text/vnd.turbo-stream.html"

	// Target is the DOM id every partial update replaces.
	Target = "user_form"

	Layout     = "layouts/application"
	FormLayout = "layouts/form"

	NewTemplate  = "users/new"
	ShowTemplate = "users/show"

	streamTemplate = "turbo_stream"
)

//go:embed templates
var templates embed.FS

// NewEngine loads the embedded templates. Names are paths without the
// extension, e.g. "users/steps/step_2".
func NewEngine() *html.Engine {
	sub, err := fs.Sub(templates, "templates")
	if err != nil {
		panic(err)
	}
	return html.NewFileSystem(http.FS(sub), ".html")
}

// StepPartial names the partial for a wizard step.
func StepPartial(step int) string {
	return "users/steps/step_" + strconv.Itoa(step)
}

// Stream renders name and wraps it in an "update" turbo-stream for Target.
func Stream(c *fiber.Ctx, views fiber.Views, status int, name string, bind any) error {
	var content bytes.Buffer
	if err := views.Render(&content, name, bind); err != nil {
		return err
	}

	var out bytes.Buffer
	if err := views.Render(&out, streamTemplate, fiber.Map{
		"Action":  "update",
		"Target":  Target,
		"Content": template.HTML(content.String()),
	}); err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, MIMETurboStream+"; charset=utf-8")
	return c.Status(status).Send(out.Bytes())
}

// Page renders a full HTML document for name inside layout.
func Page(c *fiber.Ctx, views fiber.Views, status int, name string, bind any, layout string) error {
	var out bytes.Buffer
	if err := views.Render(&out, name, bind, layout); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(out.Bytes())
}
