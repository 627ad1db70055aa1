package user

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/signup-wizard/internal/view"
)

type Handler struct {
	service *Service
	views   fiber.Views
}

// directiveResponse is the JSON form of a partial page update.
type directiveResponse struct {
	Action   string           `json:"action"`
	Target   string           `json:"target,omitempty"`
	Partial  string           `json:"partial,omitempty"`
	Template string           `json:"template,omitempty"`
	Complete bool             `json:"complete"`
	User     Response         `json:"user"`
	Errors   ValidationErrors `json:"errors,omitempty"`
	Messages []string         `json:"messages,omitempty"`
}

func NewHandler(service *Service, views fiber.Views) *Handler {
	return &Handler{service: service, views: views}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/users/new", h.newUser)
	app.Post("/users", h.createUser)
	app.Get("/users/:id<int>", h.showUser)
	// browsers without Turbo can only POST, so POST is an alias of PATCH
	app.Patch("/users/:id<int>", h.updateUser)
	app.Put("/users/:id<int>", h.updateUser)
	app.Post("/users/:id<int>", h.updateUser)
	app.Patch("/users/:id<int>/update_step", h.updateStep)
	app.Post("/users/:id<int>/update_step", h.updateStep)
}

func (h *Handler) newUser(c *fiber.Ctx) error {
	res := Result{User: h.service.Initialize(), View: View{Kind: ViewNew}}
	return h.render(c, fiber.StatusOK, "render", res, Fields{})
}

func (h *Handler) createUser(c *fiber.Ctx) error {
	values, err := readValues(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	fields, err := values.fields()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	id, err := values.id()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	res, err := h.service.CreateOrUpdateInitial(c.UserContext(), id, fields)
	if err != nil {
		return toFiberError(err)
	}
	return h.renderResult(c, res, fields)
}

func (h *Handler) showUser(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	user, err := h.service.Show(c.UserContext(), id)
	if err != nil {
		return toFiberError(err)
	}
	res := Result{User: user, View: View{Kind: ViewShow}, Complete: user.Step == Step3}
	return h.render(c, fiber.StatusOK, "render", res, Fields{})
}

func (h *Handler) updateUser(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	values, err := readValues(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	fields, err := values.fields()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	res, err := h.service.Advance(c.UserContext(), id, fields)
	if err != nil {
		return toFiberError(err)
	}
	return h.renderResult(c, res, fields)
}

func (h *Handler) updateStep(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	values, err := readValues(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	raw, ok := values["step"]
	if !ok {
		raw = c.Query("step")
	}
	target, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "step must be a number")
	}

	res, err := h.service.JumpToStep(c.UserContext(), id, target)
	if err != nil {
		return toFiberError(err)
	}
	return h.renderResult(c, res, Fields{})
}

func (h *Handler) renderResult(c *fiber.Ctx, res Result, f Fields) error {
	status := fiber.StatusOK
	if res.Invalid() {
		status = fiber.StatusUnprocessableEntity
	}
	return h.render(c, status, "update", res, f)
}

func (h *Handler) render(c *fiber.Ctx, status int, action string, res Result, f Fields) error {
	resp := presentSubmitted(res.User, f)
	name, partial := templateFor(res.View)
	bind := fiber.Map{
		"User":     resp,
		"Errors":   res.Errors,
		"Messages": res.Errors.FullMessages(),
		"Complete": res.Complete,
	}

	switch c.Accepts(fiber.MIMEApplicationJSON, view.MIMETurboStream, fiber.MIMETextHTML) {
	case view.MIMETurboStream:
		if res.View.Kind == ViewNew {
			// the new page already contains the target; stream only its form
			name = view.StepPartial(int(Step1))
		}
		return view.Stream(c, h.views, status, name, bind)
	case fiber.MIMETextHTML:
		layout := view.Layout
		if partial {
			layout = view.FormLayout
		}
		return view.Page(c, h.views, status, name, bind, layout)
	}

	out := directiveResponse{
		Action:   action,
		Complete: res.Complete,
		User:     resp,
		Errors:   res.Errors,
		Messages: res.Errors.FullMessages(),
	}
	if action == "update" {
		out.Target = view.Target
	}
	if partial {
		out.Partial = name
	} else {
		out.Template = name
	}
	return c.Status(status).JSON(out)
}

// templateFor maps a view selector to a template name and reports whether
// it is a partial.
func templateFor(v View) (string, bool) {
	switch v.Kind {
	case ViewStep:
		return view.StepPartial(int(v.Step)), true
	case ViewShow:
		return view.ShowTemplate, false
	default:
		return view.NewTemplate, false
	}
}

func toFiberError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.ErrNotFound
	case errors.Is(err, ErrInvalidStep):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return err
}

func paramID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// formValues holds submitted attributes by bare name ("name", not
// "user[name]").
type formValues map[string]string

// readValues accepts JSON, multipart and url-encoded bodies. JSON may wrap
// the attributes in a "user" object.
func readValues(c *fiber.Ctx) (formValues, error) {
	values := formValues{}
	ct := strings.ToLower(c.Get(fiber.HeaderContentType))

	switch {
	case strings.HasPrefix(ct, fiber.MIMEApplicationJSON):
		if len(bytes.TrimSpace(c.Body())) == 0 {
			return values, nil
		}
		var raw map[string]any
		dec := json.NewDecoder(bytes.NewReader(c.Body()))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, errors.New("invalid json body")
		}
		if nested, ok := raw["user"].(map[string]any); ok {
			delete(raw, "user")
			for k, v := range nested {
				raw[k] = v
			}
		}
		for k, v := range raw {
			values[k] = jsonText(v)
		}
	case strings.HasPrefix(ct, fiber.MIMEMultipartForm):
		form, err := c.MultipartForm()
		if err != nil {
			return nil, err
		}
		for k, vs := range form.Value {
			if len(vs) > 0 {
				values[bareKey(k)] = vs[len(vs)-1]
			}
		}
	default:
		c.Request().PostArgs().VisitAll(func(k, v []byte) {
			values[bareKey(string(k))] = string(v)
		})
	}
	return values, nil
}

func (v formValues) ptr(key string) *string {
	if s, ok := v[key]; ok {
		return &s
	}
	return nil
}

func (v formValues) fields() (Fields, error) {
	f := Fields{
		Name:    v.ptr("name"),
		Email:   v.ptr("email"),
		Age:     v.ptr("age"),
		Address: v.ptr("address"),
	}
	if raw, ok := v["step"]; ok && strings.TrimSpace(raw) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return Fields{}, errors.New("step must be a number")
		}
		f.Step = &n
	}
	return f, nil
}

func (v formValues) id() (*int64, error) {
	raw := strings.TrimSpace(v["id"])
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, errors.New("invalid id")
	}
	return &id, nil
}

// bareKey turns "user[name]" into "name".
func bareKey(k string) string {
	if strings.HasPrefix(k, "user[") && strings.HasSuffix(k, "]") {
		return k[len("user[") : len(k)-1]
	}
	return k
}

func jsonText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
