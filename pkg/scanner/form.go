package scanner

import (
	"context"
	"strings"
	"time"

	"github.com/lcalzada-xor/axss/pkg/csrf"
	"github.com/lcalzada-xor/axss/pkg/models"
	"github.com/lcalzada-xor/axss/pkg/network"
	"github.com/lcalzada-xor/axss/pkg/scanner/payloads"
	"github.com/lcalzada-xor/axss/pkg/scanner/reflection"
)

// testForm fuzzes every testable field of form. Each attempt starts from the
// form's own values, carries a freshly fetched anti-forgery token and is
// submitted with the form's method. Script payloads carry the field name so
// a stored hit is attributed to the field that wrote it.
func (s *Scanner) testForm(ctx context.Context, form models.Form) {
	inputs := models.TestableInputs(form)
	if len(inputs) == 0 {
		return
	}
	s.logger.V("  Testing %s form: %s", form.Method, form.Action)

	for _, name := range inputs {
		if ctx.Err() != nil {
			return
		}
		s.logger.V("    Testing %s parameter: %s", form.Method, name)
		s.paramTested(form.Method)

		for i, pl := range s.payloads {
			if s.pace(ctx, i == 0) != nil {
				return
			}

			content := payloads.WithMarker(pl.Content, name)
			fields := form.CloneFields()
			fields[name] = content
			s.refreshToken(ctx, form.Action, fields)

			resp, err := s.submit(ctx, form, fields)
			if err != nil {
				if s.failed(ctx, err) {
					return
				}
				continue
			}
			if !resp.OK() {
				s.noteWAF(resp)
			}

			verdict := reflection.Detect(resp.Body, content)
			s.logger.Detail("%s <- %q: %s", name, content, verdict.Detail)
			if !verdict.Vulnerable {
				continue
			}

			stored := s.confirmStored(ctx, form.Action, content)
			s.record(models.Finding{
				URL:       form.Action,
				Method:    form.Method,
				Parameter: name,
				Payload:   content,
				Type:      reflection.ClassifyType(form.Method, true, stored),
				Context:   verdict.Context,
				Snippet:   reflection.ExtractSnippet(resp.Body, content, s.opts.SnippetLen),
				Timestamp: time.Now(),
			})
			break
		}
	}
}

// refreshToken fetches the form target and splices its current token into
// fields. Failures leave fields untouched.
func (s *Scanner) refreshToken(ctx context.Context, action string, fields map[string]string) {
	var body string
	resp, err := s.get(ctx, action)
	if err == nil {
		body = resp.Body
	} else if !s.failed(ctx, err) {
		s.logger.VV("Token refresh failed for %s", action)
	}

	token, ok := csrf.Extract(body, s.client.CookiesFor(action))
	if ok && csrf.Splice(fields, token) {
		s.logger.Detail("Refreshed anti-forgery token for %s", action)
	}
}

func (s *Scanner) submit(ctx context.Context, form models.Form, fields map[string]string) (*network.Response, error) {
	f := models.Form{Fields: fields}
	params := make([]network.Param, 0, len(fields))
	for _, name := range f.FieldNames() {
		params = append(params, network.Param{Name: name, Value: fields[name]})
	}

	if err := s.throttle(ctx, form.Action); err != nil {
		return nil, err
	}
	if form.Method == models.MethodPOST {
		return s.client.PostForm(ctx, form.Action, params)
	}
	return s.client.GetWithQuery(ctx, form.Action, params)
}

// confirmStored waits for the write to settle, reloads the form target and
// requires the payload to be present verbatim.
func (s *Scanner) confirmStored(ctx context.Context, action, payload string) bool {
	if sleep(ctx, s.opts.StoredDelay) != nil {
		return false
	}
	resp, err := s.get(ctx, action)
	if err != nil {
		s.failed(ctx, err)
		return false
	}
	return strings.Contains(resp.Body, payload)
}
