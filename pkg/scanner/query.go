package scanner

import (
	"context"
	"time"

	"github.com/lcalzada-xor/axss/pkg/models"
	"github.com/lcalzada-xor/axss/pkg/network"
	"github.com/lcalzada-xor/axss/pkg/scanner/reflection"
)

// testQuery fuzzes each query parameter in turn, holding the others at
// their original values. The first positive payload ends a parameter.
func (s *Scanner) testQuery(ctx context.Context, target string, params []network.Param) {
	for _, p := range params {
		if ctx.Err() != nil {
			return
		}
		s.logger.V("  Testing GET parameter: %s", p.Name)
		s.paramTested(models.MethodGET)

		for i, pl := range s.payloads {
			if s.pace(ctx, i == 0) != nil {
				return
			}

			testURL, err := network.WithQuery(target, network.Replace(params, p.Name, pl.Content))
			if err != nil {
				return
			}

			resp, err := s.get(ctx, testURL)
			if err != nil {
				if s.failed(ctx, err) {
					return
				}
				continue
			}
			if !resp.OK() {
				s.noteWAF(resp)
			}

			verdict := reflection.Detect(resp.Body, pl.Content)
			s.logger.Detail("%s <- %q: %s", p.Name, pl.Content, verdict.Detail)
			if !verdict.Vulnerable {
				continue
			}

			s.record(models.Finding{
				URL:       testURL,
				Method:    models.MethodGET,
				Parameter: p.Name,
				Payload:   pl.Content,
				Type:      reflection.ClassifyType(models.MethodGET, true, false),
				Context:   verdict.Context,
				Snippet:   reflection.ExtractSnippet(resp.Body, pl.Content, s.opts.SnippetLen),
				Timestamp: time.Now(),
			})
			break
		}
	}
}
