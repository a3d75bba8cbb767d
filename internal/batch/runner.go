package batch

import (
	"context"
	"encoding/json"
	"io"
	"runtime"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/propval/internal/model"
	"github.com/sells-group/propval/internal/valerr"
)

// Valuer values a single wire request.
type Valuer interface {
	Valuate(req model.Request) (*model.Result, error)
}

// Outcome is the result of one row.
type Outcome struct {
	Line   int           `json:"line"`
	ID     string        `json:"id,omitempty"`
	Result *model.Result `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
	Kind   string        `json:"kind,omitempty"`
}

// Summary counts batch outcomes.
type Summary struct {
	Total     int   `json:"total"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
}

// Run values every row with at most concurrency requests in flight and
// returns outcomes in input order. A failed row never aborts the batch; only
// context cancellation does.
func Run(ctx context.Context, v Valuer, rows []Row, concurrency int) ([]Outcome, Summary, error) {
	if concurrency < 1 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	out := make([]Outcome, len(rows))
	var succeeded, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, row := range rows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			o := Outcome{Line: row.Line, ID: row.ID}
			err := row.Err
			if err == nil {
				o.Result, err = v.Valuate(row.Request)
			}
			if err != nil {
				failed.Add(1)
				o.Error = valerr.Message(err)
				o.Kind = string(valerr.KindOf(err))
				if o.Kind == "" && row.Err != nil {
					o.Kind = string(valerr.InvalidAttribute)
				}
				zap.L().Debug("batch: row failed",
					zap.Int("line", row.Line),
					zap.String("kind", o.Kind),
					zap.Error(err),
				)
			} else {
				succeeded.Add(1)
			}
			out[i] = o
			return nil
		})
	}

	sum := Summary{Total: len(rows)}
	if err := g.Wait(); err != nil {
		return nil, sum, eris.Wrap(err, "batch: run")
	}
	sum.Succeeded, sum.Failed = succeeded.Load(), failed.Load()

	zap.L().Info("batch: complete",
		zap.Int("total", sum.Total),
		zap.Int64("succeeded", sum.Succeeded),
		zap.Int64("failed", sum.Failed),
	)
	return out, sum, nil
}

// WriteJSONLines writes one JSON object per outcome.
func WriteJSONLines(w io.Writer, outcomes []Outcome) error {
	enc := json.NewEncoder(w)
	for _, o := range outcomes {
		if err := enc.Encode(o); err != nil {
			return eris.Wrapf(err, "batch: write line %d", o.Line)
		}
	}
	return nil
}
