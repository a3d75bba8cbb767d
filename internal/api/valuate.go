package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/propval/internal/model"
	"github.com/sells-group/propval/internal/valerr"
)

// StatusFor maps a valuation failure to an HTTP status.
func StatusFor(err error) int {
	switch valerr.KindOf(err) {
	case valerr.UnsupportedCity, valerr.InvalidAttribute:
		return http.StatusBadRequest
	case valerr.UnknownLocation:
		return http.StatusNotFound
	case valerr.IncompletePriceData:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleValuate(w http.ResponseWriter, r *http.Request) {
	var req model.Request
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := s.valuer.Valuate(req)
	if err != nil {
		status := StatusFor(err)
		if status == http.StatusInternalServerError {
			zap.L().Error("api: valuate", zap.Error(err))
			writeError(w, status, "internal error", "")
			return
		}
		writeError(w, status, valerr.Message(err), string(valerr.KindOf(err)))
		return
	}

	zap.L().Info("api: valuated",
		zap.String("class", string(res.PropertyClass)),
		zap.String("mode", string(res.Mode)),
		zap.String("city", res.Location.City),
		zap.Int64("estimate_mid", res.Estimate.Mid),
	)
	writeJSON(w, http.StatusOK, res)
}
