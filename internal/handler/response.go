package handler

import (
	"errors"
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"cryptoverde-api/internal/logic"
	"cryptoverde-api/internal/types"
)

// writeError maps logic errors to their status code. Anything else is a
// request the router could not parse.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var codeErr *logic.CodeError
	if errors.As(err, &codeErr) {
		httpx.WriteJsonCtx(r.Context(), w, codeErr.Code, types.ErrorResponse{Message: codeErr.Message})
		return
	}
	httpx.WriteJsonCtx(r.Context(), w, http.StatusBadRequest, types.ErrorResponse{Message: err.Error()})
}
