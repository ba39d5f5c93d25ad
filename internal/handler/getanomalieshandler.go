package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"cryptoverde-api/internal/logic"
	"cryptoverde-api/internal/svc"
	"cryptoverde-api/internal/types"
)

func GetAnomaliesHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.AnomaliesRequest
		if err := httpx.Parse(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		l := logic.NewGetAnomaliesLogic(r.Context(), svcCtx)
		resp, err := l.GetAnomalies(&req)
		if err != nil {
			writeError(w, r, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
