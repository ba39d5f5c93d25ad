package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest"

	"cryptoverde-api/internal/svc"
)

func RegisterHandlers(server *rest.Server, serverCtx *svc.ServiceContext) {
	server.AddRoutes(
		[]rest.Route{
			{
				Method:  http.MethodGet,
				Path:    "/status",
				Handler: GetStatusHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/coins",
				Handler: ListCoinsHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/coins/:id/history",
				Handler: GetHistoryHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/coins/:id/features",
				Handler: GetFeaturesHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/stats",
				Handler: GetStatsHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/rankings",
				Handler: GetRankingsHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/anomalies",
				Handler: GetAnomaliesHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/sync",
				Handler: SyncHandler(serverCtx),
			},
		},
		rest.WithPrefix("/api"),
	)

	server.AddRoute(rest.Route{
		Method:  http.MethodGet,
		Path:    "/metrics",
		Handler: serverCtx.Metrics.Handler().ServeHTTP,
	})
}
