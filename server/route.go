package server

import (
	"github.com/matryer/way"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const URI_MAP = "/map"
const URI_CELL = "/cell/:row/:col/:state"
const URI_SEARCH = "/search"
const URI_WATCH = "/watch"
const URI_METRICS = "/metrics"

func (s *SearchServer) Routes() *way.Router {
	router := way.NewRouter()
	router.HandleFunc("GET", URI_MAP, s.HandleGetMap())
	router.HandleFunc("PUT", URI_MAP, s.HandlePutMap())
	router.HandleFunc("DELETE", URI_MAP, s.HandleDeleteMap())
	router.HandleFunc("PUT", URI_CELL, s.HandlePutCell())
	router.HandleFunc("GET", URI_SEARCH, s.HandleGetSearch())
	router.HandleFunc("POST", URI_SEARCH, s.HandleStartSearch())
	router.HandleFunc("DELETE", URI_SEARCH, s.HandleStopSearch())
	router.HandleFunc("GET", URI_WATCH, s.HandleWatch())
	router.Handle("GET", URI_METRICS, promhttp.Handler())
	return router
}
