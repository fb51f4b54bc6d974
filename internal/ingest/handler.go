package ingest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sweeney/enviro-monitor/internal/telemetry"
)

// maxBodyBytes bounds a POST /sensor-data body.
const maxBodyBytes = 64 << 10

// Handler serves the ingestion routes.
type Handler struct {
	store      Store
	latest     LatestCache
	alarmField string
	logger     *zap.Logger
	rows       prometheus.Counter
	failures   *prometheus.CounterVec
	gatherer   prometheus.Gatherer
}

// NewHandler creates a Handler. latest may be nil to disable GET /latest.
func NewHandler(store Store, latest LatestCache, alarmField string, reg *prometheus.Registry, logger *zap.Logger) *Handler {
	if alarmField == "" {
		alarmField = telemetry.DefaultAlarmField
	}
	h := &Handler{
		store:      store,
		latest:     latest,
		alarmField: alarmField,
		logger:     logger,
		gatherer:   reg,
		rows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "enviro",
			Subsystem: "ingest",
			Name:      "rows_total",
			Help:      "Rows accepted on POST /sensor-data.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "enviro",
			Subsystem: "ingest",
			Name:      "failures_total",
			Help:      "Requests answered with an error, by route and status.",
		}, []string{"route", "code"}),
	}
	reg.MustRegister(h.rows, h.failures)
	return h
}

// Router returns the route table.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc(telemetry.SensorDataPath, h.createSensorData).Methods(http.MethodPost)
	r.HandleFunc("/data", h.listData).Methods(http.MethodGet)
	r.HandleFunc("/latest", h.latestRow).Methods(http.MethodGet)
	r.HandleFunc("/test", h.test).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	return r
}

type successResponse struct {
	Success bool             `json:"success"`
	Data    []map[string]any `json:"data"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) fail(w http.ResponseWriter, route string, code int, msg string) {
	h.failures.WithLabelValues(route, http.StatusText(code)).Inc()
	writeJSON(w, code, map[string]string{"error": msg})
}

func (h *Handler) createSensorData(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.fail(w, "sensor-data", http.StatusBadRequest, "request body too large or unreadable")
		return
	}

	rec, err := telemetry.ParseRecord(body, h.alarmField)
	if err != nil {
		h.fail(w, "sensor-data", http.StatusBadRequest, err.Error())
		return
	}

	row, err := h.store.Insert(r.Context(), rec)
	if err != nil {
		h.logger.Error("insert sensor data", zap.Error(err))
		h.fail(w, "sensor-data", http.StatusInternalServerError, err.Error())
		return
	}
	h.rows.Inc()

	if h.latest != nil {
		if err := h.latest.Put(r.Context(), row); err != nil {
			h.logger.Warn("cache latest row", zap.String("id", row.ID), zap.Error(err))
		}
	}

	writeJSON(w, http.StatusCreated, successResponse{
		Success: true,
		Data:    []map[string]any{encodeRow(row, h.alarmField)},
	})
}

func (h *Handler) listData(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("list sensor data", zap.Error(err))
		h.fail(w, "data", http.StatusInternalServerError, err.Error())
		return
	}

	data := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		data = append(data, encodeRow(row, h.alarmField))
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: data})
}

var errNoLatest = errors.New("no data cached")

func (h *Handler) latestRow(w http.ResponseWriter, r *http.Request) {
	if h.latest == nil {
		h.fail(w, "latest", http.StatusNotFound, "latest cache disabled")
		return
	}
	row, ok, err := h.latest.Latest(r.Context())
	if err != nil {
		h.logger.Error("read latest row", zap.Error(err))
		h.fail(w, "latest", http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		h.fail(w, "latest", http.StatusNotFound, errNoLatest.Error())
		return
	}
	writeJSON(w, http.StatusOK, successResponse{
		Success: true,
		Data:    []map[string]any{encodeRow(row, h.alarmField)},
	})
}

func (h *Handler) test(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "API is working"})
}
