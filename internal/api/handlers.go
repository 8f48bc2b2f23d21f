// Package api exposes the engine over HTTP as JSON.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"codeberg.org/mutker/kitchenctl/internal/alert"
	"codeberg.org/mutker/kitchenctl/internal/errors"
	"codeberg.org/mutker/kitchenctl/internal/logger"
	"codeberg.org/mutker/kitchenctl/internal/notify"
	"codeberg.org/mutker/kitchenctl/internal/sensor"
	"codeberg.org/mutker/kitchenctl/internal/timer"
	"github.com/gorilla/mux"
)

// Engine is the command and query surface served over HTTP.
type Engine interface {
	AddTimer(name string, minutes int) (timer.View, error)
	ToggleTimer(id string) (timer.View, error)
	StopTimer(id string) (timer.View, error)
	DeleteTimer(id string) error
	UpdateSettings(p notify.SettingsPatch) notify.Settings
	ToggleSetting(name string) (notify.Settings, error)
	SetPermission(p notify.Permission)
	MarkAllNotificationsRead(ctx context.Context) error
	TriggerTestNotification(ctx context.Context) (notify.Notification, error)

	Reading() sensor.Reading
	Status() alert.Status
	Notifications(ctx context.Context) ([]notify.Notification, error)
	UnreadCount(ctx context.Context) (int, error)
	Settings() notify.Settings
	Permission() notify.Permission
	Timers() []timer.View
}

// Handler holds the dependencies of the HTTP handlers.
type Handler struct {
	engine  Engine
	metrics http.Handler
	started time.Time
	log     logger.Logger
}

func NewHandler(engine Engine, metrics http.Handler) *Handler {
	return &Handler{
		engine:  engine,
		metrics: metrics,
		started: time.Now(),
		log:     logger.For("api"),
	}
}

// Router builds the route table.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(h.loggingMiddleware)

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics).Methods(http.MethodGet)
	}

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/status", h.Status).Methods(http.MethodGet)
	v1.HandleFunc("/reading", h.Reading).Methods(http.MethodGet)

	v1.HandleFunc("/notifications", h.Notifications).Methods(http.MethodGet)
	v1.HandleFunc("/notifications/read", h.MarkAllRead).Methods(http.MethodPost)
	v1.HandleFunc("/notifications/test", h.TestNotification).Methods(http.MethodPost)

	v1.HandleFunc("/settings", h.Settings).Methods(http.MethodGet)
	v1.HandleFunc("/settings", h.UpdateSettings).Methods(http.MethodPatch)
	v1.HandleFunc("/settings/{name}/toggle", h.ToggleSetting).Methods(http.MethodPost)
	v1.HandleFunc("/permission", h.Permission).Methods(http.MethodGet)
	v1.HandleFunc("/permission", h.SetPermission).Methods(http.MethodPut)

	v1.HandleFunc("/timers", h.Timers).Methods(http.MethodGet)
	v1.HandleFunc("/timers", h.AddTimer).Methods(http.MethodPost)
	v1.HandleFunc("/timers/{id}/toggle", h.ToggleTimer).Methods(http.MethodPost)
	v1.HandleFunc("/timers/{id}/stop", h.StopTimer).Methods(http.MethodPost)
	v1.HandleFunc("/timers/{id}", h.DeleteTimer).Methods(http.MethodDelete)

	return r
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	h.respondJSON(w, map[string]any{
		"status": "ok",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	}, http.StatusOK)
}

type statusResponse struct {
	Status     alert.Status               `json:"status"`
	Reading    sensor.Reading             `json:"reading"`
	Severities map[string]sensor.Severity `json:"severities"`
	Unread     int                        `json:"unread"`
	Timers     []timer.View               `json:"timers"`
	Settings   notify.Settings            `json:"settings"`
}

// Status handles GET /api/v1/status, the dashboard snapshot.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	unread, err := h.engine.UnreadCount(r.Context())
	if err != nil {
		h.respondErr(w, err)
		return
	}

	reading := h.engine.Reading()
	severities := make(map[string]sensor.Severity, len(sensor.Kinds))
	for k, s := range reading.Severities() {
		severities[k.String()] = s
	}

	h.respondJSON(w, statusResponse{
		Status:     h.engine.Status(),
		Reading:    reading,
		Severities: severities,
		Unread:     unread,
		Timers:     h.engine.Timers(),
		Settings:   h.engine.Settings(),
	}, http.StatusOK)
}

// Reading handles GET /api/v1/reading
func (h *Handler) Reading(w http.ResponseWriter, _ *http.Request) {
	h.respondJSON(w, h.engine.Reading(), http.StatusOK)
}

// Notifications handles GET /api/v1/notifications
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	list, err := h.engine.Notifications(r.Context())
	if err != nil {
		h.respondErr(w, err)
		return
	}

	unread, err := h.engine.UnreadCount(r.Context())
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respondJSON(w, map[string]any{
		"notifications": list,
		"unread":        unread,
	}, http.StatusOK)
}

// MarkAllRead handles POST /api/v1/notifications/read
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.MarkAllNotificationsRead(r.Context()); err != nil {
		h.respondErr(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// TestNotification handles POST /api/v1/notifications/test
func (h *Handler) TestNotification(w http.ResponseWriter, r *http.Request) {
	n, err := h.engine.TriggerTestNotification(r.Context())
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respondJSON(w, n, http.StatusCreated)
}

func (h *Handler) Settings(w http.ResponseWriter, _ *http.Request) {
	h.respondJSON(w, h.engine.Settings(), http.StatusOK)
}

// UpdateSettings handles PATCH /api/v1/settings with a partial body.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch notify.SettingsPatch
	if !h.decode(w, r, &patch) {
		return
	}

	h.respondJSON(w, h.engine.UpdateSettings(patch), http.StatusOK)
}

func (h *Handler) ToggleSetting(w http.ResponseWriter, r *http.Request) {
	s, err := h.engine.ToggleSetting(mux.Vars(r)["name"])
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respondJSON(w, s, http.StatusOK)
}

type permissionBody struct {
	Permission string `json:"permission"`
}

func (h *Handler) Permission(w http.ResponseWriter, _ *http.Request) {
	h.respondJSON(w, permissionBody{Permission: h.engine.Permission().String()}, http.StatusOK)
}

func (h *Handler) SetPermission(w http.ResponseWriter, r *http.Request) {
	var body permissionBody
	if !h.decode(w, r, &body) {
		return
	}

	p, err := notify.ParsePermission(body.Permission)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	h.engine.SetPermission(p)

	h.respondJSON(w, permissionBody{Permission: p.String()}, http.StatusOK)
}

func (h *Handler) Timers(w http.ResponseWriter, _ *http.Request) {
	h.respondJSON(w, h.engine.Timers(), http.StatusOK)
}

type addTimerBody struct {
	Name    string `json:"name"`
	Minutes int    `json:"minutes"`
}

// AddTimer handles POST /api/v1/timers
func (h *Handler) AddTimer(w http.ResponseWriter, r *http.Request) {
	var body addTimerBody
	if !h.decode(w, r, &body) {
		return
	}

	v, err := h.engine.AddTimer(body.Name, body.Minutes)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respondJSON(w, v, http.StatusCreated)
}

func (h *Handler) ToggleTimer(w http.ResponseWriter, r *http.Request) {
	h.timerCommand(w, r, h.engine.ToggleTimer)
}

func (h *Handler) StopTimer(w http.ResponseWriter, r *http.Request) {
	h.timerCommand(w, r, h.engine.StopTimer)
}

func (h *Handler) DeleteTimer(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DeleteTimer(mux.Vars(r)["id"]); err != nil {
		h.respondErr(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) timerCommand(w http.ResponseWriter, r *http.Request, cmd func(string) (timer.View, error)) {
	v, err := cmd(mux.Vars(r)["id"])
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respondJSON(w, v, http.StatusOK)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		h.respondError(w, "Invalid JSON: "+err.Error(), errors.ErrInvalidInput, http.StatusBadRequest)
		return false
	}

	return true
}
