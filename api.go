package main

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof" // register handlers
	"regexp"
	"strconv"
	"time"

	"github.com/go-json-experiment/json"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aracnido/haibot/updates"
)

func (robo *Bot) api(ctx context.Context, listen string, mux *http.ServeMux, metrics []prometheus.Collector) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(
		collectors.WithGoCollectorMemStatsMetricsDisabled(),
		collectors.WithGoCollectorRuntimeMetrics(
			collectors.GoRuntimeMetricsRule{
				Matcher: regexp.MustCompile(`^(/gc/gogc:percent|/gc/gomemlimit:bytes|/gc/heap/allocs:bytes|/gc/heap/allocs:objects|/gc/heap/goal:bytes|/memory/classes/heap/released:bytes|/memory/classes/heap/stacks:bytes|/memory/classes/total:bytes|/sched/gomaxprocs:threads|/sched/goroutines:goroutines|/sched/latencies:seconds)$`),
			},
		),
	))
	reg.MustRegister(metrics...)
	opts := promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, opts))
	mux.HandleFunc("GET /debug/pprof/", pprof.Index)
	mux.HandleFunc("GET /debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("GET /debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("GET /debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("GET /debug/pprof/trace", pprof.Trace)
	mux.HandleFunc("POST /telegram/{secret}", robo.apiWebhook)
	mux.HandleFunc("GET /api/status", robo.apiStatus)
	mux.HandleFunc("GET /api/log", robo.apiLog)
	l, err := net.Listen("tcp", listen)
	if err != nil {
		return fmt.Errorf("couldn't start API server: %w", err)
	}
	srv := http.Server{
		Handler:     mux,
		ReadTimeout: 5 * time.Second,
		BaseContext: func(l net.Listener) context.Context { return ctx },
	}
	go func() {
		slog.InfoContext(ctx, "HTTP API server", slog.Any("addr", l.Addr()))
		err := srv.Serve(l)
		if err == http.ErrServerClosed {
			return
		}
		slog.ErrorContext(ctx, "HTTP API server closed", slog.Any("err", err))
	}()
	<-ctx.Done()
	// The context is now done, so it is obviously the wrong choice for
	// managing the shutdown.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func jsonerror(w http.ResponseWriter, status int, msg string) {
	v := struct {
		Error  string `json:"error"`
		Status int    `json:"status"`
	}{
		Error:  msg,
		Status: status,
	}
	b, err := json.Marshal(&v)
	if err != nil {
		panic(err)
	}
	w.WriteHeader(status)
	w.Write(b)
}

// apiWebhook accepts update deliveries from Telegram. The route's final path
// component is a secret derived from the bot's key, so requests that don't
// know it are rejected without reading their bodies.
func (robo *Bot) apiWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slog.With(slog.String("api", "webhook"), slog.Any("trace", uuid.New()))
	got := r.PathValue("secret")
	if subtle.ConstantTimeCompare([]byte(got), []byte(robo.secrets.webhook)) != 1 {
		log.WarnContext(ctx, "bad webhook secret", slog.String("remote", r.RemoteAddr))
		jsonerror(w, http.StatusNotFound, "not found")
		return
	}
	if robo.hook == nil {
		log.WarnContext(ctx, "webhook delivery while long polling")
		jsonerror(w, http.StatusConflict, "webhook not enabled")
		return
	}
	var u tgbotapi.Update
	if err := json.UnmarshalRead(r.Body, &u); err != nil {
		log.ErrorContext(ctx, "couldn't decode update", slog.Any("err", err))
		jsonerror(w, http.StatusBadRequest, "update read failed")
		return
	}
	select {
	case <-ctx.Done():
		jsonerror(w, http.StatusServiceUnavailable, "shutting down")
	case robo.hook <- u:
		w.WriteHeader(http.StatusNoContent)
	}
}

type apiEvent struct {
	User      string `json:"user"`
	Time      string `json:"time"`
	Milestone bool   `json:"milestone"`
	Online    bool   `json:"online"`
	IP        string `json:"ip,omitzero"`
	Text      string `json:"text,omitzero"`
}

func mkAPIEvent(ev updates.Event, tz *time.Location) apiEvent {
	return apiEvent{
		User:      ev.User,
		Time:      ev.Time.In(tz).Format(time.RFC3339),
		Milestone: ev.Kind == updates.Milestone,
		Online:    ev.Online,
		IP:        ev.IP,
		Text:      ev.Text,
	}
}

func (robo *Bot) apiStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slog.With(slog.String("api", "status"), slog.Any("trace", uuid.New()))
	log.InfoContext(ctx, "handle", slog.String("route", r.Pattern), slog.String("remote", r.RemoteAddr))
	defer log.InfoContext(ctx, "done")
	w.Header().Set("Content-Type", "application/json")
	last := robo.terraria.Last()
	u := struct {
		Data   apiEvent `json:"data"`
		Status int      `json:"status"`
	}{
		Data:   mkAPIEvent(last, robo.tz),
		Status: http.StatusOK,
	}
	b, err := json.Marshal(&u)
	if err != nil {
		panic(err)
	}
	if _, err := w.Write(b); err != nil {
		log.ErrorContext(ctx, "write response failed", slog.Any("err", err))
	}
}

func (robo *Bot) apiLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slog.With(slog.String("api", "log"), slog.Any("trace", uuid.New()))
	log.InfoContext(ctx, "handle", slog.String("route", r.Pattern), slog.String("remote", r.RemoteAddr))
	defer log.InfoContext(ctx, "done")
	w.Header().Set("Content-Type", "application/json")
	n := 64
	if s := r.FormValue("n"); s != "" {
		var err error
		n, err = strconv.Atoi(s)
		if err != nil || n <= 0 {
			log.WarnContext(ctx, "bad request", slog.String("n", s), slog.Any("err", err))
			jsonerror(w, http.StatusBadRequest, "invalid page size")
			return
		}
	}
	f := updates.All
	switch r.FormValue("filter") {
	case "", "all": // do nothing
	case "milestones":
		f = updates.MilestoneOnly
	case "status":
		f = updates.StatusOnly
	default:
		jsonerror(w, http.StatusBadRequest, "invalid filter")
		return
	}
	evs, err := robo.terraria.Recent(ctx, n, f)
	if err != nil {
		log.ErrorContext(ctx, "couldn't read log", slog.Any("err", err))
		jsonerror(w, http.StatusInternalServerError, err.Error())
		return
	}
	u := struct {
		Data   []apiEvent `json:"data"`
		Status int        `json:"status"`
	}{
		Data:   make([]apiEvent, len(evs)),
		Status: http.StatusOK,
	}
	for i, ev := range evs {
		u.Data[i] = mkAPIEvent(ev, robo.tz)
	}
	b, err := json.Marshal(&u)
	if err != nil {
		panic(err)
	}
	if _, err := w.Write(b); err != nil {
		log.ErrorContext(ctx, "write response failed", slog.Any("err", err))
	}
}
