package api

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"checkout-activation/internal/domain"
	"checkout-activation/internal/domain/model"
	"checkout-activation/internal/domain/ports/adapter"
	"checkout-activation/internal/domain/ports/repository"
	"checkout-activation/internal/infra/logging"
	"checkout-activation/internal/usecase"
)

// CheckoutStarter is the orchestrator surface the API exposes.
type CheckoutStarter interface {
	Pay(ctx context.Context, email string) (*model.PaymentSession, string, error)
	View() usecase.CheckoutView
}

// ResultDispatcher routes the gateway's terminal callback into the session
// controller and exposes the live payment attempt.
type ResultDispatcher interface {
	HandleGatewayResult(ctx context.Context, res adapter.CheckoutResult) bool
	Current() *model.PaymentSession
}

// Server wires the checkout pipeline to HTTP: start, gateway callback,
// state polling, audit trail, health, metrics.
type Server struct {
	checkout CheckoutStarter
	sessions ResultDispatcher
	events   repository.CheckoutEventRepository // nil when the audit trail is disabled
	auth     *AuthManager
	apiKey   string
	log      *zerolog.Logger
}

func NewServer(checkout CheckoutStarter, sessions ResultDispatcher, events repository.CheckoutEventRepository, auth *AuthManager, apiKey string, logger *zerolog.Logger) *Server {
	return &Server{checkout: checkout, sessions: sessions, events: events, auth: auth, apiKey: apiKey, log: logger}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(s.log), RequestLog(s.log), Recover(s.log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// The gateway redirects the user here after the hosted checkout; no
	// bearer key on this route.
	r.Get("/api/v1/payment/callback", s.handleCallback)

	r.Group(func(r chi.Router) {
		r.Use(s.bearerAuth)
		r.Post("/api/v1/checkout", s.handleStart)
		r.Get("/api/v1/checkout/state", s.handleState)
		r.Get("/api/v1/checkout/events", s.handleEvents)
	})

	return r
}

type startRequest struct {
	Email string `json:"email"`
}

type startResponse struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
	SessionToken     string `json:"session_token"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sess, payURL, err := s.checkout.Pay(r.Context(), req.Email)
	if err != nil {
		s.writeStartError(w, err)
		return
	}

	token, err := s.auth.Mint(sess.Reference)
	if err != nil {
		s.log.Error().Err(err).Msg("session token mint failed")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, startResponse{
		Reference:        sess.Reference,
		AuthorizationURL: payURL,
		SessionToken:     token,
	})
}

func (s *Server) writeStartError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		http.Error(w, ve.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrNoPackageSelected):
		writeJSON(w, http.StatusConflict, s.checkout.View())
	case errors.Is(err, domain.ErrSessionInFlight):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrGatewayUnavailable):
		// A loading state, not a failure: the gateway never became ready.
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		s.log.Error().Err(err).Msg("checkout start failed")
		http.Error(w, "Failed to start checkout", http.StatusInternalServerError)
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Checkout-Session")
	if token == "" {
		http.Error(w, "Missing session token", http.StatusUnauthorized)
		return
	}
	ref, err := s.auth.Parse(token)
	if err != nil {
		http.Error(w, "Invalid session token", http.StatusUnauthorized)
		return
	}
	// The token only grants visibility into the attempt it was minted for.
	cur := s.sessions.Current()
	if cur == nil || cur.Reference != ref {
		http.Error(w, "Session token does not match the live checkout", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, s.checkout.View())
}

type eventResponse struct {
	ID        string    `json:"id"`
	Reference string    `json:"reference"`
	Kind      string    `json:"kind"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

// handleEvents exposes the recent audit trail so overridden or fallback
// activations can be inspected and corrected upstream.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		http.Error(w, "Audit trail disabled", http.StatusNotFound)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	evs, err := s.events.ListRecent(r.Context(), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("audit event listing failed")
		http.Error(w, "Failed to list events", http.StatusInternalServerError)
		return
	}
	out := make([]eventResponse, 0, len(evs))
	for _, ev := range evs {
		out = append(out, eventResponse{
			ID:        ev.ID,
			Reference: ev.Reference,
			Kind:      string(ev.Kind),
			Detail:    ev.Detail,
			CreatedAt: ev.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCallback receives the gateway redirect. Verification and
// reconciliation run to completion inside the dispatch even if the user
// closes the page, because the charge may already have happened. The
// pipeline context is detached from the request so a client disconnect
// cannot abort it; only the 30s ceiling bounds it.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 30*time.Second)
	defer cancel()

	q := r.URL.Query()
	reference := q.Get("reference")
	status := q.Get("status")

	if reference == "" {
		s.renderHTML(w, http.StatusBadRequest, false, "missing reference")
		return
	}
	ctx = logging.WithReference(ctx, reference)

	handled := s.sessions.HandleGatewayResult(ctx, adapter.CheckoutResult{Status: status, Reference: reference})
	if !handled {
		s.renderHTML(w, http.StatusGone, false, "no live payment attempt for this reference")
		return
	}

	view := s.checkout.View()
	switch view.State {
	case usecase.StateSuccess:
		s.renderHTML(w, http.StatusOK, true, "payment verified. your plan is now active.")
	default:
		msg := view.ErrMessage
		if msg == "" {
			msg = view.Notice
		}
		if msg == "" {
			msg = "payment not completed"
		}
		s.renderHTML(w, http.StatusOK, false, msg)
	}
}

var page = template.Must(template.New("cb").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width,initial-scale=1" />
<title>Payment {{if .OK}}Success{{else}}Result{{end}}</title>
<style>
body{font-family:system-ui,Arial,sans-serif;margin:2rem;}
.card{max-width:560px;border:1px solid #ddd;border-radius:12px;padding:24px;}
.ok{color:#057a55} .fail{color:#b00020}
.small{font-size:12px;color:#666}
</style>
</head>
<body>
<div class="card">
<h2 class="{{if .OK}}ok{{else}}fail{{end}}">{{if .OK}}Payment successful{{else}}Payment result{{end}}</h2>
<p>{{.Message}}</p>
<p class="small">You can close this window.</p>
</div>
</body>
</html>`))

func (s *Server) renderHTML(w http.ResponseWriter, code int, ok bool, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_ = page.Execute(w, struct {
		OK      bool
		Message string
	}{OK: ok, Message: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
