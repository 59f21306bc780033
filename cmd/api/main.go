// Package main provides the HTTP API server for the pull payment service.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/rueidis"
	"github.com/shopspring/decimal"

	"github.com/jnst/pull-payment-service/internal/config"
	"github.com/jnst/pull-payment-service/internal/events"
	"github.com/jnst/pull-payment-service/internal/handler"
	"github.com/jnst/pull-payment-service/internal/logger"
	"github.com/jnst/pull-payment-service/internal/model"
	"github.com/jnst/pull-payment-service/internal/notify"
	"github.com/jnst/pull-payment-service/internal/rates"
	"github.com/jnst/pull-payment-service/internal/repository"
	"github.com/jnst/pull-payment-service/internal/service"
)

const (
	contentTypeJSON        = "Content-Type"
	applicationJSON        = "application/json"
	failedToEncodeResponse = "failed to encode response"
	signalBufferSize       = 1
	shutdownTimeout        = 10 * time.Second
	exitCode               = 1
)

// PaymentMethodManual is the payment method identifier served by the built-in
// manual handler.
const PaymentMethodManual = "USD-Manual"

// APIServer handles HTTP requests for pull payment management.
type APIServer struct {
	service  *service.Service
	registry *service.HandlerRegistry
}

// NewAPIServer creates a new API server instance.
func NewAPIServer(svc *service.Service, registry *service.HandlerRegistry) *APIServer {
	return &APIServer{
		service:  svc,
		registry: registry,
	}
}

// CreatePullPayment handles POST /pull-payments endpoint.
func (s *APIServer) CreatePullPayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var params model.CreatePullPaymentParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	id, err := s.service.CreatePullPayment(r.Context(), &params)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set(contentTypeJSON, applicationJSON)
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(map[string]string{"id": id}); err != nil {
		http.Error(w, failedToEncodeResponse, http.StatusInternalServerError)
		return
	}
}

// GetPullPayment handles GET /pull-payments/get endpoint.
func (s *APIServer) GetPullPayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "ID parameter is required", http.StatusBadRequest)
		return
	}

	pullPayment, err := s.service.GetPullPayment(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set(contentTypeJSON, applicationJSON)
	if err := json.NewEncoder(w).Encode(pullPayment); err != nil {
		http.Error(w, failedToEncodeResponse, http.StatusInternalServerError)
		return
	}
}

type claimParams struct {
	PullPaymentID   string           `json:"pull_payment_id"`
	PaymentMethodID string           `json:"payment_method_id"`
	Value           *decimal.Decimal `json:"value"`
	Destination     string           `json:"destination"`
}

// Claim handles POST /pull-payments/claim endpoint.
func (s *APIServer) Claim(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var params claimParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	payoutHandler, ok := s.registry.Resolve(params.PaymentMethodID)
	if !ok {
		writeClaimResult(w, &model.ClaimResponse{Result: model.ClaimResultPaymentMethodNotSupported})
		return
	}

	destination, err := payoutHandler.ParseDestination(r.Context(), params.PaymentMethodID, params.Destination, true)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	response, err := s.service.Claim(r.Context(), &model.ClaimRequest{
		PullPaymentID:   params.PullPaymentID,
		PaymentMethodID: params.PaymentMethodID,
		Value:           params.Value,
		Destination:     destination,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, model.ErrServiceClosed) {
			status = http.StatusServiceUnavailable
		}

		http.Error(w, err.Error(), status)

		return
	}

	writeClaimResult(w, response)
}

func writeClaimResult(w http.ResponseWriter, response *model.ClaimResponse) {
	w.Header().Set(contentTypeJSON, applicationJSON)

	if response.Result != model.ClaimResultOk {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}

	body := map[string]any{
		"result":  response.Result.String(),
		"message": response.Result.Message(),
	}
	if response.Payout != nil {
		body["payout"] = response.Payout
	}

	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, failedToEncodeResponse, http.StatusInternalServerError)
		return
	}
}

type approveParams struct {
	PayoutID string           `json:"payout_id"`
	Revision int              `json:"revision"`
	Rate     *decimal.Decimal `json:"rate"`
	RateRule string           `json:"rate_rule"`
}

// ApprovePayout handles POST /payouts/approve endpoint. Without an explicit
// rate the service's rate resolver quotes the payout's currency pair.
func (s *APIServer) ApprovePayout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var params approveParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	var rate decimal.Decimal

	if params.Rate != nil {
		rate = *params.Rate
	} else {
		payout, err := s.service.GetPayout(r.Context(), params.PayoutID)
		if err != nil {
			writeResult(w, model.ApprovalResultNotFound.String(), model.ApprovalResultNotFound.Message(), http.StatusNotFound)
			return
		}

		rate, err = s.service.GetRate(r.Context(), payout, params.RateRule)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	result, err := s.service.Approve(r.Context(), &model.ApprovalRequest{
		PayoutID: params.PayoutID,
		Revision: params.Revision,
		Rate:     rate,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if result != model.ApprovalResultOk {
		status = http.StatusUnprocessableEntity
	}

	writeResult(w, result.String(), result.Message(), status)
}

// MarkPaid handles POST /payouts/mark-paid endpoint.
func (s *APIServer) MarkPaid(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var params model.MarkPaidRequest
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	result, err := s.service.MarkPaid(r.Context(), &params)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if result != model.MarkPaidResultOk {
		status = http.StatusUnprocessableEntity
	}

	writeResult(w, result.String(), result.Message(), status)
}

// Cancel handles POST /payouts/cancel endpoint.
func (s *APIServer) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var params model.CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := s.service.Cancel(r.Context(), &params); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, model.ErrInvalidCancelRequest) {
			status = http.StatusBadRequest
		}

		http.Error(w, err.Error(), status)

		return
	}

	writeResult(w, "Ok", "", http.StatusOK)
}

// HealthCheck handles GET /health endpoint for service health check.
func (*APIServer) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set(contentTypeJSON, applicationJSON)
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
		http.Error(w, failedToEncodeResponse, http.StatusInternalServerError)
		return
	}
}

func writeResult(w http.ResponseWriter, result, message string, status int) {
	w.Header().Set(contentTypeJSON, applicationJSON)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(map[string]string{
		"result":  result,
		"message": message,
	}); err != nil {
		http.Error(w, failedToEncodeResponse, http.StatusInternalServerError)
		return
	}
}

func setupSignalHandling() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, signalBufferSize)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("shutdown signal received, stopping service")
		cancel()
	}()

	return ctx, cancel
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(exitCode)
	}

	loggerInstance := logger.Setup(cfg.LogLevel)
	slog.SetDefault(loggerInstance)

	dbPool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(exitCode)
	}
	defer dbPool.Close()

	redisClient, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{cfg.RedisAddr},
	})
	if err != nil {
		slog.Error("failed to connect to Redis", slog.String("error", err.Error()))
		os.Exit(exitCode)
	}
	defer redisClient.Close()

	rateResolver, err := rates.ParseStatic(cfg.Rates)
	if err != nil {
		slog.Error("failed to parse rate table", slog.String("error", err.Error()))
		os.Exit(exitCode)
	}

	pullPaymentRepo := repository.NewPullPaymentRepositoryImpl(dbPool)
	payoutRepo := repository.NewPayoutRepositoryImpl(dbPool)

	registry := service.NewHandlerRegistry()
	registry.Register(PaymentMethodManual, handler.NewManual(cfg.ManualMinimumAmount()))

	bus := events.NewBus()
	defer bus.Close()

	svc := service.NewService(pullPaymentRepo, payoutRepo, registry, bus,
		service.WithRateResolver(rateResolver),
		service.WithNotificationSender(notify.NewRedisNotificationSender(redisClient, cfg.NotificationStream)),
		service.WithMetrics(service.NewMetrics(prometheus.DefaultRegisterer)),
	)
	svc.Start()
	defer svc.Stop()

	ctx, cancel := setupSignalHandling()
	defer cancel()

	relay := events.NewRelay(redisClient, bus, cfg.EventStream, cfg.EventGroup, cfg.ConsumerName)
	relay.EnsureGroup(ctx)

	go relay.Run(ctx)

	server := NewAPIServer(svc, registry)

	mux := http.NewServeMux()
	mux.HandleFunc("/pull-payments", server.CreatePullPayment)
	mux.HandleFunc("/pull-payments/get", server.GetPullPayment)
	mux.HandleFunc("/pull-payments/claim", server.Claim)
	mux.HandleFunc("/payouts/approve", server.ApprovePayout)
	mux.HandleFunc("/payouts/mark-paid", server.MarkPaid)
	mux.HandleFunc("/payouts/cancel", server.Cancel)
	mux.HandleFunc("/health", server.HealthCheck)
	mux.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{Addr: ":" + cfg.Port, Handler: mux}

	go func() {
		<-ctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shut down server", slog.String("error", err.Error()))
		}
	}()

	slog.Info("starting API server", slog.String("service", "api"), slog.String("port", cfg.Port))

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("failed to start server", slog.String("error", err.Error()))
		return
	}
}
