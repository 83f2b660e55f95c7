package rest

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ogurasousui/probation-workflow/internal/core/employee"
	"github.com/ogurasousui/probation-workflow/internal/core/evaluation"
	"go.uber.org/zap"
)

// RosterWriter は試用期間中の社員一覧をワークブックとして書き出します。
type RosterWriter interface {
	Write(ctx context.Context, w io.Writer) error
}

// Handler は REST API のハンドラーをまとめます。
type Handler struct {
	employees   employee.UseCase
	evaluations evaluation.UseCase
	roster      RosterWriter
}

// NewHandler は Handler を生成します。
func NewHandler(employees employee.UseCase, evaluations evaluation.UseCase, roster RosterWriter) *Handler {
	return &Handler{employees: employees, evaluations: evaluations, roster: roster}
}

// Options はルーターの横断的な設定です。
type Options struct {
	AllowedOrigins []string
	Authenticator  Authenticator
	Logger         *zap.Logger
}

// NewRouter は全ルートを登録した chi ルーターを生成します。
func NewRouter(h *Handler, opts Options) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders: []string{"Content-Disposition"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		if opts.Authenticator != nil {
			r.Use(authenticate(opts.Authenticator))
		}

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/eligible", h.ListEligibleEmployees)
			r.Get("/{id}", h.GetEmployee)
			r.Patch("/{id}", h.UpdateEmployee)
			r.Delete("/{id}", h.DeleteEmployee)
			r.Get("/{id}/probation-end-date", h.CalculateProbationEndDate)
			r.Post("/{id}/notes", h.AddEmployeeNote)
		})

		r.Route("/evaluations", func(r chi.Router) {
			r.Get("/", h.ListEvaluations)
			r.Post("/", h.CreateEvaluation)
			r.Get("/{id}", h.GetEvaluation)
			r.Post("/{id}/score", h.ScoreEvaluation)
			r.Post("/{id}/self-ratings", h.SubmitSelfRatings)
			r.Post("/{id}/manager-ratings", h.SubmitManagerRatings)
			r.Post("/{id}/submit", h.SubmitEvaluation)
			r.Post("/{id}/extend", h.ExtendProbation)
		})

		r.Get("/reports/probation-roster.xlsx", h.DownloadRoster)
	})

	return r
}
