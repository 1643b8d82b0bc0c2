package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"riskline/internal/annotator"
	"riskline/internal/config"
	"riskline/internal/detector"
	"riskline/internal/model"
	"riskline/internal/report"
	"riskline/internal/rules"
	"riskline/internal/store"
)

// Config for the HTTP API handler.
type Config struct {
	Store    store.Store
	Scan     *config.Config
	BasePath string
	Auth     AuthConfig
	Logger   *zap.Logger
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_found"`
	Message string         `json:"message" example:"run not found"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Riskline API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	if cfg.Scan == nil {
		cfg.Scan = config.Default()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}

	router := chi.NewRouter()
	router.Use(requestLogger(logger))
	router.Use(newAuthMiddleware(basePath, cfg.Auth))
	hcfg := huma.DefaultConfig("Riskline API", "0.1.0")
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group)
	registerScan(group, cfg, logger)
	registerRuns(group, cfg.Store)

	return router, nil
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Duration("elapsed", time.Since(start)))
		})
	}
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	if strings.Contains(lowered, "invalid") || strings.Contains(lowered, "required") {
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

// ScanRequest is a forest plus per-request scan options.
type ScanRequest struct {
	Trees      []model.TaskCallsInTree `json:"trees"`
	Collection string                  `json:"collection,omitempty"`
	PrePass    bool                    `json:"pre_pass,omitempty"`
	Save       bool                    `json:"save,omitempty"`
	Source     string                  `json:"source,omitempty"`
}

// ScanResponse carries both report shapes and, when saved, the run id.
type ScanResponse struct {
	Report    *report.Report `json:"report"`
	Narrative string         `json:"narrative"`
	RunID     string         `json:"run_id,omitempty"`
}

func registerScan(api huma.API, cfg Config, logger *zap.Logger) {
	huma.Register(api, huma.Operation{
		OperationID: "scan",
		Method:      http.MethodPost,
		Path:        "/scan",
		Summary:     "Run risk detection over a task-call forest",
	}, func(ctx context.Context, input *struct {
		Body ScanRequest
	}) (*struct {
		Body ScanResponse `json:"body"`
	}, error) {
		req := input.Body
		collection := req.Collection
		if collection == "" {
			collection = cfg.Scan.Scan.Collection
		}
		annotator.Apply(req.Trees, cfg.Scan.DisabledAnnotators())
		ruleSet := rules.Without(rules.All(), cfg.Scan.DisabledRules())
		narrative, rep := detector.Detect(req.Trees, ruleSet, detector.Options{
			CollectionName: collection,
			PrePass:        req.PrePass || cfg.Scan.Scan.PrePass,
			Logger:         logger,
		})
		resp := ScanResponse{Report: rep, Narrative: narrative}
		if req.Save {
			reportJSON, err := json.Marshal(rep)
			if err != nil {
				return nil, handleError(err)
			}
			run, err := cfg.Store.SaveRun(ctx, store.Run{
				Source:        req.Source,
				Collection:    collection,
				PlaybookTotal: rep.Summary["playbooks"].Total,
				PlaybookRisk:  rep.Summary["playbooks"].Risk,
				RoleTotal:     rep.Summary["roles"].Total,
				RoleRisk:      rep.Summary["roles"].Risk,
				Report:        reportJSON,
				Narrative:     narrative,
			})
			if err != nil {
				return nil, handleError(err)
			}
			resp.RunID = run.ID
		}
		return &struct {
			Body ScanResponse `json:"body"`
		}{Body: resp}, nil
	})
}

func registerRuns(api huma.API, st store.Store) {
	huma.Register(api, huma.Operation{
		OperationID: "list-runs",
		Method:      http.MethodGet,
		Path:        "/runs",
		Summary:     "List saved runs",
	}, func(ctx context.Context, input *struct {
		Limit int `query:"limit" default:"20"`
	}) (*struct {
		Body []store.Run `json:"body"`
	}, error) {
		runs, err := st.ListRuns(ctx, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []store.Run `json:"body"`
		}{Body: runs}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-run",
		Method:      http.MethodGet,
		Path:        "/runs/{run_id}",
		Summary:     "Get one saved run",
	}, func(ctx context.Context, input *struct {
		RunID string `path:"run_id"`
	}) (*struct {
		Body store.Run `json:"body"`
	}, error) {
		run, err := st.GetRun(ctx, input.RunID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body store.Run `json:"body"`
		}{Body: run}, nil
	})
}
