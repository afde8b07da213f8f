package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"

	"github.com/luckycast/backend/pkg/errorx"
	"github.com/luckycast/backend/pkg/xcontext"
)

// Router binds generic endpoints to a net/http mux. The seed function
// installs the process-wide context values (database, configs, logger) into
// every request context.
type Router struct {
	mux  *http.ServeMux
	seed func(context.Context) context.Context
}

func NewRouter(seed func(context.Context) context.Context) *Router {
	if seed == nil {
		seed = func(ctx context.Context) context.Context { return ctx }
	}

	return &Router{mux: http.NewServeMux(), seed: seed}
}

func (r *Router) Handler() http.Handler {
	return r.mux
}

type Endpoint[Request, Response any] struct {
	Method string
	Path   string
	Handle func(context.Context, *Request) (*Response, error)
}

func Register[Request, Response any](r *Router, e Endpoint[Request, Response]) {
	r.mux.HandleFunc(e.Path, func(w http.ResponseWriter, req *http.Request) {
		if req.Method != e.Method {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var body Request
		if err := bindRequest(req, e.Method, &body); err != nil {
			writeError(w, http.StatusBadRequest, errorx.New(errorx.BadRequest, "%s", err))
			return
		}

		ctx := r.seed(req.Context())
		resp, err := e.Handle(ctx, &body)
		if err != nil {
			var xerr errorx.Error
			if errors.As(err, &xerr) && xerr != errorx.Unknown {
				writeError(w, statusOf(xerr.Code), xerr)
			} else {
				writeError(w, http.StatusInternalServerError, errorx.Unknown)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot write response: %v", err)
		}
	})
}

func bindRequest(r *http.Request, method string, req any) error {
	switch method {
	case http.MethodGet, http.MethodDelete:
		v := reflect.ValueOf(req).Elem()
		for i := 0; i < v.NumField(); i++ {
			name := v.Type().Field(i).Tag.Get("json")
			queryVal := r.URL.Query().Get(name)
			if queryVal == "" {
				continue
			}

			switch v.Field(i).Kind() {
			case reflect.String:
				v.Field(i).SetString(queryVal)
			case reflect.Int:
				val, err := strconv.Atoi(queryVal)
				if err != nil {
					return err
				}

				v.Field(i).SetInt(int64(val))
			}
		}

		return nil

	default:
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return err
		}

		if len(b) == 0 {
			return nil
		}

		return json.Unmarshal(b, req)
	}
}

func statusOf(code errorx.Code) int {
	switch code {
	case errorx.NotFound:
		return http.StatusNotFound
	case errorx.PermissionDenied:
		return http.StatusForbidden
	case errorx.Unauthenticated:
		return http.StatusUnauthorized
	case errorx.Unavailable:
		return http.StatusServiceUnavailable
	case errorx.TooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadRequest
	}
}

func writeError(w http.ResponseWriter, status int, err errorx.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": err.Code, "message": err.Message},
	})
}
