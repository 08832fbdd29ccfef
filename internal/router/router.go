// Package router dispatches one decoded request frame to the
// controller registered for its "METHOD:ACTION" route, grounded on
// original_source's MessageRouter (route-table lookup) and FastaRouter
// (frame-shape validation and dispatch), per SPEC_FULL.md §4.5.
package router

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"bioguard/internal/errs"
)

// HandlerFunc parses body per contentType, runs the operation, and
// returns the complete success response line (already status-prefixed
// by the controller) or an error for the router to map.
type HandlerFunc func(contentType, body string) (string, error)

// Router holds the "METHOD:ACTION" routing table.
type Router struct {
	routes map[string]HandlerFunc
	logger *zap.Logger
}

// New creates an empty Router.
func New(logger *zap.Logger) *Router {
	return &Router{routes: make(map[string]HandlerFunc), logger: logger}
}

// Register adds a route for "method:action" (e.g. "POST:patient").
func (r *Router) Register(method, action string, handler HandlerFunc) {
	r.routes[routeKey(method, action)] = handler
}

// Dispatch decodes one raw request frame and returns its response line.
// It never panics outward: any unexpected failure from a handler or
// from this function itself is substituted with the generic internal
// error line, matching SPEC_FULL.md §4.7 step 3's recovery contract.
func (r *Router) Dispatch(frame string) (response string) {
	defer func() {
		if recovered := recover(); recovered != nil {
			r.logger.Error("panic recovered while dispatching request", zap.Any("panic", recovered))
			response = errs.InternalErrorLine()
		}
	}()

	if strings.TrimSpace(frame) == "" {
		return errs.New(errs.MalformedReq, "la solicitud esta vacia").StatusLine()
	}

	parts := strings.SplitN(frame, "\n", 3)
	if len(parts) < 3 {
		return errs.New(errs.MalformedReq, "la solicitud debe contener linea de metodo, content-type y cuerpo").StatusLine()
	}

	methodLine := strings.TrimSpace(parts[0])
	methodFields := strings.Fields(methodLine)
	if len(methodFields) < 2 {
		return errs.New(errs.MalformedReq, "la linea de metodo debe contener METHOD y ACTION").StatusLine()
	}
	method, action := methodFields[0], methodFields[1]

	handler, ok := r.routes[routeKey(method, action)]
	if !ok {
		return errs.New(errs.RouteNotFound, fmt.Sprintf("no existe una ruta para %s %s", method, action)).StatusLine()
	}

	contentType := strings.TrimSpace(parts[1])
	body := parts[2]

	result, err := handler(contentType, body)
	if err != nil {
		if e, ok := errs.As(err); ok {
			return e.StatusLine()
		}
		r.logger.Error("unexpected error from handler", zap.Error(err))
		return errs.InternalErrorLine()
	}
	return result
}

func routeKey(method, action string) string {
	return strings.TrimSpace(method) + ":" + strings.TrimSpace(action)
}
