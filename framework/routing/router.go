package routing

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/km-arc/go-di/framework/container"
	gohttp "github.com/km-arc/go-di/framework/http"
)

// Router wraps chi.Router. Besides plain handlers it routes to container
// identifiers, resolved on every request.
type Router struct {
	mux       chi.Router
	container container.ContainerInterface
	logger    *zap.Logger
	debug     bool
}

// Option configures a Router.
type Option func(*Router)

// WithLogger logs resolution failures.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Router) { r.logger = logger }
}

// WithDebug puts resolution errors in the body of 500 responses.
func WithDebug(debug bool) Option {
	return func(r *Router) { r.debug = debug }
}

// New creates a Router with sane defaults (Recoverer, RealIP). c resolves the
// identifiers passed to Handle and Use.
func New(c container.ContainerInterface, opts ...Option) *Router {
	mx := chi.NewRouter()
	mx.Use(middleware.Recoverer)
	mx.Use(middleware.RealIP)
	r := &Router{mux: mx, container: c, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Router) sub(mx chi.Router) *Router {
	return &Router{mux: mx, container: r.container, logger: r.logger, debug: r.debug}
}

// ── HTTP verbs ───────────────────────────────────────────────────────────────

func (r *Router) Get(pattern string, h http.HandlerFunc)    { r.mux.Get(pattern, h) }
func (r *Router) Post(pattern string, h http.HandlerFunc)   { r.mux.Post(pattern, h) }
func (r *Router) Put(pattern string, h http.HandlerFunc)    { r.mux.Put(pattern, h) }
func (r *Router) Patch(pattern string, h http.HandlerFunc)  { r.mux.Patch(pattern, h) }
func (r *Router) Delete(pattern string, h http.HandlerFunc) { r.mux.Delete(pattern, h) }

// Any registers a handler for all common HTTP methods.
func (r *Router) Any(pattern string, h http.HandlerFunc) {
	for _, m := range []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"} {
		r.mux.Method(m, pattern, h)
	}
}

// ── Container-resolved routes ────────────────────────────────────────────────

// Handle routes method and pattern to the handler registered under id. The
// id is resolved per request, so transient definitions give each request a
// fresh handler. Resolution failures answer 500.
//
//	c.Set("cars.index", container.Fn(NewCarsIndex, container.Param("repo")))
//	router.Handle(http.MethodGet, "/cars", "cars.index")
func (r *Router) Handle(method, pattern, id string) {
	r.mux.Method(method, pattern, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		h, err := r.resolveHandler(id)
		if err != nil {
			r.fail(w, id, err)
			return
		}
		h.ServeHTTP(w, req)
	}))
}

// Use adds middleware registered in the container under ids. Each is
// resolved per request.
func (r *Router) Use(ids ...string) {
	for _, id := range ids {
		id := id // per-iteration copy; module targets go 1.21 (pre-1.22 loop semantics)
		r.mux.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				mw, err := r.resolveMiddleware(id)
				if err != nil {
					r.fail(w, id, err)
					return
				}
				mw(next).ServeHTTP(w, req)
			})
		})
	}
}

// MiddlewareHandler is implemented by middleware objects kept in the container.
type MiddlewareHandler interface {
	Handle(next http.Handler) http.Handler
}

func (r *Router) resolveHandler(id string) (http.Handler, error) {
	v, err := r.container.Get(id)
	if err != nil {
		return nil, err
	}
	switch h := v.(type) {
	case http.Handler:
		return h, nil
	case func(http.ResponseWriter, *http.Request):
		return http.HandlerFunc(h), nil
	}
	return nil, errors.Errorf("[%s] resolved to %T, not an http.Handler", id, v)
}

func (r *Router) resolveMiddleware(id string) (func(http.Handler) http.Handler, error) {
	v, err := r.container.Get(id)
	if err != nil {
		return nil, err
	}
	switch mw := v.(type) {
	case func(http.Handler) http.Handler:
		return mw, nil
	case MiddlewareHandler:
		return mw.Handle, nil
	}
	return nil, errors.Errorf("[%s] resolved to %T, not a middleware", id, v)
}

func (r *Router) fail(w http.ResponseWriter, id string, err error) {
	r.logger.Error("route resolution failed", zap.String("id", id), zap.Error(err))
	res := gohttp.NewResponse(w)
	if r.debug {
		res.Error(http.StatusInternalServerError, err.Error())
		return
	}
	res.ServerError()
}

// ── Resource routes ──────────────────────────────────────────────────────────

// ResourceController handles the standard RESTful routes of a resource.
//
//	GET    /photos           → c.Index
//	POST   /photos           → c.Store
//	GET    /photos/{id}      → c.Show
//	PUT    /photos/{id}      → c.Update
//	DELETE /photos/{id}      → c.Destroy
type ResourceController interface {
	Index(w http.ResponseWriter, r *http.Request)
	Store(w http.ResponseWriter, r *http.Request)
	Show(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Destroy(w http.ResponseWriter, r *http.Request)
}

// Resource registers the RESTful routes of the controller registered under id.
func (r *Router) Resource(pattern, id string) {
	action := func(pick func(ResourceController) http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, req *http.Request) {
			v, err := r.container.Get(id)
			if err != nil {
				r.fail(w, id, err)
				return
			}
			ctrl, ok := v.(ResourceController)
			if !ok {
				r.fail(w, id, errors.Errorf("[%s] resolved to %T, not a ResourceController", id, v))
				return
			}
			pick(ctrl)(w, req)
		}
	}
	r.mux.Get(pattern, action(func(c ResourceController) http.HandlerFunc { return c.Index }))
	r.mux.Post(pattern, action(func(c ResourceController) http.HandlerFunc { return c.Store }))
	r.mux.Get(pattern+"/{id}", action(func(c ResourceController) http.HandlerFunc { return c.Show }))
	r.mux.Put(pattern+"/{id}", action(func(c ResourceController) http.HandlerFunc { return c.Update }))
	r.mux.Patch(pattern+"/{id}", action(func(c ResourceController) http.HandlerFunc { return c.Update }))
	r.mux.Delete(pattern+"/{id}", action(func(c ResourceController) http.HandlerFunc { return c.Destroy }))
}

// ── Groups & Prefixes ────────────────────────────────────────────────────────

// Group creates an inline group sharing the parent's path.
func (r *Router) Group(fn func(r *Router)) {
	r.mux.Group(func(mx chi.Router) {
		fn(r.sub(mx))
	})
}

// Prefix creates a sub-router with a URL prefix.
func (r *Router) Prefix(pattern string, fn func(r *Router)) {
	r.mux.Route(pattern, func(mx chi.Router) {
		fn(r.sub(mx))
	})
}

// ── Middleware ───────────────────────────────────────────────────────────────

// Middleware adds one or more middleware to the router.
func (r *Router) Middleware(mw ...func(http.Handler) http.Handler) {
	r.mux.Use(mw...)
}

// ── Params ───────────────────────────────────────────────────────────────────

// Param extracts a URL param.
func Param(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

// ── Serve ────────────────────────────────────────────────────────────────────

// ServeHTTP implements http.Handler so Router can be mounted on any server.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Handler returns the underlying http.Handler (for testing etc.).
func (r *Router) Handler() http.Handler {
	return r.mux
}
