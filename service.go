package extract

import (
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Service allows a group of related endpoints to be started together
// on a gorilla mux.Router.  All endpoints of a service share the
// options given to NewService.
//
// Endpoints can be registered before the service is started, for
// example from init() next to the code that implements them.  They
// are not bound to the router until Start is called.  Endpoints
// registered after Start are bound immediately.
//
// A path may be registered more than once, typically with different
// Methods, so that each method gets its own chain.  Registrations for
// one path are bound in the order they were made.
type Service struct {
	Name      string
	options   []Option
	logger    *zap.Logger
	endpoints map[string][]*EndpointRegistration
	router    *mux.Router
	lock      sync.Mutex
}

// EndpointRegistration is one endpoint of a Service.
type EndpointRegistration struct {
	path      string
	handler   http.HandlerFunc
	muxroutes []func(*mux.Route) *mux.Route
	route     *mux.Route
}

// NewService creates a service that is not yet bound to a router.
// The name is used in log messages and panics.
func NewService(name string, opts ...Option) *Service {
	return &Service{
		Name:      name,
		options:   opts,
		logger:    newConfig(opts...).logger,
		endpoints: make(map[string][]*EndpointRegistration),
	}
}

// Register adds an endpoint that runs c and then fn for requests to
// path.  path may use gorilla/mux variables such as "/users/{id}".
func Register[A Aggregate](s *Service, path string, c Chain[A], fn HandlerFunc[A]) *EndpointRegistration {
	s.lock.Lock()
	defer s.lock.Unlock()
	r := &EndpointRegistration{
		path:    path,
		handler: Handler(c, fn, s.options...),
	}
	s.endpoints[path] = append(s.endpoints[path], r)
	if s.router != nil {
		s.bind(r)
	}
	return r
}

// Start binds every registered endpoint to router.  Start may only be
// called once.
func (s *Service) Start(router *mux.Router) *Service {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.router != nil {
		panic(fmt.Sprintf("%s: duplicate call to Start()", s.Name))
	}
	s.router = router
	for _, path := range s.paths() {
		for _, r := range s.endpoints[path] {
			s.bind(r)
		}
	}
	return s
}

// Paths lists the registered endpoint paths in sorted order.  A path
// registered several times is listed once.
func (s *Service) Paths() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.paths()
}

func (s *Service) paths() []string {
	paths := make([]string, 0, len(s.endpoints))
	for path := range s.endpoints {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func (s *Service) bind(r *EndpointRegistration) {
	r.route = s.router.HandleFunc(r.path, r.handler)
	for _, mod := range r.muxroutes {
		r.route = mod(r.route)
	}
	s.logger.Debug("endpoint bound",
		zap.String("service", s.Name),
		zap.String("path", r.path))
}

// Methods restricts the endpoint to the given HTTP methods.  When the
// service has not started yet, the restriction is applied at Start.
func (r *EndpointRegistration) Methods(methods ...string) *EndpointRegistration {
	return r.modify(func(route *mux.Route) *mux.Route {
		return route.Methods(methods...)
	})
}

// Headers restricts the endpoint to requests carrying the given
// header key/value pairs, as mux.Route.Headers does.
func (r *EndpointRegistration) Headers(pairs ...string) *EndpointRegistration {
	return r.modify(func(route *mux.Route) *mux.Route {
		return route.Headers(pairs...)
	})
}

// Route returns the bound mux.Route, or nil before the service starts.
func (r *EndpointRegistration) Route() *mux.Route { return r.route }

// Path returns the path the endpoint was registered with.
func (r *EndpointRegistration) Path() string { return r.path }

func (r *EndpointRegistration) modify(mod func(*mux.Route) *mux.Route) *EndpointRegistration {
	if r.route != nil {
		r.route = mod(r.route)
		return r
	}
	r.muxroutes = append(r.muxroutes, mod)
	return r
}
