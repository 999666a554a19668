package router

import (
	"github.com/gin-gonic/gin"

	"github.com/quoteflow/backend/internal/interfaces/http/middleware"
)

// apiPrefix is where every versioned endpoint lives
const apiPrefix = "/api/v1"

// route is a single endpoint. permission is checked after authentication;
// routes in public groups leave it empty.
type route struct {
	method     string
	path       string
	permission string
	handler    gin.HandlerFunc
}

// routeGroup is a set of routes mounted under one prefix with shared middleware
type routeGroup struct {
	prefix     string
	middleware []gin.HandlerFunc
	routes     []route
}

func (g *routeGroup) use(mw ...gin.HandlerFunc) {
	g.middleware = append(g.middleware, mw...)
}

func (g *routeGroup) add(method, path, permission string, h gin.HandlerFunc) {
	g.routes = append(g.routes, route{method: method, path: path, permission: permission, handler: h})
}

func (g *routeGroup) mount(parent *gin.RouterGroup) {
	group := parent.Group(g.prefix, g.middleware...)
	for _, r := range g.routes {
		if r.permission == "" {
			group.Handle(r.method, r.path, r.handler)
			continue
		}
		group.Handle(r.method, r.path, middleware.RequirePermission(r.permission), r.handler)
	}
}

// mountAPI attaches the groups below apiPrefix
func mountAPI(engine *gin.Engine, groups ...*routeGroup) {
	api := engine.Group(apiPrefix)
	for _, g := range groups {
		g.mount(api)
	}
}
