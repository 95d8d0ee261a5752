package router

import (
	"github.com/gin-gonic/gin"
)

// RouteRegistrar mounts one area of the API on a router group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RegistrarFunc adapts a plain function to RouteRegistrar
type RegistrarFunc func(rg *gin.RouterGroup)

// RegisterRoutes implements RouteRegistrar
func (f RegistrarFunc) RegisterRoutes(rg *gin.RouterGroup) {
	f(rg)
}

// Guard mounts inner behind extra middleware without changing its paths
func Guard(inner RouteRegistrar, middleware ...gin.HandlerFunc) RouteRegistrar {
	return RegistrarFunc(func(rg *gin.RouterGroup) {
		inner.RegisterRoutes(rg.Group("", middleware...))
	})
}

// MountAPI creates /api/<version> behind middleware, run in order, and
// registers every registrar on it.
func MountAPI(engine *gin.Engine, version string, middleware []gin.HandlerFunc, registrars ...RouteRegistrar) *gin.RouterGroup {
	api := engine.Group("/api/"+version, middleware...)
	for _, r := range registrars {
		r.RegisterRoutes(api)
	}
	return api
}
