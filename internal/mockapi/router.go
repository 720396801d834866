package mockapi

import (
	"strings"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
)

// newRouter mounts the API under prefix; only /health lives at the root.
func newRouter(a *API, prefix string, auth func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()
	r.GET("/health", a.Health)

	var api routes = r
	if p := strings.Trim(prefix, "/"); p != "" {
		api = r.Group("/" + p)
	}

	api.POST("/auth/login", a.Login)
	api.POST("/auth/register", a.Register)
	api.POST("/auth/verify-email", a.VerifyEmail)
	api.POST("/auth/resend-verification", a.ResendVerification)
	api.GET("/auth/me", auth(a.Me))

	api.GET("/schedule", auth(a.ListSchedule))
	api.POST("/schedule", auth(a.CreateScheduleEntry))
	api.GET("/schedule/{id}", auth(a.GetScheduleEntry))
	api.PUT("/schedule/{id}", auth(a.UpdateScheduleEntry))
	api.DELETE("/schedule/{id}", auth(a.DeleteScheduleEntry))

	api.GET("/change-requests", auth(a.ListChangeRequests))
	api.POST("/change-requests", auth(a.CreateChangeRequest))
	api.GET("/change-requests/{id}", auth(a.GetChangeRequest))
	api.PUT("/change-requests/{id}", auth(a.UpdateChangeRequest))

	mountDirectory(api, "/groups", a, groupsResource, auth, true)
	mountDirectory(api, "/teachers", a, teachersResource, auth, true)
	mountDirectory(api, "/classrooms", a, classroomsResource, auth, true)
	mountDirectory(api, "/subjects", a, subjectsResource, auth, false)
	mountDirectory(api, "/time-slots", a, timeSlotsResource, auth, false)

	api.GET("/notifications", auth(a.ListNotifications))
	api.PUT("/notifications/mark-all-read", auth(a.MarkAllNotificationsRead))
	api.PUT("/notifications/{id}/read", auth(a.MarkNotificationRead))
	api.DELETE("/notifications/{id}", auth(a.DeleteNotification))

	return r
}

// routes is the registration surface shared by *router.Router and *router.Group.
type routes interface {
	GET(path string, handler fasthttp.RequestHandler)
	POST(path string, handler fasthttp.RequestHandler)
	PUT(path string, handler fasthttp.RequestHandler)
	DELETE(path string, handler fasthttp.RequestHandler)
}

func mountDirectory[T any](g routes, path string, a *API, res resource[T], auth func(fasthttp.RequestHandler) fasthttp.RequestHandler, editable bool) {
	g.GET(path, auth(listHandler(a, res)))
	g.POST(path, auth(createHandler(a, res)))
	if editable {
		g.PUT(path+"/{id}", auth(updateHandler(a, res)))
		g.DELETE(path+"/{id}", auth(deleteHandler(a, res)))
	}
}
