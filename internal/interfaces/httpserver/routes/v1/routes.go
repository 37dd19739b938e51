package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/artsyhq/mediastream/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
}

func NewRoutes(provider *handlers.Provider) *Routes {
	return &Routes{handlers: provider}
}

// Register attaches all v1 routes under the /v1 prefix.
func (r *Routes) Register(router gin.IRouter) {
	group := router.Group("/v1")
	group.POST("/videos", r.handlers.Media.UploadVideo)
	group.GET("/videos", r.handlers.Media.ListVideos)
	group.GET("/videos/presigned-url", r.handlers.Media.PresignUpload)
	group.GET("/videos/stream/:prefix/:chunk", r.handlers.Media.StreamChunk)
	group.POST("/photos", r.handlers.Media.UploadPhoto)
}
