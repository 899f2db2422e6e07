package router

import (
	"net/http"

	"postboard/config"
	postHandler "postboard/internal/post"
	"postboard/internal/post/service"
	"postboard/middleware"
	"postboard/socket"
)

func Setup(svc *service.PostService, hub *socket.Hub, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// WebSocket change feed, read-only
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		socket.ServeWs(hub, w, r)
	})

	// REST API
	postHandler := postHandler.NewPostHandler(svc)

	mux.HandleFunc("/api/posts", postHandler.GetPosts)
	mux.HandleFunc("/api/posts/get", postHandler.GetPost)
	mux.HandleFunc("/api/posts/create", postHandler.CreatePost)
	mux.HandleFunc("/api/posts/update", postHandler.UpdatePost)
	mux.HandleFunc("/api/posts/delete", postHandler.DeletePost)
	mux.HandleFunc("/api/posts/clear", postHandler.ClearPosts)
	mux.HandleFunc("/api/posts/stats", postHandler.GetStats)
	mux.HandleFunc("/api/posts/export", postHandler.ExportPosts)
	mux.HandleFunc("/api/posts/import", postHandler.ImportPosts)
	mux.HandleFunc("/api/categories", postHandler.GetCategories)

	// HTML feed
	mux.HandleFunc("/feed", postHandler.Feed)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	cors := middleware.CORSMiddleware(cfg.CORSAllowedOrigins)
	limit := middleware.RateLimit(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)
	return middleware.RequestLogger(cors(limit(mux)))
}
