package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/certcat/certcat/docs" // generated swagger docs
	appMiddleware "github.com/certcat/certcat/internal/middleware"
	"github.com/certcat/certcat/internal/response"
)

type Router struct {
	templateHandler    *TemplateHandler
	editorHandler      *EditorHandler
	certificateHandler *CertificateHandler
	uploadHandler      *UploadHandler
	jwtSecret          string
}

func NewRouter(
	templateHandler *TemplateHandler,
	editorHandler *EditorHandler,
	certificateHandler *CertificateHandler,
	uploadHandler *UploadHandler,
	jwtSecret string,
) *Router {
	return &Router{
		templateHandler:    templateHandler,
		editorHandler:      editorHandler,
		certificateHandler: certificateHandler,
		uploadHandler:      uploadHandler,
		jwtSecret:          jwtSecret,
	}
}

func (ro *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, "Server is running", map[string]string{"status": "ok"})
	})

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Route("/api/v1", func(r chi.Router) {

		// public verification surface, consumed by the QR code
		r.Route("/verify", func(r chi.Router) {
			r.Get("/{id}", ro.certificateHandler.Verify)
			r.Get("/{id}/download", ro.certificateHandler.Download)
			r.Get("/{id}/preview", ro.certificateHandler.Preview)
		})

		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.Authenticate(ro.jwtSecret))

			r.Route("/templates", func(r chi.Router) {
				r.Get("/", ro.templateHandler.List)
				r.Post("/", ro.templateHandler.Create)
				r.Get("/options", ro.templateHandler.Options)
				r.Get("/{id}", ro.templateHandler.Get)
				r.Put("/{id}", ro.templateHandler.Update)
				r.Delete("/{id}", ro.templateHandler.Delete)

				r.Route("/{id}/editor", func(r chi.Router) {
					r.Post("/open", ro.editorHandler.Open)
					r.Get("/", ro.editorHandler.State)
					r.Delete("/", ro.editorHandler.Close)
					r.Post("/pointer", ro.editorHandler.Pointer)
					r.Post("/elements", ro.editorHandler.AddElement)
					r.Patch("/elements/{index}", ro.editorHandler.UpdateElement)
					r.Delete("/elements/{index}", ro.editorHandler.DeleteElement)
					r.Post("/elements/{index}/duplicate", ro.editorHandler.DuplicateElement)
					r.Post("/elements/{index}/layer", ro.editorHandler.MoveLayer)
					r.Post("/elements/{index}/toggle", ro.editorHandler.Toggle)
					r.Post("/undo", ro.editorHandler.Undo)
					r.Post("/redo", ro.editorHandler.Redo)
					r.Post("/save", ro.editorHandler.Save)
				})
			})

			r.Route("/certificates", func(r chi.Router) {
				r.Get("/", ro.certificateHandler.List)
				r.Post("/generate", ro.certificateHandler.Generate)
				r.Post("/test", ro.certificateHandler.GenerateTest)
				r.Get("/capacity", ro.certificateHandler.Capacity)
				r.Delete("/{id}", ro.certificateHandler.Delete)
			})

			r.Route("/uploads", func(r chi.Router) {
				r.Post("/background", ro.uploadHandler.Background)
				r.Post("/element", ro.uploadHandler.Element)
			})
		})
	})

	return r
}
