// Package devserver is a local implementation of the contacts backend,
// used by 'kontakt devserver' and by tests. Data lives in memory only.
package devserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Daskott/kontakt/auth"
	"github.com/go-playground/validator"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	contactsPath = "/api/contacts"
	uploadsPath  = "/uploads"

	tokenTTL = 24 * time.Hour
)

type Server struct {
	router   *mux.Router
	data     *memoryStore
	secret   []byte
	validate *validator.Validate
	logg     *zap.SugaredLogger

	// PasswordCost is the bcrypt cost used for new accounts
	PasswordCost int
}

func New(secret string, logg *zap.SugaredLogger) *Server {
	server := &Server{
		data:         newMemoryStore(),
		secret:       []byte(secret),
		validate:     newValidator(),
		logg:         logg,
		PasswordCost: bcrypt.DefaultCost,
	}
	server.router = server.routes()

	return server
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.loggingMiddleware)
	router.Use(s.initialContextMiddleware)

	router.HandleFunc(auth.RegisterPath, s.register).Methods(http.MethodPost)
	router.HandleFunc(auth.LoginPath, s.logIn).Methods(http.MethodPost)
	router.HandleFunc(uploadsPath+"/{name}", s.findUpload).Methods(http.MethodGet)

	protected := router.PathPrefix(contactsPath).Subrouter()
	protected.Use(s.protectedRouteMiddleware)
	protected.HandleFunc("", s.listContacts).Methods(http.MethodGet)
	protected.HandleFunc("", s.createContact).Methods(http.MethodPost)
	protected.HandleFunc("/search", s.searchContacts).Methods(http.MethodGet)
	protected.HandleFunc("/{id:[0-9]+}", s.findContact).Methods(http.MethodGet)
	protected.HandleFunc("/{id:[0-9]+}", s.updateContact).Methods(http.MethodPatch)
	protected.HandleFunc("/{id:[0-9]+}", s.deleteContact).Methods(http.MethodDelete)

	router.NotFoundHandler = http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		writeError(rw, "route not found", http.StatusNotFound)
	})

	return router
}

// ListenAndServe serves on port until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%v", port),
		Handler: s.Handler(),
	}

	errs := make(chan error, 1)
	go func() {
		s.logg.Infof("Kontakt dev server is listening on port:%v", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	ctxShutDown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutDown); err != nil {
		return fmt.Errorf("dev server shutdown failed: %v", err)
	}

	s.logg.Infof("Kontakt dev server stopped properly")
	return nil
}
