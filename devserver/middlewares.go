package devserver

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Daskott/kontakt/auth"
	"github.com/Daskott/kontakt/colors"
)

type RequestContextKey string

const (
	decodedJWTKey    = RequestContextKey("decodedJWT")
	requestUserIDKey = RequestContextKey("requestUserID")
)

type DecodedJWT struct {
	Claims   *auth.TokenClaims
	ErrorMsg string
}

type ResponseWriterWithStatus struct {
	http.ResponseWriter
	Status int
}

func (r *ResponseWriterWithStatus) WriteHeader(status int) {
	r.Status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		responseWriter := &ResponseWriterWithStatus{
			ResponseWriter: w,
			Status:         200,
		}

		defer func() {
			responseStatus := colors.Green(responseWriter.Status)
			if responseWriter.Status >= 400 {
				responseStatus = colors.Red(responseWriter.Status)
			}

			s.logg.Infof("%v %v %v %v",
				r.Method,
				r.RequestURI,
				responseStatus,
				colors.Yellow(fmt.Sprintf("[%v]", time.Since(start))))
		}()

		next.ServeHTTP(responseWriter, r)
	})
}

func (s *Server) initialContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Content-Type", "application/json")

		ctx := context.WithValue(r.Context(), decodedJWTKey, s.decodeAndVerifyAuthHeader(r.Header.Get("Authorization")))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) protectedRouteMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decodedJWT := r.Context().Value(decodedJWTKey).(DecodedJWT)
		if decodedJWT.ErrorMsg != "" {
			writeError(w, decodedJWT.ErrorMsg, http.StatusUnauthorized)
			return
		}

		userID, _ := strconv.Atoi(decodedJWT.Claims.Subject)
		ctx := context.WithValue(r.Context(), requestUserIDKey, userID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) decodeAndVerifyAuthHeader(authHeaderValue string) DecodedJWT {
	authHeaderList := strings.Split(authHeaderValue, "Bearer ")
	if len(authHeaderList) < 2 || strings.TrimSpace(authHeaderList[1]) == "" {
		return DecodedJWT{ErrorMsg: "no token provided"}
	}

	tokenClaims, err := s.decodeJWT(authHeaderList[1])
	if err != nil {
		return DecodedJWT{ErrorMsg: "invalid token provided"}
	}

	// validate that the user account still exists
	userID, err := strconv.Atoi(tokenClaims.Subject)
	if err != nil || !s.data.userExists(userID) {
		return DecodedJWT{ErrorMsg: "invalid token provided"}
	}

	return DecodedJWT{Claims: tokenClaims}
}

func requestUserID(r *http.Request) int {
	return r.Context().Value(requestUserIDKey).(int)
}
