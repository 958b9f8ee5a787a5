package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

type messageBody struct {
	Message string `json:"message"`
}

// respondWithJSON writes payload as JSON with the given status code.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Printf("encode response: %v", err)
		code = http.StatusInternalServerError
		response = []byte(`{"message":"Internal Server Error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func respondWithMessage(w http.ResponseWriter, code int, msg string) {
	respondWithJSON(w, code, messageBody{Message: msg})
}

// httpStatus maps the service error taxonomy onto HTTP.
func httpStatus(c codes.Code) int {
	switch c {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondWithError converts a service error into a response. Internal details are
// logged and never sent to the client.
func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	st := status.Convert(err)
	code := httpStatus(st.Code())
	if code == http.StatusInternalServerError {
		log.Printf("%s %s request_id=%s: %v", r.Method, r.URL.Path, requestIDFrom(r.Context()), err)
		respondWithMessage(w, code, "Internal Server Error")
		return
	}
	respondWithMessage(w, code, st.Message())
}

// decodeJSON reads a single JSON object from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return status.Error(codes.InvalidArgument, "Request body is required")
		}
		return status.Error(codes.InvalidArgument, "Invalid request payload")
	}
	return nil
}
