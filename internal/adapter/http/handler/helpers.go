package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"strconv"
	"strings"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	t "github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/Temutjin2k/fleet-ledger/pkg/logger"
	wrap "github.com/Temutjin2k/fleet-ledger/pkg/logger/wrapper"
	"github.com/google/uuid"
)

type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, data envelope, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return errors.New("failed to encode json")
	}

	js = append(js, '\n')

	maps.Copy(w.Header(), headers)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js)

	return nil
}

func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	maxBytes := 1_048_576
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		// encoding/json has no typed error for unknown fields (golang/go#29035).
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)
		case errors.As(err, &invalidUnmarshalError):
			return fmt.Errorf("invalid unmarshal error: %w", err)
		default:
			return err
		}
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

// readOptionalJSON is readJSON for endpoints whose body may be omitted.
func readOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return readJSON(w, r, dst)
}

// GetCode maps an error kind onto an HTTP status.
func GetCode(err error) int {
	switch {
	case t.IsOneOf(err, t.ErrValidation, t.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case t.IsOneOf(err, t.ErrNotFound):
		return http.StatusNotFound
	case t.IsOneOf(err, t.ErrConflict, t.ErrInvalidState):
		return http.StatusConflict
	case t.IsOneOf(err, t.ErrForbidden):
		return http.StatusForbidden
	case t.IsOneOf(err, t.ErrUnauthorized):
		return http.StatusUnauthorized
	case t.IsOneOf(err, t.ErrMaintenance):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// serviceError logs err and writes the matching response. Server errors are
// logged with the context of the failure site and hidden from the client.
func serviceError(ctx context.Context, w http.ResponseWriter, l logger.Logger, msg string, err error) {
	code := GetCode(err)
	if code == http.StatusInternalServerError {
		l.Error(wrap.ErrorCtx(ctx, err), msg, err)
		internalErrorResponse(w, InternalErrorMessage)
		return
	}

	l.Warn(ctx, msg, "error", err.Error(), "status", code)

	var verr *t.ValidationError
	if errors.As(err, &verr) {
		failedValidationResponse(w, verr.Fields)
		return
	}
	errorResponse(w, code, err.Error())
}

func respond(ctx context.Context, w http.ResponseWriter, l logger.Logger, status int, data envelope) {
	if err := writeJSON(w, status, data, nil); err != nil {
		l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s format", name)
	}
	return id, nil
}

// queryInt reads an integer query parameter, falling back to def when absent.
func queryInt(r *http.Request, key string, def int) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}

// ownedPathID parses a path id the caller must own; admins own every id.
func ownedPathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := pathID(r, name)
	if err != nil {
		badRequestResponse(w, err.Error())
		return uuid.Nil, false
	}
	if !models.UserFromContext(r.Context()).Owns(id) {
		forbiddenResponse(w)
		return uuid.Nil, false
	}
	return id, true
}

// selfPathID is ownedPathID without the admin exception.
func selfPathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := pathID(r, name)
	if err != nil {
		badRequestResponse(w, err.Error())
		return uuid.Nil, false
	}
	if models.UserFromContext(r.Context()).ID != id {
		forbiddenResponse(w)
		return uuid.Nil, false
	}
	return id, true
}
