package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gofiber/schema"

	"github.com/prn-tf/monedero/internal/domain"
	"github.com/prn-tf/monedero/internal/repository"
)

// maxMultipartMemory bounds the in-memory part of multipart forms. Bodies are
// already capped by the router, so nothing spills to disk in practice.
const maxMultipartMemory = 1 << 20

// formDecoder maps form fields onto the same struct tags as JSON bodies.
var formDecoder = newFormDecoder()

func newFormDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.SetAliasTag("json")
	d.IgnoreUnknownKeys(true)
	return d
}

// decode reads the request body into dst. JSON, urlencoded and multipart
// forms are accepted. An empty body leaves dst untouched. Unknown fields are
// ignored, which also drops any owner supplied by the client.
func decode(r *http.Request, dst any) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return bodyError(err)
		}
		return decodeForm(dst, r.PostForm)
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return bodyError(err)
		}
		return decodeForm(dst, r.PostForm)
	default:
		err := json.NewDecoder(r.Body).Decode(dst)
		if err == nil || errors.Is(err, io.EOF) {
			return nil
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return domain.NewValidationError(typeErr.Field, "has the wrong type")
		}
		return bodyError(err)
	}
}

func decodeForm(dst any, values map[string][]string) error {
	err := formDecoder.Decode(dst, values)
	if err == nil {
		return nil
	}
	var multi schema.MultiError
	if errors.As(err, &multi) {
		v := &domain.Validator{}
		for field := range multi {
			v.Fail(field, "is invalid")
		}
		return v.Err()
	}
	return bodyError(err)
}

// bodyError reports an unreadable body. Oversized bodies keep their
// *http.MaxBytesError so they are answered with 413.
func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return tooLarge
	}
	return domain.NewValidationError("body", "is malformed")
}

// pathID parses the {id} URL parameter. Ids that cannot exist are reported
// as not found.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrNotFound
	}
	return id, nil
}

// listOptions reads offset, limit, from and to query parameters.
func listOptions(r *http.Request) (repository.ListOptions, error) {
	q := r.URL.Query()
	var (
		opts repository.ListOptions
		v    domain.Validator
	)
	if s := q.Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		v.Check(err == nil && n >= 0, "offset", "must be a non-negative integer")
		opts.Offset = n
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		v.Check(err == nil && n > 0, "limit", "must be a positive integer")
		opts.Limit = n
	}
	opts.From = queryDate(&v, q.Get("from"), "from")
	opts.To = queryDate(&v, q.Get("to"), "to")
	if err := v.Err(); err != nil {
		return repository.ListOptions{}, err
	}
	return opts, nil
}

// queryDate parses an optional YYYY-MM-DD query value.
func queryDate(v *domain.Validator, s, field string) domain.Date {
	if s == "" {
		return domain.Date{}
	}
	d, err := domain.ParseDate(s)
	v.Check(err == nil, field, "must be a date in YYYY-MM-DD format")
	return d
}

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
