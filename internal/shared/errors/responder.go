package errors

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
)

// ContentTypeProblemJSON is the media type of every error response.
const ContentTypeProblemJSON = "application/problem+json"

// ErrorMapper translates an application error into a problem. ok is false when the mapper
// does not recognise err.
type ErrorMapper func(err error) (problem ProblemDetail, ok bool)

// Responder writes problem documents. Mappers run in order on RespondError; unmapped
// errors become 500 internal errors.
type Responder struct {
	// BaseURI is prepended to relative problem types.
	BaseURI string
	// Now stamps the timestamp member.
	Now     func() time.Time
	mappers []ErrorMapper
}

// NewChainedResponder builds a responder that consults mappers before falling back.
func NewChainedResponder(baseURI string, mappers ...ErrorMapper) *Responder {
	return &Responder{BaseURI: baseURI, Now: time.Now, mappers: mappers}
}

// Respond writes problem with the problem+json content type. Besides the RFC 7807
// members the body carries a flat error message and a unix-millis timestamp.
func (r *Responder) Respond(c *gin.Context, problem ProblemDetail) {
	if r.BaseURI != "" && len(problem.Type) > 0 && problem.Type[0] == '/' {
		problem.Type = r.BaseURI + problem.Type
	}
	if problem.Instance == "" && c.Request != nil {
		problem.Instance = c.Request.URL.Path
	}
	if _, ok := problem.Extensions["error"]; !ok {
		problem = problem.WithExtension("error", problem.Message())
	}
	if _, ok := problem.Extensions["timestamp"]; !ok {
		now := r.Now
		if now == nil {
			now = time.Now
		}
		problem = problem.WithExtension("timestamp", now().UnixMilli())
	}
	c.Header("Content-Type", ContentTypeProblemJSON)
	c.JSON(problem.Status, problem)
}

// RespondError maps err to a problem and writes it.
func (r *Responder) RespondError(c *gin.Context, err error) {
	for _, mapper := range r.mappers {
		if problem, ok := mapper(err); ok {
			r.Respond(c, problem)
			return
		}
	}
	var problem ProblemDetail
	if errors.As(err, &problem) {
		r.Respond(c, problem)
		return
	}
	r.Respond(c, ErrInternal.WithDetail(err.Error()))
}
