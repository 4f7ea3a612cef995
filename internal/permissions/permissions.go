// Package permissions evaluates who may do what. A Policy is a list of
// request-level predicates and a list of object-level predicates; every
// predicate in both lists must pass.
package permissions

import (
	"errors"
	"net/http"
	"strings"

	"github.com/franciscosanchezn/gin-recipe-api/internal/metrics"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
)

var (
	ErrNotAuthenticated = errors.New("authentication credentials were not provided")
	ErrForbidden        = errors.New("you do not have permission to perform this action")
)

// Request is what a predicate sees about the current call.
type Request struct {
	Method string
	Path   string
	Actor  *models.Actor
}

// Owned is implemented by objects that have an author.
type Owned interface {
	OwnerID() uint
}

type RequestPredicate func(r Request) bool

type ObjectPredicate func(r Request, obj Owned) bool

type Policy struct {
	Request []RequestPredicate
	Object  []ObjectPredicate
}

// IsSafeMethod reports whether method only reads.
func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func isSelfPath(path string) bool {
	return strings.Contains(path+"/", "/me/")
}

// Authenticated passes only for an authenticated actor.
func Authenticated(r Request) bool {
	return r.Actor != nil
}

// AuthenticatedOrReadOnly lets anyone read, except "me" endpoints which, like
// every unsafe method, need an authenticated actor.
func AuthenticatedOrReadOnly(r Request) bool {
	if !IsSafeMethod(r.Method) || isSelfPath(r.Path) {
		return r.Actor != nil
	}
	return true
}

// UserAccess is AuthenticatedOrReadOnly plus anonymous sign-up, a POST to the
// user collection itself.
func UserAccess(r Request) bool {
	if r.Method == http.MethodPost && strings.HasSuffix(strings.TrimSuffix(r.Path, "/"), "/users") {
		return true
	}
	return AuthenticatedOrReadOnly(r)
}

// StaffOnly passes for staff and superusers.
func StaffOnly(r Request) bool {
	return r.Actor.IsStaff()
}

// AuthorStaffOrReadOnly lets anyone read an object; writes need the author or staff.
func AuthorStaffOrReadOnly(r Request, obj Owned) bool {
	if IsSafeMethod(r.Method) {
		return true
	}
	if r.Actor == nil {
		return false
	}
	return obj.OwnerID() == r.Actor.UserID || r.Actor.IsStaff()
}

var (
	RecipePolicy = Policy{
		Request: []RequestPredicate{AuthenticatedOrReadOnly},
		Object:  []ObjectPredicate{AuthorStaffOrReadOnly},
	}
	UserPolicy = Policy{
		Request: []RequestPredicate{UserAccess},
	}
	AuthenticatedPolicy = Policy{
		Request: []RequestPredicate{Authenticated},
	}
	StaffPolicy = Policy{
		Request: []RequestPredicate{Authenticated, StaffOnly},
	}
)

// CheckRequest runs the request-level predicates.
func (p Policy) CheckRequest(r Request) error {
	for _, pred := range p.Request {
		if !pred(r) {
			metrics.RecordPolicyDecision("request", false)
			return denial(r)
		}
	}
	metrics.RecordPolicyDecision("request", true)
	return nil
}

// CheckObject runs the request-level predicates and then the object-level ones.
func (p Policy) CheckObject(r Request, obj Owned) error {
	if err := p.CheckRequest(r); err != nil {
		return err
	}
	for _, pred := range p.Object {
		if !pred(r, obj) {
			metrics.RecordPolicyDecision("object", false)
			return denial(r)
		}
	}
	metrics.RecordPolicyDecision("object", true)
	return nil
}

func denial(r Request) error {
	if r.Actor == nil {
		return ErrNotAuthenticated
	}
	return ErrForbidden
}
