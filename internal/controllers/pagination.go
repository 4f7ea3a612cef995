package controllers

import (
	"net/url"
	"strconv"

	"github.com/franciscosanchezn/gin-recipe-api/internal/dto"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/gin-gonic/gin"
)

// pageFromQuery reads ?page= and ?limit=, using defaultLimit when limit is absent.
func pageFromQuery(ctx *gin.Context, defaultLimit int) services.Page {
	return services.Page{
		Number: queryInt(ctx, "page", 1),
		Limit:  queryInt(ctx, "limit", defaultLimit),
	}.Normalize()
}

// newPage wraps results with the count and absolute next/previous links.
func newPage[T any](ctx *gin.Context, page services.Page, total int64, results []T) dto.Page[T] {
	if results == nil {
		results = []T{}
	}
	p := dto.Page[T]{Count: total, Results: results}
	if int64(page.Number)*int64(page.Limit) < total {
		next := pageURL(ctx, page.Number+1)
		p.Next = &next
	}
	if page.Number > 1 {
		prev := pageURL(ctx, page.Number-1)
		p.Previous = &prev
	}
	return p
}

func pageURL(ctx *gin.Context, number int) string {
	scheme := "http"
	if ctx.Request.TLS != nil {
		scheme = "https"
	}
	if proto := ctx.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	u := url.URL{Scheme: scheme, Host: ctx.Request.Host, Path: ctx.Request.URL.Path}
	q := ctx.Request.URL.Query()
	q.Set("page", strconv.Itoa(number))
	u.RawQuery = q.Encode()
	return u.String()
}
