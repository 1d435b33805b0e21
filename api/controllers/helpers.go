package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/pawpantry/storefront-api/api/middleware"
	"github.com/pawpantry/storefront-api/api/validators"
	pkgerrors "github.com/pawpantry/storefront-api/pkg/errors"
	"github.com/pawpantry/storefront-api/pkg/pagination"
)

func callerID(r *http.Request) (uuid.UUID, error) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return id, nil
}

func optionalCallerID(r *http.Request) *uuid.UUID {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return nil
	}
	return &id
}

func pageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}

func unavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" unavailable")
}
