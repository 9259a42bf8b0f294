package controllers

import (
	"net/http"

	"github.com/angelmondragon/bookstore-backend/api/responses"
	"github.com/angelmondragon/bookstore-backend/api/validators"
	"github.com/angelmondragon/bookstore-backend/internal/books"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
)

// BookGet serves GET /books/{bookId}.
func BookGet(svc books.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "book service unavailable"))
			return
		}

		id, err := validators.ParseIDParam(r, "bookId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		book, err := svc.GetBook(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, book)
	}
}
