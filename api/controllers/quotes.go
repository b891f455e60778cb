package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/omanfreight/quote-service/api/middleware"
	"github.com/omanfreight/quote-service/api/responses"
	"github.com/omanfreight/quote-service/api/validators"
	"github.com/omanfreight/quote-service/internal/pricing"
	"github.com/omanfreight/quote-service/internal/quotes"
	pkgerrors "github.com/omanfreight/quote-service/pkg/errors"
	"github.com/omanfreight/quote-service/pkg/logger"
)

// QuoteCalculate prices a quote without storing it.
func QuoteCalculate(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		var payload pricing.Request
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Calculate(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quotes.FromResult(*result))
	}
}

// QuoteSubmit prices, stores and queues a quote for follow-up.
func QuoteSubmit(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		var payload quotes.SubmitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Submit(r.Context(), quotes.SubmitInput{
			Request:  payload,
			ClientIP: middleware.ClientIPFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.Header().Set("Location", "/api/v1/quotes/"+created.Reference)
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func QuoteGet(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		quote, err := svc.GetByReference(r.Context(), chi.URLParam(r, "reference"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}
