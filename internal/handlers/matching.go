package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/andriarta/payrecon/internal/apperrors"
	"github.com/andriarta/payrecon/internal/handlers/render"
	"github.com/andriarta/payrecon/internal/logger"
	"github.com/andriarta/payrecon/internal/models"
	"github.com/andriarta/payrecon/internal/repository"
)

type matchDetailsResponse struct {
	VAMatch            bool    `json:"vaMatch"`
	AmountMatch        bool    `json:"amountMatch"`
	DateProximityHours float64 `json:"dateProximityHours"`
}

type matchResponse struct {
	ID              string               `json:"id"`
	WebreportID     string               `json:"webreportId"`
	BankStatementID string               `json:"bankStatementId"`
	MatchScore      int                  `json:"matchScore"`
	MatchDetails    matchDetailsResponse `json:"matchDetails"`
	Status          string               `json:"status"`
	VerifiedBy      string               `json:"verifiedBy,omitempty"`
	VerifiedAt      *time.Time           `json:"verifiedAt,omitempty"`
	Notes           string               `json:"notes,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
}

func toMatchResponse(m models.MatchingResult) matchResponse {
	return matchResponse{
		ID:              m.ID.String(),
		WebreportID:     m.WebreportID.String(),
		BankStatementID: m.BankStatementID.String(),
		MatchScore:      m.MatchScore,
		MatchDetails: matchDetailsResponse{
			VAMatch:            m.MatchDetails.VAMatch,
			AmountMatch:        m.MatchDetails.AmountMatch,
			DateProximityHours: m.MatchDetails.DateProximityHours,
		},
		Status:     m.Status,
		VerifiedBy: m.VerifiedBy,
		VerifiedAt: m.VerifiedAt,
		Notes:      m.Notes,
		CreatedAt:  m.CreatedAt,
	}
}

func handleRunMatching(matchingService matchingService, l logger.Logger) http.Handler {
	type response struct {
		Matched             []matchResponse     `json:"matched"`
		UnmatchedWebreports []webreportResponse `json:"unmatchedWebreports"`
		UnmatchedStatements []statementResponse `json:"unmatchedBankStatements"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		runReport, err := matchingService.RunMatching(r.Context())
		if err != nil {
			l.Error("Matching run failed", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		resp := response{
			Matched:             make([]matchResponse, 0, len(runReport.Matched)),
			UnmatchedWebreports: make([]webreportResponse, 0, len(runReport.UnmatchedWebreports)),
			UnmatchedStatements: make([]statementResponse, 0, len(runReport.UnmatchedStatements)),
		}
		for _, match := range runReport.Matched {
			resp.Matched = append(resp.Matched, toMatchResponse(match))
		}
		for _, webreport := range runReport.UnmatchedWebreports {
			resp.UnmatchedWebreports = append(resp.UnmatchedWebreports, toWebreportResponse(webreport))
		}
		for _, statement := range runReport.UnmatchedStatements {
			resp.UnmatchedStatements = append(resp.UnmatchedStatements, toStatementResponse(statement))
		}

		render.JSON(w, resp)
	})
}

func handleListMatches(storage repository.Storage, l logger.Logger) http.Handler {
	type response struct {
		Data    []matchResponse `json:"data"`
		Total   int             `json:"total"`
		Pending int             `json:"pending"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		matches, err := storage.Match().List(r.Context(), repository.ListMatchesOpts{
			Statuses: statusFilter(r),
		})
		if err != nil {
			l.Error("Failed to list matching results", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data := make([]matchResponse, 0, len(matches))
		pending := 0
		for _, match := range matches {
			if match.Status == models.MatchAutoMatched || match.Status == models.MatchManualReview {
				pending++
			}
			data = append(data, toMatchResponse(match))
		}

		render.JSON(w, response{Data: data, Total: len(data), Pending: pending})
	})
}

func handleVerifyMatch(verificationService verificationService, l logger.Logger) http.Handler {
	type request struct {
		MatchingResultID string `json:"matchingResultId" validate:"required"`
		Action           string `json:"action" validate:"required,oneof=approve reject"`
		VerifiedBy       string `json:"verifiedBy" validate:"required"`
		Notes            string `json:"notes"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		id, err := uuid.Parse(req.MatchingResultID)
		if err != nil {
			render.ValidationFields(w, map[string]string{"matchingResultId": "must be a valid uuid"})
			return
		}

		match, err := verificationService.Verify(r.Context(), id, req.Action, req.VerifiedBy, req.Notes)

		switch {
		case err == nil:
			render.JSON(w, toMatchResponse(match))
		case errors.Is(err, apperrors.ErrMatchNotFound):
			render.ServiceError(w, "Matching result not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrMatchAlreadyResolved):
			render.ServiceError(w, "Matching result already resolved", http.StatusConflict)
		case errors.Is(err, apperrors.ErrMatchAlreadySettled):
			render.ServiceError(w, "Matching result already settled", http.StatusConflict)
		case errors.Is(err, apperrors.ErrStatusConflict):
			render.ServiceError(w, "Record changed concurrently, retry", http.StatusConflict)
		default:
			l.Error("Verification failed", "matching_result_id", id, "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
