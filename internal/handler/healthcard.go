package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"medicart/internal/model"
	"medicart/internal/mw"
	"medicart/internal/service"
)

type healthCardService interface {
	CreateOrUpdate(ctx context.Context, card *model.HealthCard) (*model.HealthCard, error)
	Get(ctx context.Context, userID string) (*model.HealthCard, error)
}

type healthCardRequest struct {
	Name              string                 `json:"name"`
	IDCard            string                 `json:"idCard"`
	Phone             string                 `json:"phone"`
	Email             string                 `json:"email"`
	DateOfBirth       string                 `json:"dateOfBirth"`
	Gender            string                 `json:"gender"`
	Address           string                 `json:"address"`
	BloodGroup        string                 `json:"bloodGroup"`
	OrganizationName  string                 `json:"organizationName"`
	EmployeeID        string                 `json:"employeeId"`
	EmergencyContact  model.EmergencyContact `json:"emergencyContact"`
	MedicalConditions string                 `json:"medicalConditions"`
	Allergies         string                 `json:"allergies"`
}

func CreateHealthCardHandler(cards healthCardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := r.Context().Value(mw.UserCtxKey).(string)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req healthCardRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		required := []string{req.Name, req.IDCard, req.Phone, req.DateOfBirth, req.Gender, req.Address}
		for _, v := range required {
			if strings.TrimSpace(v) == "" {
				writeError(w, http.StatusBadRequest,
					"Name, CNIC/B-Form, Phone, Date of Birth, Gender, and Address are required")
				return
			}
		}

		card := &model.HealthCard{
			UserID:            userID,
			Name:              req.Name,
			IDCard:            req.IDCard,
			Phone:             req.Phone,
			Email:             req.Email,
			DateOfBirth:       req.DateOfBirth,
			Gender:            req.Gender,
			Address:           req.Address,
			BloodGroup:        req.BloodGroup,
			OrganizationName:  req.OrganizationName,
			EmployeeID:        req.EmployeeID,
			EmergencyContact:  req.EmergencyContact,
			MedicalConditions: req.MedicalConditions,
			Allergies:         req.Allergies,
		}

		saved, err := cards.CreateOrUpdate(r.Context(), card)
		if err != nil {
			slog.Error("health card save failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to save health card")
			return
		}

		writeJSON(w, http.StatusOK, saved)
	}
}

func GetHealthCardHandler(cards healthCardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := r.Context().Value(mw.UserCtxKey).(string)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		card, err := cards.Get(r.Context(), userID)
		if err != nil {
			if errors.Is(err, service.ErrHealthCardNotFound) {
				writeError(w, http.StatusNotFound, "Health card not found")
				return
			}
			slog.Error("health card fetch failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to fetch health card")
			return
		}

		writeJSON(w, http.StatusOK, card)
	}
}
